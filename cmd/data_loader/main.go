package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"StudyMate/internal/config"
	milvusdb "StudyMate/internal/database/milvus"
	"StudyMate/internal/embedding"
	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/loaders"
	"StudyMate/internal/rag/schema"
	"StudyMate/internal/rag/splitters"
	"StudyMate/internal/rag/vectorstore"
	ragservice "StudyMate/internal/rag_service/service"
	"StudyMate/pkg/logger"
)

// data_loader 把爬虫产出的 JSON 数据切块、嵌入并写入向量存储。
// 用法:
//
//	data_loader -config config/config.yaml -scholarships data/scholarships.json -countries data/countries.json -clear

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	scholarshipsPath := flag.String("scholarships", "", "奖学金数据 JSON 文件")
	countriesPath := flag.String("countries", "", "国家数据 JSON 文件")
	clear := flag.Bool("clear", false, "写入前清空目标集合")
	flag.Parse()

	if *scholarshipsPath == "" && *countriesPath == "" {
		log.Fatal("至少需要指定 -scholarships 或 -countries 之一")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("DataLoader", "", "")

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}
	store, err := newEmbeddingStore(cfg, embedder, appLogger)
	if err != nil {
		log.Fatalf("Failed to create embedding store: %v", err)
	}

	processor := loaders.NewRecordProcessor(
		splitters.NewCharacterSplitter(splitters.DefaultChunkSize, splitters.DefaultChunkOverlap))

	ctx := context.Background()
	batches := make(map[string][]*schema.Document)

	if *scholarshipsPath != "" {
		for _, record := range readRecords(*scholarshipsPath) {
			batches[ragservice.CollectionScholarships] = append(
				batches[ragservice.CollectionScholarships], processor.ProcessScholarshipData(record)...)
		}
	}
	if *countriesPath != "" {
		for _, record := range readRecords(*countriesPath) {
			for _, doc := range processor.ProcessCountryData(record) {
				batches[collectionFor(doc)] = append(batches[collectionFor(doc)], doc)
			}
		}
	}

	for collection, docs := range batches {
		if *clear {
			if err := store.Clear(ctx, collection); err != nil {
				log.Fatalf("Failed to clear collection %s: %v", collection, err)
			}
		}
		if err := store.Store(ctx, collection, docs); err != nil {
			log.Fatalf("Failed to store documents in %s: %v", collection, err)
		}
		stats, err := store.Stats(ctx, collection)
		if err != nil {
			log.Fatalf("Failed to read stats of %s: %v", collection, err)
		}
		fmt.Printf("%s: %d documents\n", stats.CollectionName, stats.DocumentCount)
	}

	appLogger.Info("data loading finished")
}

// collectionFor 按文档类型把国家数据分流到对应集合。
func collectionFor(doc *schema.Document) string {
	switch doc.Metadata[schema.MetadataKeyType] {
	case "city_info":
		return ragservice.CollectionCities
	case "university_info":
		return ragservice.CollectionUniversities
	default:
		return ragservice.CollectionCountryInfo
	}
}

// readRecords 读取一个 JSON 文件，顶层既可以是记录数组也可以是单条记录。
func readRecords(path string) []map[string]interface{} {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}

	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single map[string]interface{}
	if err := json.Unmarshal(raw, &single); err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}
	return []map[string]interface{}{single}
}

func newEmbedder(cfg config.EmbeddingConfig) (embedding.Embedding, error) {
	var modelName, apiKey string
	switch cfg.Provider {
	case "gemini":
		modelName, apiKey = cfg.Gemini.Model, cfg.Gemini.APIKey
	case "openai":
		modelName, apiKey = cfg.OpenAI.Model, cfg.OpenAI.APIKey
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	inner, err := embedding.NewEmdModel(cfg.Provider, modelName, apiKey)
	if err != nil {
		return nil, err
	}
	// 离线入库以批量为主，缓存主要为重复的小节标题省请求。
	return embedding.NewCachedModel(inner, 256, time.Hour)
}

func newEmbeddingStore(cfg *config.AppConfig, embedder embedding.Embedding, appLogger *logger.Logger) (interfaces.EmbeddingStore, error) {
	switch cfg.VectorStore.Backend {
	case "milvus":
		milvusClient, err := milvusdb.GetClient(context.Background(), &cfg.Databases.Milvus)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewMilvusStore(milvusClient, embedder, cfg.VectorStore.Dimension, appLogger)
	default:
		return vectorstore.NewLocalStore(cfg.VectorStore.Path, embedder, appLogger)
	}
}
