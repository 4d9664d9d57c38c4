package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StudyMate/internal/assistant_service/api"
	assistant "StudyMate/internal/assistant_service/service"
	"StudyMate/internal/assistant_service/store"
	"StudyMate/internal/config"
	milvusdb "StudyMate/internal/database/milvus"
	"StudyMate/internal/database/mysql"
	redisdb "StudyMate/internal/database/redis"
	"StudyMate/internal/embedding"
	"StudyMate/internal/llm"
	"StudyMate/internal/models"
	"StudyMate/internal/rag/generation"
	"StudyMate/internal/rag/interfaces"
	"StudyMate/internal/rag/prompts"
	"StudyMate/internal/rag/retriever"
	"StudyMate/internal/rag/vectorstore"
	ragservice "StudyMate/internal/rag_service/service"
	"StudyMate/pkg/circuitbreaker"
	"StudyMate/pkg/logger"
	"StudyMate/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

const (
	embeddingCacheSize = 512
	embeddingCacheTTL  = time.Hour
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. 初始化日志
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "", "")
	appLogger.Info("Starting assistant service...")

	// 3. Embedding 模型（带 LRU 查询缓存）
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}

	// 4. 向量存储后端
	embStore, err := newEmbeddingStore(cfg, embedder, appLogger)
	if err != nil {
		log.Fatalf("Failed to create embedding store: %v", err)
	}

	// 5. RAG 流水线
	scorer := &retriever.DistanceScorer{MaxDistance: cfg.Retrieval.MaxDistance}
	ret := retriever.New(embStore, scorer, appLogger)
	promptBuilder := prompts.NewBuilder(prompts.DefaultTemplates(), appLogger)

	model, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	if model == nil {
		appLogger.Warn("LLM API key is not configured, responses will be degraded")
	}
	generator := generation.NewClient(model, newBreaker(cfg.Middleware.CircuitBreaker), appLogger)

	ragSvc := ragservice.New(embStore, ret, promptBuilder, generator,
		cfg.Retrieval.Collections, cfg.Retrieval.ResultsPerCollection, appLogger)

	// 6. 聊天持久化
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ChatMessage{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis 不可用时只降级为无缓存，不阻止启动。
	cache, err := redisdb.GetClient(&cfg.Databases.Redis)
	if err != nil {
		appLogger.Warn(fmt.Sprintf("Redis unavailable, chat history cache disabled: %v", err))
		cache = nil
	}

	cacheTTL := parseDuration(cfg.Chat.CacheTTL, time.Hour)
	chatStore := store.NewChatStore(db, cache, cacheTTL, cfg.Chat.HistoryLimit*2, appLogger)
	userStore := store.NewUserStore(db)

	requestTimeout := parseDuration(cfg.Server.RequestTimeout, 30*time.Second)
	assistantSvc := assistant.New(ragSvc, chatStore, userStore, requestTimeout, cfg.Chat.HistoryLimit, appLogger)

	// 7. HTTP 服务
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(assistantSvc)
	router := api.SetupRouter(handler, newRateLimiter(cfg.Middleware.RateLimiter))

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 8. 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server shutdown failed: %v", err))
	}
	_ = mysql.Close()
	_ = redisdb.Close()
	appLogger.Info("Server gracefully stopped")
}

// newEmbedder 根据配置创建 Embedding 模型并包上查询缓存。
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
	return embedding.NewCachedModel(inner, embeddingCacheSize, embeddingCacheTTL)
}

// newEmbeddingStore 根据配置选择本地索引或 Milvus 后端。
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

func newBreaker(cfg config.CircuitBreakerConfig) circuitbreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	timeout := parseDuration(cfg.Timeout, 30*time.Second)
	return circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout)
}

func newRateLimiter(cfg config.RateLimiterConfig) ratelimiter.RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	switch cfg.Algorithm {
	case "fixedWindow":
		window := parseDuration(cfg.FixedWindow.Window, time.Minute)
		return ratelimiter.NewFixedWindowCounter(cfg.FixedWindow.Limit, window)
	default:
		return ratelimiter.NewTokenBucket(cfg.TokenBucket.Rate, cfg.TokenBucket.Capacity)
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
