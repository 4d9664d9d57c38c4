package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听与超时配置。
type ServerConfig struct {
	Address        string `yaml:"address"`        // 监听地址 (例如: ":8080")
	RequestTimeout string `yaml:"requestTimeout"` // 单个请求的超时时间 (例如: "30s")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// OpenAIConfig 包含了 OpenAI 模型的配置。
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"` // OpenAI API 密钥
	Model  string `yaml:"model"`  // OpenAI 模型名称
}

// LLMConfig 包含了不同 LLM 提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM 提供商 (例如: "gemini", "openai")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
}

// EmbeddingConfig 包含了不同 Embedding 提供商的配置。
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // Embedding 提供商 (例如: "gemini", "openai")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
}

// VectorStoreConfig 定义了向量存储后端的配置。
type VectorStoreConfig struct {
	Backend   string `yaml:"backend"`   // 后端类型: "local" 或 "milvus"
	Path      string `yaml:"path"`      // 本地索引目录 (backend 为 "local" 时使用)
	Dimension int    `yaml:"dimension"` // 向量维度 (backend 为 "milvus" 时建表使用)
}

// RetrievalConfig 定义了检索层的配置。
type RetrievalConfig struct {
	Collections          []string `yaml:"collections"`          // 聊天检索时查询的集合列表
	ResultsPerCollection int      `yaml:"resultsPerCollection"` // 每个集合返回的结果数
	MaxDistance          float64  `yaml:"maxDistance"`          // 置信度计算假设的距离上限
}

// ChatConfig 定义了会话历史窗口的配置。
type ChatConfig struct {
	HistoryLimit int    `yaml:"historyLimit"` // 提示词中携带的最近消息条数
	CacheTTL     string `yaml:"cacheTTL"`     // Redis 历史缓存的过期时间 (例如: "1h")
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MilvusConfig 定义了 Milvus 数据库的连接配置。
type MilvusConfig struct {
	Address string `yaml:"address"` // Milvus 服务地址
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`  // MySQL 数据库配置
	Redis  RedisConfig  `yaml:"redis"`  // Redis 数据库配置
	Milvus MilvusConfig `yaml:"milvus"` // Milvus 数据库配置
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "fixedWindow"
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App         AppInfo           `yaml:"app"`         // 应用程序信息
	Server      ServerConfig      `yaml:"server"`      // HTTP 服务配置
	LLM         LLMConfig         `yaml:"llm"`         // LLM 配置部分
	Embedding   EmbeddingConfig   `yaml:"embedding"`   // Embedding 配置部分
	VectorStore VectorStoreConfig `yaml:"vectorStore"` // 向量存储配置
	Retrieval   RetrievalConfig   `yaml:"retrieval"`   // 检索配置
	Chat        ChatConfig        `yaml:"chat"`        // 会话历史配置
	Logger      LoggerConfig      `yaml:"logger"`      // 日志记录器配置
	Databases   DatabaseConfigs   `yaml:"databases"`   // 数据库配置
	Middleware  MiddlewareConfig  `yaml:"middleware"`  // 中间件配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return &cfg, nil
}
