package llm

import (
	"context"
	"fmt"

	"StudyMate/internal/config"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
// 助手的所有生成请求都是单轮的 system + user 消息对。
type LLM interface {
	Complete(ctx context.Context, userMessage, systemPrompt string) (string, error)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
// 当所选提供商没有配置 API 密钥时返回 (nil, nil)，由上层决定如何降级。
func NewClient(cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, nil
		}
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
