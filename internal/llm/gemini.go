package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini 创建一个新的 Gemini 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	model: 要使用的 Gemini 模型名称。
//	apiKey: Gemini API 密钥。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Gemini{
		client:    client,
		modelName: model,
	}, nil
}

// Complete 向 Gemini API 发送一次 system + user 请求并返回生成的文本。
// 每次调用使用独立的模型实例，以便为本次请求设置系统指令。
func (g *Gemini) Complete(ctx context.Context, userMessage, systemPrompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userMessage))
	if err != nil {
		return "", err
	}

	return textFromResponse(resp)
}

// textFromResponse 将 GenAI 响应中的文本部分拼接为一个字符串。
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned an empty response")
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return out, nil
}

// compile-time check to ensure Gemini implements the LLM interface
var _ LLM = (*Gemini)(nil)
