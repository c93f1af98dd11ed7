// Package llm 封装对外部大模型 chat-completion 接口的调用
// 使用 OpenAI 兼容协议，base URL 可配置
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"codespark-server/internal/config"
)

// ErrNotConfigured 没有配置 API Key
var ErrNotConfigured = errors.New("AI service not configured (missing API Key)")

// CompletionRequest 一次补全请求
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
}

// Completion 模型返回结果
type Completion struct {
	Text       string
	TokensUsed int
}

// Gateway 大模型网关
// 不重试，超时只由调用方的 ctx 控制
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// OpenAIGateway 基于 go-openai 的实现
type OpenAIGateway struct {
	client *openai.Client // 未配置 Key 时为 nil
}

// NewOpenAIGateway 创建 OpenAIGateway
// 参数:
//   - cfg: AI 配置，BaseURL 为空时使用官方地址
//
// 返回:
//   - *OpenAIGateway: 网关实例
func NewOpenAIGateway(cfg config.AIConfig) *OpenAIGateway {
	if cfg.APIKey == "" {
		return &OpenAIGateway{}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGateway{client: openai.NewClientWithConfig(clientCfg)}
}

// Complete 发送 system + user 两条消息并返回第一条回复
func (g *OpenAIGateway) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPrompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model %s returned no choices", req.Model)
	}

	return &Completion{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
