package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Claude 通过 Anthropic Messages API 生成内容。
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude 创建 Claude 客户端，maxTokens 小于等于 0 时取 4096。
func NewClaude(apiKey, model string, maxTokens int64) (*Claude, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic api key missing")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Claude{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *Claude) Name() string { return c.model }

func (c *Claude) GenerateContent(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude %s: %w", c.model, err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("claude %s response empty", c.model)
	}
	return text, nil
}
