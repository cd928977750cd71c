package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/phuslu/log"
)

// 提供方类型。
const (
	KindGemini = "gemini"
	KindClaude = "claude"
	KindLocal  = "local"
)

// ProviderConfig 描述提供方链中的一项。
type ProviderConfig struct {
	Kind      string `yaml:"kind" json:"kind"`
	Model     string `yaml:"model" json:"model"`
	RPM       int    `yaml:"rpm" json:"rpm"`
	MaxTokens int64  `yaml:"max_tokens" json:"max_tokens"`
}

// Config 定义 AI 网关配置。
type Config struct {
	GeminiAPIKey    string           `yaml:"gemini_api_key" json:"-"`
	AnthropicAPIKey string           `yaml:"anthropic_api_key" json:"-"`
	Local           LocalConfig      `yaml:"local" json:"local"`
	Providers       []ProviderConfig `yaml:"providers" json:"providers"`
}

// DefaultProviders 返回默认提供方链。
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Kind: KindGemini, Model: "gemini-2.5-pro", RPM: 5},
		{Kind: KindGemini, Model: "gemini-2.5-flash-lite", RPM: 15},
		{Kind: KindGemini, Model: "gemini-2.0-flash-lite", RPM: 30},
		{Kind: KindClaude, Model: "claude-sonnet-4-5"},
		{Kind: KindLocal},
	}
}

// BuildClients 按配置顺序构造提供方，缺少密钥的提供方跳过并记录日志。
func BuildClients(ctx context.Context, cfg Config, httpClient *http.Client, logger *log.Logger) ([]Client, error) {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = DefaultProviders()
	}

	clients := make([]Client, 0, len(providers))
	for _, p := range providers {
		var client Client
		switch p.Kind {
		case KindGemini:
			if cfg.GeminiAPIKey == "" {
				logger.Warn().Str("provider", p.Model).Msg("gemini api key missing, provider skipped")
				continue
			}
			g, err := NewGemini(ctx, cfg.GeminiAPIKey, p.Model)
			if err != nil {
				return nil, err
			}
			client = g
		case KindClaude:
			if cfg.AnthropicAPIKey == "" {
				logger.Warn().Str("provider", p.Model).Msg("anthropic api key missing, provider skipped")
				continue
			}
			c, err := NewClaude(cfg.AnthropicAPIKey, p.Model, p.MaxTokens)
			if err != nil {
				return nil, err
			}
			client = c
		case KindLocal:
			local := cfg.Local
			if p.Model != "" {
				local.Model = p.Model
			}
			client = NewLocalClient(local, httpClient)
		default:
			return nil, fmt.Errorf("unknown ai provider kind %q", p.Kind)
		}
		clients = append(clients, WithRateLimit(client, p.RPM))
	}
	if len(clients) == 0 {
		return nil, ErrNoProviders
	}
	return clients, nil
}
