package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited 表示提供方当前没有可用配额，网关应转向下一个提供方。
var ErrRateLimited = errors.New("rate limited")

// limitedClient 为提供方加上每分钟请求数限制。
type limitedClient struct {
	Client
	limiter *rate.Limiter
}

// WithRateLimit 包装 client，rpm 小于等于 0 时原样返回。
func WithRateLimit(client Client, rpm int) Client {
	if rpm <= 0 {
		return client
	}
	return &limitedClient{
		Client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

// GenerateContent 配额耗尽时立即失败，不排队等待。
func (l *limitedClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !l.limiter.Allow() {
		return "", fmt.Errorf("rate limit %s: %w", l.Name(), ErrRateLimited)
	}
	return l.Client.GenerateContent(ctx, prompt)
}
