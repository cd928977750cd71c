package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
)

var (
	// ErrNoJSON 表示响应文本中找不到 JSON 对象。
	ErrNoJSON = errors.New("no json object found in response")
	// ErrAllProvidersFailed 表示所有提供方均未能生成有效内容。
	ErrAllProvidersFailed = errors.New("no AI client was able to generate content")
	// ErrNoProviders 表示网关未配置任何提供方。
	ErrNoProviders = errors.New("no AI clients configured")
)

// Client 抽象单个大模型提供方。
type Client interface {
	Name() string
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator 是各阶段依赖的生成能力，便于测试替换。
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request 描述一次生成请求，Key 用于日志关联（通常为 job_id）。
type Request struct {
	Key      string
	Prompt   string
	AsJSON   bool
	Validate func(json.RawMessage) error
}

// Response 是首个成功提供方的输出。
type Response struct {
	Provider string
	Text     string
	JSON     json.RawMessage
}

// attempt 是单个提供方调用的结果。
type attempt struct {
	resp Response
	err  error
}

// Gateway 按固定优先级依次尝试各提供方，首个成功即返回。
type Gateway struct {
	clients []Client
	logger  *log.Logger
}

// NewGateway 创建网关，clients 的顺序即优先级。
func NewGateway(logger *log.Logger, clients ...Client) *Gateway {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Gateway{clients: clients, logger: logger}
}

// Providers 返回提供方名称，按优先级排列。
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.clients))
	for _, c := range g.clients {
		names = append(names, c.Name())
	}
	return names
}

// Generate 依次调用提供方；生成、解析或校验失败都会记录并继续下一个。
func (g *Gateway) Generate(ctx context.Context, req Request) (Response, error) {
	if len(g.clients) == 0 {
		return Response{}, ErrNoProviders
	}

	var errs []error
	for _, client := range g.clients {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		res := g.try(ctx, client, req)
		if res.err == nil {
			return res.resp, nil
		}
		g.logger.Warn().Str("job_id", req.Key).Str("provider", client.Name()).Err(res.err).Msg("generate content failed")
		errs = append(errs, fmt.Errorf("%s: %w", client.Name(), res.err))
	}
	return Response{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func (g *Gateway) try(ctx context.Context, client Client, req Request) attempt {
	text, err := client.GenerateContent(ctx, req.Prompt)
	if err != nil {
		return attempt{err: fmt.Errorf("generate: %w", err)}
	}
	resp := Response{Provider: client.Name(), Text: text}
	if !req.AsJSON {
		return attempt{resp: resp}
	}
	raw, err := JSONContent(text)
	if err != nil {
		return attempt{err: err}
	}
	if req.Validate != nil {
		if err := req.Validate(raw); err != nil {
			return attempt{err: err}
		}
	}
	resp.JSON = raw
	return attempt{resp: resp}
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// JSONContent 提取文本中从第一个 "{" 到最后一个 "}" 的 JSON 对象。
func JSONContent(text string) (json.RawMessage, error) {
	match := jsonObject.FindString(text)
	if strings.TrimSpace(match) == "" {
		return nil, ErrNoJSON
	}
	if !json.Valid([]byte(match)) {
		return nil, fmt.Errorf("parse json content: invalid object")
	}
	return json.RawMessage(match), nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// GenerateJSON 生成 JSON 并解码为 T，解码或结构校验失败视为该提供方失败。
func GenerateJSON[T any](ctx context.Context, g Generator, key, prompt string) (T, error) {
	var out T
	_, err := g.Generate(ctx, Request{
		Key:    key,
		Prompt: prompt,
		AsJSON: true,
		Validate: func(raw json.RawMessage) error {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decode json: %w", err)
			}
			if err := validate.Struct(v); err != nil {
				return fmt.Errorf("validate json: %w", err)
			}
			out = v
			return nil
		},
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
