package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobhunt/internal/model"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Config 定义抓取配置，端点为空的来源不启用。
type Config struct {
	LinkedInEndpoint  string  `yaml:"linkedin_endpoint" json:"linkedin_endpoint"`
	LevelsEndpoint    string  `yaml:"levels_endpoint" json:"levels_endpoint"`
	BuiltInEndpoint   string  `yaml:"builtin_endpoint" json:"builtin_endpoint"`
	MaxPages          int     `yaml:"max_pages" json:"max_pages"`
	Retries           int     `yaml:"retries" json:"retries"`
	Backoff           string  `yaml:"backoff" json:"backoff"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" json:"user_agent"`
}

// Scraper 是抓取来源的统一接口。FetchJobs 不返回错误：内部失败会被记录，
// 并返回失败前已收集的部分结果（可能为空）。
type Scraper interface {
	Name() model.Source
	FetchJobs(ctx context.Context) []model.RawJob
}

// New 根据配置创建已启用的抓取器。
func New(cfg Config, client *http.Client, logger *log.Logger) []Scraper {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	g := newGetter(cfg, client)
	var scrapers []Scraper
	if cfg.LinkedInEndpoint != "" {
		scrapers = append(scrapers, NewLinkedInScraper(cfg.LinkedInEndpoint, g, logger))
	}
	if cfg.LevelsEndpoint != "" {
		scrapers = append(scrapers, NewLevelsScraper(cfg.LevelsEndpoint, cfg.MaxPages, g, logger))
	}
	if cfg.BuiltInEndpoint != "" {
		scrapers = append(scrapers, NewBuiltInScraper(cfg.BuiltInEndpoint, cfg.MaxPages, g, logger))
	}
	return scrapers
}

// getter 执行带限速与指数退避重试的 GET 请求。
type getter struct {
	client    *http.Client
	limiter   *rate.Limiter
	retries   int
	backoff   time.Duration
	userAgent string
}

func newGetter(cfg Config, client *http.Client) *getter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	backoff := time.Second
	if cfg.Backoff != "" {
		if d, err := time.ParseDuration(cfg.Backoff); err == nil && d >= 0 {
			backoff = d
		}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &getter{client: client, limiter: rate.NewLimiter(limit, 1), retries: retries, backoff: backoff, userAgent: ua}
}

type statusError struct {
	code int
}

func (e statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

func (e statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (g *getter) get(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			wait := g.backoff << (attempt - 1)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		body, err := g.once(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		var se statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("get %s: %w", target, lastErr)
}

func (g *getter) once(ctx context.Context, target string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// withQuery 在 raw 上设置查询参数。
func withQuery(raw string, values map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, v := range values {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func baseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
