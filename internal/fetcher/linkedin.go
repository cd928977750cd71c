package fetcher

import (
	"context"
	"encoding/json"
	"strings"

	"jobhunt/internal/model"

	"github.com/phuslu/log"
	"gorm.io/datatypes"
)

// LinkedInScraper 读取 LinkedIn 职位的 JSON Feed（RSS 转换服务输出）。
type LinkedInScraper struct {
	endpoint string
	http     *getter
	logger   *log.Logger
}

// NewLinkedInScraper 创建 LinkedIn 抓取器。
func NewLinkedInScraper(endpoint string, g *getter, logger *log.Logger) *LinkedInScraper {
	return &LinkedInScraper{endpoint: endpoint, http: g, logger: logger}
}

func (s *LinkedInScraper) Name() model.Source { return model.SourceLinkedIn }

// FetchJobs 拉取 feed，每个 item 原样保存在 details 中。
func (s *LinkedInScraper) FetchJobs(ctx context.Context) []model.RawJob {
	body, err := s.http.get(ctx, s.endpoint)
	if err != nil {
		s.logger.Error().Str("source", string(s.Name())).Err(err).Msg("fetch feed failed")
		return nil
	}

	var feed struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &feed); err != nil {
		s.logger.Error().Str("source", string(s.Name())).Err(err).Msg("decode feed failed")
		return nil
	}

	jobs := make([]model.RawJob, 0, len(feed.Items))
	for _, raw := range feed.Items {
		var item struct {
			ID    string `json:"id"`
			URL   string `json:"url"`
			Title string `json:"title"`
		}
		var details map[string]any
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if err := json.Unmarshal(raw, &details); err != nil {
			continue
		}
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		jobs = append(jobs, model.RawJob{
			Name:    item.Title,
			JobID:   item.ID,
			URL:     item.URL,
			Details: datatypes.JSONMap(details),
			Source:  model.SourceLinkedIn,
		})
	}
	s.logger.Info().Str("source", string(s.Name())).Int("jobs", len(jobs)).Msg("fetch done")
	return jobs
}
