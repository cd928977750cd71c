package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"jobhunt/internal/model"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/phuslu/log"
	"gorm.io/datatypes"
)

const builtInMaxPages = 10

// BuiltInScraper 先翻页收集职位链接，再逐个解析详情页。
type BuiltInScraper struct {
	endpoint string
	maxPages int
	http     *getter
	logger   *log.Logger
}

// NewBuiltInScraper 创建 builtin 抓取器，maxPages 小于等于 0 时最多抓取 10 页列表。
func NewBuiltInScraper(endpoint string, maxPages int, g *getter, logger *log.Logger) *BuiltInScraper {
	if maxPages <= 0 {
		maxPages = builtInMaxPages
	}
	return &BuiltInScraper{endpoint: endpoint, maxPages: maxPages, http: g, logger: logger}
}

func (s *BuiltInScraper) Name() model.Source { return model.SourceBuiltIn }

type builtInLink struct {
	jobID string
	url   string
}

// FetchJobs 抓取列表与详情，单个详情页失败只跳过该职位。
func (s *BuiltInScraper) FetchJobs(ctx context.Context) []model.RawJob {
	links := s.listJobs(ctx)
	if len(links) == 0 {
		s.logger.Info().Str("source", string(s.Name())).Msg("no jobs found")
		return nil
	}

	jobs := make([]model.RawJob, 0, len(links))
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		body, err := s.http.get(ctx, link.url)
		if err != nil {
			s.logger.Warn().Str("source", string(s.Name())).Str("job_id", link.jobID).Err(err).Msg("fetch job page failed")
			continue
		}
		job, err := parseBuiltInJob(body, link)
		if err != nil {
			s.logger.Warn().Str("source", string(s.Name())).Str("job_id", link.jobID).Err(err).Msg("parse job page failed")
			continue
		}
		jobs = append(jobs, job)
	}
	s.logger.Info().Str("source", string(s.Name())).Int("jobs", len(jobs)).Msg("fetch done")
	return jobs
}

func (s *BuiltInScraper) listJobs(ctx context.Context) []builtInLink {
	base, err := baseURL(s.endpoint)
	if err != nil {
		s.logger.Error().Str("source", string(s.Name())).Err(err).Msg("invalid endpoint")
		return nil
	}

	var links []builtInLink
	seen := make(map[string]struct{})
	for page := 1; page <= s.maxPages; page++ {
		pageURL := s.endpoint
		if page > 1 {
			pageURL, err = withQuery(s.endpoint, map[string]string{"handler": "SearchResults", "page": strconv.Itoa(page)})
			if err != nil {
				break
			}
		}
		body, err := s.http.get(ctx, pageURL)
		if err != nil {
			s.logger.Warn().Str("source", string(s.Name())).Int("page", page).Err(err).Msg("fetch list page failed")
			continue
		}
		pageLinks, err := parseBuiltInList(body, base)
		if err != nil {
			s.logger.Warn().Str("source", string(s.Name())).Int("page", page).Err(err).Msg("parse list page failed")
			continue
		}
		if len(pageLinks) == 0 {
			break
		}
		for _, l := range pageLinks {
			if _, ok := seen[l.jobID]; ok {
				continue
			}
			seen[l.jobID] = struct{}{}
			links = append(links, l)
		}
	}
	return links
}

func parseBuiltInList(body []byte, base string) ([]builtInLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var links []builtInLink
	doc.Find("h2 a[data-builtin-track-job-id]").Each(func(_ int, a *goquery.Selection) {
		path, ok := a.Attr("href")
		if !ok {
			return
		}
		_, id, found := strings.Cut(path, "job/")
		if !found || id == "" {
			return
		}
		full := path
		if strings.HasPrefix(path, "/") {
			full = base + path
		}
		links = append(links, builtInLink{jobID: "builtin-" + id, url: full})
	})
	return links, nil
}

func parseBuiltInJob(body []byte, link builtInLink) (model.RawJob, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.RawJob{}, fmt.Errorf("parse html: %w", err)
	}

	header := doc.Find(`div[data-id="job-card"]`).First()
	title := clean(header.Find("h1").First().Text())
	if title == "" {
		return model.RawJob{}, fmt.Errorf("job title not found")
	}
	iconRow := func(icon string) string {
		return clean(header.Find("div.d-flex.align-items-start.gap-sm:has(i." + icon + ")").First().Text())
	}

	location := iconRow("fa-location-dot")
	if _, after, ok := strings.Cut(location, " in "); ok && after != "" {
		location = after
	}

	var skills []string
	doc.Find("div.py-xs.px-sm.d-inline-block.rounded-3.fs-sm.text-nowrap.border").Each(func(_ int, s *goquery.Selection) {
		if skill := clean(s.Text()); skill != "" {
			skills = append(skills, skill)
		}
	})

	details := datatypes.JSONMap{
		"title":           title,
		"company":         clean(header.Find(`h2[data-id="company-title"]`).First().Text()),
		"location":        location,
		"workArrengement": iconRow("fa-house-building"),
		"seniorityLevel":  iconRow("fa-trophy"),
		"datePublished":   clean(header.Find("div.d-flex.flex-column.flex-md-row.d-md-inline-flex:has(i.fa-clock)").First().Text()),
		"description":     describe(doc.Find(`div[id*="job-post-body-"]`).First()),
		"topSkills":       strings.Join(skills, ", "),
	}

	return model.RawJob{
		Name:    title,
		JobID:   link.jobID,
		URL:     link.url,
		Details: details,
		Source:  model.SourceBuiltIn,
	}, nil
}

// describe 将描述区块的 HTML 转为 Markdown，转换失败时退回纯文本。
func describe(sel *goquery.Selection) string {
	htmlText, err := sel.Html()
	if err != nil || strings.TrimSpace(htmlText) == "" {
		return strings.TrimSpace(sel.Text())
	}
	text, err := md.NewConverter("", true, nil).ConvertString(htmlText)
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	return strings.TrimSpace(text)
}
