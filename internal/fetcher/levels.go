package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"jobhunt/internal/model"

	"github.com/phuslu/log"
	"golang.org/x/net/html"
	"gorm.io/datatypes"
)

const (
	levelsPageSize  = 5
	levelsMaxOffset = 100
)

// LevelsScraper 解析 levels.fyi 职位列表页中的 __NEXT_DATA__。
type LevelsScraper struct {
	endpoint string
	maxPages int
	http     *getter
	logger   *log.Logger
}

// NewLevelsScraper 创建 levels 抓取器，maxPages 小于等于 0 时抓取到 offset 100 为止。
func NewLevelsScraper(endpoint string, maxPages int, g *getter, logger *log.Logger) *LevelsScraper {
	if maxPages <= 0 {
		maxPages = levelsMaxOffset / levelsPageSize
	}
	return &LevelsScraper{endpoint: endpoint, maxPages: maxPages, http: g, logger: logger}
}

func (s *LevelsScraper) Name() model.Source { return model.SourceLevels }

// FetchJobs 按 offset 翻页，遇到空页或错误即停止并返回已收集的结果。
func (s *LevelsScraper) FetchJobs(ctx context.Context) []model.RawJob {
	var jobs []model.RawJob
	seen := make(map[string]struct{})

	for page := 0; page < s.maxPages; page++ {
		offset := page * levelsPageSize
		pageURL, err := withQuery(s.endpoint, map[string]string{"offset": strconv.Itoa(offset)})
		if err != nil {
			s.logger.Error().Str("source", string(s.Name())).Err(err).Msg("build page url failed")
			break
		}
		body, err := s.http.get(ctx, pageURL)
		if err != nil {
			s.logger.Error().Str("source", string(s.Name())).Int("offset", offset).Err(err).Msg("fetch page failed")
			break
		}
		pageJobs, err := parseLevelsPage(string(body))
		if err != nil {
			s.logger.Error().Str("source", string(s.Name())).Int("offset", offset).Err(err).Msg("parse page failed")
			break
		}
		if len(pageJobs) == 0 {
			break
		}
		for _, job := range pageJobs {
			if _, ok := seen[job.JobID]; ok {
				continue
			}
			seen[job.JobID] = struct{}{}
			jobs = append(jobs, job)
		}
	}
	s.logger.Info().Str("source", string(s.Name())).Int("jobs", len(jobs)).Msg("fetch done")
	return jobs
}

type levelsNextData struct {
	Props struct {
		PageProps struct {
			InitialJobsData struct {
				Results []levelsCompany `json:"results"`
			} `json:"initialJobsData"`
		} `json:"pageProps"`
	} `json:"props"`
}

type levelsCompany struct {
	CompanyName string      `json:"companyName"`
	Jobs        []levelsJob `json:"jobs"`
}

type levelsJob struct {
	ID                 any      `json:"id"`
	Title              string   `json:"title"`
	Locations          []string `json:"locations"`
	WorkArrangement    string   `json:"workArrangement"`
	MinBaseSalary      float64  `json:"minBaseSalary"`
	MaxBaseSalary      float64  `json:"maxBaseSalary"`
	BaseSalaryCurrency string   `json:"baseSalaryCurrency"`
	ApplicationURL     string   `json:"applicationUrl"`
	Description        string   `json:"description"`
	PostingDate        string   `json:"postingDate"`
}

func parseLevelsPage(htmlText string) ([]model.RawJob, error) {
	nextJSON, err := extractNextData(htmlText)
	if err != nil {
		return nil, fmt.Errorf("extract __NEXT_DATA__: %w", err)
	}
	var nd levelsNextData
	if err := json.Unmarshal([]byte(nextJSON), &nd); err != nil {
		return nil, fmt.Errorf("unmarshal next data: %w", err)
	}

	var jobs []model.RawJob
	for _, company := range nd.Props.PageProps.InitialJobsData.Results {
		for _, j := range company.Jobs {
			id := normalizeID(j.ID)
			if id == "" {
				continue
			}
			header := []string{company.CompanyName}
			header = append(header, j.Locations...)
			if j.WorkArrangement != "" {
				header = append(header, j.WorkArrangement)
			}
			if j.PostingDate != "" {
				header = append(header, j.PostingDate)
			}
			jobs = append(jobs, model.RawJob{
				Name:  j.Title,
				JobID: id,
				URL:   "https://www.levels.fyi/jobs?jobId=" + id,
				Details: datatypes.JSONMap{
					"title":         j.Title,
					"headerDetails": strings.Join(nonEmpty(header), " · "),
					"applyUrl":      j.ApplicationURL,
					"compensation":  formatSalary(j.MinBaseSalary, j.MaxBaseSalary, j.BaseSalaryCurrency),
					"description":   j.Description,
				},
				Source: model.SourceLevels,
			})
		}
	}
	return jobs, nil
}

func formatSalary(minimum, maximum float64, currency string) string {
	if minimum <= 0 && maximum <= 0 {
		return ""
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	out := format(minimum)
	if maximum > minimum {
		out += "-" + format(maximum)
	}
	if currency != "" {
		out += " " + currency
	}
	return out + "/year"
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func extractNextData(htmlText string) (string, error) {
	node, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var scriptText string
	var search func(*html.Node)
	search = func(n *html.Node) {
		if scriptText != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "id" && attr.Val == "__NEXT_DATA__" {
					if n.FirstChild != nil {
						scriptText = n.FirstChild.Data
					}
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			search(c)
		}
	}
	search(node)

	if scriptText == "" {
		return "", fmt.Errorf("__NEXT_DATA__ not found")
	}
	return scriptText, nil
}

func normalizeID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
