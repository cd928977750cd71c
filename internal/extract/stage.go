package extract

import (
	"context"
	"fmt"

	"jobhunt/internal/fetcher"
	"jobhunt/internal/model"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// Store 抽象抓取阶段所需的存储操作。
type Store interface {
	KnownJobIDs(ctx context.Context) (map[string]struct{}, error)
	InsertRawJobs(ctx context.Context, jobs []model.RawJob) (int, error)
}

// Summary 汇总一次运行。
type Summary struct {
	RunID      string         `json:"run_id"`
	Fetched    int            `json:"fetched"`
	Duplicates int            `json:"duplicates"`
	Inserted   int            `json:"inserted"`
	PerSource  map[string]int `json:"per_source"`
}

// Stage 并发执行全部抓取器，过滤已知职位后写入 raw_jobs。
type Stage struct {
	store    Store
	scrapers []fetcher.Scraper
	logger   *log.Logger
}

// New 创建抓取阶段。
func New(store Store, scrapers []fetcher.Scraper, logger *log.Logger) *Stage {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Stage{store: store, scrapers: scrapers, logger: logger}
}

// Run 抓取、去重并写入新职位。抓取器自行吞掉错误并返回部分结果。
func (s *Stage) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), PerSource: make(map[string]int)}

	batches := make([][]model.RawJob, len(s.scrapers))
	var g errgroup.Group
	for i, scraper := range s.scrapers {
		g.Go(func() error {
			batches[i] = scraper.FetchJobs(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var fetched []model.RawJob
	for i, batch := range batches {
		sum.PerSource[string(s.scrapers[i].Name())] = len(batch)
		fetched = append(fetched, batch...)
	}
	sum.Fetched = len(fetched)
	if len(fetched) == 0 {
		s.logger.Info().Str("stage", "extract").Str("run_id", sum.RunID).Msg("no jobs fetched")
		return sum, nil
	}

	known, err := s.store.KnownJobIDs(ctx)
	if err != nil {
		return sum, fmt.Errorf("load known job ids: %w", err)
	}
	fresh := make([]model.RawJob, 0, len(fetched))
	for _, job := range fetched {
		if job.JobID == "" {
			continue
		}
		if _, ok := known[job.JobID]; ok {
			sum.Duplicates++
			continue
		}
		known[job.JobID] = struct{}{}
		fresh = append(fresh, job)
	}
	if len(fresh) == 0 {
		s.logger.Info().Str("stage", "extract").Str("run_id", sum.RunID).Int("fetched", sum.Fetched).Msg("no new jobs to store")
		return sum, nil
	}

	n, err := s.store.InsertRawJobs(ctx, fresh)
	if err != nil {
		return sum, fmt.Errorf("store raw jobs: %w", err)
	}
	sum.Inserted = n

	s.logger.Info().Str("stage", "extract").Str("run_id", sum.RunID).
		Int("fetched", sum.Fetched).Int("duplicates", sum.Duplicates).Int("inserted", sum.Inserted).Msg("extract done")
	return sum, nil
}
