package clean

import (
	"context"
	"fmt"

	"jobhunt/internal/ai"
	"jobhunt/internal/model"
	"jobhunt/internal/storage"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// BatchSize 是每次运行最多处理的原始职位数。
const BatchSize = 15

// Store 抽象清洗阶段所需的存储操作。
type Store interface {
	PendingRawJobs(ctx context.Context, limit int) ([]model.RawJob, error)
	PromoteRawJobs(ctx context.Context, cleaned []model.CleanJob, failed []string) (storage.Promotion, error)
}

// Result 是单条原始职位的清洗结果。
type Result struct {
	JobID  string
	OK     bool
	Job    model.CleanJob
	Reason string
}

// Cleaner 将同一来源的一批原始职位转换为清洗结果，每条输入对应一条结果。
type Cleaner interface {
	Clean(ctx context.Context, jobs []model.RawJob) []Result
}

// Summary 汇总一次运行。
type Summary struct {
	RunID    string `json:"run_id"`
	Selected int    `json:"selected"`
	Promoted int    `json:"promoted"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Ignored  int    `json:"ignored"`
}

// Stage 实现 Raw -> Clean 的状态迁移。
type Stage struct {
	store    Store
	cleaners map[model.Source]Cleaner
	logger   *log.Logger
}

// New 创建清洗阶段并注册全部内置来源。
func New(store Store, gen ai.Generator, logger *log.Logger) *Stage {
	return NewWithCleaners(store, Registry(gen), logger)
}

// NewWithCleaners 使用自定义来源注册表创建清洗阶段。
func NewWithCleaners(store Store, cleaners map[model.Source]Cleaner, logger *log.Logger) *Stage {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Stage{store: store, cleaners: cleaners, logger: logger}
}

// Run 读取一批待清洗职位，按来源分派，最后在单个事务中提交结果。
func (s *Stage) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}

	jobs, err := s.store.PendingRawJobs(ctx, BatchSize)
	if err != nil {
		return sum, fmt.Errorf("load raw jobs: %w", err)
	}
	sum.Selected = len(jobs)
	if len(jobs) == 0 {
		s.logger.Info().Str("stage", "clean").Str("run_id", sum.RunID).Msg("no raw jobs to clean")
		return sum, nil
	}

	results := s.dispatch(ctx, sum.RunID, jobs)

	var cleaned []model.CleanJob
	var failed []string
	for _, res := range results {
		if res.OK {
			cleaned = append(cleaned, res.Job)
			continue
		}
		failed = append(failed, res.JobID)
		s.logger.Warn().Str("stage", "clean").Str("run_id", sum.RunID).Str("job_id", res.JobID).Str("reason", res.Reason).Msg("clean failed")
	}
	sum.Ignored = len(jobs) - len(results)

	if len(cleaned) == 0 && len(failed) == 0 {
		return sum, nil
	}
	promo, err := s.store.PromoteRawJobs(ctx, cleaned, failed)
	if err != nil {
		return sum, fmt.Errorf("commit clean results: %w", err)
	}
	sum.Promoted = promo.Inserted
	sum.Skipped = promo.Skipped
	sum.Failed = len(failed)

	s.logger.Info().Str("stage", "clean").Str("run_id", sum.RunID).
		Int("selected", sum.Selected).Int("promoted", sum.Promoted).Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).Int("ignored", sum.Ignored).Msg("clean done")
	return sum, nil
}

// dispatch 按来源分组并发调用清洗器；未知来源记录日志且不产生结果。
func (s *Stage) dispatch(ctx context.Context, runID string, jobs []model.RawJob) []Result {
	groups := make(map[model.Source][]model.RawJob)
	var order []model.Source
	for _, job := range jobs {
		if _, ok := groups[job.Source]; !ok {
			order = append(order, job.Source)
		}
		groups[job.Source] = append(groups[job.Source], job)
	}

	out := make([][]Result, len(order))
	var g errgroup.Group
	for i, source := range order {
		cleaner, ok := s.cleaners[source]
		if !ok {
			s.logger.Warn().Str("stage", "clean").Str("run_id", runID).Str("source", string(source)).Int("jobs", len(groups[source])).Msg("no cleaner for source")
			continue
		}
		batch := groups[source]
		g.Go(func() error {
			out[i] = cleaner.Clean(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	var results []Result
	for _, r := range out {
		results = append(results, r...)
	}
	return results
}
