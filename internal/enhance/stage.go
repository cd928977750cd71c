package enhance

import (
	"context"
	"fmt"

	"jobhunt/internal/ai"
	"jobhunt/internal/model"
	"jobhunt/internal/resume"
	"jobhunt/internal/storage"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// BatchSize 是每次运行最多评分的职位数。
const BatchSize = 15

// Store 抽象评分阶段所需的存储操作。
type Store interface {
	PendingCleanJobs(ctx context.Context, limit int) ([]model.CleanJob, error)
	PromoteCleanJobs(ctx context.Context, enhanced []model.EnhancedJob, failed []string) (storage.Promotion, error)
}

// Result 是单条职位的评分结果。
type Result struct {
	JobID  string
	OK     bool
	Job    model.EnhancedJob
	Reason string
}

// Enhancer 对同一来源的一批职位做简历匹配评分。
type Enhancer interface {
	Enhance(ctx context.Context, jobs []model.CleanJob) []Result
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

// Stage 实现 Clean -> Enhanced 的状态迁移。
type Stage struct {
	store     Store
	enhancers map[model.Source]Enhancer
	logger    *log.Logger
}

// New 创建评分阶段并注册全部内置来源。
func New(store Store, gen ai.Generator, cv resume.Provider, logger *log.Logger) *Stage {
	return NewWithEnhancers(store, Registry(gen, cv), logger)
}

// NewWithEnhancers 使用自定义来源注册表创建评分阶段。
func NewWithEnhancers(store Store, enhancers map[model.Source]Enhancer, logger *log.Logger) *Stage {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Stage{store: store, enhancers: enhancers, logger: logger}
}

// Run 读取一批清洗后职位并评分，成功者晋级 enhanced_jobs，失败者累加 fail_count。
func (s *Stage) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}

	jobs, err := s.store.PendingCleanJobs(ctx, BatchSize)
	if err != nil {
		return sum, fmt.Errorf("load clean jobs: %w", err)
	}
	sum.Selected = len(jobs)
	if len(jobs) == 0 {
		s.logger.Info().Str("stage", "enhance").Str("run_id", sum.RunID).Msg("no clean jobs to enhance")
		return sum, nil
	}

	groups := make(map[model.Source][]model.CleanJob)
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
		enhancer, ok := s.enhancers[source]
		if !ok {
			s.logger.Warn().Str("stage", "enhance").Str("run_id", sum.RunID).Str("source", string(source)).Int("jobs", len(groups[source])).Msg("no enhancer for source")
			continue
		}
		batch := groups[source]
		g.Go(func() error {
			out[i] = enhancer.Enhance(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	var enhanced []model.EnhancedJob
	var failed []string
	handled := 0
	for _, group := range out {
		for _, res := range group {
			handled++
			if res.OK {
				enhanced = append(enhanced, res.Job)
				continue
			}
			failed = append(failed, res.JobID)
			s.logger.Warn().Str("stage", "enhance").Str("run_id", sum.RunID).Str("job_id", res.JobID).Str("reason", res.Reason).Msg("enhance failed")
		}
	}
	sum.Ignored = len(jobs) - handled

	if handled == 0 {
		return sum, nil
	}
	promo, err := s.store.PromoteCleanJobs(ctx, enhanced, failed)
	if err != nil {
		return sum, fmt.Errorf("commit enhance results: %w", err)
	}
	sum.Promoted = promo.Inserted
	sum.Skipped = promo.Skipped
	sum.Failed = len(failed)

	s.logger.Info().Str("stage", "enhance").Str("run_id", sum.RunID).
		Int("selected", sum.Selected).Int("promoted", sum.Promoted).Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).Int("ignored", sum.Ignored).Msg("enhance done")
	return sum, nil
}
