package prefill

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"jobhunt/internal/ai"
	"jobhunt/internal/model"
	"jobhunt/internal/prompt"
	"jobhunt/internal/resume"
	"jobhunt/internal/storage"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

const (
	// BatchSize 较小，求职信生成是最昂贵的 AI 调用。
	BatchSize = 5
	// DefaultMinRelevanceScore 是生成求职信的默认分数线。
	DefaultMinRelevanceScore = 70
)

// Store 抽象预填阶段所需的存储操作。
type Store interface {
	PendingPrefillJobs(ctx context.Context, minScore, limit int) ([]model.EnhancedJob, error)
	CommitPrefills(ctx context.Context, prefills []model.Prefill, failed []string) (storage.Promotion, error)
}

// Summary 汇总一次运行。
type Summary struct {
	RunID    string `json:"run_id"`
	Selected int    `json:"selected"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// Stage 为高分职位生成求职信。
type Stage struct {
	store    Store
	gen      ai.Generator
	resume   resume.Provider
	minScore int
	logger   *log.Logger
}

// New 创建预填阶段；minScore 原样使用，0 表示不设分数线。
func New(store Store, gen ai.Generator, cv resume.Provider, minScore int, logger *log.Logger) *Stage {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Stage{store: store, gen: gen, resume: cv, minScore: minScore, logger: logger}
}

type letter struct {
	CoverLetter string `json:"coverLetter" validate:"required"`
}

type outcome struct {
	jobID   string
	prefill *model.Prefill
	reason  string
}

// Run 生成一批求职信；失败记录在 enhanced_jobs 上累加 fail_count。
func (s *Stage) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}

	jobs, err := s.store.PendingPrefillJobs(ctx, s.minScore, BatchSize)
	if err != nil {
		return sum, fmt.Errorf("load prefill candidates: %w", err)
	}
	sum.Selected = len(jobs)
	if len(jobs) == 0 {
		s.logger.Info().Str("stage", "prefill").Str("run_id", sum.RunID).Msg("no enhanced jobs need prefills")
		return sum, nil
	}

	out := make([]outcome, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			out[i] = s.generate(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	var prefills []model.Prefill
	var failed []string
	for _, o := range out {
		if o.prefill != nil {
			prefills = append(prefills, *o.prefill)
			continue
		}
		failed = append(failed, o.jobID)
		s.logger.Warn().Str("stage", "prefill").Str("run_id", sum.RunID).Str("job_id", o.jobID).Str("reason", o.reason).Msg("prefill failed")
	}

	res, err := s.store.CommitPrefills(ctx, prefills, failed)
	if err != nil {
		return sum, fmt.Errorf("commit prefills: %w", err)
	}
	sum.Inserted = res.Inserted
	sum.Skipped = res.Skipped
	sum.Failed = len(failed)

	s.logger.Info().Str("stage", "prefill").Str("run_id", sum.RunID).
		Int("selected", sum.Selected).Int("inserted", sum.Inserted).Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).Msg("prefill done")
	return sum, nil
}

func (s *Stage) generate(ctx context.Context, job model.EnhancedJob) outcome {
	if !job.Describable() {
		return outcome{jobID: job.JobID, reason: "missing description, skills and experience"}
	}
	p := prompt.Render(coverLetterPrompt, map[string]string{
		"resumeData":                s.resume.Text(),
		"company":                   job.Company,
		"role":                      job.Role,
		"yearsOfExperienceRequired": job.YearsOfExperienceRequired,
		"hardSkillsRequired":        job.HardSkillsRequired,
		"jobDescription":            job.JobDescription,
		"relevanceScore":            strconv.Itoa(job.RelevanceScore),
		"relevanceReason":           job.RelevanceReason,
	})
	reply, err := ai.GenerateJSON[letter](ctx, s.gen, job.JobID, p)
	if err != nil {
		return outcome{jobID: job.JobID, reason: err.Error()}
	}
	return outcome{jobID: job.JobID, prefill: &model.Prefill{
		EnhancedJobID: job.JobID,
		CoverLetter:   strings.TrimSpace(reply.CoverLetter),
	}}
}
