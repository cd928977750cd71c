package load

import (
	"context"
	"fmt"

	"jobhunt/internal/gsheet"
	"jobhunt/internal/model"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

const (
	// BatchSize 是每次上传的最大行数。
	BatchSize = 100
)

// Store 抽象上传阶段所需的存储操作。
type Store interface {
	UploadableJobs(ctx context.Context, minScore, limit int) ([]model.UploadableJob, error)
	MarkUploaded(ctx context.Context, jobIDs []string) (int64, error)
}

// Sheet 是目标表格。
type Sheet interface {
	ExistingKeys(ctx context.Context) (map[string]struct{}, error)
	Upload(ctx context.Context, rows [][]string) error
}

// Notifier 在上传成功后接收职位。
type Notifier interface {
	Notify(ctx context.Context, jobs []model.UploadableJob) error
}

// Summary 汇总一次运行。
type Summary struct {
	RunID      string `json:"run_id"`
	Selected   int    `json:"selected"`
	Duplicates int    `json:"duplicates"`
	Uploaded   int    `json:"uploaded"`
	Marked     int64  `json:"marked"`
}

// Stage 把带求职信的高分职位上传到表格。
type Stage struct {
	store    Store
	sheet    Sheet
	notifier Notifier
	minScore int
	logger   *log.Logger
}

// New 创建上传阶段；notifier 可为 nil，minScore 原样使用。
func New(store Store, sheet Sheet, notifier Notifier, minScore int, logger *log.Logger) *Stage {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Stage{store: store, sheet: sheet, notifier: notifier, minScore: minScore, logger: logger}
}

// Run 读取待上传职位，按表格中已有的 Job ID 与 URL 去重后整批上传，成功后标记已上传。
func (s *Stage) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}

	jobs, err := s.store.UploadableJobs(ctx, s.minScore, BatchSize)
	if err != nil {
		return sum, fmt.Errorf("load uploadable jobs: %w", err)
	}
	sum.Selected = len(jobs)
	if len(jobs) == 0 {
		s.logger.Info().Str("stage", "load").Str("run_id", sum.RunID).Msg("no jobs with prefills to upload")
		return sum, nil
	}

	remote, err := s.sheet.ExistingKeys(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("stage", "load").Str("run_id", sum.RunID).Msg("read existing sheet rows failed, continuing without duplicate check")
		remote = map[string]struct{}{}
	}

	fresh := make([]model.UploadableJob, 0, len(jobs))
	for _, job := range jobs {
		if onSheet(remote, job) {
			sum.Duplicates++
			continue
		}
		fresh = append(fresh, job)
	}
	if len(fresh) == 0 {
		s.logger.Info().Str("stage", "load").Str("run_id", sum.RunID).Int("selected", sum.Selected).Msg("all jobs are already on the sheet")
		return sum, nil
	}

	rows := make([][]string, 0, len(fresh))
	ids := make([]string, 0, len(fresh))
	for _, job := range fresh {
		rows = append(rows, gsheet.RowFromJob(job))
		ids = append(ids, job.JobID)
	}
	if err := s.sheet.Upload(ctx, rows); err != nil {
		return sum, fmt.Errorf("upload %d rows: %w", len(rows), err)
	}
	sum.Uploaded = len(rows)

	if sum.Marked, err = s.store.MarkUploaded(ctx, ids); err != nil {
		return sum, fmt.Errorf("mark uploaded: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, fresh); err != nil {
			s.logger.Warn().Err(err).Str("stage", "load").Str("run_id", sum.RunID).Msg("notify failed")
		}
	}

	s.logger.Info().Str("stage", "load").Str("run_id", sum.RunID).
		Int("selected", sum.Selected).Int("duplicates", sum.Duplicates).Int("uploaded", sum.Uploaded).
		Int64("marked", sum.Marked).Msg("load done")
	return sum, nil
}

func onSheet(remote map[string]struct{}, job model.UploadableJob) bool {
	if _, ok := remote[job.JobID]; ok {
		return true
	}
	if job.URL == "" {
		return false
	}
	_, ok := remote[job.URL]
	return ok
}
