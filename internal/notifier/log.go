package notifier

import (
	"context"

	"jobhunt/internal/model"

	"github.com/phuslu/log"
)

// LogNotifier 仅打印已上传职位，适合开发阶段使用。
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时使用默认 logger。
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &LogNotifier{logger: logger}
}

// Notify 逐条打印职位信息。
func (n LogNotifier) Notify(ctx context.Context, jobs []model.UploadableJob) error {
	for _, job := range jobs {
		n.logger.Info().Str("job_id", job.JobID).Str("title", job.Name).Str("company", job.Company).
			Int("score", job.RelevanceScore).Str("recommendation", string(job.Recommendation)).
			Str("url", job.URL).Msg("job uploaded")
	}
	return nil
}
