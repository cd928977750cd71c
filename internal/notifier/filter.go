package notifier

import (
	"context"

	"jobhunt/internal/model"
)

// FilterConfig 限定需要推送的职位。
type FilterConfig struct {
	MinScore        int                    `yaml:"min_score"`
	Recommendations []model.Recommendation `yaml:"recommendations"`
}

// Filter 只把满足分数线与建议类型的职位转发给下游通知器。
type Filter struct {
	cfg  FilterConfig
	next Notifier
}

// NewFilter 创建过滤通知器；Recommendations 为空时不按建议过滤。
func NewFilter(cfg FilterConfig, next Notifier) *Filter {
	return &Filter{cfg: cfg, next: next}
}

func (f *Filter) Notify(ctx context.Context, jobs []model.UploadableJob) error {
	matched := make([]model.UploadableJob, 0, len(jobs))
	for _, job := range jobs {
		if f.match(job) {
			matched = append(matched, job)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return f.next.Notify(ctx, matched)
}

func (f *Filter) match(job model.UploadableJob) bool {
	if job.RelevanceScore < f.cfg.MinScore {
		return false
	}
	if len(f.cfg.Recommendations) == 0 {
		return true
	}
	for _, r := range f.cfg.Recommendations {
		if job.Recommendation == r {
			return true
		}
	}
	return false
}
