package notifier

import (
	"context"
	"errors"

	"jobhunt/internal/model"
)

// Notifier 在职位上传到表格后发出通知。
type Notifier interface {
	Notify(ctx context.Context, jobs []model.UploadableJob) error
}

// Multi 依次调用多个通知器，汇总全部错误。
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, jobs []model.UploadableJob) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, jobs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
