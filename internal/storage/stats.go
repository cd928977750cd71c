package storage

import (
	"context"
	"fmt"

	"jobhunt/internal/model"
)

// QueueStats 描述单张队列表的积压情况，DeadLetter 为超过重试上限的记录数。
type QueueStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	DeadLetter int64 `json:"dead_letter"`
}

// Stats 汇总各阶段积压与上传情况。
type Stats struct {
	Raw      QueueStats `json:"raw"`
	Clean    QueueStats `json:"clean"`
	Enhanced QueueStats `json:"enhanced"`
	Prefills int64      `json:"prefills"`
	Uploaded int64      `json:"uploaded"`
}

// Stats 统计各表记录数量。
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	for table, dest := range map[string]*QueueStats{tableRaw: &out.Raw, tableClean: &out.Clean, tableEnhanced: &out.Enhanced} {
		q := fmt.Sprintf(`SELECT COUNT(*) AS total,
  COALESCE(SUM(CASE WHEN fail_count <= ? THEN 1 ELSE 0 END), 0) AS pending,
  COALESCE(SUM(CASE WHEN fail_count > ? THEN 1 ELSE 0 END), 0) AS dead_letter
FROM %s`, table)
		if err := s.Query(ctx, dest, q, model.MaxFailCount, model.MaxFailCount); err != nil {
			return Stats{}, fmt.Errorf("stats %s: %w", table, err)
		}
	}
	if err := s.Query(ctx, &out.Prefills, "SELECT COUNT(*) FROM prefills"); err != nil {
		return Stats{}, fmt.Errorf("stats prefills: %w", err)
	}
	if err := s.Query(ctx, &out.Uploaded, "SELECT COUNT(*) FROM enhanced_jobs WHERE uploaded_to_sheet = 1"); err != nil {
		return Stats{}, fmt.Errorf("stats uploaded: %w", err)
	}
	return out, nil
}
