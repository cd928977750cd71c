package storage

import (
	"context"
	"fmt"

	"jobhunt/internal/convert"
	"jobhunt/internal/model"
)

const (
	tableRaw      = "raw_jobs"
	tableClean    = "clean_jobs"
	tableEnhanced = "enhanced_jobs"
	tablePrefills = "prefills"
)

// Promotion 描述一次阶段提交的结果。
type Promotion struct {
	Inserted int
	Skipped  int
	Removed  int64
	Failed   int64
}

// KnownJobIDs 返回 raw、clean、enhanced 三张表中全部 job_id。
func (s *Store) KnownJobIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	q := "SELECT job_id FROM raw_jobs UNION SELECT job_id FROM clean_jobs UNION SELECT job_id FROM enhanced_jobs"
	if err := s.Query(ctx, &ids, q); err != nil {
		return nil, fmt.Errorf("query known job ids: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// InsertRawJobs 在单个事务中写入新抓取的原始职位。
func (s *Store) InsertRawJobs(ctx context.Context, jobs []model.RawJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	ts := s.timestamp()
	rows := make([]model.RawJobRow, 0, len(jobs))
	for _, job := range jobs {
		row := convert.RawJobToRow(job)
		resetColumns(&row.JobColumns, ts)
		rows = append(rows, row)
	}
	err := s.WithTransaction(ctx, func(tx *Store) error {
		return tx.Insert(ctx, tableRaw, &rows)
	})
	if err != nil {
		return 0, fmt.Errorf("insert raw jobs: %w", err)
	}
	return len(rows), nil
}

// PendingRawJobs 返回未超过重试上限的原始职位，按创建时间升序。
func (s *Store) PendingRawJobs(ctx context.Context, limit int) ([]model.RawJob, error) {
	var rows []model.RawJobRow
	if err := s.pending(ctx, &rows, limit); err != nil {
		return nil, fmt.Errorf("list pending raw jobs: %w", err)
	}
	jobs := make([]model.RawJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, convert.RawJobFromRow(row))
	}
	return jobs, nil
}

// PendingCleanJobs 返回未超过重试上限的清洗后职位，按创建时间升序。
func (s *Store) PendingCleanJobs(ctx context.Context, limit int) ([]model.CleanJob, error) {
	var rows []model.CleanJobRow
	if err := s.pending(ctx, &rows, limit); err != nil {
		return nil, fmt.Errorf("list pending clean jobs: %w", err)
	}
	jobs := make([]model.CleanJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, convert.CleanJobFromRow(row))
	}
	return jobs, nil
}

func (s *Store) pending(ctx context.Context, dest any, limit int) error {
	return s.db.WithContext(ctx).
		Where("fail_count <= ?", model.MaxFailCount).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(dest).Error
}

// PromoteRawJobs 提交清洗结果：失败记录 fail_count 加一，成功记录写入 clean_jobs
// （已存在则跳过），并删除全部成功记录对应的 raw_jobs 行。
func (s *Store) PromoteRawJobs(ctx context.Context, cleaned []model.CleanJob, failed []string) (Promotion, error) {
	var res Promotion
	err := s.WithTransaction(ctx, func(tx *Store) error {
		ts := tx.timestamp()
		var err error
		if res.Failed, err = tx.incrementFailures(ctx, tableRaw, failed, ts); err != nil {
			return err
		}

		ids := make([]string, 0, len(cleaned))
		for _, job := range cleaned {
			ids = append(ids, job.JobID)
		}
		existing, err := tx.existingKeys(ctx, tableClean, "job_id", ids)
		if err != nil {
			return err
		}

		rows := make([]model.CleanJobRow, 0, len(cleaned))
		for _, job := range cleaned {
			if _, ok := existing[job.JobID]; ok {
				res.Skipped++
				continue
			}
			existing[job.JobID] = struct{}{}
			row := convert.CleanJobToRow(job)
			resetColumns(&row.JobColumns, ts)
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			if err := tx.Insert(ctx, tableClean, &rows); err != nil {
				return err
			}
		}
		res.Inserted = len(rows)

		res.Removed, err = tx.deleteByJobID(ctx, tableRaw, ids)
		return err
	})
	if err != nil {
		return Promotion{}, fmt.Errorf("promote raw jobs: %w", err)
	}
	return res, nil
}

// PromoteCleanJobs 提交评分结果，语义与 PromoteRawJobs 相同，目标表为 enhanced_jobs。
func (s *Store) PromoteCleanJobs(ctx context.Context, enhanced []model.EnhancedJob, failed []string) (Promotion, error) {
	var res Promotion
	err := s.WithTransaction(ctx, func(tx *Store) error {
		ts := tx.timestamp()
		var err error
		if res.Failed, err = tx.incrementFailures(ctx, tableClean, failed, ts); err != nil {
			return err
		}

		ids := make([]string, 0, len(enhanced))
		for _, job := range enhanced {
			ids = append(ids, job.JobID)
		}
		existing, err := tx.existingKeys(ctx, tableEnhanced, "job_id", ids)
		if err != nil {
			return err
		}

		rows := make([]model.EnhancedJobRow, 0, len(enhanced))
		for _, job := range enhanced {
			if _, ok := existing[job.JobID]; ok {
				res.Skipped++
				continue
			}
			existing[job.JobID] = struct{}{}
			job.UploadedToSheet = false
			row := convert.EnhancedJobToRow(job)
			resetColumns(&row.JobColumns, ts)
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			if err := tx.Insert(ctx, tableEnhanced, &rows); err != nil {
				return err
			}
		}
		res.Inserted = len(rows)

		res.Removed, err = tx.deleteByJobID(ctx, tableClean, ids)
		return err
	})
	if err != nil {
		return Promotion{}, fmt.Errorf("promote clean jobs: %w", err)
	}
	return res, nil
}

// PendingPrefillJobs 返回达到分数线、未上传且尚无求职信的职位，按分数降序、创建时间升序。
func (s *Store) PendingPrefillJobs(ctx context.Context, minScore, limit int) ([]model.EnhancedJob, error) {
	var rows []model.EnhancedJobRow
	q := `SELECT e.* FROM enhanced_jobs e
LEFT JOIN prefills p ON p.enhanced_job_id = e.job_id
WHERE p.enhanced_job_id IS NULL
  AND e.fail_count <= ?
  AND e.relevance_score >= ?
  AND e.uploaded_to_sheet = 0
ORDER BY e.relevance_score DESC, e.created_at ASC, e.id ASC
LIMIT ?`
	if err := s.Query(ctx, &rows, q, model.MaxFailCount, minScore, limit); err != nil {
		return nil, fmt.Errorf("list pending prefill jobs: %w", err)
	}
	jobs := make([]model.EnhancedJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, convert.EnhancedJobFromRow(row))
	}
	return jobs, nil
}

// CommitPrefills 提交求职信：失败记录在 enhanced_jobs 上累加 fail_count，
// 成功记录写入 prefills，已存在的 enhanced_job_id 跳过。
func (s *Store) CommitPrefills(ctx context.Context, prefills []model.Prefill, failed []string) (Promotion, error) {
	var res Promotion
	err := s.WithTransaction(ctx, func(tx *Store) error {
		ts := tx.timestamp()
		var err error
		if res.Failed, err = tx.incrementFailures(ctx, tableEnhanced, failed, ts); err != nil {
			return err
		}

		ids := make([]string, 0, len(prefills))
		for _, p := range prefills {
			ids = append(ids, p.EnhancedJobID)
		}
		existing, err := tx.existingKeys(ctx, tablePrefills, "enhanced_job_id", ids)
		if err != nil {
			return err
		}

		rows := make([]model.PrefillRow, 0, len(prefills))
		for _, p := range prefills {
			if _, ok := existing[p.EnhancedJobID]; ok {
				res.Skipped++
				continue
			}
			existing[p.EnhancedJobID] = struct{}{}
			row := convert.PrefillToRow(p)
			row.ID = 0
			row.CreatedAt, row.UpdatedAt = ts, ts
			rows = append(rows, row)
		}
		if len(rows) > 0 {
			if err := tx.Insert(ctx, tablePrefills, &rows); err != nil {
				return err
			}
		}
		res.Inserted = len(rows)
		return nil
	})
	if err != nil {
		return Promotion{}, fmt.Errorf("commit prefills: %w", err)
	}
	return res, nil
}

// UploadableJobs 返回达到分数线、带求职信且尚未上传的职位，按创建时间升序。
func (s *Store) UploadableJobs(ctx context.Context, minScore, limit int) ([]model.UploadableJob, error) {
	var rows []model.UploadableRow
	q := `SELECT e.*, p.cover_letter FROM enhanced_jobs e
INNER JOIN prefills p ON p.enhanced_job_id = e.job_id
WHERE e.relevance_score >= ?
  AND e.uploaded_to_sheet = 0
  AND e.fail_count <= ?
ORDER BY e.created_at ASC, e.id ASC
LIMIT ?`
	if err := s.Query(ctx, &rows, q, minScore, model.MaxFailCount, limit); err != nil {
		return nil, fmt.Errorf("list uploadable jobs: %w", err)
	}
	jobs := make([]model.UploadableJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, convert.UploadableJobFromRow(row))
	}
	return jobs, nil
}

// MarkUploaded 将指定职位标记为已上传，仅做 0 -> 1 的变更。
func (s *Store) MarkUploaded(ctx context.Context, jobIDs []string) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	n, err := s.Exec(ctx, "UPDATE enhanced_jobs SET uploaded_to_sheet = 1, updated_at = ? WHERE uploaded_to_sheet = 0 AND job_id IN ?", s.timestamp(), jobIDs)
	if err != nil {
		return 0, fmt.Errorf("mark uploaded: %w", err)
	}
	return n, nil
}

func (s *Store) incrementFailures(ctx context.Context, table string, jobIDs []string, ts string) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	q := fmt.Sprintf("UPDATE %s SET fail_count = fail_count + 1, updated_at = ? WHERE job_id IN ?", table)
	n, err := s.Exec(ctx, q, ts, jobIDs)
	if err != nil {
		return 0, fmt.Errorf("increment %s failures: %w", table, err)
	}
	return n, nil
}

func (s *Store) existingKeys(ctx context.Context, table, column string, keys []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return set, nil
	}
	var found []string
	if err := s.db.WithContext(ctx).Table(table).Where(column+" IN ?", keys).Pluck(column, &found).Error; err != nil {
		return nil, fmt.Errorf("query existing %s keys: %w", table, err)
	}
	for _, k := range found {
		set[k] = struct{}{}
	}
	return set, nil
}

func (s *Store) deleteByJobID(ctx context.Context, table string, jobIDs []string) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}
	n, err := s.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE job_id IN ?", table), jobIDs)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return n, nil
}

// resetColumns 为进入新队列的行分配新的主键、计数与时间戳。
func resetColumns(cols *model.JobColumns, ts string) {
	cols.ID = 0
	cols.FailCount = 0
	cols.CreatedAt = ts
	cols.UpdatedAt = ts
}

// ListEnhancedJobs 按分数降序分页返回已评分职位，供运维接口浏览。
func (s *Store) ListEnhancedJobs(ctx context.Context, limit, offset int) ([]model.EnhancedJob, error) {
	var rows []model.EnhancedJobRow
	q := `SELECT * FROM enhanced_jobs ORDER BY relevance_score DESC, created_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := s.Query(ctx, &rows, q, limit, offset); err != nil {
		return nil, fmt.Errorf("list enhanced jobs: %w", err)
	}
	jobs := make([]model.EnhancedJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, convert.EnhancedJobFromRow(row))
	}
	return jobs, nil
}
