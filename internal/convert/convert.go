package convert

import (
	"encoding/json"

	"jobhunt/internal/model"

	"gorm.io/datatypes"
)

// RawJobToRow 将原始职位转换为 raw_jobs 行。
func RawJobToRow(job model.RawJob) model.RawJobRow {
	return model.RawJobRow{JobColumns: jobColumns(job)}
}

// RawJobFromRow 将 raw_jobs 行转换为原始职位。
func RawJobFromRow(row model.RawJobRow) model.RawJob {
	return rawJob(row.JobColumns)
}

// CleanJobToRow 将清洗后职位转换为 clean_jobs 行。
func CleanJobToRow(job model.CleanJob) model.CleanJobRow {
	return model.CleanJobRow{
		JobColumns:   jobColumns(job.RawJob),
		CleanColumns: cleanColumns(job),
	}
}

// CleanJobFromRow 将 clean_jobs 行转换为清洗后职位。
func CleanJobFromRow(row model.CleanJobRow) model.CleanJob {
	return cleanJob(row.JobColumns, row.CleanColumns)
}

// EnhancedJobToRow 将评分后职位转换为 enhanced_jobs 行。
func EnhancedJobToRow(job model.EnhancedJob) model.EnhancedJobRow {
	uploaded := 0
	if job.UploadedToSheet {
		uploaded = 1
	}
	rec := ""
	if job.Recommendation.Valid() {
		rec = string(job.Recommendation)
	}
	return model.EnhancedJobRow{
		JobColumns:      jobColumns(job.RawJob),
		CleanColumns:    cleanColumns(job.CleanJob),
		RelevanceScore:  job.RelevanceScore,
		RelevanceReason: job.RelevanceReason,
		Recommendation:  rec,
		UploadedToSheet: uploaded,
	}
}

// EnhancedJobFromRow 将 enhanced_jobs 行转换为评分后职位。
func EnhancedJobFromRow(row model.EnhancedJobRow) model.EnhancedJob {
	job := model.EnhancedJob{
		CleanJob:        cleanJob(row.JobColumns, row.CleanColumns),
		RelevanceScore:  row.RelevanceScore,
		RelevanceReason: row.RelevanceReason,
		UploadedToSheet: row.UploadedToSheet == 1,
	}
	if rec := model.Recommendation(row.Recommendation); rec.Valid() {
		job.Recommendation = rec
	}
	return job
}

// PrefillToRow 将求职信转换为 prefills 行。
func PrefillToRow(p model.Prefill) model.PrefillRow {
	return model.PrefillRow{
		ID:            p.ID,
		EnhancedJobID: p.EnhancedJobID,
		CoverLetter:   p.CoverLetter,
		CreatedAt:     FormatTimeSafely(p.CreatedAt),
		UpdatedAt:     FormatTimeSafely(p.UpdatedAt),
	}
}

// PrefillFromRow 将 prefills 行转换为求职信。
func PrefillFromRow(row model.PrefillRow) model.Prefill {
	return model.Prefill{
		ID:            row.ID,
		EnhancedJobID: row.EnhancedJobID,
		CoverLetter:   row.CoverLetter,
		CreatedAt:     ParseTimeSafely(row.CreatedAt),
		UpdatedAt:     ParseTimeSafely(row.UpdatedAt),
	}
}

// UploadableJobFromRow 转换联结行。
func UploadableJobFromRow(row model.UploadableRow) model.UploadableJob {
	return model.UploadableJob{
		EnhancedJob: EnhancedJobFromRow(row.EnhancedJobRow),
		CoverLetter: row.CoverLetter,
	}
}

// EncodeDetails 将 details 序列化为 JSON 文本，nil 输出 "{}"。
func EncodeDetails(details datatypes.JSONMap) string {
	if details == nil {
		return "{}"
	}
	data, err := json.Marshal(map[string]any(details))
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DecodeDetails 解析 details JSON 文本，非法内容返回空 map。
func DecodeDetails(text string) datatypes.JSONMap {
	if text == "" {
		return datatypes.JSONMap{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil || out == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(out)
}

func jobColumns(job model.RawJob) model.JobColumns {
	return model.JobColumns{
		ID:        job.ID,
		Name:      job.Name,
		JobID:     job.JobID,
		URL:       job.URL,
		Details:   EncodeDetails(job.Details),
		Source:    string(job.Source),
		FailCount: job.FailCount,
		CreatedAt: FormatTimeSafely(job.CreatedAt),
		UpdatedAt: FormatTimeSafely(job.UpdatedAt),
	}
}

func rawJob(cols model.JobColumns) model.RawJob {
	return model.RawJob{
		Record: model.Record{
			ID:        cols.ID,
			CreatedAt: ParseTimeSafely(cols.CreatedAt),
			UpdatedAt: ParseTimeSafely(cols.UpdatedAt),
			FailCount: cols.FailCount,
		},
		Name:    cols.Name,
		JobID:   cols.JobID,
		URL:     cols.URL,
		Details: DecodeDetails(cols.Details),
		Source:  model.Source(cols.Source),
	}
}

func cleanColumns(job model.CleanJob) model.CleanColumns {
	arrangement := ""
	if job.WorkArrangement.Valid() {
		arrangement = string(job.WorkArrangement)
	}
	return model.CleanColumns{
		WorkArrangement:           arrangement,
		Compensation:              job.Compensation,
		Company:                   job.Company,
		Location:                  job.Location,
		Role:                      job.Role,
		PublishedDate:             FormatTimeSafely(job.PublishedDate),
		YearsOfExperienceRequired: job.YearsOfExperienceRequired,
		HardSkillsRequired:        job.HardSkillsRequired,
		JobDescription:            job.JobDescription,
	}
}

func cleanJob(cols model.JobColumns, clean model.CleanColumns) model.CleanJob {
	job := model.CleanJob{
		RawJob:                    rawJob(cols),
		Compensation:              clean.Compensation,
		Company:                   clean.Company,
		Location:                  clean.Location,
		Role:                      clean.Role,
		PublishedDate:             ParseTimeSafely(clean.PublishedDate),
		YearsOfExperienceRequired: clean.YearsOfExperienceRequired,
		HardSkillsRequired:        clean.HardSkillsRequired,
		JobDescription:            clean.JobDescription,
	}
	if wa := model.WorkArrangement(clean.WorkArrangement); wa.Valid() {
		job.WorkArrangement = wa
	}
	return job
}
