package gsheet

import (
	"strconv"
	"strings"

	"jobhunt/internal/convert"
	"jobhunt/internal/model"
)

// Column 描述表格中的一列：列名、位置以及与职位字段的双向转换。
type Column struct {
	Name  string
	Index int
	Get   func(job *model.UploadableJob) string
	Set   func(job *model.UploadableJob, value string)
}

// Columns 是表格的线格式，顺序与位置必须保持稳定。
var Columns = []Column{
	{Name: "Date", Index: 0,
		Get: func(j *model.UploadableJob) string { return convert.FormatTimeSafely(j.CreatedAt) },
		Set: func(j *model.UploadableJob, v string) { j.CreatedAt = convert.ParseTimeSafely(v) }},
	{Name: "Published Date", Index: 1,
		Get: func(j *model.UploadableJob) string { return convert.FormatTimeSafely(j.PublishedDate) },
		Set: func(j *model.UploadableJob, v string) { j.PublishedDate = convert.ParseTimeSafely(v) }},
	{Name: "Job ID", Index: 2,
		Get: func(j *model.UploadableJob) string { return j.JobID },
		Set: func(j *model.UploadableJob, v string) { j.JobID = v }},
	{Name: "URL", Index: 3,
		Get: func(j *model.UploadableJob) string { return j.URL },
		Set: func(j *model.UploadableJob, v string) { j.URL = v }},
	{Name: "Title", Index: 4,
		Get: func(j *model.UploadableJob) string { return j.Name },
		Set: func(j *model.UploadableJob, v string) { j.Name = v }},
	{Name: "Company", Index: 5,
		Get: func(j *model.UploadableJob) string { return j.Company },
		Set: func(j *model.UploadableJob, v string) { j.Company = v }},
	{Name: "Location", Index: 6,
		Get: func(j *model.UploadableJob) string { return j.Location },
		Set: func(j *model.UploadableJob, v string) { j.Location = v }},
	{Name: "Work Arrangement", Index: 7,
		Get: func(j *model.UploadableJob) string { return string(j.WorkArrangement) },
		Set: func(j *model.UploadableJob, v string) {
			if w := model.WorkArrangement(v); w.Valid() {
				j.WorkArrangement = w
			}
		}},
	{Name: "Role", Index: 8,
		Get: func(j *model.UploadableJob) string { return j.Role },
		Set: func(j *model.UploadableJob, v string) { j.Role = v }},
	{Name: "Estimated Compensation", Index: 9,
		Get: func(j *model.UploadableJob) string { return j.Compensation },
		Set: func(j *model.UploadableJob, v string) { j.Compensation = v }},
	{Name: "Content", Index: 10,
		Get: func(j *model.UploadableJob) string { return j.JobDescription },
		Set: func(j *model.UploadableJob, v string) { j.JobDescription = v }},
	{Name: "Years of Experience Required", Index: 11,
		Get: func(j *model.UploadableJob) string { return j.YearsOfExperienceRequired },
		Set: func(j *model.UploadableJob, v string) { j.YearsOfExperienceRequired = v }},
	{Name: "Hard Skills Required", Index: 12,
		Get: func(j *model.UploadableJob) string { return j.HardSkillsRequired },
		Set: func(j *model.UploadableJob, v string) { j.HardSkillsRequired = v }},
	{Name: "Relevance Score", Index: 13,
		Get: func(j *model.UploadableJob) string { return strconv.Itoa(j.RelevanceScore) },
		Set: func(j *model.UploadableJob, v string) {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				j.RelevanceScore = n
			}
		}},
	{Name: "Relevance Reason", Index: 14,
		Get: func(j *model.UploadableJob) string { return j.RelevanceReason },
		Set: func(j *model.UploadableJob, v string) { j.RelevanceReason = v }},
	{Name: "Recommendation", Index: 15,
		Get: func(j *model.UploadableJob) string { return string(j.Recommendation) },
		Set: func(j *model.UploadableJob, v string) {
			if r := model.Recommendation(v); r.Valid() {
				j.Recommendation = r
			}
		}},
	{Name: "Cover Letter", Index: 16,
		Get: func(j *model.UploadableJob) string { return j.CoverLetter },
		Set: func(j *model.UploadableJob, v string) { j.CoverLetter = v }},
}

// Headers 返回按位置排序的列名。
func Headers() []string {
	out := make([]string, len(Columns))
	for _, c := range Columns {
		out[c.Index] = c.Name
	}
	return out
}

// RowFromJob 将职位映射为一行。
func RowFromJob(job model.UploadableJob) []string {
	row := make([]string, len(Columns))
	for _, c := range Columns {
		row[c.Index] = c.Get(&job)
	}
	return row
}

// JobFromRow 将表格行还原为职位，缺失或多余的单元格被忽略。
func JobFromRow(row []string) model.UploadableJob {
	var job model.UploadableJob
	for _, c := range Columns {
		if c.Index < len(row) {
			c.Set(&job, row[c.Index])
		}
	}
	return job
}

// isHeader 判断是否为表头行。
func isHeader(row []string) bool {
	return len(row) > 2 && row[0] == Columns[0].Name && row[2] == Columns[2].Name
}
