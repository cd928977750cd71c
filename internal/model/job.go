package model

import (
	"time"

	"gorm.io/datatypes"
)

// MaxFailCount 是单条记录的重试上限，超过后不再被任何阶段选中。
const MaxFailCount = 3

// NotSpecified 是 AI 与提示词中缺省字段的占位文本。
const NotSpecified = "Not specified"

// Source 标识职位来源。
type Source string

const (
	SourceLinkedIn Source = "linkedin"
	SourceLevels   Source = "levels"
	SourceIndeed   Source = "indeed"
	SourceBuiltIn  Source = "builtin"
)

// WorkArrangement 表示办公方式。
type WorkArrangement string

const (
	WorkRemote WorkArrangement = "Remote"
	WorkHybrid WorkArrangement = "Hybrid"
	WorkOnSite WorkArrangement = "On-Site"
)

// Valid 判断是否为已知办公方式。
func (w WorkArrangement) Valid() bool {
	switch w {
	case WorkRemote, WorkHybrid, WorkOnSite:
		return true
	}
	return false
}

// Recommendation 表示投递建议。
type Recommendation string

const (
	RecommendApply    Recommendation = "Apply"
	RecommendConsider Recommendation = "Consider"
	RecommendSkip     Recommendation = "Skip"
)

// Valid 判断是否为已知投递建议。
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendApply, RecommendConsider, RecommendSkip:
		return true
	}
	return false
}

// Record 是所有记录共享的基础字段，时间为零值表示缺失。
type Record struct {
	ID        uint
	CreatedAt time.Time
	UpdatedAt time.Time
	FailCount int
}

// RawJob 是抓取得到的原始职位。
type RawJob struct {
	Record
	Name    string
	JobID   string
	URL     string
	Details datatypes.JSONMap
	Source  Source
}

// DetailString 读取 details 中的字符串字段，缺失或非字符串时返回空串。
func (j RawJob) DetailString(key string) string {
	if j.Details == nil {
		return ""
	}
	v, ok := j.Details[key].(string)
	if !ok {
		return ""
	}
	return v
}

// CleanJob 是经 AI 抽取结构化字段后的职位。
type CleanJob struct {
	RawJob
	WorkArrangement           WorkArrangement
	Compensation              string
	Company                   string
	Location                  string
	Role                      string
	PublishedDate             time.Time
	YearsOfExperienceRequired string
	HardSkillsRequired        string
	JobDescription            string
}

// Describable 判断是否具备评分或生成求职信所需的输入。
func (j CleanJob) Describable() bool {
	if j.JobDescription != "" {
		return true
	}
	return j.HardSkillsRequired != "" && j.YearsOfExperienceRequired != ""
}

// EnhancedJob 是完成简历匹配评分的职位，为终态记录。
type EnhancedJob struct {
	CleanJob
	RelevanceScore  int
	RelevanceReason string
	Recommendation  Recommendation
	UploadedToSheet bool
}

// Prefill 是与 EnhancedJob 一对一关联的求职信。
type Prefill struct {
	ID            uint
	CreatedAt     time.Time
	UpdatedAt     time.Time
	EnhancedJobID string
	CoverLetter   string
}

// UploadableJob 是 EnhancedJob 与 Prefill 的联结结果，供上传表格使用。
type UploadableJob struct {
	EnhancedJob
	CoverLetter string
}
