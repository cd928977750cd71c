package model

// JobColumns 是各职位表共享的列。
type JobColumns struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	JobID     string `gorm:"column:job_id;uniqueIndex;not null"`
	URL       string `gorm:"column:url"`
	Details   string `gorm:"type:json"`
	Source    string `gorm:"index;not null"`
	FailCount int    `gorm:"not null;default:0"`
	CreatedAt string `gorm:"index"`
	UpdatedAt string
}

// CleanColumns 是 AI 抽取得到的列。
type CleanColumns struct {
	WorkArrangement           string
	Compensation              string
	Company                   string
	Location                  string
	Role                      string
	PublishedDate             string
	YearsOfExperienceRequired string
	HardSkillsRequired        string
	JobDescription            string
}

// RawJobRow 对应 raw_jobs 表。
type RawJobRow struct {
	JobColumns
}

func (RawJobRow) TableName() string { return "raw_jobs" }

// CleanJobRow 对应 clean_jobs 表。
type CleanJobRow struct {
	JobColumns
	CleanColumns
}

func (CleanJobRow) TableName() string { return "clean_jobs" }

// EnhancedJobRow 对应 enhanced_jobs 表，uploaded_to_sheet 以 0/1 存储。
type EnhancedJobRow struct {
	JobColumns
	CleanColumns
	RelevanceScore  int `gorm:"index"`
	RelevanceReason string
	Recommendation  string
	UploadedToSheet int `gorm:"type:integer;not null;default:0"`
}

func (EnhancedJobRow) TableName() string { return "enhanced_jobs" }

// PrefillRow 对应 prefills 表。
type PrefillRow struct {
	ID            uint   `gorm:"primaryKey"`
	EnhancedJobID string `gorm:"column:enhanced_job_id;uniqueIndex;not null"`
	CoverLetter   string
	CreatedAt     string
	UpdatedAt     string
}

func (PrefillRow) TableName() string { return "prefills" }

// UploadableRow 是 enhanced_jobs 与 prefills 的联结行。
type UploadableRow struct {
	EnhancedJobRow
	CoverLetter string
}

// Tables 返回需要迁移的全部表模型。
func Tables() []any {
	return []any{&RawJobRow{}, &CleanJobRow{}, &EnhancedJobRow{}, &PrefillRow{}}
}
