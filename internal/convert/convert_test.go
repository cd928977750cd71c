package convert

import (
	"testing"
	"time"

	"jobhunt/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestParseTimeSafely(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 9, 10, 11, 12, 0, time.UTC)
	cases := map[string]time.Time{
		"2024-03-09T10:11:12.000Z":  want,
		"2024-03-09T10:11:12Z":      want,
		"2024-03-09T12:11:12+02:00": want,
		"2024-03-09 10:11:12":       want,
		"2024-03-09":                time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		"":                          {},
		"Not specified":             {},
		"2024-13-45":                {},
	}
	for in, expected := range cases {
		got := ParseTimeSafely(in)
		assert.True(t, expected.Equal(got), "input %q: got %v", in, got)
	}
}

func TestFormatTimeSafely(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTimeSafely(time.Time{}))
	loc := time.FixedZone("EST", -5*3600)
	assert.Equal(t, "2024-01-02T08:04:05.123Z", FormatTimeSafely(time.Date(2024, 1, 2, 3, 4, 5, 123000000, loc)))
}

func TestEnhancedJobRowRoundTrip(t *testing.T) {
	t.Parallel()

	row := model.EnhancedJobRow{
		JobColumns: model.JobColumns{
			ID:        7,
			Name:      "Backend Engineer",
			JobID:     "job-7",
			URL:       "https://example.com/7",
			Details:   `{"nested":{"a":1},"title":"Backend Engineer"}`,
			Source:    "linkedin",
			FailCount: 2,
			CreatedAt: "2024-01-01T12:00:00.000Z",
			UpdatedAt: "2024-01-02T12:00:00.000Z",
		},
		CleanColumns: model.CleanColumns{
			WorkArrangement:           "Remote",
			Compensation:              "100k-120k CAD/year",
			Company:                   "Acme",
			Location:                  "Toronto",
			Role:                      "Backend Engineer",
			PublishedDate:             "2023-12-30T00:00:00.000Z",
			YearsOfExperienceRequired: "5",
			HardSkillsRequired:        "Go, SQL",
			JobDescription:            "Build services",
		},
		RelevanceScore:  85,
		RelevanceReason: "Strong Go match",
		Recommendation:  "Apply",
		UploadedToSheet: 1,
	}

	job := EnhancedJobFromRow(row)
	assert.True(t, job.UploadedToSheet)
	assert.Equal(t, model.WorkRemote, job.WorkArrangement)
	assert.Equal(t, model.RecommendApply, job.Recommendation)
	assert.Equal(t, 2, job.FailCount)
	assert.Equal(t, datatypes.JSONMap{"nested": map[string]any{"a": float64(1)}, "title": "Backend Engineer"}, job.Details)

	assert.Equal(t, row, EnhancedJobToRow(job))
}

func TestCleanJobDomainRoundTrip(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 8, 30, 15, 0, time.UTC)
	job := model.CleanJob{
		RawJob: model.RawJob{
			Record:  model.Record{ID: 3, CreatedAt: created, UpdatedAt: created.Add(time.Minute)},
			Name:    "SRE",
			JobID:   "builtin-42",
			URL:     "https://builtin.example/job/42",
			Details: datatypes.JSONMap{"title": "SRE", "topSkills": "Go, Kubernetes"},
			Source:  model.SourceBuiltIn,
		},
		WorkArrangement: model.WorkHybrid,
		Company:         "Acme",
		PublishedDate:   created.Add(-24 * time.Hour),
		JobDescription:  "title\n\ndescription",
	}

	got := CleanJobFromRow(CleanJobToRow(job))
	require.True(t, got.CreatedAt.Equal(job.CreatedAt))
	require.True(t, got.PublishedDate.Equal(job.PublishedDate))
	got.CreatedAt, got.UpdatedAt, got.PublishedDate = job.CreatedAt, job.UpdatedAt, job.PublishedDate
	assert.Equal(t, job, got)
}

func TestConvertDropsUnknownEnums(t *testing.T) {
	t.Parallel()

	row := EnhancedJobToRow(model.EnhancedJob{
		CleanJob:       model.CleanJob{WorkArrangement: "Anywhere"},
		Recommendation: "Maybe",
	})
	assert.Empty(t, row.WorkArrangement)
	assert.Empty(t, row.Recommendation)

	job := EnhancedJobFromRow(model.EnhancedJobRow{
		CleanColumns:   model.CleanColumns{WorkArrangement: "remote-ish"},
		Recommendation: "Later",
	})
	assert.Empty(t, job.WorkArrangement)
	assert.Empty(t, job.Recommendation)
	assert.False(t, job.UploadedToSheet)
}

func TestDetailsMalformedBecomesEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, datatypes.JSONMap{}, DecodeDetails("{not json"))
	assert.Equal(t, "{}", EncodeDetails(nil))
	job := RawJobFromRow(model.RawJobRow{JobColumns: model.JobColumns{JobID: "x", CreatedAt: "garbage"}})
	assert.True(t, job.CreatedAt.IsZero())
}

func TestPrefillRoundTrip(t *testing.T) {
	t.Parallel()

	row := model.PrefillRow{ID: 1, EnhancedJobID: "job-1", CoverLetter: "Dear team", CreatedAt: "2024-02-02T02:02:02.000Z", UpdatedAt: "2024-02-02T02:02:02.000Z"}
	assert.Equal(t, row, PrefillToRow(PrefillFromRow(row)))
}
