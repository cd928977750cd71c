package clean

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jobhunt/internal/ai"
	"jobhunt/internal/logging"
	"jobhunt/internal/model"
	"jobhunt/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const extractionReply = `Here you go:
{"workArrangement":"remote","compensation":"120k USD/year","company":"Acme","location":"Toronto","role":"Backend Engineer",
 "publishedDate":"2024-05-01","yearsOfExperienceRequired":5,"hardSkillsRequired":["Go","SQL"]}`

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "jobhunt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seed(t *testing.T, store *storage.Store, jobs ...model.RawJob) {
	t.Helper()
	_, err := store.InsertRawJobs(context.Background(), jobs)
	require.NoError(t, err)
}

func pendingByID(t *testing.T, store *storage.Store) map[string]model.RawJob {
	t.Helper()
	raws, err := store.PendingRawJobs(context.Background(), 100)
	require.NoError(t, err)
	out := make(map[string]model.RawJob, len(raws))
	for _, r := range raws {
		out[r.JobID] = r
	}
	return out
}

func TestRunPromotesSuccessesAndCountsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	seed(t, store,
		model.RawJob{Name: "Go Engineer", JobID: "li-1", Source: model.SourceLinkedIn, Details: datatypes.JSONMap{"title": "Go Engineer", "content_text": "Build APIs in Go"}},
		model.RawJob{Name: "Empty", JobID: "lv-1", Source: model.SourceLevels, Details: datatypes.JSONMap{}},
		model.RawJob{Name: "Mystery", JobID: "zz-1", Source: "monster", Details: datatypes.JSONMap{"title": "Mystery"}},
	)

	client := &stubClient{name: "stub", reply: extractionReply}
	stage := New(store, ai.NewGateway(logging.Discard(), client), logging.Discard())

	sum, err := stage.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Selected)
	assert.Equal(t, 1, sum.Promoted)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Ignored)
	assert.Equal(t, 1, client.callCount())
	assert.Contains(t, client.prompts()[0], "Go Engineer\n\nBuild APIs in Go")

	raws := pendingByID(t, store)
	require.Len(t, raws, 2)
	assert.Equal(t, 1, raws["lv-1"].FailCount)
	assert.Equal(t, 0, raws["zz-1"].FailCount)

	cleans, err := store.PendingCleanJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, cleans, 1)
	got := cleans[0]
	assert.Equal(t, "li-1", got.JobID)
	assert.Equal(t, model.WorkRemote, got.WorkArrangement)
	assert.Equal(t, "120k USD/year", got.Compensation)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "5", got.YearsOfExperienceRequired)
	assert.Equal(t, "Go, SQL", got.HardSkillsRequired)
	assert.True(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Equal(got.PublishedDate))
	assert.Equal(t, "Go Engineer\n\nBuild APIs in Go", got.JobDescription)
	assert.Equal(t, "Build APIs in Go", got.DetailString("content_text"))
}

func TestRunCountsAIFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)
	seed(t, store, model.RawJob{Name: "Go", JobID: "li-2", Source: model.SourceLinkedIn, Details: datatypes.JSONMap{"content_text": "text"}})

	gw := ai.NewGateway(logging.Discard(),
		&stubClient{name: "a", err: errors.New("quota")},
		&stubClient{name: "b", reply: "I cannot help with that"},
	)
	stage := New(store, gw, logging.Discard())

	for i := 1; i <= model.MaxFailCount+1; i++ {
		sum, err := stage.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Failed)
	}

	// retry ceiling reached: the record is no longer selected
	sum, err := stage.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Selected)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Raw.DeadLetter)
}

func TestRunWithNothingPending(t *testing.T) {
	t.Parallel()

	client := &stubClient{name: "stub", reply: extractionReply}
	stage := New(newStore(t), ai.NewGateway(logging.Discard(), client), logging.Discard())
	sum, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{RunID: sum.RunID}, sum)
	assert.Equal(t, 0, client.callCount())
}

func TestBuiltInBackfillsFromDetails(t *testing.T) {
	t.Parallel()

	reply := `{"workArrangement":"Hybrid","company":"Acme","yearsOfExperienceRequired":"Not specified","hardSkillsRequired":"Not specified"}`
	c := Registry(ai.NewGateway(logging.Discard(), &stubClient{name: "stub", reply: reply}))[model.SourceBuiltIn]
	raw := model.RawJob{JobID: "builtin-1", Source: model.SourceBuiltIn, Details: datatypes.JSONMap{
		"title": "SRE", "seniorityLevel": "Senior level", "topSkills": "Go, Kubernetes", "description": "Run things",
	}}

	res := c.Clean(context.Background(), []model.RawJob{raw})
	require.Len(t, res, 1)
	require.True(t, res[0].OK)
	assert.Equal(t, "Senior level", res[0].Job.YearsOfExperienceRequired)
	assert.Equal(t, "Go, Kubernetes", res[0].Job.HardSkillsRequired)
	assert.Equal(t, model.WorkHybrid, res[0].Job.WorkArrangement)
	assert.Equal(t, "SRE\n\nSenior level\n\nRun things\n\nGo, Kubernetes", res[0].Job.JobDescription)
}

func TestIndeedDescriptionAndBackfill(t *testing.T) {
	t.Parallel()

	raw := model.RawJob{JobID: "indeed-1", Source: model.SourceIndeed, Details: datatypes.JSONMap{
		"title":           "Data Engineer",
		"company":         "Beta",
		"location":        "Remote, CA",
		"workArrangement": "Remote",
		"compensation":    "$90,000 a year",
		"description":     "Pipelines",
		"insights":        map[string]any{"Schedule": "Monday to Friday", "Benefits": "Dental"},
	}}
	assert.Equal(t, "Data Engineer\n\nBeta\n\nRemote, CA\n\nRemote\n\n$90,000 a year\n\nPipelines\n\nBenefits: Dental\n\nSchedule: Monday to Friday", describeIndeed(raw))

	c := Registry(ai.NewGateway(logging.Discard(), &stubClient{name: "stub", reply: `{"yearsOfExperienceRequired":"3"}`}))[model.SourceIndeed]
	res := c.Clean(context.Background(), []model.RawJob{raw})
	require.True(t, res[0].OK)
	job := res[0].Job
	assert.Equal(t, model.WorkRemote, job.WorkArrangement)
	assert.Equal(t, "$90,000 a year", job.Compensation)
	assert.Equal(t, "Beta", job.Company)
	assert.Equal(t, "Remote, CA", job.Location)
	assert.Equal(t, "Data Engineer", job.Role)
	assert.Equal(t, "3", job.YearsOfExperienceRequired)
}

func TestParseArrangement(t *testing.T) {
	t.Parallel()

	cases := map[string]model.WorkArrangement{
		"Remote": model.WorkRemote, "remote (US)": model.WorkRemote, "Hybrid remote": model.WorkHybrid,
		"On-Site": model.WorkOnSite, "onsite": model.WorkOnSite, "In office": model.WorkOnSite,
		"Not specified": "", "": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseArrangement(in), in)
	}
}

func TestDescribeLevelsSkipsEmptyFields(t *testing.T) {
	t.Parallel()

	raw := model.RawJob{Details: datatypes.JSONMap{"title": "SWE", "headerDetails": "", "compensation": "200k", "description": "  "}}
	assert.Equal(t, "SWE\n\n200k", describeLevels(raw))
	assert.Equal(t, "", describeLevels(model.RawJob{}))
}

func TestDescribeLinkedInPrefixesFeedText(t *testing.T) {
	t.Parallel()

	raw := model.RawJob{Details: datatypes.JSONMap{"title": "Go Engineer", "company": "Acme", "content_text": "Build APIs"}}
	assert.Equal(t, "Go Engineer\n\nAcme\n\nBuild APIs", describeLinkedIn(raw))
	assert.Equal(t, "Build APIs", describeLinkedIn(model.RawJob{Details: datatypes.JSONMap{"content_text": "Build APIs"}}))
}

// --- stubs ---

type stubClient struct {
	mu    sync.Mutex
	name  string
	reply string
	err   error
	calls []string
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) GenerateContent(_ context.Context, p string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubClient) prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
