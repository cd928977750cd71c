package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"jobhunt/internal/logging"
	"jobhunt/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func job(id string, score int, rec model.Recommendation) model.UploadableJob {
	var j model.UploadableJob
	j.JobID = id
	j.Name = "Role " + id
	j.Company = "Acme"
	j.URL = "https://example.com/" + id
	j.RelevanceScore = score
	j.Recommendation = rec
	return j
}

func TestEmailNotifierSendsWhenJobs(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewEmailNotifier(EmailConfig{From: "from@example.com", To: []string{"to@example.com"}}, sender)

	require.NoError(t, n.Notify(context.Background(), []model.UploadableJob{job("1", 88, model.RecommendApply)}))
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "New job matches", sender.last.Subject)
	assert.Contains(t, sender.last.Body, "- [88 Apply] Role 1 @ Acme https://example.com/1")
}

func TestEmailNotifierSkipsWhenEmpty(t *testing.T) {
	t.Parallel()

	sender := &stubSender{}
	n := NewEmailNotifier(EmailConfig{}, sender)
	require.NoError(t, n.Notify(context.Background(), nil))
	assert.Equal(t, 0, sender.calls)
}

func TestBuildEmailDataHeaders(t *testing.T) {
	t.Parallel()

	data := buildEmailData(EmailMessage{From: "a@x", To: []string{"b@x", "c@x"}, Subject: "hi", Body: "body"})
	assert.Contains(t, data, "To: b@x,c@x\r\n")
	assert.Contains(t, data, "Subject: hi\r\n")
	assert.Contains(t, data, "\r\n\r\nbody")
}

func TestLogNotifierWritesJobs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewLogNotifier(logging.New("info", &buf))
	require.NoError(t, n.Notify(context.Background(), []model.UploadableJob{job("7", 90, model.RecommendApply)}))
	assert.Contains(t, buf.String(), "job uploaded")
	assert.Contains(t, buf.String(), "https://example.com/7")
}

func TestFilterForwardsMatchingJobs(t *testing.T) {
	t.Parallel()

	sink := &recorder{}
	f := NewFilter(FilterConfig{MinScore: 80, Recommendations: []model.Recommendation{model.RecommendApply}}, sink)

	err := f.Notify(context.Background(), []model.UploadableJob{
		job("a", 90, model.RecommendApply),
		job("b", 95, model.RecommendConsider),
		job("c", 70, model.RecommendApply),
	})
	require.NoError(t, err)
	require.Len(t, sink.jobs, 1)
	assert.Equal(t, "a", sink.jobs[0].JobID)

	sink.jobs = nil
	require.NoError(t, f.Notify(context.Background(), []model.UploadableJob{job("d", 10, model.RecommendSkip)}))
	assert.Nil(t, sink.jobs)
}

func TestMultiJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := &recorder{}
	err := Multi{&recorder{err: boom}, ok}.Notify(context.Background(), []model.UploadableJob{job("1", 1, "")})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.jobs, 1)
}

type stubSender struct {
	calls int
	last  EmailMessage
}

func (s *stubSender) Send(ctx context.Context, msg EmailMessage) error {
	s.calls++
	s.last = msg
	return ctx.Err()
}

type recorder struct {
	jobs []model.UploadableJob
	err  error
}

func (r *recorder) Notify(_ context.Context, jobs []model.UploadableJob) error {
	r.jobs = append(r.jobs, jobs...)
	return r.err
}
