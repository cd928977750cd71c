package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"jobhunt/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceReturnsTaskResult(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	sched, err := New([]Task{{Name: "clean", Run: func(context.Context) (any, error) {
		calls.Add(1)
		return map[string]int{"promoted": 2}, nil
	}}}, Config{}, logging.Discard())
	require.NoError(t, err)

	out, err := sched.RunOnce(context.Background(), "clean")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"promoted": 2}, out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunOnceUnknownTask(t *testing.T) {
	t.Parallel()

	sched, err := New(nil, Config{}, logging.Discard())
	require.NoError(t, err)
	_, err = sched.RunOnce(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRunOnceWrapsTaskError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	sched, err := New([]Task{{Name: "load", Run: func(context.Context) (any, error) { return nil, boom }}}, Config{}, logging.Discard())
	require.NoError(t, err)
	_, err = sched.RunOnce(context.Background(), "load")
	assert.ErrorIs(t, err, boom)
}

func TestRunOnceNoOverlap(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	sched, err := New([]Task{{Name: "enhance", Run: func(context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}}}, Config{}, logging.Discard())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sched.RunOnce(context.Background(), "enhance")
		done <- err
	}()
	<-started

	_, err = sched.RunOnce(context.Background(), "enhance")
	assert.ErrorIs(t, err, ErrTaskRunning)

	close(release)
	require.NoError(t, <-done)
}

func TestRunOnceAppliesTimeout(t *testing.T) {
	t.Parallel()

	sched, err := New([]Task{{Name: "extract", Run: func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}}, Config{Timeout: "20ms"}, logging.Discard())
	require.NoError(t, err)

	_, err = sched.RunOnce(context.Background(), "extract")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := New([]Task{{Name: "clean", Spec: "*/6 * * * *"}}, Config{Schedules: map[string]string{"clean": "not a cron"}}, logging.Discard())
	require.Error(t, err)
}

func TestDefaultSchedulesParse(t *testing.T) {
	t.Parallel()

	var tasks []Task
	for name := range DefaultSchedules() {
		tasks = append(tasks, Task{Name: name, Run: func(context.Context) (any, error) { return nil, nil }})
	}
	sched, err := New(tasks, Config{Schedules: DefaultSchedules()}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "enhance", "extract", "load", "prefill"}, sched.Tasks())
}

func TestStartTriggersScheduledTasks(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	sched, err := New([]Task{
		{Name: "tick", Spec: "@every 1s", Run: func(context.Context) (any, error) {
			calls.Add(1)
			return nil, nil
		}},
		{Name: "manual", Run: func(context.Context) (any, error) {
			t.Error("manual task must not be scheduled")
			return nil, nil
		}},
	}, Config{}, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
