package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"jobhunt/internal/config"
	"jobhunt/internal/extract"
	"jobhunt/internal/gsheet"
	"jobhunt/internal/logging"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceManual(t *testing.T) {
	t.Parallel()

	stub := &stubScheduler{out: map[string]int{"inserted": 3}}
	builds, cleanups := 0, 0
	build := func(context.Context, config.Config, *log.Logger) (appDeps, func(), error) {
		builds++
		return appDeps{sched: stub}, func() { cleanups++ }, nil
	}

	out, err := runOnceManual(context.Background(), config.Config{}, logging.Discard(), "extract", build)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"inserted": 3}, out)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, cleanups)
	assert.Equal(t, []string{"extract"}, stub.names)
}

func TestRunOnceManualBuilderError(t *testing.T) {
	t.Parallel()

	_, err := runOnceManual(context.Background(), config.Config{}, logging.Discard(), "clean", func(context.Context, config.Config, *log.Logger) (appDeps, func(), error) {
		return appDeps{}, func() {}, errors.New("build fail")
	})
	require.Error(t, err)
}

func TestDispatchStagePrintsSummary(t *testing.T) {
	t.Parallel()

	stub := &stubScheduler{out: map[string]int{"promoted": 2}}
	build := func(context.Context, config.Config, *log.Logger) (appDeps, func(), error) {
		return appDeps{sched: stub}, func() {}, nil
	}
	var out bytes.Buffer
	require.NoError(t, dispatch(context.Background(), "clean", config.Config{}, logging.Discard(), &out, build))
	assert.JSONEq(t, `{"promoted": 2}`, out.String())
}

func TestDispatchUnknownCommand(t *testing.T) {
	t.Parallel()

	err := dispatch(context.Background(), "explode", config.Config{}, logging.Discard(), &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestDispatchMigrateAndStats(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "db", "jobhunt.db")
	require.NoError(t, dispatch(context.Background(), "migrate", cfg, logging.Discard(), &bytes.Buffer{}, nil))

	var out bytes.Buffer
	require.NoError(t, dispatch(context.Background(), "stats", cfg, logging.Discard(), &out, nil))
	assert.Contains(t, out.String(), `"dead_letter": 0`)
}

func TestBuildAppWiresAllStages(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "jobhunt.db")
	cfg.Pipeline.ResumePath = filepath.Join(t.TempDir(), "missing.json")

	deps, cleanup, err := buildApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer cleanup()

	// 没有抓取源时 extract 是空操作
	out, err := deps.sched.RunOnce(context.Background(), "extract")
	require.NoError(t, err)
	summary, ok := out.(extract.Summary)
	require.True(t, ok)
	assert.Equal(t, 0, summary.Fetched)

	// 未配置表格时 load 报错而不是静默成功
	_, err = deps.sched.RunOnce(context.Background(), "load")
	assert.ErrorIs(t, err, gsheet.ErrNotConfigured)
}

type stubScheduler struct {
	out   any
	names []string
}

func (s *stubScheduler) RunOnce(_ context.Context, name string) (any, error) {
	s.names = append(s.names, name)
	return s.out, nil
}

func (s *stubScheduler) Start(context.Context) error { return nil }
