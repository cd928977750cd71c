package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jobhunt/internal/ai"
	"jobhunt/internal/api"
	"jobhunt/internal/clean"
	"jobhunt/internal/config"
	"jobhunt/internal/enhance"
	"jobhunt/internal/extract"
	"jobhunt/internal/fetcher"
	"jobhunt/internal/gsheet"
	"jobhunt/internal/load"
	"jobhunt/internal/notifier"
	"jobhunt/internal/prefill"
	"jobhunt/internal/resume"
	"jobhunt/internal/scheduler"
	"jobhunt/internal/storage"

	"github.com/phuslu/log"
)

// taskScheduler 是 cmd 依赖的调度能力。
type taskScheduler interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context, name string) (any, error)
}

// appDeps 汇总运行期依赖。
type appDeps struct {
	store api.Store
	sched taskScheduler
}

type builder func(ctx context.Context, cfg config.Config, logger *log.Logger) (appDeps, func(), error)

// buildApp 打开数据库并装配五个阶段与调度器。
func buildApp(ctx context.Context, cfg config.Config, logger *log.Logger) (appDeps, func(), error) {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return appDeps{}, func() {}, err
	}
	cleanup := func() { _ = store.Close() }

	httpClient := &http.Client{Timeout: 60 * time.Second}
	clients, err := ai.BuildClients(ctx, cfg.AI, httpClient, logger)
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, fmt.Errorf("build ai clients: %w", err)
	}
	gateway := ai.NewGateway(logger, clients...)
	logger.Info().Strs("providers", gateway.Providers()).Msg("ai gateway ready")

	cv := resume.NewFile(cfg.Pipeline.ResumePath, logger)
	scrapers := fetcher.New(cfg.Fetcher, &http.Client{Timeout: 30 * time.Second}, logger)

	extractStage := extract.New(store, scrapers, logger)
	cleanStage := clean.New(store, gateway, logger)
	enhanceStage := enhance.New(store, gateway, cv, logger)
	prefillStage := prefill.New(store, gateway, cv, cfg.Pipeline.MinRelevanceScore, logger)

	var loadRun scheduler.Func
	if sheet, err := gsheet.Open(ctx, cfg.Sheet, nil, logger); err != nil {
		logger.Warn().Err(err).Msg("load stage disabled")
		loadRun = func(context.Context) (any, error) { return nil, fmt.Errorf("load stage disabled: %w", err) }
	} else {
		loadStage := load.New(store, sheet, buildNotifier(cfg, logger), cfg.Pipeline.MinRelevanceScore, logger)
		loadRun = func(ctx context.Context) (any, error) { return loadStage.Run(ctx) }
	}

	tasks := []scheduler.Task{
		{Name: "extract", Run: func(ctx context.Context) (any, error) { return extractStage.Run(ctx) }},
		{Name: "clean", Run: func(ctx context.Context) (any, error) { return cleanStage.Run(ctx) }},
		{Name: "enhance", Run: func(ctx context.Context) (any, error) { return enhanceStage.Run(ctx) }},
		{Name: "prefill", Run: func(ctx context.Context) (any, error) { return prefillStage.Run(ctx) }},
		{Name: "load", Run: loadRun},
	}
	for i := range tasks {
		tasks[i].Run = withBacklog(store, logger, tasks[i].Name, tasks[i].Run)
	}

	sched, err := scheduler.New(tasks, cfg.Scheduler, logger)
	if err != nil {
		cleanup()
		return appDeps{}, func() {}, err
	}
	return appDeps{store: store, sched: sched}, cleanup, nil
}

// withBacklog 在每次运行前记录积压与死信数量。
func withBacklog(store *storage.Store, logger *log.Logger, name string, run scheduler.Func) scheduler.Func {
	return func(ctx context.Context) (any, error) {
		if stats, err := store.Stats(ctx); err == nil {
			logger.Info().Str("stage", name).
				Int64("raw_pending", stats.Raw.Pending).Int64("raw_dead", stats.Raw.DeadLetter).
				Int64("clean_pending", stats.Clean.Pending).Int64("clean_dead", stats.Clean.DeadLetter).
				Int64("enhanced_pending", stats.Enhanced.Pending).Int64("enhanced_dead", stats.Enhanced.DeadLetter).
				Msg("backlog")
		}
		return run(ctx)
	}
}

func buildNotifier(cfg config.Config, logger *log.Logger) notifier.Notifier {
	notifiers := notifier.Multi{notifier.NewLogNotifier(logger)}
	email := cfg.Email
	if !email.Enabled {
		return notifiers
	}
	if email.Host == "" || email.Port == 0 || email.From == "" || len(email.To) == 0 {
		logger.Warn().Msg("email notifier disabled: missing host/port/from/to")
		return notifiers
	}
	return append(notifiers, notifier.NewFilter(cfg.Notify, notifier.NewEmailNotifier(email, nil)))
}

// runOnceManual 装配依赖并立即执行一个阶段。
func runOnceManual(ctx context.Context, cfg config.Config, logger *log.Logger, name string, build builder) (any, error) {
	deps, cleanup, err := build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return deps.sched.RunOnce(ctx, name)
}
