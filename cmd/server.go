package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"jobhunt/internal/api"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type starter interface {
	Start(ctx context.Context) error
}

func newHTTPServer(addr string, deps appDeps) *http.Server {
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(deps.store, deps.sched),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// runServer 同时运行调度器与 HTTP 服务，上下文取消后优雅关闭两者。
func runServer(ctx context.Context, srv httpServer, sched starter, timeout time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
