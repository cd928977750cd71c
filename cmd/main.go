package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"jobhunt/internal/config"
	"jobhunt/internal/logging"
	"jobhunt/internal/storage"

	"github.com/phuslu/log"
)

const usage = "usage: jobhunt <extract|clean|enhance|prefill|load|migrate|stats|cron|serve>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.Logging.Level, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, args[0], cfg, logger, out, buildApp); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			return 2
		}
		logger.Error().Err(err).Str("command", args[0]).Msg("command failed")
		return 1
	}
	return 0
}

var errUsage = errors.New("unknown command")

func dispatch(ctx context.Context, cmd string, cfg config.Config, logger *log.Logger, out io.Writer, build builder) error {
	switch cmd {
	case "migrate":
		return runMigrate(ctx, cfg, logger)
	case "stats":
		return runStats(ctx, cfg, out)
	case "cron":
		deps, cleanup, err := build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		logger.Info().Msg("cron process started")
		if err := deps.sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info().Msg("cron process stopped")
		return nil
	case "serve":
		deps, cleanup, err := build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		srv := newHTTPServer(cfg.Server.Addr, deps)
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		return runServer(ctx, srv, deps.sched, shutdownTimeout)
	case "extract", "clean", "enhance", "prefill", "load":
		summary, err := runOnceManual(ctx, cfg, logger, cmd, build)
		if err != nil {
			return err
		}
		return writeJSON(out, summary)
	default:
		return fmt.Errorf("%w: %s", errUsage, cmd)
	}
}

// runMigrate 创建四张表并打印现有表名。
func runMigrate(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	tables, err := store.Tables(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("path", cfg.Database.Path).Strs("tables", tables).Msg("database ready")
	return nil
}

func runStats(ctx context.Context, cfg config.Config, out io.Writer) error {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, stats)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
