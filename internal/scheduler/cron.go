package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

var (
	// ErrUnknownTask 表示没有同名任务。
	ErrUnknownTask = errors.New("unknown task")
	// ErrTaskRunning 表示同名任务仍在执行，本次触发被跳过。
	ErrTaskRunning = errors.New("task already running")
)

// Config 用于调度配置。
type Config struct {
	Timeout   string            `yaml:"timeout" json:"timeout"`
	Schedules map[string]string `yaml:"schedules" json:"schedules"`
}

// DefaultSchedules 返回各阶段的默认 cron 表达式，清洗、评分、预填错开两分钟。
func DefaultSchedules() map[string]string {
	return map[string]string{
		"extract": "*/30 * * * *",
		"clean":   "0-59/6 * * * *",
		"enhance": "2-59/6 * * * *",
		"prefill": "4-59/6 * * * *",
		"load":    "15-59/30 * * * *",
	}
}

// Func 执行一次任务并返回可序列化的摘要。
type Func func(ctx context.Context) (any, error)

// Task 是一个命名的周期任务。
type Task struct {
	Name string
	Spec string
	Run  Func
}

type entry struct {
	Task
	running atomic.Bool
}

// Scheduler 按 cron 表达式独立触发各任务，同一任务不会重叠执行。
type Scheduler struct {
	tasks   map[string]*entry
	timeout time.Duration
	logger  *log.Logger
}

// New 创建调度器。cfg.Schedules 中的表达式覆盖任务自带的 Spec，空表达式表示只允许手动触发。
func New(tasks []Task, cfg Config, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	timeout := 10 * time.Minute
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	s := &Scheduler{tasks: make(map[string]*entry, len(tasks)), timeout: timeout, logger: logger}
	for _, t := range tasks {
		if spec, ok := cfg.Schedules[t.Name]; ok {
			t.Spec = spec
		}
		if t.Spec != "" {
			if _, err := cron.ParseStandard(t.Spec); err != nil {
				return nil, fmt.Errorf("parse schedule for %s: %w", t.Name, err)
			}
		}
		s.tasks[t.Name] = &entry{Task: t}
	}
	return s, nil
}

// Tasks 返回按名称排序的任务名。
func (s *Scheduler) Tasks() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunOnce 立即执行指定任务，便于手动触发。
func (s *Scheduler) RunOnce(ctx context.Context, name string) (any, error) {
	e, ok := s.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if e.running.Swap(true) {
		return nil, fmt.Errorf("%w: %s", ErrTaskRunning, name)
	}
	defer e.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := e.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("task", name).Dur("elapsed", time.Since(start)).Msg("task failed")
		return out, fmt.Errorf("run %s: %w", name, err)
	}
	s.logger.Info().Str("task", name).Dur("elapsed", time.Since(start)).Msg("task finished")
	return out, nil
}

// Start 注册全部任务并阻塞直到上下文取消，返回前等待执行中的任务结束。
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	for _, name := range s.Tasks() {
		e := s.tasks[name]
		if e.Spec == "" {
			continue
		}
		if _, err := c.AddFunc(e.Spec, func() { s.tick(ctx, name) }); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
		s.logger.Info().Str("task", name).Str("spec", e.Spec).Msg("task scheduled")
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) tick(ctx context.Context, name string) {
	if _, err := s.RunOnce(ctx, name); errors.Is(err, ErrTaskRunning) {
		s.logger.Warn().Str("task", name).Msg("previous run still in progress, skipping")
	}
}
