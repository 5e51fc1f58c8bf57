package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Loop runs a task forever on a fixed interval. Errors and panics are
// contained per iteration so one bad sweep never kills the background
// goroutine.
type Loop struct {
	task         Task
	interval     time.Duration
	initialDelay time.Duration
}

type LoopOption func(l *Loop)

// WithInitialDelay postpones the first run, giving upstream services
// time to come up after process start.
func WithInitialDelay(d time.Duration) LoopOption {
	return func(l *Loop) {
		l.initialDelay = d
	}
}

func NewLoop(task Task, interval time.Duration, opts ...LoopOption) *Loop {
	l := &Loop{
		task:     task,
		interval: interval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	if l.initialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.initialDelay):
		}
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "task", l.task.Name(), "panic", r)
		}
	}()
	if err := l.task.Run(ctx); err != nil {
		slog.Error("task failed", "task", l.task.Name(), "error", err)
	}
}
