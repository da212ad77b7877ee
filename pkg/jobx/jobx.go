// Package jobx runs recurring background jobs: expired refresh token and
// one-time code sweeps. Each task runs on its own ticker; a failing run is
// logged and retried on the next tick.
package jobx

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/logx"
)

var registry = errx.NewRegistry("JOBX")

var (
	ErrAlreadyRunning = registry.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Runner is already running")
)

// TaskFunc is one run of a recurring job.
type TaskFunc func(ctx context.Context) error

type task struct {
	name  string
	every time.Duration
	fn    TaskFunc
}

// Runner executes registered tasks on their intervals until its context is
// cancelled.
type Runner struct {
	mu      sync.Mutex
	tasks   []task
	running bool
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds a recurring task. Must be called before Start.
func (r *Runner) Register(name string, every time.Duration, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task{name: name, every: every, fn: fn})
}

// Start runs all registered tasks. It blocks until ctx is cancelled and every
// in-flight run has returned.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return registry.New(ErrAlreadyRunning)
	}
	r.running = true
	tasks := make([]task, len(r.tasks))
	copy(tasks, r.tasks)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	logx.Infof("jobx: starting %d recurring tasks", len(tasks))

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			r.loop(ctx, t)
		}(t)
	}

	<-ctx.Done()
	wg.Wait()
	logx.Info("jobx: all tasks stopped")
	return nil
}

func (r *Runner) loop(ctx context.Context, t task) {
	ticker := time.NewTicker(t.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.fn(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warnf("jobx: task %q failed", t.name)
			}
		}
	}
}
