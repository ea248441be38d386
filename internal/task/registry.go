// Package task binds named tasks to functions and composes them.
//
// A task is a plain function of a context. Composite tasks are built from
// names with Series and Parallel and resolved when they run, so tasks can
// be registered in any order. The registry logs a start and finish line for
// every task it runs, nested ones included.
package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skyverge/sake/internal/model"
)

// Func is the body of a task.
type Func func(ctx context.Context) error

// Task is a registered, named unit of work.
type Task struct {
	Name        string
	Description string
	Run         Func
}

// Registry holds the registered tasks.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	log   *zap.Logger
}

// NewRegistry returns an empty registry logging to log.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{tasks: map[string]*Task{}, log: log}
}

// Register adds a task. Registering a name twice replaces the first task.
func (r *Registry) Register(name, description string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = &Task{Name: name, Description: description, Run: fn}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tasks[name]
	return ok
}

// Get returns the task registered as name.
func (r *Registry) Get(name string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	if !ok {
		return nil, model.NewCLIError(model.ExitUnknownTask, fmt.Sprintf("Task '%s' is not defined", name))
	}
	return t, nil
}

// List returns every task sorted by name.
func (r *Registry) List() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Validate fails with ExitUnknownTask for the first unregistered name.
func (r *Registry) Validate(names ...string) error {
	for _, n := range names {
		if _, err := r.Get(n); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the task registered as name.
func (r *Registry) Run(ctx context.Context, name string) error {
	t, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.log.Info(fmt.Sprintf("Starting '%s'...", name))
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		r.log.Error(fmt.Sprintf("'%s' errored after %s", name, since(start)))
		return err
	}
	r.log.Info(fmt.Sprintf("Finished '%s' after %s", name, since(start)))
	return nil
}

// Series returns a Func running names in order, stopping at the first error.
func (r *Registry) Series(names ...string) Func {
	return func(ctx context.Context) error {
		for _, n := range names {
			if err := r.Run(ctx, n); err != nil {
				return err
			}
		}
		return nil
	}
}

// Parallel returns a Func running names concurrently. The first error
// cancels the others and is returned once all of them have stopped.
func (r *Registry) Parallel(names ...string) Func {
	return func(ctx context.Context) error {
		if err := r.Validate(names...); err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, n := range names {
			g.Go(func() error {
				return r.Run(gctx, n)
			})
		}
		return g.Wait()
	}
}

func since(start time.Time) time.Duration {
	d := time.Since(start)
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(10 * time.Millisecond)
}
