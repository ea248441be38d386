package task

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyverge/sake/internal/logging"
	"github.com/skyverge/sake/internal/model"
)

type trace struct {
	mu  sync.Mutex
	ran []string
}

func (tr *trace) task(name string, err error) Func {
	return func(ctx context.Context) error {
		tr.mu.Lock()
		tr.ran = append(tr.ran, name)
		tr.mu.Unlock()
		return err
	}
}

func TestRegistry_Series(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(logging.MustGetLogger(logging.Options{Output: &buf}))
	tr := &trace{}

	r.Register("build", "", r.Series("clean", "copy"))
	r.Register("clean", "", tr.task("clean", nil))
	r.Register("copy", "", tr.task("copy", nil))

	require.NoError(t, r.Run(context.Background(), "build"))
	assert.Equal(t, []string{"clean", "copy"}, tr.ran)
	assert.Contains(t, buf.String(), "Starting 'build'...")
	assert.Contains(t, buf.String(), "Finished 'clean' after")
	assert.Contains(t, buf.String(), "Finished 'build' after")
}

func TestRegistry_SeriesStopsOnError(t *testing.T) {
	r := NewRegistry(nil)
	tr := &trace{}
	boom := errors.New("boom")

	r.Register("a", "", tr.task("a", boom))
	r.Register("b", "", tr.task("b", nil))

	err := r.Series("a", "b")(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, tr.ran)
}

func TestRegistry_Parallel(t *testing.T) {
	r := NewRegistry(nil)
	tr := &trace{}

	r.Register("styles", "", tr.task("styles", nil))
	r.Register("scripts", "", tr.task("scripts", nil))
	r.Register("makepot", "", tr.task("makepot", nil))

	require.NoError(t, r.Parallel("styles", "scripts", "makepot")(context.Background()))
	assert.ElementsMatch(t, []string{"styles", "scripts", "makepot"}, tr.ran)
}

func TestRegistry_ParallelCancelsOnError(t *testing.T) {
	r := NewRegistry(nil)
	boom := errors.New("lint failed")
	started := make(chan struct{})

	r.Register("fail", "", func(ctx context.Context) error {
		<-started
		return boom
	})
	r.Register("wait", "", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	err := r.Parallel("fail", "wait")(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_UnknownTask(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("known", "", func(context.Context) error { return nil })

	for name, run := range map[string]func() error{
		"run":      func() error { return r.Run(context.Background(), "nope") },
		"series":   func() error { return r.Series("known", "nope")(context.Background()) },
		"parallel": func() error { return r.Parallel("known", "nope")(context.Background()) },
	} {
		t.Run(name, func(t *testing.T) {
			err := run()
			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.ExitUnknownTask, cliErr.Code)
			assert.Equal(t, "Task 'nope' is not defined", cliErr.Message)
		})
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("zip", "Build and zip", nil)
	r.Register("build", "Build the plugin", nil)
	r.Register("clean:build", "Empty the build dir", nil)

	var names []string
	for _, tk := range r.List() {
		names = append(names, tk.Name)
	}
	assert.Equal(t, []string{"build", "clean:build", "zip"}, names)
	assert.True(t, r.Has("zip"))
	assert.False(t, r.Has("deploy"))
}

func TestPipeline(t *testing.T) {
	tr := &trace{}
	skip := false

	p := &Pipeline{Name: "deploy", Steps: []Step{
		{Name: "validate", Run: tr.task("validate", nil)},
		{Name: "lint", When: func() bool { return skip }, Run: tr.task("lint", nil)},
		{Name: "build", Run: tr.task("build", nil)},
	}}

	rep, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"validate", "build"}, rep.Completed)
	assert.Equal(t, []string{"lint"}, rep.Skipped)
	assert.Equal(t, []string{"validate", "build"}, tr.ran)
}

func TestPipeline_Failure(t *testing.T) {
	tr := &trace{}
	cause := model.NewCLIError(model.ExitRemoteError, "WooCommerce.com request failed")

	p := &Pipeline{Name: "deploy", Steps: []Step{
		{Name: "build", Run: tr.task("build", nil)},
		{Name: "commit", Run: tr.task("commit", nil)},
		{Name: "wc:deploy", Run: tr.task("wc:deploy", cause)},
		{Name: "trello", Run: tr.task("trello", nil)},
	}}

	rep, err := p.Run(context.Background())
	require.Error(t, err)

	var pErr *PipelineError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "wc:deploy", pErr.Failed)
	assert.Equal(t, []string{"build", "commit"}, pErr.Completed)
	assert.Equal(t, []string{"build", "commit"}, rep.Completed)
	assert.Equal(t, `deploy failed at step "wc:deploy" (completed: build, commit): WooCommerce.com request failed`, err.Error())

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitRemoteError, cliErr.Code)
}
