package shell

import (
	"context"
	"strings"
	"sync"
)

// Recorder is a Runner that records commands instead of executing them.
// Responses can be scripted per command prefix ("svn status", "git remote").
// It is safe for concurrent use, since parallel tasks share one runner.
type Recorder struct {
	mu        sync.Mutex
	Commands  []Command
	Responses map[string]string
	Failures  map[string]error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Responses: map[string]string{}, Failures: map[string]error{}}
}

// Run implements Runner.
func (r *Recorder) Run(_ context.Context, c Command) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Commands = append(r.Commands, c)
	line := c.String()
	for prefix, err := range r.Failures {
		if strings.HasPrefix(line, prefix) {
			return "", err
		}
	}
	for prefix, out := range r.Responses {
		if strings.HasPrefix(line, prefix) {
			return out, nil
		}
	}
	return "", nil
}

// Lines returns every recorded command line in order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		lines = append(lines, c.String())
	}
	return lines
}
