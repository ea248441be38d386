package task

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Step is one named stage of a Pipeline.
type Step struct {
	Name string

	// When decides at run time whether the step runs. Nil means always.
	When func() bool

	Run Func
}

// Report lists what a pipeline did.
type Report struct {
	Completed []string
	Skipped   []string
}

// PipelineError reports the step a pipeline stopped at and the steps
// that had already completed, so a partially applied deploy can be
// finished by hand.
type PipelineError struct {
	Pipeline  string
	Failed    string
	Completed []string
	Err       error
}

func (e *PipelineError) Error() string {
	done := "none"
	if len(e.Completed) > 0 {
		done = strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("%s failed at step %q (completed: %s): %v", e.Pipeline, e.Failed, done, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Pipeline runs steps in order.
type Pipeline struct {
	Name  string
	Steps []Step
	Log   *zap.Logger
}

// Run executes the steps. A failing step stops the pipeline with a
// *PipelineError wrapping the step's error.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	var rep Report
	for _, s := range p.Steps {
		if s.When != nil && !s.When() {
			log.Debug("skipping step", zap.String("step", s.Name))
			rep.Skipped = append(rep.Skipped, s.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, &PipelineError{Pipeline: p.Name, Failed: s.Name, Completed: rep.Completed, Err: err}
		}

		log.Debug("running step", zap.String("step", s.Name))
		if err := s.Run(ctx); err != nil {
			return rep, &PipelineError{Pipeline: p.Name, Failed: s.Name, Completed: rep.Completed, Err: err}
		}
		rep.Completed = append(rep.Completed, s.Name)
	}
	return rep, nil
}
