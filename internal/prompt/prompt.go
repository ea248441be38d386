// Package prompt asks the user questions during deploys: which version to
// release, which issue the release closes and whether to open a docs issue.
//
// Tasks depend on the Prompter interface. The terminal implementation is a
// small bubbletea program per question; Defaults answers every question with
// its default for --non-interactive runs, and Scripted replays canned
// answers in tests.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/skyverge/sake/internal/model"
)

// ErrCancelled is returned when the user aborts a prompt with ctrl+c or esc.
var ErrCancelled = model.NewCLIError(model.ExitUserCancelled, "Prompt cancelled")

// Option is a selectable answer.
type Option struct {
	// Label is what the user sees.
	Label string

	// Value is what Select returns.
	Value string
}

// Validator checks free-form input. A non-nil error is shown to the user
// and the question is asked again.
type Validator func(string) error

// Prompter asks questions.
type Prompter interface {
	// Select offers options and returns the chosen Value. def is the index
	// of the preselected option.
	Select(ctx context.Context, message string, options []Option, def int) (string, error)

	// Input asks for free-form text.
	Input(ctx context.Context, message, def string, validate Validator) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// Defaults answers every question with its default.
type Defaults struct{}

// Select implements Prompter.
func (Defaults) Select(_ context.Context, _ string, options []Option, def int) (string, error) {
	if def < 0 || def >= len(options) {
		return "", fmt.Errorf("no default answer among %d options", len(options))
	}
	return options[def].Value, nil
}

// Input implements Prompter.
func (Defaults) Input(_ context.Context, message, def string, validate Validator) (string, error) {
	if validate != nil {
		if err := validate(def); err != nil {
			return "", fmt.Errorf("%s: %w", message, err)
		}
	}
	return def, nil
}

// Confirm implements Prompter.
func (Defaults) Confirm(_ context.Context, _ string, def bool) (bool, error) {
	return def, nil
}

// Scripted replays answers in order. Select answers are option values,
// Confirm answers are "y" or "n". An empty answer picks the default.
type Scripted struct {
	Answers []string

	// Asked records every question message.
	Asked []string
}

// ErrNoAnswer is returned when a Scripted prompter runs out of answers.
var ErrNoAnswer = errors.New("no scripted answer left")

func (s *Scripted) next(message string) (string, error) {
	s.Asked = append(s.Asked, message)
	if len(s.Answers) == 0 {
		return "", fmt.Errorf("%s: %w", message, ErrNoAnswer)
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}

// Select implements Prompter.
func (s *Scripted) Select(ctx context.Context, message string, options []Option, def int) (string, error) {
	a, err := s.next(message)
	if err != nil {
		return "", err
	}
	if a == "" {
		return Defaults{}.Select(ctx, message, options, def)
	}
	for _, o := range options {
		if o.Value == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%s: %q is not an option", message, a)
}

// Input implements Prompter.
func (s *Scripted) Input(_ context.Context, message, def string, validate Validator) (string, error) {
	a, err := s.next(message)
	if err != nil {
		return "", err
	}
	if a == "" {
		a = def
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return "", err
		}
	}
	return a, nil
}

// Confirm implements Prompter.
func (s *Scripted) Confirm(_ context.Context, message string, def bool) (bool, error) {
	a, err := s.next(message)
	if err != nil {
		return false, err
	}
	switch a {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
