// Package pipeline runs an ordered list of external commands. Each step
// decides for itself whether its failure stops the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"imagepub/internal/executil"
	"imagepub/internal/logging"
	"imagepub/internal/runtime"
)

// Step is one named command. When CheckStatus is false a failure is
// logged and the next step still runs.
type Step struct {
	Name        string
	Command     executil.Command
	CheckStatus bool
}

// Status of an executed step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusIgnored Status = "ignored"
)

type StepResult struct {
	Name   string
	Status Status
	Err    error
}

// Result describes a finished run.
type Result struct {
	Skipped    bool
	SkipReason string
	Steps      []StepResult
	// Ignored aggregates failures of unchecked steps; nil when none.
	Ignored error
}

// Executed returns the names of the steps that were started, in order.
func (r *Result) Executed() []string {
	out := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, s.Name)
	}
	return out
}

// StepError is returned when a checked step fails.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ExitCode is the failing command's exit status (1 if unknown).
func (e *StepError) ExitCode() int { return executil.ExitCode(e.Err) }

// Guard decides whether a run is skipped before any step starts.
type Guard func() (skip bool, reason string)

// CIGuard skips when the CI signal in ctx is set.
func CIGuard(ctx runtime.Context) Guard {
	return func() (bool, string) {
		if ctx.IsCI {
			return true, ctx.SkipNotice()
		}
		return false, ""
	}
}

type Pipeline struct {
	Steps  []Step
	Runner executil.Runner
	Logger *log.Logger
	// Guard, when set, may skip the whole run.
	Guard Guard
	// Before runs once the guard has passed and before the first step.
	// It may fill in Steps. Its error aborts the run.
	Before func(ctx context.Context) error
}

// New returns a pipeline over steps. A nil logger discards output.
func New(runner executil.Runner, logger *log.Logger, steps ...Step) *Pipeline {
	return &Pipeline{Steps: steps, Runner: runner, Logger: logger}
}

// Run executes the steps in order, one at a time.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.Runner == nil {
		return nil, errors.New("pipeline: nil runner")
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	res := &Result{}
	if p.Guard != nil {
		if skip, reason := p.Guard(); skip {
			res.Skipped, res.SkipReason = true, reason
			logger.Info("skipped", "reason", reason)
			return res, nil
		}
	}
	if p.Before != nil {
		if err := p.Before(ctx); err != nil {
			return res, err
		}
	}

	var ignored *multierror.Error
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			res.Ignored = ignored.ErrorOrNil()
			return res, fmt.Errorf("pipeline interrupted before step %q: %w", step.Name, err)
		}

		logger.Info("step", "n", fmt.Sprintf("%d/%d", i+1, len(p.Steps)), "name", step.Name, "check", step.CheckStatus)
		logger.Debug("command", "name", step.Name, "cmd", step.Command.String())

		err := p.Runner.Run(ctx, step.Command)
		switch {
		case err == nil:
			res.Steps = append(res.Steps, StepResult{Name: step.Name, Status: StatusOK})

		case step.CheckStatus:
			res.Steps = append(res.Steps, StepResult{Name: step.Name, Status: StatusFailed, Err: err})
			res.Ignored = ignored.ErrorOrNil()
			logger.Error("step failed", "name", step.Name, "err", err)
			return res, &StepError{Step: step.Name, Err: err}

		default:
			res.Steps = append(res.Steps, StepResult{Name: step.Name, Status: StatusIgnored, Err: err})
			ignored = multierror.Append(ignored, &StepError{Step: step.Name, Err: err})
			logger.Warn("step failed, continuing", "name", step.Name, "err", err)
		}
	}

	res.Ignored = ignored.ErrorOrNil()
	return res, nil
}
