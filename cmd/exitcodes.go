package cmd

import (
	"errors"

	"imagepub/internal/config"
	"imagepub/internal/docker"
	"imagepub/internal/pipeline"
)

// Exit codes returned by imagepub. A failing checked step exits with the
// failing command's own status instead of ExitFailure.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitConfigError = 2
	ExitEnvError    = 3
)

// ExitCode maps an error from a command to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var stepErr *pipeline.StepError
	switch {
	case errors.As(err, &stepErr):
		return stepErr.ExitCode()
	case config.IsValidationError(err):
		return ExitConfigError
	case errors.Is(err, docker.ErrEnvironment):
		return ExitEnvError
	default:
		return ExitFailure
	}
}
