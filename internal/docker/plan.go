// internal/docker/plan.go
//
// The planner turns Options into the ordered publish steps:
//
//	login → build → tag → push [→ prune]
//
// Each step carries its own check flag from Options.Checks. Nothing here
// runs a command; the pipeline package does.

package docker

import (
	"imagepub/internal/config"
	"imagepub/internal/executil"
	"imagepub/internal/pipeline"
)

// PlanPublish returns the steps for opts, in execution order.
func PlanPublish(opts *Options) []pipeline.Step {
	step := func(name string, cmd executil.Command) pipeline.Step {
		return pipeline.Step{Name: name, Command: cmd, CheckStatus: opts.check(name)}
	}

	steps := []pipeline.Step{
		step(config.StepLogin, LoginCommand(opts)),
		step(config.StepBuild, BuildCommand(opts)),
		step(config.StepTag, TagCommand(opts)),
		step(config.StepPush, PushCommand(opts)),
	}
	if opts.Prune {
		steps = append(steps, step(config.StepPrune, PruneCommand()))
	}
	return steps
}

func (o *Options) check(step string) bool {
	if v, ok := o.Checks[step]; ok {
		return v
	}
	return true
}
