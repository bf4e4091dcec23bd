// internal/docker/push.go
//
// The registry side of the flow: login and push.
// Without configured credentials login is a bare `docker login`, which
// reuses stored credentials or prompts on the terminal.

package docker

import (
	"strings"

	"imagepub/internal/executil"
)

// LoginCommand returns `docker login [-u user [--password-stdin]] [registry]`.
func LoginCommand(opts *Options) executil.Command {
	args := []string{"login"}
	cmd := executil.Command{Name: "docker"}

	if opts.Username != "" {
		args = append(args, "-u", opts.Username)
		if opts.Password != "" {
			args = append(args, "--password-stdin")
			cmd.Stdin = strings.NewReader(opts.Password)
		}
	}
	if opts.Registry != "" {
		args = append(args, opts.Registry)
	}
	cmd.Args = args
	return cmd
}

// PushCommand returns `docker push <tagged name>`.
func PushCommand(opts *Options) executil.Command {
	return executil.Command{
		Name: "docker",
		Args: []string{"push", opts.TaggedName()},
	}
}
