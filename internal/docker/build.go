// internal/docker/build.go
package docker

import (
	"imagepub/internal/executil"
)

const defaultDockerfile = "Dockerfile"

// BuildCommand returns `docker build -t <image> [flags] <context>`.
// With default options this is exactly `docker build -t <image> .`.
func BuildCommand(opts *Options) executil.Command {
	args := []string{"build", "-t", opts.ImageName}

	// -f only when the Dockerfile is not the one docker finds on its own
	if df := opts.Dockerfile; df != "" && df != defaultDockerfile {
		args = append(args, "-f", df)
	}
	if opts.Pull {
		args = append(args, "--pull")
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	for _, kv := range opts.Labels {
		if kv[0] != "" {
			args = append(args, "--label", kv[0]+"="+kv[1])
		}
	}
	for _, kv := range opts.BuildArgs {
		if kv[0] != "" {
			args = append(args, "--build-arg", kv[0]+"="+kv[1])
		}
	}
	args = append(args, first(opts.ContextPath, "."))

	return executil.Command{
		Name:    "docker",
		Args:    args,
		Display: redactBuildArgs(args),
	}
}

// TagCommand returns `docker tag <image> <tagged name>`.
func TagCommand(opts *Options) executil.Command {
	return executil.Command{
		Name: "docker",
		Args: []string{"tag", opts.ImageName, opts.TaggedName()},
	}
}

// PruneCommand returns `docker builder prune -a -f`.
func PruneCommand() executil.Command {
	return executil.Command{
		Name: "docker",
		Args: []string{"builder", "prune", "-a", "-f"},
	}
}
