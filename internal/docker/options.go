// internal/docker/options.go
//
// This layer adapts a validated config.Config into concrete Options for
// the docker command builders: names, build flags, credentials and the
// resolved per-step failure checks.

package docker

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"imagepub/internal/config"
	"imagepub/internal/runtime"
)

// OptionsFromConfig turns a validated config into Options.
//
// Steps:
//   - copy names and build inputs
//   - read the registry password from cfg.PasswordEnv via lookup
//   - resolve check_status for every step
//   - validate the image name and the tagged name as docker references
func OptionsFromConfig(cfg *config.Config, lookup runtime.LookupFunc) (*Options, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	preset := cfg.Preset()
	opts := &Options{
		UserName:    strings.TrimSpace(cfg.UserName),
		ImageName:   strings.TrimSpace(cfg.ImageName),
		Registry:    strings.TrimSpace(cfg.Registry),
		Tag:         strings.TrimSpace(cfg.Tag),
		Dockerfile:  first(strings.TrimSpace(cfg.Dockerfile), defaultDockerfile),
		ContextPath: first(strings.TrimSpace(cfg.Context), "."),
		BuildArgs:   sortedPairs(cfg.BuildArgs),
		Labels:      sortedPairs(cfg.Labels),
		Platform:    strings.TrimSpace(cfg.Platform),
		Pull:        cfg.Pull,
		NoCache:     cfg.NoCache,
		Username:    strings.TrimSpace(cfg.Username),
		Prune:       preset.Prune,
		DryRun:      cfg.DryRun,
		Checks:      make(map[string]bool, len(config.StepNames)),
	}
	for _, name := range config.StepNames {
		opts.Checks[name] = cfg.CheckFor(name)
	}
	if opts.Username != "" && cfg.PasswordEnv != "" {
		if pw, ok := lookup(cfg.PasswordEnv); ok {
			opts.Password = pw
		}
	}

	if err := validateRefs(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func sortedPairs(m map[string]string) [][2]string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, m[k]})
	}
	return out
}
