package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"imagepub/internal/docker"
	"imagepub/internal/pipeline"
	"imagepub/internal/runtime"
)

// runPublish is the default command: the whole publish pipeline. Only the
// fields the CI guard needs are read before it runs, so a skipped run never
// fails on missing or invalid publish settings.
func runPublish(ctx context.Context, app *App, fv *flagValues, fs *pflag.FlagSet) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, lookup, err := layerConfig(app, fv, fs)
	if err != nil {
		return err
	}
	logger := newLogger(app, cfg)

	// the CI signal is read from the real environment, never from .env
	rctx := runtime.LoadContext(cfg.CIEnv, app.Lookup)

	p := pipeline.New(runner(app, cfg, logger), logger)
	if cfg.Preset().SkipInCI {
		p.Guard = pipeline.CIGuard(rctx)
	}

	var opts *docker.Options
	p.Before = func(ctx context.Context) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o, err := docker.OptionsFromConfig(cfg, lookup)
		if err != nil {
			return err
		}
		opts = o
		p.Steps = docker.PlanPublish(opts)

		logger.Info("publishing",
			"image", opts.ImageName,
			"ref", opts.TaggedName(),
			"variant", cfg.Variant,
			"prune", opts.Prune,
			"dry_run", cfg.DryRun,
		)
		if cfg.DryRun {
			return nil
		}
		path, err := app.Preflight.Check(ctx, cfg.MinDockerVersion)
		if err != nil {
			return err
		}
		logger.Debug("preflight ok", "docker", path)
		return nil
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintln(app.out(), res.SkipReason)
		return nil
	}
	if res.Ignored != nil {
		logger.Warn("finished with ignored failures", "err", res.Ignored)
		return nil
	}
	logger.Info("published", "ref", opts.TaggedName())
	return nil
}
