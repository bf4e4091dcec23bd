package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagepub/internal/docker"
	"imagepub/internal/runtime"
)

func newPlanCmd(app *App, fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the publish steps without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lookup, err := loadConfig(app, fv, cmd.Flags())
			if err != nil {
				return err
			}
			opts, err := docker.OptionsFromConfig(cfg, lookup)
			if err != nil {
				return err
			}

			rctx := runtime.LoadContext(cfg.CIEnv, app.Lookup)
			preset := cfg.Preset()

			target := runtime.Target{
				UserName:   opts.UserName,
				ImageName:  opts.ImageName,
				TaggedName: opts.TaggedName(),
				Variant:    cfg.Variant,
				SkipInCI:   preset.SkipInCI,
				DryRun:     cfg.DryRun,
			}
			for _, s := range docker.PlanPublish(opts) {
				target.Steps = append(target.Steps, runtime.StepInfo{
					Name:        s.Name,
					CheckStatus: s.CheckStatus,
					Command:     s.Command.String(),
				})
			}

			out := cmd.OutOrStdout()
			rctx.PrintSummary(out, target)
			if preset.SkipInCI && rctx.IsCI {
				fmt.Fprintln(out, "Note: "+rctx.SkipNotice())
			}
			return nil
		},
	}
}
