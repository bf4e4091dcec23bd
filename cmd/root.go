package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"imagepub/internal/config"
	"imagepub/internal/docker"
	"imagepub/internal/executil"
	"imagepub/internal/logging"
	"imagepub/internal/runtime"
)

// App carries the collaborators a command needs. Zero fields fall back to
// the process environment and real docker.
type App struct {
	Runner    executil.Runner
	Lookup    runtime.LookupFunc
	Preflight docker.Preflight
	Out       io.Writer
	Err       io.Writer
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) errOut() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

// flagValues mirrors the config fields that can be set on the command line.
type flagValues struct {
	configPath string
	envFile    string

	userName    string
	imageName   string
	registry    string
	tag         string
	dockerfile  string
	contextPath string
	platform    string
	buildArgs   map[string]string
	labels      map[string]string
	pull        bool
	noCache     bool

	variant     string
	checkStatus bool
	checks      map[string]string
	skipInCI    bool
	prune       bool
	ciEnv       string

	dryRun    bool
	minDocker string
	username  string
	logLevel  string
}

// NewRootCmd builds the imagepub command tree.
func NewRootCmd(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}
	fv := &flagValues{}

	root := &cobra.Command{
		Use:   "imagepub",
		Short: "Build, tag and push a Docker image",
		Long: `imagepub logs in to a registry, builds the image from the local
Dockerfile, tags it as <user_name>/<image_name>, pushes it and optionally
prunes the builder cache. It skips itself on CI runners unless told not to.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd.Context(), app, fv, cmd.Flags())
		},
	}
	root.SetOut(app.out())
	root.SetErr(app.errOut())

	pf := root.PersistentFlags()
	pf.StringVar(&fv.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.StringVar(&fv.envFile, "env-file", ".env", "dotenv file loaded under the real environment")

	pf.StringVarP(&fv.userName, "user", "u", "", "registry namespace (user_name)")
	pf.StringVarP(&fv.imageName, "image", "i", "", "image name (image_name)")
	pf.StringVar(&fv.registry, "registry", "", "registry host for login and the pushed ref")
	pf.StringVarP(&fv.tag, "tag", "t", "", "tag appended to the pushed ref")
	pf.StringVarP(&fv.dockerfile, "dockerfile", "f", "", "Dockerfile path (default Dockerfile)")
	pf.StringVar(&fv.contextPath, "context", "", "build context (default .)")
	pf.StringVar(&fv.platform, "platform", "", "target platform for docker build")
	pf.StringToStringVar(&fv.buildArgs, "build-arg", nil, "build argument KEY=VALUE (repeatable)")
	pf.StringToStringVar(&fv.labels, "label", nil, "image label KEY=VALUE (repeatable)")
	pf.BoolVar(&fv.pull, "pull", false, "always pull base images")
	pf.BoolVar(&fv.noCache, "no-cache", false, "build without cache")

	pf.StringVar(&fv.variant, "variant", "", "failure-handling preset: strict or lenient")
	pf.BoolVar(&fv.checkStatus, "check-status", true, "abort on the first failing step")
	pf.StringToStringVar(&fv.checks, "check", nil, "per-step check override STEP=true|false (repeatable)")
	pf.BoolVar(&fv.skipInCI, "skip-in-ci", true, "skip the whole run when the CI signal is set")
	pf.BoolVar(&fv.prune, "prune", false, "prune the builder cache after pushing")
	pf.StringVar(&fv.ciEnv, "ci-env", "", "variable that marks a CI runner when \"true\" (default GITHUB_ACTIONS)")

	pf.BoolVar(&fv.dryRun, "dry-run", false, "print commands instead of running them")
	pf.StringVar(&fv.minDocker, "min-docker-version", "", "minimum docker client version")
	pf.StringVar(&fv.username, "username", "", "registry user for non-interactive login")
	pf.StringVar(&fv.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newPlanCmd(app, fv))
	root.AddCommand(newInitCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	app := &App{}
	root := NewRootCmd(app)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(app.errOut(), "Error: %v\n", err)
	}
	return ExitCode(err)
}

// loadConfig layers file, env and flags, then validates.
func loadConfig(app *App, fv *flagValues, fs *pflag.FlagSet) (*config.Config, runtime.LookupFunc, error) {
	cfg, lookup, err := layerConfig(app, fv, fs)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, lookup, nil
}

// layerConfig layers file, env and flags without validating. The returned
// lookup includes the .env file.
func layerConfig(app *App, fv *flagValues, fs *pflag.FlagSet) (*config.Config, runtime.LookupFunc, error) {
	cfg, lookup, err := config.Load(config.LoadOptions{
		Path:    fv.configPath,
		EnvFile: fv.envFile,
		Lookup:  app.Lookup,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := fv.apply(cfg, fs); err != nil {
		return nil, nil, err
	}
	return cfg, lookup, nil
}

func (fv *flagValues) apply(cfg *config.Config, fs *pflag.FlagSet) error {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = strings.TrimSpace(v)
		}
	}
	set("user", &cfg.UserName, fv.userName)
	set("image", &cfg.ImageName, fv.imageName)
	set("registry", &cfg.Registry, fv.registry)
	set("tag", &cfg.Tag, fv.tag)
	set("dockerfile", &cfg.Dockerfile, fv.dockerfile)
	set("context", &cfg.Context, fv.contextPath)
	set("platform", &cfg.Platform, fv.platform)
	set("ci-env", &cfg.CIEnv, fv.ciEnv)
	set("min-docker-version", &cfg.MinDockerVersion, fv.minDocker)
	set("username", &cfg.Username, fv.username)
	set("log-level", &cfg.LogLevel, fv.logLevel)

	if fs.Changed("variant") {
		cfg.Variant = runtime.Variant(strings.ToLower(strings.TrimSpace(fv.variant)))
	}
	if fs.Changed("pull") {
		cfg.Pull = fv.pull
	}
	if fs.Changed("no-cache") {
		cfg.NoCache = fv.noCache
	}
	if fs.Changed("dry-run") {
		cfg.DryRun = fv.dryRun
	}
	if fs.Changed("check-status") {
		v := fv.checkStatus
		cfg.CheckStatus = &v
	}
	if fs.Changed("skip-in-ci") {
		v := fv.skipInCI
		cfg.SkipInCI = &v
	}
	if fs.Changed("prune") {
		v := fv.prune
		cfg.Prune = &v
	}
	if fs.Changed("build-arg") {
		cfg.BuildArgs = mergeMap(cfg.BuildArgs, fv.buildArgs)
	}
	if fs.Changed("label") {
		cfg.Labels = mergeMap(cfg.Labels, fv.labels)
	}
	if fs.Changed("check") {
		if cfg.Checks == nil {
			cfg.Checks = map[string]bool{}
		}
		for step, raw := range fv.checks {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return &config.ValidationError{Field: "--check", Msg: fmt.Sprintf("%s=%q is not a boolean", step, raw)}
			}
			cfg.Checks[strings.TrimSpace(step)] = b
		}
	}
	return nil
}

func mergeMap(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func newLogger(app *App, cfg *config.Config) *log.Logger {
	return logging.New(app.errOut(), cfg.LogLevel)
}

func runner(app *App, cfg *config.Config, logger *log.Logger) executil.Runner {
	if app.Runner != nil {
		return app.Runner
	}
	if cfg.DryRun {
		return executil.DryRunner{Out: app.out()}
	}
	return executil.ExecRunner{
		Announce: func(cmd string) { logger.Info("running", "cmd", cmd) },
	}
}
