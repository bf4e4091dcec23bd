// Package config assembles the publish configuration from defaults, an
// optional YAML file, a .env file and IMAGEPUB_* environment variables.
// Command-line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"imagepub/internal/runtime"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "imagepub.yaml"

// DefaultPasswordEnv holds the registry password for non-interactive login.
const DefaultPasswordEnv = "IMAGEPUB_REGISTRY_PASSWORD"

// Step names, in execution order.
const (
	StepLogin = "login"
	StepBuild = "build"
	StepTag   = "tag"
	StepPush  = "push"
	StepPrune = "prune"
)

// StepNames lists every step a pipeline may contain.
var StepNames = []string{StepLogin, StepBuild, StepTag, StepPush, StepPrune}

type Config struct {
	UserName  string `yaml:"user_name"`
	ImageName string `yaml:"image_name"`
	Registry  string `yaml:"registry"`
	Tag       string `yaml:"tag"`

	Dockerfile string            `yaml:"dockerfile"`
	Context    string            `yaml:"context"`
	BuildArgs  map[string]string `yaml:"build_args"`
	Labels     map[string]string `yaml:"labels"`
	Pull       bool              `yaml:"pull"`
	NoCache    bool              `yaml:"no_cache"`
	Platform   string            `yaml:"platform"`

	Variant runtime.Variant `yaml:"variant"`
	// nil means "take it from the variant preset".
	CheckStatus *bool           `yaml:"check_status"`
	Checks      map[string]bool `yaml:"checks"`
	SkipInCI    *bool           `yaml:"skip_in_ci"`
	Prune       *bool           `yaml:"prune"`
	CIEnv       string          `yaml:"ci_env"`

	DryRun           bool   `yaml:"dry_run"`
	MinDockerVersion string `yaml:"min_docker_version"`
	Username         string `yaml:"username"`
	PasswordEnv      string `yaml:"password_env"`
	LogLevel         string `yaml:"log_level"`
}

// Default returns a config with every optional field at its default.
func Default() *Config {
	return &Config{
		Dockerfile:  "Dockerfile",
		Context:     ".",
		Variant:     runtime.VariantStrict,
		CIEnv:       runtime.DefaultCIEnv,
		PasswordEnv: DefaultPasswordEnv,
		LogLevel:    "info",
	}
}

// ValidationError reports one bad configuration field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Preset is the variant preset with explicit toggles applied.
func (c *Config) Preset() runtime.Preset {
	p := c.Variant.Preset()
	if c.CheckStatus != nil {
		p.CheckStatus = *c.CheckStatus
	}
	if c.SkipInCI != nil {
		p.SkipInCI = *c.SkipInCI
	}
	if c.Prune != nil {
		p.Prune = *c.Prune
	}
	return p
}

// CheckFor reports whether a failure of the named step aborts the run.
func (c *Config) CheckFor(step string) bool {
	if v, ok := c.Checks[step]; ok {
		return v
	}
	return c.Preset().CheckStatus
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Path of the YAML file. Empty falls back to IMAGEPUB_CONFIG, then to
	// DefaultFile if it exists.
	Path string
	// EnvFile is loaded if present; it never overrides real variables.
	EnvFile string
	// Lookup reads the environment; nil means os.LookupEnv.
	Lookup runtime.LookupFunc
}

// Load builds a Config from defaults, file and environment. It does not
// validate; call Validate after applying flags.
func Load(opts LoadOptions) (*Config, runtime.LookupFunc, error) {
	lookup, err := withEnvFile(opts.EnvFile, opts.Lookup)
	if err != nil {
		return nil, nil, err
	}

	cfg := Default()

	path, required := opts.Path, true
	if path == "" {
		if v, ok := lookup("IMAGEPUB_CONFIG"); ok && strings.TrimSpace(v) != "" {
			path = strings.TrimSpace(v)
		} else {
			path, required = DefaultFile, false
		}
	}
	if err := cfg.readFile(path, required); err != nil {
		return nil, nil, err
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, nil, err
	}
	return cfg, lookup, nil
}

// withEnvFile layers a .env file under the real environment.
func withEnvFile(path string, lookup runtime.LookupFunc) (runtime.LookupFunc, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if strings.TrimSpace(path) == "" {
		return lookup, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return func(k string) (string, bool) {
		if v, ok := lookup(k); ok {
			return v, true
		}
		v, ok := vals[k]
		return v, ok
	}, nil
}

func (c *Config) readFile(path string, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// empty file
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ValidationError{Field: path, Msg: err.Error()}
	}
	return nil
}

// ApplyEnv overrides fields from IMAGEPUB_* variables.
func (c *Config) ApplyEnv(lookup runtime.LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	strs := []struct {
		key string
		dst *string
	}{
		{"IMAGEPUB_USER_NAME", &c.UserName},
		{"IMAGEPUB_IMAGE_NAME", &c.ImageName},
		{"IMAGEPUB_REGISTRY", &c.Registry},
		{"IMAGEPUB_TAG", &c.Tag},
		{"IMAGEPUB_DOCKERFILE", &c.Dockerfile},
		{"IMAGEPUB_CONTEXT", &c.Context},
		{"IMAGEPUB_PLATFORM", &c.Platform},
		{"IMAGEPUB_CI_ENV", &c.CIEnv},
		{"IMAGEPUB_MIN_DOCKER_VERSION", &c.MinDockerVersion},
		{"IMAGEPUB_USERNAME", &c.Username},
		{"IMAGEPUB_PASSWORD_ENV", &c.PasswordEnv},
		{"IMAGEPUB_LOG_LEVEL", &c.LogLevel},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && strings.TrimSpace(v) != "" {
			*s.dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("IMAGEPUB_VARIANT"); ok && strings.TrimSpace(v) != "" {
		c.Variant = runtime.Variant(strings.ToLower(strings.TrimSpace(v)))
	}

	var errs *multierror.Error
	bools := []struct {
		key string
		set func(bool)
	}{
		{"IMAGEPUB_DRY_RUN", func(b bool) { c.DryRun = b }},
		{"IMAGEPUB_PULL", func(b bool) { c.Pull = b }},
		{"IMAGEPUB_NO_CACHE", func(b bool) { c.NoCache = b }},
		{"IMAGEPUB_CHECK_STATUS", func(b bool) { c.CheckStatus = &b }},
		{"IMAGEPUB_SKIP_IN_CI", func(b bool) { c.SkipInCI = &b }},
		{"IMAGEPUB_PRUNE", func(b bool) { c.Prune = &b }},
	}
	for _, b := range bools {
		v, ok := lookup(b.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = multierror.Append(errs, &ValidationError{Field: b.key, Msg: fmt.Sprintf("not a boolean: %q", v)})
			continue
		}
		b.set(parsed)
	}
	return errs.ErrorOrNil()
}

// Validate normalizes the variant and reports every problem at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	add := func(field, msg string) {
		errs = multierror.Append(errs, &ValidationError{Field: field, Msg: msg})
	}

	if strings.TrimSpace(c.UserName) == "" {
		add("user_name", "required")
	}
	if strings.TrimSpace(c.ImageName) == "" {
		add("image_name", "required")
	}
	if v, err := runtime.ParseVariant(string(c.Variant)); err != nil {
		add("variant", err.Error())
	} else {
		c.Variant = v
	}
	for name := range c.Checks {
		if !isStepName(name) {
			add("checks", fmt.Sprintf("unknown step %q (steps: %s)", name, strings.Join(StepNames, ", ")))
		}
	}
	if strings.TrimSpace(c.Dockerfile) == "" {
		c.Dockerfile = "Dockerfile"
	}
	if strings.TrimSpace(c.Context) == "" {
		c.Context = "."
	}
	if strings.TrimSpace(c.CIEnv) == "" {
		c.CIEnv = runtime.DefaultCIEnv
	}
	for k := range c.BuildArgs {
		if strings.TrimSpace(k) == "" || strings.Contains(k, "=") {
			add("build_args", fmt.Sprintf("invalid key %q", k))
		}
	}
	for k := range c.Labels {
		if strings.TrimSpace(k) == "" || strings.Contains(k, "=") {
			add("labels", fmt.Sprintf("invalid key %q", k))
		}
	}
	return errs.ErrorOrNil()
}

func isStepName(s string) bool {
	for _, n := range StepNames {
		if n == s {
			return true
		}
	}
	return false
}
