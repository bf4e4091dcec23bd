package runtime

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultCIEnv is the variable GitHub Actions sets to "true" on its runners.
const DefaultCIEnv = "GITHUB_ACTIONS"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Context captures the environment state relevant to a publish run.
type Context struct {
	// CIEnv is the variable holding the CI signal, CIValue its raw value.
	CIEnv   string
	CIValue string
	// IsCI is true only when CIValue is exactly "true".
	IsCI bool
	// Provider is a best-effort, human-readable CI name for the summary.
	Provider string
	WorkDir  string
}

// LoadContext reads the CI signal from ciEnv (DefaultCIEnv when empty).
// A nil lookup reads the process environment.
func LoadContext(ciEnv string, lookup LookupFunc) Context {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	ciEnv = strings.TrimSpace(ciEnv)
	if ciEnv == "" {
		ciEnv = DefaultCIEnv
	}

	val, _ := lookup(ciEnv)
	wd, _ := os.Getwd()

	return Context{
		CIEnv:    ciEnv,
		CIValue:  val,
		IsCI:     val == "true",
		Provider: detectProvider(lookup),
		WorkDir:  wd,
	}
}

func detectProvider(lookup LookupFunc) string {
	known := []struct{ env, name string }{
		{"GITHUB_ACTIONS", "GitHub Actions"},
		{"GITLAB_CI", "GitLab CI"},
		{"BUILDKITE", "Buildkite"},
		{"CIRCLECI", "CircleCI"},
		{"JENKINS_URL", "Jenkins"},
	}
	for _, k := range known {
		if v, ok := lookup(k.env); ok && strings.TrimSpace(v) != "" {
			return k.name
		}
	}
	if v, _ := lookup("CI"); v == "true" {
		return "generic CI"
	}
	return ""
}

// SkipNotice is printed when the CI guard stops a run.
func (c Context) SkipNotice() string {
	name := c.Provider
	if name == "" {
		name = "CI runner"
	}
	return fmt.Sprintf("%s detected (%s=%s), skipping image publish", name, c.CIEnv, c.CIValue)
}

// Target describes what a run is about to publish.
type Target struct {
	UserName   string
	ImageName  string
	TaggedName string
	Variant    Variant
	SkipInCI   bool
	DryRun     bool
	Steps      []StepInfo
}

// StepInfo is a step as shown in the summary.
type StepInfo struct {
	Name        string
	CheckStatus bool
	Command     string
}

// PrintSummary emits a scannable report of the run.
func (c Context) PrintSummary(w io.Writer, t Target) {
	fmt.Fprintln(w, "Publish Summary")
	fmt.Fprintln(w, "---------------")

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  Working Directory : %s\n", formatOrNone(c.WorkDir))
	fmt.Fprintf(w, "  CI Provider       : %s\n", formatOrNone(c.Provider))
	fmt.Fprintf(w, "  CI Signal         : %s=%s\n", c.CIEnv, formatOrNone(c.CIValue))
	fmt.Fprintf(w, "  CI Guard          : %s\n", emoji(t.SkipInCI))
	fmt.Fprintf(w, "  Dry Run Mode      : %s\n", emoji(t.DryRun))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Image")
	fmt.Fprintf(w, "  User Name         : %s\n", formatOrNone(t.UserName))
	fmt.Fprintf(w, "  Image Name        : %s\n", formatOrNone(t.ImageName))
	fmt.Fprintf(w, "  Tagged Name       : %s\n", formatOrNone(t.TaggedName))
	fmt.Fprintf(w, "  Variant           : %s\n", formatOrNone(t.Variant.String()))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Steps")
	for i, s := range t.Steps {
		fmt.Fprintf(w, "  %d. %-7s check=%s  %s\n", i+1, s.Name, emoji(s.CheckStatus), s.Command)
	}
	fmt.Fprintln(w)
}
