package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagepub/internal/config"
	"imagepub/internal/docker"
	"imagepub/internal/executil"
	"imagepub/internal/version"
)

type recordingRunner struct {
	calls [][]string
	fail  map[string]int // first docker arg -> exit code
}

func (r *recordingRunner) Run(_ context.Context, c executil.Command) error {
	r.calls = append(r.calls, append([]string{c.Name}, c.Args...))
	if code, ok := r.fail[c.Args[0]]; ok {
		return &executil.ExitError{Cmd: c.String(), Code: code}
	}
	return nil
}

func (r *recordingRunner) lines() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

func okPreflight() docker.Preflight {
	return docker.Preflight{
		LookPath: func(string) (string, error) { return "/usr/bin/docker", nil },
	}
}

type harness struct {
	runner *recordingRunner
	out    bytes.Buffer
	err    bytes.Buffer
	env    map[string]string
	app    *App
}

func newHarness() *harness {
	h := &harness{runner: &recordingRunner{}, env: map[string]string{}}
	h.app = &App{
		Runner:    h.runner,
		Preflight: okPreflight(),
		Lookup: func(k string) (string, bool) {
			v, ok := h.env[k]
			return v, ok
		},
		Out: &h.out,
		Err: &h.err,
	}
	return h
}

func (h *harness) run(args ...string) int {
	root := NewRootCmd(h.app)
	root.SetArgs(append([]string{"--env-file="}, args...))
	return ExitCode(root.ExecuteContext(context.Background()))
}

func TestStrictRunsFourStepsInOrder(t *testing.T) {
	h := newHarness()

	code := h.run("--user", "alice", "--image", "tool")
	require.Equal(t, ExitSuccess, code, h.err.String())

	assert.Equal(t, []string{
		"docker login",
		"docker build -t tool .",
		"docker tag tool alice/tool",
		"docker push alice/tool",
	}, h.runner.lines())
}

func TestLenientRunsFiveSteps(t *testing.T) {
	h := newHarness()

	code := h.run("--user", "alice", "--image", "tool", "--variant", "lenient")
	require.Equal(t, ExitSuccess, code, h.err.String())

	require.Len(t, h.runner.calls, 5)
	assert.Equal(t, "docker builder prune -a -f", h.runner.lines()[4])
}

func TestCISignalSkipsEverything(t *testing.T) {
	h := newHarness()
	h.env["GITHUB_ACTIONS"] = "true"
	h.app.Preflight = docker.Preflight{
		LookPath: func(string) (string, error) { return "", errors.New("preflight must not run") },
	}

	code := h.run("--user", "alice", "--image", "tool")
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, h.runner.calls)
	assert.Contains(t, h.out.String(), "skipping image publish")
}

func TestCISignalWithoutConfigSkips(t *testing.T) {
	h := newHarness()
	h.env["GITHUB_ACTIONS"] = "true"

	code := h.run()
	assert.Equal(t, ExitSuccess, code, h.err.String())
	assert.Empty(t, h.runner.calls)
	assert.Contains(t, h.out.String(), "skipping image publish")
}

func TestCISignalIgnoresEnvFile(t *testing.T) {
	h := newHarness()
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GITHUB_ACTIONS=true\nIMAGEPUB_TAG=dev\n"), 0o644))

	code := h.run("--env-file="+envFile, "--user", "alice", "--image", "tool")
	require.Equal(t, ExitSuccess, code, h.err.String())
	require.Len(t, h.runner.calls, 4)
	assert.Equal(t, "docker push alice/tool:dev", h.runner.lines()[3])
}

func TestCISignalFalsyRuns(t *testing.T) {
	for _, val := range []string{"false", "", "1"} {
		h := newHarness()
		h.env["GITHUB_ACTIONS"] = val

		code := h.run("--user", "alice", "--image", "tool")
		assert.Equal(t, ExitSuccess, code, val)
		assert.Len(t, h.runner.calls, 4, val)
	}
}

func TestCIGuardDisabled(t *testing.T) {
	h := newHarness()
	h.env["GITHUB_ACTIONS"] = "true"

	code := h.run("--user", "alice", "--image", "tool", "--skip-in-ci=false")
	assert.Equal(t, ExitSuccess, code)
	assert.Len(t, h.runner.calls, 4)

	// lenient has no guard
	h = newHarness()
	h.env["GITHUB_ACTIONS"] = "true"
	code = h.run("--user", "alice", "--image", "tool", "--variant", "lenient")
	assert.Equal(t, ExitSuccess, code)
	assert.Len(t, h.runner.calls, 5)
}

func TestCustomCIEnv(t *testing.T) {
	h := newHarness()
	h.env["GITLAB_CI"] = "true"

	code := h.run("--user", "alice", "--image", "tool", "--ci-env", "GITLAB_CI")
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, h.runner.calls)
}

func TestStrictBuildFailureStopsAndPropagatesExitCode(t *testing.T) {
	h := newHarness()
	h.runner.fail = map[string]int{"build": 17}

	code := h.run("--user", "alice", "--image", "tool")
	assert.Equal(t, 17, code)
	assert.Equal(t, []string{"docker login", "docker build -t tool ."}, h.runner.lines())
	assert.Contains(t, h.err.String(), "build")
}

func TestLenientFailuresDoNotStop(t *testing.T) {
	h := newHarness()
	h.runner.fail = map[string]int{"login": 1, "build": 1}

	code := h.run("--user", "alice", "--image", "tool", "--variant", "lenient")
	assert.Equal(t, ExitSuccess, code)
	assert.Len(t, h.runner.calls, 5)
	assert.Contains(t, h.err.String(), "ignored failures")
}

func TestMissingDockerfileFailsAtBuildStep(t *testing.T) {
	args := []string{"--user", "alice", "--image", "tool", "--dockerfile", "missing/Dockerfile"}

	h := newHarness()
	h.runner.fail = map[string]int{"build": 1}
	code := h.run(append(args, "--variant", "lenient")...)
	assert.Equal(t, ExitSuccess, code)
	require.Len(t, h.runner.calls, 5)
	assert.Equal(t, "docker build -t tool -f missing/Dockerfile .", h.runner.lines()[1])

	h = newHarness()
	h.runner.fail = map[string]int{"build": 1}
	code = h.run(args...)
	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"docker login", "docker build -t tool -f missing/Dockerfile ."}, h.runner.lines())
}

func TestPerStepCheckOverride(t *testing.T) {
	h := newHarness()
	h.runner.fail = map[string]int{"builder": 1}

	code := h.run("--user", "alice", "--image", "tool", "--prune", "--check", "prune=false")
	assert.Equal(t, ExitSuccess, code)
	assert.Len(t, h.runner.calls, 5)
}

func TestEndToEndPushTarget(t *testing.T) {
	h := newHarness()

	code := h.run("--user", "edenwang33773", "--image", "learning-rvemu-for-book-env")
	require.Equal(t, ExitSuccess, code, h.err.String())

	lines := h.runner.lines()
	require.Len(t, lines, 4)
	assert.Equal(t, "docker tag learning-rvemu-for-book-env edenwang33773/learning-rvemu-for-book-env", lines[2])
	assert.Equal(t, "docker push edenwang33773/learning-rvemu-for-book-env", lines[3])
}

func TestConfigFromFileAndEnv(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "imagepub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_name: alice\nimage_name: tool\n"), 0o644))
	h.env["IMAGEPUB_TAG"] = "1.0"

	code := h.run("--config", path)
	require.Equal(t, ExitSuccess, code, h.err.String())
	assert.Equal(t, "docker push alice/tool:1.0", h.runner.lines()[3])
}

func TestMissingNamesIsConfigError(t *testing.T) {
	h := newHarness()

	code := h.run()
	assert.Equal(t, ExitConfigError, code)
	assert.Empty(t, h.runner.calls)
}

func TestInvalidReferenceIsConfigError(t *testing.T) {
	h := newHarness()

	code := h.run("--user", "alice", "--image", "Tool")
	assert.Equal(t, ExitConfigError, code)
	assert.Empty(t, h.runner.calls)
}

func TestBadCheckFlag(t *testing.T) {
	h := newHarness()

	assert.Equal(t, ExitConfigError, h.run("--user", "a", "--image", "b", "--check", "prune=maybe"))
	assert.Equal(t, ExitConfigError, h.run("--user", "a", "--image", "b", "--check", "deploy=true"))
}

func TestPreflightFailureIsEnvError(t *testing.T) {
	h := newHarness()
	h.app.Preflight = docker.Preflight{
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
	}

	code := h.run("--user", "alice", "--image", "tool")
	assert.Equal(t, ExitEnvError, code)
	assert.Empty(t, h.runner.calls)
}

func TestDryRunPrintsCommands(t *testing.T) {
	h := newHarness()
	h.app.Runner = nil
	h.app.Preflight = docker.Preflight{
		LookPath: func(string) (string, error) { return "", errors.New("dry run skips preflight") },
	}

	code := h.run("--user", "alice", "--image", "tool", "--dry-run")
	require.Equal(t, ExitSuccess, code, h.err.String())
	assert.Equal(t, strings.Join([]string{
		"[DRY RUN] docker login",
		"[DRY RUN] docker build -t tool .",
		"[DRY RUN] docker tag tool alice/tool",
		"[DRY RUN] docker push alice/tool",
	}, "\n")+"\n", h.out.String())
}

func TestPlanCommand(t *testing.T) {
	h := newHarness()
	h.env["GITHUB_ACTIONS"] = "true"

	code := h.run("plan", "--user", "alice", "--image", "tool", "--variant", "lenient", "--skip-in-ci")
	require.Equal(t, ExitSuccess, code, h.err.String())

	out := h.out.String()
	assert.Empty(t, h.runner.calls)
	assert.Contains(t, out, "Tagged Name       : alice/tool")
	assert.Contains(t, out, "docker builder prune -a -f")
	assert.Contains(t, out, "Note: GitHub Actions detected")
}

func TestInitCommand(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "imagepub.yaml")

	require.Equal(t, ExitSuccess, h.run("init", path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "user_name:")

	assert.Equal(t, ExitConfigError, h.run("init", path))
	assert.Equal(t, ExitSuccess, h.run("init", path, "--force"))

	// the written file drives a run
	h = newHarness()
	require.Equal(t, ExitSuccess, h.run("--config", path), h.err.String())
	assert.Equal(t, "docker push edenwang33773/learning-rvemu-for-book-env", h.runner.lines()[3])
}

func TestVersionCommand(t *testing.T) {
	old := version.Version
	t.Cleanup(func() { version.Version = old })
	version.Version = "v1.2.3"

	h := newHarness()
	require.Equal(t, ExitSuccess, h.run("version"))
	assert.Equal(t, "imagepub v1.2.3\n", h.out.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitConfigError, ExitCode(&config.ValidationError{Field: "x", Msg: "y"}))
	assert.Equal(t, ExitEnvError, ExitCode(docker.ErrEnvironment))
}
