// internal/executil/executil.go
package executil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Command is a single external process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   map[string]string // added on top of os.Environ()
	Stdin io.Reader

	// Display replaces Args when the command is printed (secrets redacted).
	Display []string
}

// String renders the command the way it is logged, never with secrets.
func (c Command) String() string {
	args := c.Args
	if c.Display != nil {
		args = c.Display
	}
	if len(args) == 0 {
		return c.Name
	}
	return c.Name + " " + ShellQuoteArgs(args)
}

// Runner executes commands. ExecRunner is the real one.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Cmd  string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed (exit=%d): %s", e.Code, e.Cmd)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the exit status carried by err, or 1 when err is
// non-nil but carries none.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// ExecRunner runs commands with inherited stdio. A Command's own Stdin
// takes precedence over the runner's.
type ExecRunner struct {
	Stdin  io.Reader // default os.Stdin
	Stdout io.Writer // default os.Stdout
	Stderr io.Writer // default os.Stderr

	// Announce, when set, is called with the printable command before it starts.
	Announce func(cmd string)
}

func (r ExecRunner) Run(ctx context.Context, c Command) error {
	return runCore(ctx, r, c)
}

// DryRunner prints commands instead of running them.
type DryRunner struct {
	Out io.Writer // default os.Stdout
}

func (r DryRunner) Run(_ context.Context, c Command) error {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	if c.Dir != "" {
		fmt.Fprintf(out, "[DRY RUN in %s] %s\n", c.Dir, c)
		return nil
	}
	fmt.Fprintf(out, "[DRY RUN] %s\n", c)
	return nil
}

func runCore(ctx context.Context, r ExecRunner, c Command) error {
	fullCmd := c.String()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	// docker login prompts on the terminal
	cmd.Stdin = c.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = r.Stdin
	}
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if r.Announce != nil {
		r.Announce(fullCmd)
	}
	if err := cmd.Run(); err != nil {
		// context cancellations show clearly
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return fmt.Errorf("command canceled: %s: %w", fullCmd, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				code = 128 + int(status.Signal())
			}
			return &ExitError{Cmd: fullCmd, Code: code, Err: err}
		}
		return fmt.Errorf("failed to run command: %s: %w", fullCmd, err)
	}
	return nil
}

// ShellQuoteArgs returns a printable, shell-safe representation of args.
func ShellQuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'`$\\*?[]{}()<>|&;") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
