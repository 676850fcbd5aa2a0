// Package cmdexec runs the external tools the CLI drives (cdk, aws).
package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

type Error struct {
	Cmd      string
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("(in %s) %s %s", e.Dir, e.Cmd, strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit %d\n%s", msg, e.ExitCode, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: exit %d", msg, e.ExitCode)
}

// Runner runs external commands. Commands see the environment of the
// current process.
type Runner interface {
	// Output runs the command and returns its stdout.
	Output(ctx context.Context, dir, name string, args ...string) (string, error)
	// Run runs the command attached to the terminal.
	Run(ctx context.Context, dir, name string, args ...string) error
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Env is appended to the environment of the current process.
	Env []string
	// Stdout and Stderr of Run. They default to the process' own.
	Stdout io.Writer
	Stderr io.Writer
}

func (e Exec) command(ctx context.Context, dir, name string, args []string) (*exec.Cmd, error) {
	if !filepath.IsAbs(dir) {
		return nil, errors.Newf("cmdexec: dir must be absolute, got %q", dir)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	return cmd, nil
}

func (e Exec) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd, err := e.command(ctx, dir, name, args)
	if err != nil {
		return "", err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", wrapErr(dir, name, args, err, stderr.String())
	}
	return string(out), nil
}

func (e Exec) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd, err := e.command(ctx, dir, name, args)
	if err != nil {
		return err
	}

	stdout, stderr := e.Stdout, e.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var stderrBuf bytes.Buffer
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)

	if err := cmd.Run(); err != nil {
		return wrapErr(dir, name, args, err, stderrBuf.String())
	}
	return nil
}

func wrapErr(dir, name string, args []string, err error, stderr string) error {
	exitCode := 1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
		if stderr == "" {
			stderr = string(exitErr.Stderr)
		}
	}
	return &Error{
		Cmd:      name,
		Args:     args,
		Dir:      dir,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}
