// Package bincheck checks that the external tools the CLI drives are installed.
package bincheck

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
)

type Requirement struct {
	Name   string
	Reason string
}

// Required lists the binaries bwsite shells out to.
var Required = []Requirement{
	{Name: "cdk", Reason: "deploys and destroys the stacks"},
	{Name: "aws", Reason: "reads stack outputs"},
	{Name: "node", Reason: "runs the cdk CLI"},
}

type Result struct {
	Path    string
	Version string
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Checker struct {
	runner   cmdexec.Runner
	lookPath func(string) (string, error)
	cache    sync.Map
}

func NewChecker(runner cmdexec.Runner) *Checker {
	return &Checker{runner: runner, lookPath: exec.LookPath}
}

// Check finds name on PATH and asks it for its version. Results are cached.
func (c *Checker) Check(ctx context.Context, name string) Result {
	if v, ok := c.cache.Load(name); ok {
		r, _ := v.(Result)
		return r
	}

	var r Result
	path, err := c.lookPath(name)
	if err != nil {
		r.Err = errors.Newf("%s not found in PATH", name)
	} else {
		r.Path = path
		out, err := c.runner.Output(ctx, "/", path, "--version")
		if err != nil {
			r.Err = errors.Wrapf(err, "%s --version", name)
		} else {
			r.Version, _, _ = strings.Cut(strings.TrimSpace(out), "\n")
		}
	}

	actual, _ := c.cache.LoadOrStore(name, r)
	stored, _ := actual.(Result)
	return stored
}
