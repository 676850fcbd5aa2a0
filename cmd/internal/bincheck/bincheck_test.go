package bincheck

import (
	"context"
	"os/exec"
	"testing"

	"github.com/cockroachdb/errors"
)

type fakeRunner struct {
	calls int
	out   string
	err   error
}

func (f *fakeRunner) Output(_ context.Context, _, _ string, _ ...string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeRunner) Run(context.Context, string, string, ...string) error {
	return nil
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		found       bool
		out         string
		runErr      error
		wantOK      bool
		wantVersion string
	}{
		{name: "installed", found: true, out: "2.1000.0 (build abc)\nextra\n", wantOK: true, wantVersion: "2.1000.0 (build abc)"},
		{name: "missing", found: false},
		{name: "broken", found: true, runErr: errors.New("exit 1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{out: tt.out, err: tt.runErr}
			c := NewChecker(runner)
			c.lookPath = func(name string) (string, error) {
				if !tt.found {
					return "", exec.ErrNotFound
				}
				return "/usr/bin/" + name, nil
			}

			r := c.Check(t.Context(), "cdk")
			if r.OK() != tt.wantOK {
				t.Fatalf("OK() = %v, err = %v", r.OK(), r.Err)
			}
			if r.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", r.Version, tt.wantVersion)
			}

			c.Check(t.Context(), "cdk")
			if tt.found && runner.calls != 1 {
				t.Errorf("expected cached result, runner called %d times", runner.calls)
			}
		})
	}
}
