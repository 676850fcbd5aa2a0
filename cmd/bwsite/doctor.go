package main

import (
	"context"

	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/cmd/internal/bincheck"
	"github.com/basewarphq/bwsite/cmd/internal/cdkctx"
	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
)

type DoctorCmd struct{}

func (c *DoctorCmd) Run(
	ctx context.Context, cfg *bwsitecfg.Config, fsys billy.Filesystem, runner cmdexec.Runner, rep *reporter,
) error {
	var failed bool
	check := bincheck.NewChecker(runner)

	rep.Section("tools")
	for _, req := range bincheck.Required {
		res := check.Check(ctx, req.Name)
		if !res.OK() {
			failed = true
			rep.Table(nil, [][]string{{"✗", req.Name, res.Err.Error(), "(" + req.Reason + ")"}})
			continue
		}
		rep.Table(nil, [][]string{{"✓", req.Name, res.Version}})
	}

	rep.Section("project")
	if _, err := cdkctx.Load(cfg.CdkDir()); err != nil {
		failed = true
		rep.Table(nil, [][]string{{"✗", "cdk context", err.Error()}})
	} else {
		rep.Table(nil, [][]string{{"✓", "cdk context", cfg.CdkDir()}})
	}

	target := cfg.Target()
	for _, dir := range []string{target.ServerArtifactPath, target.StaticArtifactPath, target.PrerenderedArtifactPath} {
		fi, err := fsys.Stat(dir)
		if err != nil || !fi.IsDir() {
			failed = true
			rep.Table(nil, [][]string{{"✗", dir, "artifact directory missing"}})
			continue
		}
		rep.Table(nil, [][]string{{"✓", dir}})
	}

	if failed {
		return errors.New("doctor found problems; see above")
	}
	rep.Linef("All checks passed.")
	return nil
}
