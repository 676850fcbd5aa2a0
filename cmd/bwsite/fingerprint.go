package main

import (
	"context"

	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiteinval"
	"go.uber.org/fx"
)

type FingerprintCmd struct {
	Deployment string `arg:"" required:"" help:"Deployment whose stored fingerprints are compared."`
}

func (c *FingerprintCmd) Run(ctx context.Context, cfg *bwsitecfg.Config, start starter, rep *reporter) error {
	cctx, err := loadDeployment(cfg, c.Deployment)
	if err != nil {
		return err
	}

	var trigger *bwsiteinval.Trigger
	stop, err := start(ctx, cfg, c.Deployment, cctx.PrimaryRegion, fx.Populate(&trigger))
	if err != nil {
		return err
	}
	defer func() { _ = stop(context.WithoutCancel(ctx)) }()

	d, err := trigger.Evaluate(ctx, assetRoots(cfg))
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(d.Roots))
	for _, rd := range d.Roots {
		prior := rd.Prior
		if prior == "" {
			prior = "-"
		}
		rows = append(rows, []string{rd.Key, rd.Current.Path, rd.State.String(), rd.Current.Hash, prior})
	}

	rep.Section("fingerprints")
	rep.Table([]string{"ROOT", "PATH", "STATE", "HASH", "PRIOR"}, rows)
	if d.Invalidate() {
		rep.Linef("decision: %s, invalidate %v", d.State, d.Paths())
	} else {
		rep.Linef("decision: %s", d.State)
	}
	return nil
}
