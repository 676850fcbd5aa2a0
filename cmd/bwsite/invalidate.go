package main

import (
	"context"

	"github.com/basewarphq/bwsite/bwsite/bwsiteaws"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiteinval"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
)

type InvalidateCmd struct {
	Deployment string `arg:"" required:"" help:"Deployment name (e.g., Stag, Prod)."`
}

func (c *InvalidateCmd) Run(
	ctx context.Context, cfg *bwsitecfg.Config, runner cmdexec.Runner, start starter, rep *reporter,
) error {
	cctx, err := loadDeployment(cfg, c.Deployment)
	if err != nil {
		return err
	}

	stackName := cctx.StackName(c.Deployment)
	outputs, err := stackOutputs(ctx, runner, cctx, stackName)
	if err != nil {
		return err
	}
	distributionID := outputs[bwsitestack.DistributionID.OutputKey()]
	if distributionID == "" {
		return errors.Newf("stack %s has no %s output", stackName, bwsitestack.DistributionID.OutputKey())
	}

	var invalidator *bwsiteaws.Invalidator
	stop, err := start(ctx, cfg, c.Deployment, cctx.PrimaryRegion, fx.Populate(&invalidator))
	if err != nil {
		return err
	}
	defer func() { _ = stop(context.WithoutCancel(ctx)) }()

	id, err := invalidator.Invalidate(ctx, distributionID, []string{bwsiteinval.WildcardPath})
	if err != nil {
		return err
	}
	rep.Linef("invalidation %s created for distribution %s", id, distributionID)
	return nil
}
