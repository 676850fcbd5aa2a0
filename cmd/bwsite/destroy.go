package main

import (
	"context"

	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsitegraph"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/basewarphq/bwsite/cmd/internal/cdkctx"
	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/go-git/go-billy/v5"
)

type DestroyCmd struct {
	Deployment string `arg:"" required:"" help:"Deployment name (e.g., Stag, Prod)."`
	Force      bool   `help:"Do not ask for confirmation."`
}

func (c *DestroyCmd) Run(
	ctx context.Context, cfg *bwsitecfg.Config, fsys billy.Filesystem, runner cmdexec.Runner, rep *reporter,
) error {
	cctx, err := loadDeployment(cfg, c.Deployment)
	if err != nil {
		return err
	}

	target, err := resolveTarget(fsys, cfg)
	if err != nil {
		return err
	}
	g, err := bwsitestack.Build(bwsitestack.Input{Target: target})
	if err != nil {
		return err
	}
	// One at a time, so nodes are listed in the order they are removed.
	var nodes []*bwsitegraph.Node
	err = g.WalkReverse(ctx, 1, func(_ context.Context, n *bwsitegraph.Node) error {
		nodes = append(nodes, n)
		return nil
	})
	if err != nil {
		return err
	}
	reportNodes(rep, "teardown order", planOutput{Nodes: nodes, Edges: g.Edges()})

	// The deployment stack depends on the edge stack, cdk removes it first.
	stacks := []string{cctx.StackName(c.Deployment)}
	if target.HasDomain() && cctx.NeedsEdgeStack() {
		stacks = append(stacks, cctx.EdgeStackName(c.Deployment))
	}

	args := []string{"destroy"}
	if c.Force {
		args = append(args, "--force")
	}
	args = append(args, cdkctx.DeploymentArgs(c.Deployment)...)
	args = append(args, stacks...)
	return runner.Run(ctx, cfg.CdkDir(), "cdk", args...)
}
