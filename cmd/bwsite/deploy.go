package main

import (
	"context"
	"strconv"

	"github.com/basewarphq/bwsite/bwsite/bwsiteaws"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiteinval"
	"github.com/basewarphq/bwsite/bwsite/bwsiterun"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/go-git/go-billy/v5"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type DeployCmd struct {
	Deployment string `arg:"" required:"" help:"Deployment name (e.g., Stag, Prod)."`
	SkipInfra  bool   `help:"Skip cdk deploy and only sync assets to the deployed stacks." name:"skip-infra"`
}

func (c *DeployCmd) Run(
	ctx context.Context,
	cfg *bwsitecfg.Config,
	fsys billy.Filesystem,
	runner cmdexec.Runner,
	start starter,
	rep *reporter,
) error {
	cctx, err := loadDeployment(cfg, c.Deployment)
	if err != nil {
		return err
	}

	var (
		logger   *zap.Logger
		tracer   trace.Tracer
		trigger  *bwsiteinval.Trigger
		executor *bwsiteaws.Executor
	)
	stop, err := start(ctx, cfg, c.Deployment, cctx.PrimaryRegion,
		fx.Populate(&logger, &tracer, &trigger, &executor))
	if err != nil {
		return err
	}
	defer func() { _ = stop(context.WithoutCancel(ctx)) }()

	ctx, span := tracer.Start(ctx, "deploy "+c.Deployment)
	defer span.End()
	log := bwsiterun.Log(ctx, logger).With(zap.String("deployment", c.Deployment))

	// The dynamodb store reads a table of the shared stack.
	if !c.SkipInfra && cfg.Store.Backend == bwsitecfg.StoreDynamoDB {
		shared := cctx.SharedStackName()
		log.Info("deploying shared stack", zap.String("stack", shared))
		if err := cdkDeploy(ctx, runner, cfg, c.Deployment, shared); err != nil {
			return err
		}
	}

	decision, err := trigger.Evaluate(ctx, assetRoots(cfg))
	if err != nil {
		return err
	}

	assets, err := planAssets(fsys, cfg)
	if err != nil {
		return err
	}
	target, err := resolveTarget(fsys, cfg)
	if err != nil {
		return err
	}
	g, err := bwsitestack.BuildFromDecision(target, assets, decision)
	if err != nil {
		return err
	}

	stackName := cctx.StackName(c.Deployment)
	if !c.SkipInfra {
		log.Info("deploying stacks", zap.String("stack", stackName))
		if err := cdkDeploy(ctx, runner, cfg, c.Deployment, stackName); err != nil {
			return err
		}
	}

	outputs, err := stackOutputs(ctx, runner, cctx, stackName)
	if err != nil {
		return err
	}

	res, err := executor.Run(ctx, g, outputs)
	if err != nil {
		return err
	}

	// Only persisted once everything above succeeded, so a failed deployment
	// invalidates again on the next attempt.
	if err := trigger.Commit(ctx, decision); err != nil {
		return err
	}
	log.Info("deployment finished", zap.Int("uploaded", res.Uploaded), zap.Stringer("cache", decision.State))

	rep.Section(c.Deployment)
	rows := [][]string{
		{"stack", stackName},
		{"objects uploaded", strconv.Itoa(res.Uploaded)},
		{"cache", decision.State.String()},
	}
	if res.InvalidationID != "" {
		rows = append(rows, []string{"invalidation", res.InvalidationID})
	}
	if domain := outputs[bwsitestack.DistributionDomainName.OutputKey()]; domain != "" {
		rows = append(rows, []string{"distribution", domain})
	}
	if target.HasDomain() {
		rows = append(rows, []string{"url", "https://" + target.FQDN})
	}
	rep.Table(nil, rows)
	return nil
}
