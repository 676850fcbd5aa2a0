package main

import (
	"context"

	"github.com/basewarphq/bwsite/bwsite/bwsiteassets"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiteinval"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/basewarphq/bwsite/cmd/internal/cdkctx"
	"github.com/basewarphq/bwsite/cmd/internal/cfnread"
	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"go.uber.org/fx"
)

// starter starts the runtime of a deployment, see bwsiterun.Start.
type starter func(
	ctx context.Context, cfg *bwsitecfg.Config, deployment, region string, opts ...fx.Option,
) (func(context.Context) error, error)

// Fingerprint keys of the asset roots.
const (
	staticRootKey      = "StaticAssets"
	prerenderedRootKey = "PrerenderedAssets"
)

func assetRoots(cfg *bwsitecfg.Config) []bwsiteinval.Root {
	target := cfg.Target()
	return []bwsiteinval.Root{
		{Key: staticRootKey, Path: target.StaticArtifactPath},
		{Key: prerenderedRootKey, Path: target.PrerenderedArtifactPath},
	}
}

// planAssets plans the uploads of both asset roots. Static assets carry the
// configured cache header, prerendered pages are revalidated through the CDN.
func planAssets(fsys billy.Filesystem, cfg *bwsitecfg.Config) ([]bwsiteassets.Record, error) {
	target := cfg.Target()
	sniff := bwsiteassets.WithSniffing(cfg.Upload.SniffContentTypes)

	static, err := bwsiteassets.Plan(fsys, target.StaticArtifactPath,
		sniff, bwsiteassets.WithCacheControl(cfg.Upload.StaticCacheControl))
	if err != nil {
		return nil, err
	}
	prerendered, err := bwsiteassets.Plan(fsys, target.PrerenderedArtifactPath, sniff)
	if err != nil {
		return nil, err
	}
	return bwsiteassets.Merge(static, prerendered)
}

// resolveTarget returns the deployment target with its routes resolved from
// the asset roots, the same way the CDK app does.
func resolveTarget(fsys billy.Filesystem, cfg *bwsitecfg.Config) (bwsitecfg.DeploymentTarget, error) {
	return bwsitestack.ResolveRoutes(fsys, cfg.Target())
}

// loadDeployment reads the CDK context and checks that deployment is one of its deployments.
func loadDeployment(cfg *bwsitecfg.Config, deployment string) (*cdkctx.CDKContext, error) {
	cctx, err := cdkctx.Load(cfg.CdkDir())
	if err != nil {
		return nil, err
	}
	if err := cctx.ValidateDeployment(deployment); err != nil {
		return nil, err
	}
	return cctx, nil
}

// cdkDeploy deploys stacks of the app synthesized for deployment.
func cdkDeploy(
	ctx context.Context, runner cmdexec.Runner, cfg *bwsitecfg.Config, deployment string, stacks ...string,
) error {
	args := []string{"deploy", "--require-approval", "never"}
	args = append(args, cdkctx.DeploymentArgs(deployment)...)
	args = append(args, stacks...)
	return runner.Run(ctx, cfg.CdkDir(), "cdk", args...)
}

// stackOutputs reads the outputs of a stack in the region encoded in its name.
func stackOutputs(
	ctx context.Context, runner cmdexec.Runner, cctx *cdkctx.CDKContext, stackName string,
) (map[string]string, error) {
	region, ok := cctx.ResolveStackRegion(stackName)
	if !ok {
		return nil, errors.Newf("cannot derive the region of stack %s", stackName)
	}
	return cfnread.StackOutputs(ctx, runner, region, stackName)
}
