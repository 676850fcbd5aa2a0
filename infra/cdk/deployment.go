package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/basewarphq/bwsite/bwcdk/bwcdksite"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/go-git/go-billy/v5"
)

// DeploymentConstructor returns the constructor of a deployment stack. Only
// the control plane is declared: objects are uploaded by the deploy command.
func DeploymentConstructor(
	cfg *bwsitecfg.Config, fsys billy.Filesystem,
) func(stack awscdk.Stack, shared *Shared, deploymentIdent string) {
	return func(stack awscdk.Stack, _ *Shared, _ string) {
		target, err := bwsitestack.ResolveRoutes(fsys, cfg.Target())
		if err != nil {
			panic(err)
		}

		g, err := bwsitestack.Build(bwsitestack.Input{Target: target})
		if err != nil {
			panic(err)
		}

		bwcdksite.New(stack, bwcdksite.Props{Graph: g})
	}
}
