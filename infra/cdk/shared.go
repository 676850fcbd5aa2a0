// Package cdk declares the stacks of the site's CDK app.
package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkdynamo"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
)

// Shared holds resources used by every deployment.
type Shared struct {
	Fingerprints bwcdkdynamo.Dynamo
}

// SharedConstructor returns the constructor of the shared stack, or nil when
// the site needs no shared resources.
func SharedConstructor(cfg *bwsitecfg.Config) func(stack awscdk.Stack) *Shared {
	if cfg.Store.Backend != bwsitecfg.StoreDynamoDB {
		return nil
	}

	return func(stack awscdk.Stack) *Shared {
		return &Shared{
			Fingerprints: bwcdkdynamo.New(stack, bwcdkdynamo.Props{
				TableName: jsii.String(cfg.Store.Table),
			}),
		}
	}
}
