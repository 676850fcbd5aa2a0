package bwcdkutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
)

// EdgeRegion is the region of resources used by CloudFront, such as its certificate.
const EdgeRegion = "us-east-1"

// SharedStackName returns the CloudFormation stack name for a shared stack.
// This is the canonical function for generating shared stack names.
func SharedStackName(qualifier, regionIdent string) string {
	base := strcase.ToLowerCamel(fmt.Sprintf("%s-%s", qualifier, regionIdent))
	return base + "Shared"
}

// DeploymentStackName returns the CloudFormation stack name for a deployment stack.
// This is the canonical function for generating deployment stack names.
func DeploymentStackName(qualifier, regionIdent, deploymentIdent string) string {
	base := strcase.ToLowerCamel(fmt.Sprintf("%s-%s", qualifier, regionIdent))
	return base + deploymentIdent
}

// EdgeStackName returns the name of the edge region stack of a deployment.
func EdgeStackName(qualifier, deploymentIdent string) string {
	return DeploymentStackName(qualifier, RegionIdentFor(EdgeRegion), deploymentIdent) + "Edge"
}

// NewStackFromConfig creates a new CDK Stack using a validated Config.
func NewStackFromConfig(
	scope constructs.Construct, cfg *Config, region string, deploymentIdent ...string,
) awscdk.Stack {
	qual := cfg.Qualifier
	regionIdent := RegionIdentFor(region)
	baseIdent := strcase.ToLowerCamel(fmt.Sprintf("%s-%s", qual, regionIdent))

	var stackName, description string
	switch {
	case len(deploymentIdent) > 0 && deploymentIdent[0] != "":
		dident := deploymentIdent[0]
		if strings.ToUpper(dident[:1]) != dident[:1] {
			panic("deployment identifier must start with a upper-case letter, got: " + dident)
		}

		stackName = DeploymentStackName(qual, regionIdent, dident)
		description = fmt.Sprintf("%s (region: %s, deployment: %s)", baseIdent, region, dident)
	case len(deploymentIdent) > 0:
		panic("invalid deploymentIdent: " + deploymentIdent[0])
	default:
		stackName = SharedStackName(qual, regionIdent)
		description = fmt.Sprintf("%s (region: %s)", baseIdent, region)
	}

	stack := newStack(scope, qual, stackName, description, region)
	if len(deploymentIdent) > 0 {
		StoreDeploymentIdent(stack, deploymentIdent[0])
	}
	return stack
}

// NewEdgeStack creates the edge region companion of the deployment stack that
// contains scope. The deployment stack is made to depend on it.
func NewEdgeStack(scope constructs.Construct) awscdk.Stack {
	cfg := ConfigFromScope(scope)
	parent := awscdk.Stack_Of(scope)
	dident := DeploymentIdent(scope)

	stack := newStack(awscdk.Stage_Of(scope), cfg.Qualifier,
		EdgeStackName(cfg.Qualifier, dident),
		fmt.Sprintf("%s edge resources (region: %s, deployment: %s)", cfg.Qualifier, EdgeRegion, dident),
		EdgeRegion)
	StoreDeploymentIdent(stack, dident)

	parent.AddDependency(stack, jsii.String("Edge resources must exist first"))
	return stack
}

func newStack(scope constructs.Construct, qual, name, description, region string) awscdk.Stack {
	return awscdk.NewStack(scope, jsii.String(name), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
			Region:  jsii.String(region),
		},
		Description: jsii.String(description),
		Synthesizer: awscdk.NewDefaultStackSynthesizer(&awscdk.DefaultStackSynthesizerProps{
			Qualifier: jsii.String(qual),
		}),
	})
}

// StoreDeploymentIdent records the deployment a stack belongs to. It is read
// back by DeploymentIdent and ResourceName.
func StoreDeploymentIdent(stack awscdk.Stack, deploymentIdent string) {
	stack.Node().SetContext(jsii.String(deploymentIdentContextKey), deploymentIdent)
}
