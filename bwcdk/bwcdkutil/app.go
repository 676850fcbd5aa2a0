package bwcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

// SharedConstructor creates shared infrastructure in a given stack.
// It returns the shared construct that will be passed to deployment constructors.
type SharedConstructor[S any] func(stack awscdk.Stack) S

// DeploymentConstructor creates deployment-specific infrastructure in a given stack.
// It receives the shared construct and the deployment identifier.
type DeploymentConstructor[S any] func(stack awscdk.Stack, shared S, deploymentIdent string)

// AppConfig configures the CDK app setup.
type AppConfig struct {
	// Prefix for context keys (e.g., "bwsite-" for "bwsite-qualifier").
	Prefix string
}

// SetupApp configures a CDK app with one stack per deployment in the primary
// region, after an optional shared stack.
//
// newShared may be nil when the app has no shared resources; deployments then
// receive the zero S. SetupApp validates all context values upfront and
// panics with a clear error message if any are missing or invalid.
func SetupApp[S any](
	app awscdk.App,
	cfg AppConfig,
	newShared SharedConstructor[S],
	newDeployment DeploymentConstructor[S],
) {
	config, err := NewConfig(app, cfg)
	if err != nil {
		panic(err)
	}
	StoreConfig(app, config)

	var (
		shared      S
		sharedStack awscdk.Stack
	)
	if newShared != nil {
		sharedStack = NewStackFromConfig(app, config, config.PrimaryRegion)
		shared = newShared(sharedStack)
	}

	for _, deploymentIdent := range config.SelectedDeployments() {
		stack := NewStackFromConfig(app, config, config.PrimaryRegion, deploymentIdent)
		newDeployment(stack, shared, deploymentIdent)
		if sharedStack != nil {
			stack.AddDependency(sharedStack, jsii.String("Shared stack must deploy first"))
		}
	}
}
