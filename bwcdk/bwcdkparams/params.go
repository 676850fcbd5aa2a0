// Package bwcdkparams provides utilities for storing and retrieving CDK construct
// values across AWS regions using AWS Systems Manager Parameter Store.
//
// A site's certificate must live in us-east-1 while the rest of a deployment
// may not: the edge stack stores the certificate ARN and the deployment stack
// looks it up with [Lookup].
package bwcdkparams

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/aws-cdk-go/awscdk/v2/customresources"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

// ParameterName generates a hierarchical SSM parameter path.
// Returns a path like /{qualifier}/{namespace}/{name}.
func ParameterName(scope constructs.Construct, namespace string, name string) *string {
	qual := bwcdkutil.Qualifier(scope)
	return jsii.Sprintf("/%s/%s/%s", qual, namespace, name)
}

// DeploymentNamespace scopes namespace to the deployment of scope, so that
// deployments sharing an account do not overwrite each other's parameters.
func DeploymentNamespace(scope constructs.Construct, namespace string) string {
	if ident := bwcdkutil.DeploymentIdent(scope); ident != "" {
		return namespace + "/" + ident
	}
	return namespace
}

// Store creates and stores a parameter in AWS SSM Parameter Store.
func Store(scope constructs.Construct, id string, namespace string, name string, value *string) awsssm.StringParameter {
	return awsssm.NewStringParameter(scope, jsii.String(id),
		&awsssm.StringParameterProps{
			ParameterName: ParameterName(scope, namespace, name),
			StringValue:   value,
		})
}

// Lookup retrieves a parameter stored in region using a custom resource.
// The physicalID should be a stable identifier for the custom resource (e.g., "certificate-arn-lookup").
func Lookup(
	scope constructs.Construct, id string, region string, namespace string, name string, physicalID string,
) *string {
	sdkCall := &customresources.AwsSdkCall{
		Service: jsii.String("SSM"),
		Action:  jsii.String("getParameter"),
		Parameters: map[string]any{
			"Name": ParameterName(scope, namespace, name),
		},
		Region:             jsii.String(region),
		PhysicalResourceId: customresources.PhysicalResourceId_Of(jsii.String(physicalID)),
	}
	// OnUpdate is required so that a changed parameter (e.g. a re-issued
	// certificate) triggers a new GetParameter call. Without it, CloudFormation
	// skips the SDK call on update and the response is empty, causing
	// "doesn't contain Parameter.Value" errors.
	lookup := customresources.NewAwsCustomResource(scope, jsii.String(id),
		&customresources.AwsCustomResourceProps{
			OnCreate: sdkCall,
			OnUpdate: sdkCall,
			Policy: customresources.AwsCustomResourcePolicy_FromSdkCalls(&customresources.SdkCallsPolicyOptions{
				Resources: customresources.AwsCustomResourcePolicy_ANY_RESOURCE(),
			}),
		})
	return lookup.GetResponseField(jsii.String("Parameter.Value"))
}
