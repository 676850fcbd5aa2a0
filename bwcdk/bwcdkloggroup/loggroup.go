// Package bwcdkloggroup provides a reusable CloudWatch Log Group construct
// with standardized retention, removal policy, and CloudFormation outputs.
//
// All log groups created with this construct export their names as stack
// outputs, enabling easy discovery via AWS CLI queries.
package bwcdkloggroup

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// DefaultRetention applies when Props.Retention is not set.
const DefaultRetention = awslogs.RetentionDays_ONE_WEEK

// LogGroup provides access to a CloudWatch Log Group with standardized configuration.
type LogGroup interface {
	// LogGroup returns the underlying CDK log group.
	LogGroup() awslogs.ILogGroup
	// OutputKey returns the stack output key holding the log group name.
	OutputKey() string
}

// Props configures the LogGroup construct.
type Props struct {
	// Purpose describes what this log group is for (e.g., "site server function").
	// Used in the CfnOutput description.
	// Required.
	Purpose *string
	// Retention overrides DefaultRetention.
	Retention awslogs.RetentionDays
}

type logGroup struct {
	lg        awslogs.ILogGroup
	outputKey string
}

// New creates a LogGroup construct. The log group is deleted with the stack
// and its name is exported under "{id}LogGroup".
func New(scope constructs.Construct, id string, props Props) LogGroup {
	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &logGroup{outputKey: id + "LogGroup"}

	retention := props.Retention
	if retention == "" {
		retention = DefaultRetention
	}

	con.lg = awslogs.NewLogGroup(scope, jsii.String("LogGroup"), &awslogs.LogGroupProps{
		Retention:     retention,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	awscdk.NewCfnOutput(scope, jsii.String("LogGroupOutput"), &awscdk.CfnOutputProps{
		Key:         jsii.String(con.outputKey),
		Description: jsii.String("CloudWatch Log Group for " + *props.Purpose),
		Value:       con.lg.LogGroupName(),
	})

	return con
}

func (l *logGroup) LogGroup() awslogs.ILogGroup {
	return l.lg
}

func (l *logGroup) OutputKey() string {
	return l.outputKey
}
