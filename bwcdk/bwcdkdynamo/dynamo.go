// Package bwcdkdynamo provides the DynamoDB table that keeps asset fingerprints
// between deploys.
//
// The table uses a partition key (pk) and sort key (sk). Each deployment writes
// its fingerprints under its own partition, so one table in the shared stack
// serves all deployments.
package bwcdkdynamo

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkparams"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

// TableNameOutputKey is the CloudFormation output key for the table name.
const TableNameOutputKey = "FingerprintTableName"

const paramsNamespace = "dynamo"

// Dynamo provides access to the fingerprint table.
type Dynamo interface {
	// Table returns the DynamoDB table.
	Table() awsdynamodb.ITableV2
}

// Props configures the Dynamo construct.
type Props struct {
	// TableName is the physical table name. When nil a name is derived from
	// the qualifier, e.g. "{qualifier}-fingerprints".
	TableName *string
}

type dynamo struct {
	table awsdynamodb.ITableV2
}

// New creates the fingerprint table, stores its name in SSM Parameter Store
// and exports it as a stack output.
func New(scope constructs.Construct, props Props) Dynamo {
	scope = constructs.NewConstruct(scope, jsii.String("Dynamo"))
	con := &dynamo{}

	tableName := props.TableName
	if tableName == nil || *tableName == "" {
		tableName = jsii.String(bwcdkutil.ResourceName(scope, "fingerprints"))
	}

	con.table = awsdynamodb.NewTableV2(scope, jsii.String("Table"), &awsdynamodb.TablePropsV2{
		TableName:     tableName,
		PartitionKey:  &awsdynamodb.Attribute{Name: jsii.String("pk"), Type: awsdynamodb.AttributeType_STRING},
		SortKey:       &awsdynamodb.Attribute{Name: jsii.String("sk"), Type: awsdynamodb.AttributeType_STRING},
		Billing:       awsdynamodb.Billing_OnDemand(nil),
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
		PointInTimeRecoverySpecification: &awsdynamodb.PointInTimeRecoverySpecification{
			PointInTimeRecoveryEnabled: jsii.Bool(true),
		},
	})

	bwcdkparams.Store(scope, "TableNameParam", paramsNamespace, "fingerprint-table-name", con.table.TableName())

	awscdk.NewCfnOutput(awscdk.Stack_Of(scope), jsii.String(TableNameOutputKey), &awscdk.CfnOutputProps{
		Value:       con.table.TableName(),
		Description: jsii.String("DynamoDB table holding asset fingerprints"),
	})

	return con
}

func (d *dynamo) Table() awsdynamodb.ITableV2 {
	return d.table
}
