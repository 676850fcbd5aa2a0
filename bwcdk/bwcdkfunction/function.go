// Package bwcdkfunction provides the Lambda function that serves the dynamic
// part of a site.
//
// The function code is the server bundle produced by the site's build. It runs
// on arm64 with JSON logging into a log group owned by the stack.
package bwcdkfunction

import (
	"maps"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkloggroup"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

const maxFunctionNameLen = 64

// Function provides access to the site's server function.
type Function interface {
	// Function returns the underlying Lambda function.
	Function() awslambda.IFunction
	// LogGroup returns the CloudWatch Log Group for the function.
	LogGroup() awslogs.ILogGroup
}

// Props configures the Function construct.
type Props struct {
	// Role is the execution role, see NewExecutionRole.
	// Required.
	Role awsiam.IRole
	// Code is the directory with the server bundle.
	// Required.
	Code *string
	// Handler is the entry point, e.g. "index.handler".
	// Required.
	Handler *string
	// Runtime is a Lambda runtime identifier such as "nodejs22.x".
	// Required.
	Runtime *string
	// MemorySize in MB. Defaults to 1024.
	MemorySize *float64
	// Timeout in seconds. Defaults to 15.
	Timeout *float64
	// Architecture is "arm64" (default) or "x86_64".
	Architecture *string
	// Environment variables to pass to the function.
	Environment *map[string]*string
}

type function struct {
	function awslambda.Function
	logGroup awslogs.ILogGroup
}

// NewExecutionRole creates the role assumed by the server function, with the
// basic execution policy for writing logs.
func NewExecutionRole(scope constructs.Construct, id string) awsiam.IRole {
	return awsiam.NewRole(scope, jsii.String(id), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil),
		ManagedPolicies: &[]awsiam.IManagedPolicy{
			awsiam.ManagedPolicy_FromAwsManagedPolicyName(
				jsii.String("service-role/AWSLambdaBasicExecutionRole")),
		},
	})
}

// ParseRuntime maps a runtime identifier to its CDK runtime. The family is
// inferred from the identifier prefix.
func ParseRuntime(name string) (awslambda.Runtime, error) {
	var family awslambda.RuntimeFamily
	switch {
	case strings.HasPrefix(name, "nodejs"):
		family = awslambda.RuntimeFamily_NODEJS
	case strings.HasPrefix(name, "python"):
		family = awslambda.RuntimeFamily_PYTHON
	case strings.HasPrefix(name, "provided"):
		family = awslambda.RuntimeFamily_OTHER
	default:
		return nil, errors.Newf("unsupported runtime %q (supported: nodejs*, python*, provided*)", name)
	}
	return awslambda.NewRuntime(jsii.String(name), family, nil), nil
}

// ParseArchitecture maps "arm64" or "x86_64" to its CDK architecture.
func ParseArchitecture(name string) (awslambda.Architecture, error) {
	switch name {
	case "", "arm64":
		return awslambda.Architecture_ARM_64(), nil
	case "x86_64":
		return awslambda.Architecture_X86_64(), nil
	default:
		return nil, errors.Newf("unsupported architecture %q (supported: arm64, x86_64)", name)
	}
}

// New creates the server function.
func New(scope constructs.Construct, id string, props Props) Function {
	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &function{}

	runtime, err := ParseRuntime(*props.Runtime)
	if err != nil {
		panic(err)
	}
	arch, err := ParseArchitecture(deref(props.Architecture))
	if err != nil {
		panic(err)
	}

	functionName := bwcdkutil.LimitedResourceName(scope, id, maxFunctionNameLen)

	env := make(map[string]*string)
	if props.Environment != nil {
		maps.Copy(env, *props.Environment)
	}
	env["BWSITE_SERVICE_NAME"] = jsii.String(functionName)

	con.logGroup = bwcdkloggroup.New(scope, id+"Logs", bwcdkloggroup.Props{
		Purpose: jsii.String("Lambda function " + id),
	}).LogGroup()

	memorySize := props.MemorySize
	if memorySize == nil {
		memorySize = jsii.Number(1024)
	}
	timeout := props.Timeout
	if timeout == nil {
		timeout = jsii.Number(15)
	}

	con.function = awslambda.NewFunction(scope, jsii.String("Function"), &awslambda.FunctionProps{
		FunctionName:  jsii.String(functionName),
		Code:          awslambda.Code_FromAsset(props.Code, nil),
		Handler:       props.Handler,
		Runtime:       runtime,
		Architecture:  arch,
		Role:          props.Role,
		MemorySize:    memorySize,
		Timeout:       awscdk.Duration_Seconds(timeout),
		Environment:   &env,
		Tracing:       awslambda.Tracing_ACTIVE,
		LogGroup:      con.logGroup,
		LoggingFormat: awslambda.LoggingFormat_JSON,
	})

	return con
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (f *function) Function() awslambda.IFunction {
	return f.function
}

func (f *function) LogGroup() awslogs.ILogGroup {
	return f.logGroup
}
