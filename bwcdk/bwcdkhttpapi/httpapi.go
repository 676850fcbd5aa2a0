// Package bwcdkhttpapi provides the HTTP API that fronts the site's server
// function.
//
// The API is built from L1 constructs so that every piece (integration, route,
// invoke permission, stage) can be declared on its own and ordered by the
// caller. Only the "$default" route is used: the CDN decides which requests
// reach the API at all.
package bwcdkhttpapi

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

// DefaultRouteKey catches every request not matched by another route.
const DefaultRouteKey = "$default"

// HTTPAPI provides access to the API and the pieces added to it.
type HTTPAPI interface {
	// Api returns the underlying API.
	Api() awsapigatewayv2.CfnApi
	// ApiID returns the API identifier.
	ApiID() *string
	// Endpoint returns the invoke URL, e.g. "https://abc123.execute-api.eu-west-1.amazonaws.com".
	Endpoint() *string
	// EndpointHost returns Endpoint without its scheme, for use as a CDN origin.
	EndpointHost() *string

	// AddLambdaIntegration proxies requests to fn with payload format 2.0.
	AddLambdaIntegration(id string, fn awslambda.IFunction) awsapigatewayv2.CfnIntegration
	// AddRoute routes routeKey to integration.
	AddRoute(id string, routeKey string, integration awsapigatewayv2.CfnIntegration) awsapigatewayv2.CfnRoute
	// GrantInvoke allows the API to invoke fn.
	GrantInvoke(id string, fn awslambda.IFunction) awslambda.CfnPermission
	// AddStage adds an auto-deployed stage. Use DefaultRouteKey as the name
	// to serve the API without a path prefix.
	AddStage(id string, stageName string) awsapigatewayv2.CfnStage
}

// Props configures the HTTPAPI construct.
type Props struct {
	// Description of the API. Optional.
	Description *string
}

type httpAPI struct {
	scope constructs.Construct
	api   awsapigatewayv2.CfnApi
}

// New creates an HTTP API without routes.
func New(scope constructs.Construct, id string, props Props) HTTPAPI {
	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &httpAPI{scope: scope}

	con.api = awsapigatewayv2.NewCfnApi(scope, jsii.String("Api"), &awsapigatewayv2.CfnApiProps{
		Name:         jsii.String(bwcdkutil.ResourceName(scope, id)),
		ProtocolType: jsii.String("HTTP"),
		Description:  props.Description,
	})

	return con
}

func (a *httpAPI) Api() awsapigatewayv2.CfnApi {
	return a.api
}

func (a *httpAPI) ApiID() *string {
	return a.api.Ref()
}

func (a *httpAPI) Endpoint() *string {
	return a.api.AttrApiEndpoint()
}

func (a *httpAPI) EndpointHost() *string {
	return awscdk.Fn_Select(jsii.Number(2), awscdk.Fn_Split(jsii.String("/"), a.Endpoint(), nil))
}

func (a *httpAPI) AddLambdaIntegration(id string, fn awslambda.IFunction) awsapigatewayv2.CfnIntegration {
	return awsapigatewayv2.NewCfnIntegration(a.scope, jsii.String(id), &awsapigatewayv2.CfnIntegrationProps{
		ApiId:                a.ApiID(),
		IntegrationType:      jsii.String("AWS_PROXY"),
		IntegrationUri:       fn.FunctionArn(),
		PayloadFormatVersion: jsii.String("2.0"),
	})
}

func (a *httpAPI) AddRoute(
	id string, routeKey string, integration awsapigatewayv2.CfnIntegration,
) awsapigatewayv2.CfnRoute {
	return awsapigatewayv2.NewCfnRoute(a.scope, jsii.String(id), &awsapigatewayv2.CfnRouteProps{
		ApiId:    a.ApiID(),
		RouteKey: jsii.String(routeKey),
		Target:   jsii.String("integrations/" + *integration.Ref()),
	})
}

func (a *httpAPI) GrantInvoke(id string, fn awslambda.IFunction) awslambda.CfnPermission {
	stack := awscdk.Stack_Of(a.scope)
	return awslambda.NewCfnPermission(a.scope, jsii.String(id), &awslambda.CfnPermissionProps{
		Action:       jsii.String("lambda:InvokeFunction"),
		FunctionName: fn.FunctionName(),
		Principal:    jsii.String("apigateway.amazonaws.com"),
		SourceArn: stack.FormatArn(&awscdk.ArnComponents{
			Service:      jsii.String("execute-api"),
			Resource:     a.ApiID(),
			ResourceName: jsii.String("*/*"),
		}),
	})
}

func (a *httpAPI) AddStage(id string, stageName string) awsapigatewayv2.CfnStage {
	return awsapigatewayv2.NewCfnStage(a.scope, jsii.String(id), &awsapigatewayv2.CfnStageProps{
		ApiId:      a.ApiID(),
		StageName:  jsii.String(stageName),
		AutoDeploy: jsii.Bool(true),
	})
}
