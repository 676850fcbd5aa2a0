// Package bwcdkcdn provides the storage bucket and CloudFront distribution of
// a site.
//
// The distribution forwards everything to the dynamic origin by default and
// serves the configured path patterns from the private bucket through an
// origin access control.
package bwcdkcdn

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Behavior is one cache behavior of the distribution.
type Behavior struct {
	// PathPattern is empty for the default behavior.
	PathPattern string
	// Static serves the behavior from the bucket instead of the dynamic origin.
	Static bool
	// Cached selects the CachingOptimized managed policy, otherwise caching
	// is disabled.
	Cached bool
	// AllowAllMethods permits non-GET methods.
	AllowAllMethods bool
}

// DistributionProps configures NewDistribution.
type DistributionProps struct {
	// Bucket is the static origin.
	// Required.
	Bucket awss3.IBucket
	// DynamicOriginHost is the host name of the dynamic origin.
	// Required.
	DynamicOriginHost *string
	// DefaultBehavior applies to requests no other behavior matches.
	DefaultBehavior Behavior
	// Behaviors in precedence order.
	Behaviors []Behavior
	// DomainNames are alternate domain names. Requires Certificate.
	DomainNames []string
	// Certificate for DomainNames, issued in us-east-1.
	Certificate awscertificatemanager.ICertificate
}

// NewBucket creates the private bucket that holds static assets. Its content
// is removed along with the stack.
func NewBucket(scope constructs.Construct, id string) awss3.Bucket {
	return awss3.NewBucket(scope, jsii.String(id), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		EnforceSSL:        jsii.Bool(true),
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
	})
}

// NewDistribution creates the distribution in front of both origins.
func NewDistribution(scope constructs.Construct, id string, props DistributionProps) awscloudfront.Distribution {
	dynamic := awscloudfrontorigins.NewHttpOrigin(props.DynamicOriginHost, &awscloudfrontorigins.HttpOriginProps{
		ProtocolPolicy: awscloudfront.OriginProtocolPolicy_HTTPS_ONLY,
	})
	// LIST lets missing keys surface as 404 rather than 403. Reads are
	// granted separately by GrantRead.
	static := awscloudfrontorigins.S3BucketOrigin_WithOriginAccessControl(props.Bucket,
		&awscloudfrontorigins.S3BucketOriginWithOACProps{
			OriginAccessLevels: &[]awscloudfront.AccessLevel{awscloudfront.AccessLevel_LIST},
		})

	origin := func(b Behavior) awscloudfront.IOrigin {
		if b.Static {
			return static
		}
		return dynamic
	}

	distProps := &awscloudfront.DistributionProps{
		DefaultBehavior: behaviorOptions(props.DefaultBehavior, origin(props.DefaultBehavior)),
		HttpVersion:     awscloudfront.HttpVersion_HTTP2_AND_3,
	}
	if len(props.DomainNames) > 0 {
		distProps.DomainNames = jsii.Strings(props.DomainNames...)
		distProps.Certificate = props.Certificate
	}

	dist := awscloudfront.NewDistribution(scope, jsii.String(id), distProps)

	// AddBehavior keeps the order of the calls, a props map would not.
	for _, b := range props.Behaviors {
		opts := behaviorOptions(b, nil)
		dist.AddBehavior(jsii.String(b.PathPattern), origin(b), &awscloudfront.AddBehaviorOptions{
			CachePolicy:          opts.CachePolicy,
			OriginRequestPolicy:  opts.OriginRequestPolicy,
			AllowedMethods:       opts.AllowedMethods,
			ViewerProtocolPolicy: opts.ViewerProtocolPolicy,
			Compress:             opts.Compress,
		})
	}

	return dist
}

func behaviorOptions(b Behavior, origin awscloudfront.IOrigin) *awscloudfront.BehaviorOptions {
	opts := &awscloudfront.BehaviorOptions{
		Origin:               origin,
		CachePolicy:          awscloudfront.CachePolicy_CACHING_DISABLED(),
		AllowedMethods:       awscloudfront.AllowedMethods_ALLOW_GET_HEAD(),
		ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		Compress:             jsii.Bool(true),
	}
	if b.Cached {
		opts.CachePolicy = awscloudfront.CachePolicy_CACHING_OPTIMIZED()
	}
	if b.AllowAllMethods {
		opts.AllowedMethods = awscloudfront.AllowedMethods_ALLOW_ALL()
	}
	if !b.Static {
		// The API rejects requests carrying the distribution's host header.
		opts.OriginRequestPolicy = awscloudfront.OriginRequestPolicy_ALL_VIEWER_EXCEPT_HOST_HEADER()
	}
	return opts
}

// DistributionArn returns the ARN of dist.
func DistributionArn(dist awscloudfront.IDistribution) *string {
	return awscdk.Stack_Of(dist).FormatArn(&awscdk.ArnComponents{
		Service:      jsii.String("cloudfront"),
		Region:       jsii.String(""),
		Resource:     jsii.String("distribution"),
		ResourceName: dist.DistributionId(),
	})
}

// GrantRead allows dist, and only dist, to perform actions on the objects of
// bucket. Actions default to s3:GetObject.
func GrantRead(bucket awss3.IBucket, dist awscloudfront.IDistribution, actions ...string) {
	if len(actions) == 0 {
		actions = []string{"s3:GetObject"}
	}
	bucket.AddToResourcePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:    jsii.Strings(actions...),
		Resources:  jsii.Strings(*bucket.ArnForObjects(jsii.String("*"))),
		Principals: &[]awsiam.IPrincipal{awsiam.NewServicePrincipal(jsii.String("cloudfront.amazonaws.com"), nil)},
		Conditions: &map[string]any{
			"StringEquals": map[string]any{
				"AWS:SourceArn": DistributionArn(dist),
			},
		},
	}))
}
