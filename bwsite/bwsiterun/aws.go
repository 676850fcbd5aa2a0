package bwsiterun

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

// Region is the region the site is deployed to. Empty means the SDK default.
type Region string

// clientOptions holds configuration for AWS client registration.
type clientOptions struct {
	region string
}

// ClientOption configures AWS client registration.
type ClientOption func(*clientOptions)

// ForRegion pins a client to a fixed region, regardless of the deployment region.
func ForRegion(region string) ClientOption {
	return func(o *clientOptions) {
		o.region = region
	}
}

const awsConfigTimeout = 10 * time.Second

// NewAWSConfig loads the default AWS SDK v2 configuration, optionally for a region.
func NewAWSConfig(ctx context.Context, region Region) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(string(region)))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// provideAWSConfig is an fx provider that loads AWS config with a timeout.
// It automatically instruments the config with OpenTelemetry for AWS SDK tracing.
// The TracerProvider and Propagator are explicitly injected to avoid global state.
func provideAWSConfig(
	region Region, tp trace.TracerProvider, prop propagation.TextMapPropagator,
) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()
	cfg, err := NewAWSConfig(ctx, region)
	if err != nil {
		return cfg, err
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop),
	)
	return cfg, nil
}

// AWSClientProvider creates an fx.Option that provides an AWS client for injection.
// The factory receives a copy of the shared aws.Config, with the region
// replaced when ForRegion is given.
func AWSClientProvider[T any](factory func(aws.Config) T, opts ...ClientOption) fx.Option {
	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return fx.Provide(func(cfg aws.Config) T {
		awsCfg := cfg.Copy()
		if options.region != "" {
			awsCfg.Region = options.region
		}
		return factory(awsCfg)
	})
}

// AWSClients provides the SDK clients used by the data plane and the store.
func AWSClients() fx.Option {
	return fx.Options(
		AWSClientProvider(func(cfg aws.Config) *s3.Client {
			return s3.NewFromConfig(cfg)
		}),
		// CloudFront is a global service served from us-east-1.
		AWSClientProvider(func(cfg aws.Config) *cloudfront.Client {
			return cloudfront.NewFromConfig(cfg)
		}, ForRegion("us-east-1")),
		AWSClientProvider(func(cfg aws.Config) *dynamodb.Client {
			return dynamodb.NewFromConfig(cfg)
		}),
	)
}
