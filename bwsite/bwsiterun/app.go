// Package bwsiterun wires the process level dependencies of the bwsite
// commands with fx: environment, logging, tracing, AWS clients and the
// fingerprint store.
//
// Commands build an app with Start, pull what they need with fx.Populate and
// stop it when done so traces are flushed:
//
//	var deps struct {
//	    Logger *zap.Logger
//	    Store  bwsitestore.Store
//	}
//	stop, err := bwsiterun.Start(ctx, cfg, "Prod", "eu-central-1",
//	    fx.Populate(&deps.Logger, &deps.Store))
//	if err != nil {
//	    return err
//	}
//	defer stop(ctx)
package bwsiterun

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/basewarphq/bwsite/bwsite/bwsiteaws"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiteinval"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the runtime dependencies. The Config, Namespace and Region
// must be supplied by the caller.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			ParseEnv[BaseEnvironment](),
			func(e BaseEnvironment) Environment { return e },
			NewLogger,
			NewTracerProvider,
			NewPropagator,
			NewTracer,
			provideAWSConfig,
			NewFilesystem,
			NewStore,
		),
		AWSClients(),
		fx.Provide(
			func(c *s3.Client) bwsiteaws.PutObjectAPI { return c },
			func(c *cloudfront.Client) bwsiteaws.CreateInvalidationAPI { return c },
		),
	)
}

// Services provides the deployment services built on top of Module: the
// invalidation trigger and the data plane executor.
func Services() fx.Option {
	return fx.Provide(
		bwsiteinval.New,
		bwsiteaws.NewUploader,
		bwsiteaws.NewInvalidator,
		NewExecutor,
	)
}

// NewExecutor returns the data plane executor with the configured upload concurrency.
func NewExecutor(
	cfg *bwsitecfg.Config, u *bwsiteaws.Uploader, i *bwsiteaws.Invalidator, tracer trace.Tracer, logger *zap.Logger,
) *bwsiteaws.Executor {
	return bwsiteaws.NewExecutor(u, i, tracer, logger, cfg.Upload.Concurrency)
}

// Start builds and starts an app for a deployment of the configured site.
// The returned function stops it.
func Start(
	ctx context.Context, cfg *bwsitecfg.Config, deployment string, region string, opts ...fx.Option,
) (func(context.Context) error, error) {
	all := append([]fx.Option{
		fx.NopLogger,
		fx.Supply(cfg, NewNamespace(cfg, deployment), Region(region)),
		Module(),
		Services(),
	}, opts...)

	app := fx.New(all...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app.Stop, nil
}
