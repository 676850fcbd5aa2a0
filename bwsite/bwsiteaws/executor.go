// Package bwsiteaws executes the data plane of a deployment graph against AWS:
// object uploads to S3 and the CloudFront cache invalidation.
//
// Control plane nodes are materialized by CloudFormation beforehand. Their
// attributes reach the data plane through stack outputs, keyed by
// Ref.OutputKey.
package bwsiteaws

import (
	"context"
	"sync"

	"github.com/basewarphq/bwsite/bwsite/bwsitegraph"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Result summarizes an executed data plane.
type Result struct {
	Uploaded       int
	InvalidationID string
}

// Executor runs data plane nodes.
type Executor struct {
	uploader    *Uploader
	invalidator *Invalidator
	tracer      trace.Tracer
	logger      *zap.Logger
	concurrency int
}

// NewExecutor returns an Executor running at most concurrency nodes at a time.
func NewExecutor(
	uploader *Uploader, invalidator *Invalidator, tracer trace.Tracer, logger *zap.Logger, concurrency int,
) *Executor {
	return &Executor{
		uploader:    uploader,
		invalidator: invalidator,
		tracer:      tracer,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run walks g, executing every data plane node once its dependencies are done.
// Control plane nodes are skipped; the attributes they provide are looked up
// in outputs. The first failure stops the walk.
func (e *Executor) Run(ctx context.Context, g *bwsitegraph.Graph, outputs map[string]string) (Result, error) {
	var (
		mu  sync.Mutex
		res Result
	)

	err := g.Walk(ctx, e.concurrency, func(ctx context.Context, n *bwsitegraph.Node) error {
		if n.Plane != bwsitegraph.DataPlane {
			return nil
		}

		ctx, span := e.tracer.Start(ctx, string(n.Kind), trace.WithAttributes(
			attribute.String("bwsite.node", n.ID),
		))
		defer span.End()

		attrs, err := resolve(n, outputs)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		switch n.Kind {
		case bwsitestack.KindObject:
			err = e.uploader.Upload(ctx, objectFrom(attrs))
			if err == nil {
				mu.Lock()
				res.Uploaded++
				mu.Unlock()
				e.logger.Debug("uploaded object", zap.String("key", attrs.str("Key")))
			}
		case bwsitestack.KindInvalidation:
			var id string
			id, err = e.invalidator.Invalidate(ctx, attrs.str("DistributionId"), attrs.strs("Paths"))
			if err == nil {
				mu.Lock()
				res.InvalidationID = id
				mu.Unlock()
				e.logger.Info("requested cache invalidation",
					zap.String("distribution", attrs.str("DistributionId")),
					zap.String("invalidation", id))
			}
		default:
			err = errors.Newf("no data plane executor for kind %q", n.Kind)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	})
	return res, err
}

type resolved map[string]any

func (r resolved) str(k string) string {
	s, _ := r[k].(string)
	return s
}

func (r resolved) strs(k string) []string {
	s, _ := r[k].([]string)
	return s
}

func (r resolved) ptr(k string) *string {
	s, ok := r[k].(string)
	if !ok {
		return nil
	}
	return &s
}

// resolve replaces Ref attributes with their stack output values.
func resolve(n *bwsitegraph.Node, outputs map[string]string) (resolved, error) {
	out := make(resolved, len(n.Attrs))
	for k, v := range n.Attrs {
		ref, ok := v.(bwsitegraph.Ref)
		if !ok {
			out[k] = v
			continue
		}
		val, ok := outputs[ref.OutputKey()]
		if !ok {
			return nil, errors.Newf("stack output %s for %s is missing", ref.OutputKey(), ref)
		}
		out[k] = val
	}
	return out, nil
}

func objectFrom(attrs resolved) Object {
	return Object{
		Bucket:       attrs.str("Bucket"),
		Key:          attrs.str("Key"),
		Source:       attrs.str("Source"),
		ContentType:  attrs.ptr("ContentType"),
		CacheControl: attrs.ptr("CacheControl"),
	}
}
