package bwsiterun

import (
	"context"
	"os"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

// TracerName is the instrumentation name of spans started by bwsite.
const TracerName = "github.com/basewarphq/bwsite"

func newExporter(ctx context.Context, kind string) (sdktrace.SpanExporter, error) {
	switch kind {
	case "none", "":
		return nil, nil //nolint:nilnil // no exporter means tracing is off
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	case "xrayudp":
		return xrayudp.NewSpanExporter(ctx)
	default:
		return nil, errors.Newf("unsupported OTEL_EXPORTER: %q (supported: none, stdout, xrayudp)", kind)
	}
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
	)
}

// NewTracerProvider creates the tracer provider for the configured exporter.
// With no exporter a no-op provider is returned. Pending spans are flushed when
// the fx app stops.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	ctx := context.Background()

	exporter, err := newExporter(ctx, env.otelExporter())
	if err != nil {
		return nil, err
	}
	if exporter == nil {
		return noop.NewTracerProvider(), nil
	}

	res, err := newResource(ctx, env.serviceName())
	if err != nil {
		return nil, errors.Wrap(err, "creating trace resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
	)
	lc.Append(fx.Hook{
		OnStop: tp.Shutdown,
	})
	return tp, nil
}

// NewPropagator returns the propagator injected into outgoing AWS calls.
func NewPropagator(Environment) propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		xray.Propagator{},
	)
}

// NewTracer returns the tracer used for command and resource spans.
func NewTracer(tp trace.TracerProvider) trace.Tracer {
	return tp.Tracer(TracerName)
}
