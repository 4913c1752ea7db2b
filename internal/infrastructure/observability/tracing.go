package observability

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName is used when TracingConfig.ServiceName is empty.
const DefaultServiceName = "campus-hub"

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	// ServiceName is reported as service.name.
	ServiceName string

	// Exporter is "stdout" or "none".
	Exporter string

	// Output receives stdout spans. Nil means os.Stdout.
	Output io.Writer
}

// Tracing owns the tracer provider for the process.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing builds a tracer provider and installs it globally.
// With the "none" exporter a no-op tracer is returned and nothing is
// installed.
func InitTracing(config TracingConfig) (*Tracing, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}

	switch config.Exporter {
	case "", "none":
		return &Tracing{tracer: noop.NewTracerProvider().Tracer(config.ServiceName)}, nil
	case "stdout":
	default:
		return nil, fmt.Errorf("unknown trace exporter: %s", config.Exporter)
	}

	opts := []stdouttrace.Option{}
	if config.Output != nil {
		opts = append(opts, stdouttrace.WithWriter(config.Output))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", config.ServiceName),
		)),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{provider: provider, tracer: provider.Tracer(config.ServiceName)}, nil
}

// Tracer returns the process tracer.
func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return t.provider.Shutdown(ctx)
}
