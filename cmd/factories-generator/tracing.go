package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "factories-generator"

// newTracer returns the global tracer when traceFile is empty, otherwise a
// tracer exporting every span to traceFile as JSON.
func newTracer(traceFile string) (trace.Tracer, func(context.Context) error, error) {
	if traceFile == "" {
		return otel.Tracer(serviceName), func(context.Context) error { return nil }, nil
	}

	f, err := os.Create(traceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f), stdouttrace.WithPrettyPrint())
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), f.Close())
	}

	return tp.Tracer(serviceName), shutdown, nil
}
