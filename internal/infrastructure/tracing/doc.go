/*
Package tracing provides lightweight request tracing for debugging slow
commands.

# Overview

This package implements minimal span tracking in the spirit of
OpenTelemetry without the dependency. Every HTTP request gets a span, and
each dispatched command opens a child span named after its verb, so one
slow /command can be correlated with the driver work it triggered.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- Automatic trace ID generation
- Gin middleware for automatic instrumentation
- Structured logging integration
- Low overhead with buffered span collection

# Usage

	// Create tracer
	tracer := tracing.New("wardend", logger)

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	span.SetTag("key", "value")

	span.Finish()
	tracer.Submit(span)

# Trace Format

Traces use standard HTTP headers for propagation:
- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation

The same headers are attached to outbound WebDriver calls, so a logging
proxy in front of a remote browser grid can tie driver traffic back to
the command that caused it.

# Performance

Spans are buffered (1000 deep) and processed asynchronously; when the
buffer is full new spans are dropped rather than blocking the request
path.
*/
package tracing
