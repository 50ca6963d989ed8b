// Package otel provides an OpenTelemetry observer plugin for permit pools.
// It emits span events (block, grant, abort, release) with low overhead.
package otel
