// Package tracing wraps OpenTelemetry so that scheduler components can open
// spans per turn and per phase without importing the upstream packages.
package tracing
