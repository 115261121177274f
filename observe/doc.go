// Package observe provides logging, metrics and tracing for upstream data
// calls and cache lookups.
//
// It is a pure instrumentation library: no fetching and no caching. The cache
// and provider packages accept an Observer's Logger, Metrics and Tracer and
// report through them.
//
// Log lines are written by zerolog as JSON or console text. Metrics and spans go through
// OpenTelemetry providers whose exporters are selected by name (see the
// exporters subpackage).
package observe
