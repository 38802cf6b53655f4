// Package metrics provides observability hooks for build metrics.
//
// The Recorder interface defines all metric operations. Components receive a
// Recorder through dependency injection and default to NoopRecorder, so
// metrics collection never requires nil checks and costs nothing when
// disabled. The Prometheus implementation is activated by the preview
// server, which exposes the registry over HTTP; one-shot builds keep the
// noop recorder.
package metrics
