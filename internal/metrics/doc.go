// Package metrics records build observations.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay
// optional. When paths.metrics is configured the CLI injects a
// PrometheusRecorder and writes its registry as a node-exporter textfile at
// the end of the run.
package metrics
