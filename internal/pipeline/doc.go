// Package pipeline runs the generation stages in order: scan, validate,
// pages, sync and sitemap.
//
// Each stage is timed and reported to a metrics.Recorder. Per-file problems
// (a missing fragment, a file that cannot be read) are logged and counted;
// they never stop the run. Invalid metadata stops the run before any output
// is written.
package pipeline
