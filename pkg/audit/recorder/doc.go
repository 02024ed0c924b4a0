// Package recorder persists audit records for rule evaluations.
//
// The Recorder wraps any Evaluator (normally *engine.Engine) and writes one
// audit record per evaluation through a buffered channel, so storage latency
// never shows up on the evaluation path. Close drains the channel before
// returning.
package recorder
