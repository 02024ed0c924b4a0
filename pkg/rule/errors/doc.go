// Package errors provides rich diagnostics for rule document parsing and
// validation: typed errors with source locations, surrounding-line context,
// and suggested fixes, accumulated in an ErrorList so a single pass reports
// every problem in a document.
//
// These diagnostics are distinct from the engine's evaluation error
// taxonomy: an Error here points at a document, an engine error describes a
// failed evaluation.
package errors
