// Package errors defines error types for the provider.
//
// This package provides structured error types for the failure scenarios
// that arise when running the external CLI as a subprocess: pool
// acquisition aborts, spawn failures, non-zero exits, malformed wire
// events, and protocol-level errors. All error types support unwrapping
// and can be checked with errors.Is and errors.As.
package errors
