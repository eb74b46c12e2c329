package errors

import (
	"errors"
	"fmt"
)

// ProviderError is the base interface for all provider errors.
type ProviderError interface {
	error
	IsProviderError() bool
}

// Compile-time verification that all error types implement ProviderError.
var (
	_ ProviderError = (*AbortError)(nil)
	_ ProviderError = (*CLINotFoundError)(nil)
	_ ProviderError = (*SpawnError)(nil)
	_ ProviderError = (*ProcessError)(nil)
	_ ProviderError = (*EventParseError)(nil)
	_ ProviderError = (*MalformedEventError)(nil)
	_ ProviderError = (*AuthenticationError)(nil)
	_ ProviderError = (*ProtocolError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrRequestTimeout is the cancellation cause installed by the
	// request timeout. Timeouts travel the same cancellation path as
	// user-initiated aborts; check with errors.Is.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrToolInputTooLarge indicates a serialized tool input exceeded the
	// hard size ceiling and the request was failed before emitting a
	// tool call.
	ErrToolInputTooLarge = errors.New("tool input exceeds size limit")

	// ErrMissingResult indicates the event stream ended without a result
	// event.
	ErrMissingResult = errors.New("stream ended without a result event")

	// ErrStdinClosed indicates stdin was closed due to context cancellation.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrUnknownEventType indicates the event type is not recognized.
	// Callers should skip these events rather than treating them as fatal.
	ErrUnknownEventType = errors.New("unknown event type")
)

// AbortError indicates a pool acquisition was cancelled. WhileQueued
// distinguishes requests cancelled while waiting for a slot from requests
// that arrived already cancelled. Unwrap returns the original cancellation
// cause so callers can tell user aborts from timeouts.
type AbortError struct {
	Err         error
	WhileQueued bool
}

func (e *AbortError) Error() string {
	if e.WhileQueued {
		return fmt.Sprintf("aborted while queued for a process slot: %v", e.Err)
	}

	return fmt.Sprintf("aborted before acquiring a process slot: %v", e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// IsProviderError implements ProviderError.
func (e *AbortError) IsProviderError() bool { return true }

// CLINotFoundError indicates the CLI binary was not found.
type CLINotFoundError struct {
	SearchedPaths []string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("CLI binary not found in: %v", e.SearchedPaths)
}

// IsProviderError implements ProviderError.
func (e *CLINotFoundError) IsProviderError() bool { return true }

// SpawnError indicates the subprocess failed to start.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn CLI process: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsProviderError implements ProviderError.
func (e *SpawnError) IsProviderError() bool { return true }

// ProcessError indicates the CLI process exited with a non-zero code.
// PromptExcerpt carries the leading characters of the original input for
// diagnostics.
type ProcessError struct {
	ExitCode      int
	Stderr        string
	PromptExcerpt string
	Err           error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("CLI process failed (exit %d): %s", e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("CLI process failed (exit %d): %v", e.ExitCode, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsProviderError implements ProviderError.
func (e *ProcessError) IsProviderError() bool { return true }

// EventParseError indicates a stdout line was not valid JSON.
// The raw line is preserved; whether the error is recoverable is decided
// by the translator's truncation heuristic.
type EventParseError struct {
	RawData string
	Err     error
}

func (e *EventParseError) Error() string {
	return fmt.Sprintf("failed to decode JSON event: %v", e.Err)
}

func (e *EventParseError) Unwrap() error {
	return e.Err
}

// IsProviderError implements ProviderError.
func (e *EventParseError) IsProviderError() bool { return true }

// MalformedEventError indicates a parsed JSON object did not have the
// expected event shape (for example, a missing content field). These are
// recoverable: the event is skipped and a warning attached.
type MalformedEventError struct {
	Reason string
	Data   map[string]any
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event: %s", e.Reason)
}

// IsProviderError implements ProviderError.
func (e *MalformedEventError) IsProviderError() bool { return true }

// AuthenticationError indicates the CLI failed because of missing or
// invalid credentials, detected from its error output.
type AuthenticationError struct {
	Message  string
	ExitCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("CLI authentication failed: %s", e.Message)
}

// IsProviderError implements ProviderError.
func (e *AuthenticationError) IsProviderError() bool { return true }

// ProtocolError indicates the CLI emitted an explicit error event.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("CLI error event (%s): %s", e.Code, e.Message)
	}

	return fmt.Sprintf("CLI error event: %s", e.Message)
}

// IsProviderError implements ProviderError.
func (e *ProtocolError) IsProviderError() bool { return true }
