package claudeprovider

import (
	"github.com/pablof7z/claude-code-provider-go/internal/errors"
)

// Re-export error types and sentinels from internal/errors

// ProviderError is the base interface implemented by all error types the
// provider produces. Use errors.As with the concrete types below for
// specific handling.
type ProviderError = errors.ProviderError

// Sentinel errors for commonly checked conditions. Check with errors.Is.
var (
	// ErrRequestTimeout is the cancellation cause installed by
	// WithTimeout. Timeouts travel the same cancellation path as
	// user-initiated aborts.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrToolInputTooLarge indicates a serialized tool input exceeded the
	// hard size ceiling and the request was failed before emitting a tool
	// call.
	ErrToolInputTooLarge = errors.ErrToolInputTooLarge

	// ErrMissingResult indicates the event stream ended without a result
	// event.
	ErrMissingResult = errors.ErrMissingResult

	// ErrStdinClosed indicates a write was attempted after stdin closed.
	ErrStdinClosed = errors.ErrStdinClosed

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected
)

// AbortError indicates the request was cancelled before or while waiting
// for a process slot. Unwrap returns the cancellation cause.
type AbortError = errors.AbortError

// CLINotFoundError indicates the CLI binary was not found.
type CLINotFoundError = errors.CLINotFoundError

// SpawnError indicates the subprocess failed to start.
type SpawnError = errors.SpawnError

// ProcessError indicates the CLI process exited with a non-zero code.
type ProcessError = errors.ProcessError

// EventParseError indicates a stdout line was not valid JSON and the
// translator did not recognize it as a truncated response.
type EventParseError = errors.EventParseError

// MalformedEventError indicates a parsed JSON object did not have the
// expected event shape.
type MalformedEventError = errors.MalformedEventError

// AuthenticationError indicates the CLI failed because of missing or
// invalid credentials.
type AuthenticationError = errors.AuthenticationError

// ProtocolError indicates the CLI emitted an explicit error event.
type ProtocolError = errors.ProtocolError
