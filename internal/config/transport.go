// Package config provides configuration types for the provider.
package config

import (
	"context"

	"github.com/pablof7z/claude-code-provider-go/internal/event"
)

// Transport defines the interface for CLI communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods.
//
// The default implementation spawns a subprocess per request.
// Custom transports can be injected via Options.TransportFactory.
type Transport interface {
	// Start spawns the process and prepares it for communication.
	Start(ctx context.Context) error

	// ReadEvents returns channels for receiving parsed events and errors.
	// Lines that fail to JSON-decode surface as *errors.EventParseError on
	// the error channel without stopping event delivery; a non-zero exit
	// surfaces as a typed error after all buffered events are delivered.
	// Both channels are closed when reading completes.
	ReadEvents(ctx context.Context) (<-chan event.Event, <-chan error)

	// SendInput writes data to the process's stdin.
	// Safe for concurrent use and honors context cancellation mid-write.
	SendInput(ctx context.Context, data []byte) error

	// EndInput closes stdin to signal that no more input is coming.
	EndInput() error

	// Close terminates the process synchronously.
	// Safe to call multiple times or on an already-terminated process.
	Close() error

	// IsReady reports whether the transport is ready for communication.
	IsReady() bool
}
