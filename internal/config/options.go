package config

import (
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Options configures the provider.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// MaxConcurrency bounds how many CLI subprocesses may run at once.
	// Zero selects the pool default; values outside [1, 100] are rejected.
	MaxConcurrency int

	// CLIPath is the explicit path to the CLI binary.
	// If empty, the binary is searched in PATH and common locations.
	CLIPath string

	// Env provides additional environment variables for the CLI process.
	Env map[string]string

	// Stderr is a callback invoked with each line of CLI stderr output.
	Stderr func(string)

	// Timeout bounds each request. It is implemented as a derived
	// cancellation: the timer fires the same cancellation path as a
	// user-initiated abort. Zero means no timeout.
	Timeout time.Duration

	// TransportFactory allows injecting custom transports, one per
	// request. If nil, the default subprocess transport is created.
	// This field is not serialized to JSON.
	TransportFactory func(log *slog.Logger, req *Request) Transport `json:"-"`
}

// Request describes one generation call. The argument list and working
// directory are built by the caller; the provider does not interpret or
// construct CLI flags.
type Request struct {
	// Args is the ready-built CLI argument list.
	Args []string

	// Dir is the working directory for the subprocess.
	// If empty, the current directory is used.
	Dir string

	// Prompt is the input text. When non-empty it is written to the
	// subprocess's stdin, which is then closed. When empty, stdin is
	// closed immediately (the prompt is assumed to be carried in Args).
	Prompt string

	// SessionID seeds the provider's session store for continuation.
	// Fresher ids reported by the CLI overwrite it.
	SessionID string

	// StructuredOutput buffers all text and emits a single delta with the
	// JSON extracted from it at stream end.
	StructuredOutput bool

	// Schema optionally validates the extracted JSON in structured-output
	// mode. Validation failures attach a warning, never fail the request.
	Schema *jsonschema.Schema
}
