package claudeprovider

import (
	"log/slog"
	"time"
)

// Option configures ProviderOptions using the functional options pattern.
type Option func(*ProviderOptions)

// applyOptions applies functional options to a ProviderOptions struct.
func applyOptions(opts []Option) *ProviderOptions {
	options := &ProviderOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *ProviderOptions) {
		o.Logger = logger
	}
}

// WithMaxConcurrency bounds how many CLI subprocesses may run at once.
// Zero selects the default of 4; values outside [1, 100] cause New to
// fail.
func WithMaxConcurrency(n int) Option {
	return func(o *ProviderOptions) {
		o.MaxConcurrency = n
	}
}

// WithCLIPath sets the explicit path to the CLI binary.
// If not set, the binary is searched in PATH and common install
// locations.
func WithCLIPath(path string) Option {
	return func(o *ProviderOptions) {
		o.CLIPath = path
	}
}

// WithEnv provides additional environment variables for the CLI process.
func WithEnv(env map[string]string) Option {
	return func(o *ProviderOptions) {
		o.Env = env
	}
}

// WithStderr registers a callback invoked with each line of CLI stderr
// output as it arrives.
func WithStderr(callback func(string)) Option {
	return func(o *ProviderOptions) {
		o.Stderr = callback
	}
}

// WithTimeout bounds each request. The timeout travels the same
// cancellation path as a user abort; the resulting error unwraps to
// ErrRequestTimeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *ProviderOptions) {
		o.Timeout = d
	}
}

// WithTransportFactory injects a custom transport constructor, called
// once per request. Use this for testing or alternative communication
// methods; if not set, a subprocess transport is spawned per request.
func WithTransportFactory(factory func(log *slog.Logger, req *Request) Transport) Option {
	return func(o *ProviderOptions) {
		o.TransportFactory = factory
	}
}
