package claudeprovider

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
	"github.com/pablof7z/claude-code-provider-go/internal/pool"
	"github.com/pablof7z/claude-code-provider-go/internal/session"
	"github.com/pablof7z/claude-code-provider-go/internal/subprocess"
	"github.com/pablof7z/claude-code-provider-go/internal/translate"
)

// Provider adapts the CLI into a streaming generation interface. It is
// safe for concurrent use; the process pool bounds how many requests run
// at once and queues the rest in FIFO order.
type Provider struct {
	log     *slog.Logger
	options *ProviderOptions
	pool    *pool.Pool
	session *session.Store
}

// New creates a provider.
//
// By default, logging is disabled. Use WithLogger to enable logging:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	provider, err := claudeprovider.New(
//	    claudeprovider.WithLogger(logger),
//	    claudeprovider.WithMaxConcurrency(8),
//	)
func New(opts ...Option) (*Provider, error) {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	processPool, err := pool.New(log, options.MaxConcurrency)
	if err != nil {
		return nil, err
	}

	return &Provider{
		log:     log,
		options: options,
		pool:    processPool,
		session: &session.Store{},
	}, nil
}

// SessionID returns the most recent session id reported by the CLI, or
// "" if no request has completed yet. Callers use it to build the
// resume arguments of a follow-up request.
func (p *Provider) SessionID() string {
	return p.session.Current()
}

// Generate runs one request to completion and returns the collapsed
// result. It applies the same translation rules as Stream; a stream that
// would have failed mid-way fails Generate with the same error.
func (p *Provider) Generate(ctx context.Context, req *Request) (*Result, error) {
	return translate.Aggregate(p.Stream(ctx, req))
}

// Stream runs one request and returns an iterator of output parts.
//
// The iterator yields parts as they arrive: text spans, the tool
// invocation lifecycle, and a final Finish part carrying usage and
// metadata. A fatal condition is yielded as the error value and ends
// iteration; Finish is always the last part of a successful stream.
//
// The request occupies one pool slot for its whole duration. When the
// pool is at capacity the iterator blocks, in arrival order, until a
// slot frees up; cancelling ctx while queued abandons the wait without
// consuming a slot.
//
// Example usage:
//
//	for part, err := range provider.Stream(ctx, &claudeprovider.Request{
//	    Args:   []string{"--print", "--output-format", "stream-json"},
//	    Prompt: "What is 2+2?",
//	}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    switch pt := part.(type) {
//	    case *claudeprovider.TextDelta:
//	        fmt.Print(pt.Text)
//	    case *claudeprovider.Finish:
//	        fmt.Println()
//	    }
//	}
//
// Callers can always stop iteration early by breaking from the loop;
// the subprocess is terminated and the slot released.
func (p *Provider) Stream(ctx context.Context, req *Request) iter.Seq2[Part, error] {
	return func(yield func(Part, error) bool) {
		if req == nil {
			yield(nil, fmt.Errorf("request must not be nil"))

			return
		}

		log := p.log.With("component", "stream")

		// The transport's reader goroutines select on this context, so an
		// early break from the iterator must cancel it to unblock them.
		var cancel context.CancelFunc

		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		if p.options.Timeout > 0 {
			var cancelTimeout context.CancelFunc

			ctx, cancelTimeout = context.WithTimeoutCause(ctx, p.options.Timeout, errors.ErrRequestTimeout)
			defer cancelTimeout()
		}

		// A caller-supplied session id seeds the store so SessionID is
		// meaningful even if this request dies early.
		p.session.Update(req.SessionID)

		log.Debug("Acquiring process slot")

		slot, err := p.pool.Acquire(ctx)
		if err != nil {
			yield(nil, err)

			return
		}

		defer slot.Release()

		log = log.With("slot_id", slot.ID())

		transport := p.newTransport(log, req)

		log.Info("Starting transport")

		if err := transport.Start(ctx); err != nil {
			log.Error("Failed to start CLI", "error", err)
			yield(nil, err)

			return
		}

		defer transport.Close()

		if req.Prompt != "" {
			if err := transport.SendInput(ctx, []byte(req.Prompt)); err != nil {
				yield(nil, fmt.Errorf("send prompt: %w", err))

				return
			}
		}

		// The CLI waits for stdin to close before processing.
		if err := transport.EndInput(); err != nil {
			yield(nil, fmt.Errorf("close stdin: %w", err))

			return
		}

		translator := translate.New(log, translate.Config{
			StructuredOutput: req.StructuredOutput,
			Schema:           req.Schema,
		})

		events, errs := transport.ReadEvents(ctx)

		emit := func(parts []Part) bool {
			for _, part := range parts {
				if _, isFinish := part.(*Finish); isFinish {
					p.session.Update(translator.SessionID())
				}

				if !yield(part, nil) {
					log.Debug("Yield returned false, stopping iteration")

					return false
				}
			}

			return true
		}

		log.Debug("Reading events from transport")

		for events != nil || errs != nil {
			select {
			case ev, ok := <-events:
				if !ok {
					events = nil

					continue
				}

				// Anything after the result event is drained and ignored
				// so the process can exit cleanly.
				if translator.Finished() {
					continue
				}

				parts, err := translator.Push(ev)
				if err != nil {
					log.Error("Translation failed", "error", err)
					yield(nil, err)

					return
				}

				if !emit(parts) {
					return
				}

			case err, ok := <-errs:
				if !ok {
					errs = nil

					continue
				}

				if done := p.consumeStreamError(log, translator, err, emit, yield); done {
					return
				}

			case <-ctx.Done():
				// Finish already terminated the stream; cancellation while
				// draining a lingering process is not an error.
				if translator.Finished() {
					log.Debug("Context cancelled after result, stopping drain")

					return
				}

				log.Debug("Context cancelled", "cause", context.Cause(ctx))
				yield(nil, &errors.AbortError{Err: context.Cause(ctx)})

				return
			}
		}

		if !translator.Finished() {
			log.Warn("Stream ended without a result event")
			yield(nil, errors.ErrMissingResult)
		}
	}
}

// consumeStreamError routes one transport error: malformed events become
// warnings, decode failures go through the truncation heuristic, and
// everything else is fatal unless the result already arrived. Returns
// true when iteration must stop.
func (p *Provider) consumeStreamError(
	log *slog.Logger,
	translator *translate.Translator,
	err error,
	emit func([]Part) bool,
	yield func(Part, error) bool,
) bool {
	if malformed, ok := stderrors.AsType[*errors.MalformedEventError](err); ok {
		translator.RecordMalformed(malformed)

		return false
	}

	if translator.Finished() {
		log.Warn("Ignoring transport error after result", "error", err)

		return false
	}

	if parseErr, ok := stderrors.AsType[*errors.EventParseError](err); ok {
		parts, herr := translator.HandleDecodeError(parseErr)
		if herr != nil {
			log.Error("Failed to decode event", "error", herr)
			yield(nil, herr)

			return true
		}

		return !emit(parts)
	}

	log.Error("Transport failed", "error", err)
	yield(nil, err)

	return true
}

// newTransport builds the per-request transport, honoring an injected
// factory.
func (p *Provider) newTransport(log *slog.Logger, req *Request) Transport {
	if p.options.TransportFactory != nil {
		log.Debug("Using injected custom transport")

		return p.options.TransportFactory(log, req)
	}

	log.Debug("Creating CLI transport")

	return subprocess.New(log, p.options, req)
}
