// Package claudeprovider adapts the Claude CLI into a streaming
// generation provider.
//
// The provider spawns one CLI subprocess per request, reads its NDJSON
// event stream, and translates it into an ordered stream of output
// parts: text spans, the tool invocation lifecycle, and a final Finish
// part with usage and metadata. A bounded process pool caps how many
// subprocesses run at once; excess requests queue in FIFO order.
//
// # Basic Usage
//
// For a one-shot call that returns the collapsed result, use Generate:
//
//	provider, err := claudeprovider.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := provider.Generate(ctx, &claudeprovider.Request{
//	    Args:   []string{"--print", "--output-format", "stream-json", "--verbose"},
//	    Prompt: "What is 2+2?",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Text)
//
// # Streaming
//
// Stream yields parts as they arrive:
//
//	for part, err := range provider.Stream(ctx, req) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    switch pt := part.(type) {
//	    case *claudeprovider.TextDelta:
//	        fmt.Print(pt.Text)
//	    case *claudeprovider.ToolCall:
//	        fmt.Printf("\n[tool %s: %s]\n", pt.Name, pt.Input)
//	    case *claudeprovider.Finish:
//	        fmt.Printf("\n(%d tokens)\n", pt.Usage.TotalTokens)
//	    }
//	}
//
// # Structured Output
//
// Setting Request.StructuredOutput buffers all generated text and emits
// a single text delta with the JSON extracted from it at stream end,
// optionally validated against Request.Schema. Extraction and
// validation problems attach warnings to the Finish metadata rather
// than failing the request.
//
// # Session Continuity
//
// The CLI reports an opaque session id on its events; the provider
// tracks the freshest one. Read it with Provider.SessionID and pass it
// through your own resume arguments on the next request.
//
// # Logging
//
// Logging is disabled by default. Use WithLogger for detailed
// operation tracking:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	provider, err := claudeprovider.New(claudeprovider.WithLogger(logger))
//
// # Error Handling
//
// Errors surface as the error value of the stream iterator. Typed
// errors cover the failure scenarios:
//
//	result, err := provider.Generate(ctx, req)
//	if err != nil {
//	    if cliErr, ok := errors.AsType[*claudeprovider.CLINotFoundError](err); ok {
//	        log.Fatalf("CLI not installed, searched: %v", cliErr.SearchedPaths)
//	    }
//	    if procErr, ok := errors.AsType[*claudeprovider.ProcessError](err); ok {
//	        log.Fatalf("CLI exited %d: %s", procErr.ExitCode, procErr.Stderr)
//	    }
//	    log.Fatal(err)
//	}
//
// # Requirements
//
// The Claude CLI must be installed and available in PATH, or its
// location given with WithCLIPath. The provider never constructs CLI
// flags itself; callers supply the full argument list on each Request.
package claudeprovider
