package subprocess

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablof7z/claude-code-provider-go/internal/config"
	"github.com/pablof7z/claude-code-provider-go/internal/errors"
	"github.com/pablof7z/claude-code-provider-go/internal/event"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockChunkReader delivers data in controlled chunks to simulate chunked
// pipe reads.
type mockChunkReader struct {
	chunks [][]byte
	index  int
}

func newMockChunkReader(chunks ...string) *mockChunkReader {
	byteChunks := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		byteChunks[i] = []byte(chunk)
	}

	return &mockChunkReader{chunks: byteChunks}
}

func (r *mockChunkReader) Read(p []byte) (int, error) {
	if r.index >= len(r.chunks) {
		return 0, io.EOF
	}

	chunk := r.chunks[r.index]
	r.index++

	n := copy(p, chunk)

	return n, nil
}

// decodeAll runs the transport's line decoding over a reader, collecting
// events and decode errors the way the read loop does.
func decodeAll(t *testing.T, reader io.Reader) ([]event.Event, []error) {
	t.Helper()

	var (
		events []event.Event
		errs   []error
	)

	scanner := bufio.NewScanner(reader)
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		ev, err := decodeLine(discardLogger(), line)
		if err != nil {
			if err != errors.ErrUnknownEventType {
				errs = append(errs, err)
			}

			continue
		}

		events = append(events, ev)
	}

	require.NoError(t, scanner.Err())

	return events, errs
}

func TestDecode_LineSplitAcrossChunks(t *testing.T) {
	reader := newMockChunkReader(
		`{"type":"system","ses`,
		`sion_id":"sess-1"}`+"\n",
		`{"type":"result","subtype":"success"}`+"\n",
	)

	events, errs := decodeAll(t, reader)
	require.Empty(t, errs)
	require.Len(t, events, 2)

	sys, ok := events[0].(*event.SystemEvent)
	require.True(t, ok)
	assert.Equal(t, "sess-1", sys.SessionID)

	_, ok = events[1].(*event.ResultEvent)
	require.True(t, ok)
}

func TestDecode_MultipleObjectsInOneChunk(t *testing.T) {
	reader := newMockChunkReader(
		`{"type":"system","session_id":"a"}` + "\n" +
			`{"type":"system","session_id":"b"}` + "\n",
	)

	events, errs := decodeAll(t, reader)
	require.Empty(t, errs)
	require.Len(t, events, 2)
}

func TestDecode_EmbeddedNewlinesStayEscaped(t *testing.T) {
	reader := newMockChunkReader(
		`{"type":"assistant","message":{"content":"Line 1\nLine 2"}}` + "\n",
	)

	events, errs := decodeAll(t, reader)
	require.Empty(t, errs)
	require.Len(t, events, 1)

	assistant, ok := events[0].(*event.AssistantEvent)
	require.True(t, ok)

	text, ok := assistant.Content[0].(*event.TextPart)
	require.True(t, ok)
	assert.Equal(t, "Line 1\nLine 2", text.Text)
}

func TestDecode_InvalidJSONForwardedNonFatal(t *testing.T) {
	reader := newMockChunkReader(
		"not json at all\n",
		`{"type":"system","session_id":"sess-1"}` + "\n",
	)

	events, errs := decodeAll(t, reader)

	require.Len(t, errs, 1)

	var parseErr *errors.EventParseError

	require.ErrorAs(t, errs[0], &parseErr)
	assert.Equal(t, "not json at all", parseErr.RawData)

	// The following valid line still comes through.
	require.Len(t, events, 1)
}

func TestDecode_UnknownTypeSkippedSilently(t *testing.T) {
	reader := newMockChunkReader(
		`{"type":"telemetry"}` + "\n" +
			`{"type":"system","session_id":"sess-1"}` + "\n",
	)

	events, errs := decodeAll(t, reader)
	require.Empty(t, errs)
	require.Len(t, events, 1)
}

func newShellTransport(script string, prompt string) *Transport {
	options := &config.Options{CLIPath: "/bin/sh"}
	req := &config.Request{
		Args:   []string{"-c", script},
		Prompt: prompt,
	}

	return New(discardLogger(), options, req)
}

// drain collects everything from a running transport's channels.
func drain(
	t *testing.T,
	events <-chan event.Event,
	errs <-chan error,
) ([]event.Event, []error) {
	t.Helper()

	var (
		collected []event.Event
		failures  []error
	)

	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil

				continue
			}

			collected = append(collected, ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			failures = append(failures, err)

		case <-time.After(5 * time.Second):
			t.Fatal("timed out draining transport")
		}
	}

	return collected, failures
}

func TestTransport_StreamsEventsAndExitsCleanly(t *testing.T) {
	tr := newShellTransport(
		`printf '{"type":"system","session_id":"sess-1"}\n{"type":"result","subtype":"success"}\n'`,
		"",
	)

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.NoError(t, tr.EndInput())

	events, errs := tr.ReadEvents(ctx)

	collected, failures := drain(t, events, errs)
	require.Empty(t, failures)
	require.Len(t, collected, 2)
}

func TestTransport_PromptWrittenToStdin(t *testing.T) {
	// cat echoes the prompt back, so the prompt must itself be an event.
	tr := newShellTransport("cat", `{"type":"system","session_id":"from-stdin"}`+"\n")

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.True(t, tr.IsReady())
	require.NoError(t, tr.SendInput(ctx, []byte(tr.prompt)))
	require.NoError(t, tr.EndInput())

	events, errs := tr.ReadEvents(ctx)

	collected, failures := drain(t, events, errs)
	require.Empty(t, failures)
	require.Len(t, collected, 1)

	sys, ok := collected[0].(*event.SystemEvent)
	require.True(t, ok)
	assert.Equal(t, "from-stdin", sys.SessionID)
}

func TestTransport_NonZeroExit(t *testing.T) {
	tr := newShellTransport(`echo boom 1>&2; exit 3`, "some prompt")

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.NoError(t, tr.EndInput())

	events, errs := tr.ReadEvents(ctx)

	collected, failures := drain(t, events, errs)
	require.Empty(t, collected)
	require.Len(t, failures, 1)

	var procErr *errors.ProcessError

	require.ErrorAs(t, failures[0], &procErr)
	assert.Equal(t, 3, procErr.ExitCode)
	assert.Equal(t, "boom", procErr.Stderr)
	assert.Equal(t, "some prompt", procErr.PromptExcerpt)
}

func TestTransport_BufferedEventsDeliveredBeforeExitError(t *testing.T) {
	tr := newShellTransport(
		`printf '{"type":"system","session_id":"sess-1"}\n'; exit 1`,
		"",
	)

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.NoError(t, tr.EndInput())

	events, errs := tr.ReadEvents(ctx)

	collected, failures := drain(t, events, errs)
	require.Len(t, collected, 1)
	require.Len(t, failures, 1)
}

func TestTransport_AuthFailureDetected(t *testing.T) {
	tr := newShellTransport(`echo "Invalid API key. Please run /login" 1>&2; exit 1`, "")

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.NoError(t, tr.EndInput())

	events, errs := tr.ReadEvents(ctx)

	_, failures := drain(t, events, errs)
	require.Len(t, failures, 1)

	var authErr *errors.AuthenticationError

	require.ErrorAs(t, failures[0], &authErr)
	assert.Equal(t, 1, authErr.ExitCode)
	assert.Contains(t, authErr.Message, "Invalid API key")
}

func TestTransport_CloseIdempotent(t *testing.T) {
	tr := newShellTransport("sleep 30", "")

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

func TestTransport_SendAfterEndInput(t *testing.T) {
	tr := newShellTransport("cat", "")

	ctx := context.Background()
	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.NoError(t, tr.EndInput())
	require.ErrorIs(t, tr.SendInput(ctx, []byte("late")), errors.ErrStdinClosed)
}

func TestTransport_CancelUnblocksReader(t *testing.T) {
	// Enough output to block the reader on the unbuffered event channel,
	// then a long sleep so only cancellation can end the stream.
	tr := newShellTransport(
		`i=0; while [ $i -lt 200 ]; do printf '{"type":"system","session_id":"s"}\n'; i=$((i+1)); done; sleep 30`,
		"",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, tr.Start(ctx))

	defer tr.Close()

	require.NoError(t, tr.EndInput())

	events, errs := tr.ReadEvents(ctx)

	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first event")
	}

	cancel()

	// drain only returns once both channels close, which requires the
	// reader goroutine to exit.
	_, failures := drain(t, events, errs)
	require.NotEmpty(t, failures)
	assert.ErrorIs(t, failures[len(failures)-1], context.Canceled)
}

func TestExcerpt_RuneBoundary(t *testing.T) {
	prompt := strings.Repeat("a", promptExcerptLen-1) + "日本語"

	got := excerpt(prompt)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", promptExcerptLen-1), got)

	short := "こんにちは"
	assert.Equal(t, short, excerpt(short))
}

func TestCleanStderr_StripsSourceContext(t *testing.T) {
	raw := "error: something broke\n" +
		"123 | const x = minified(code)\n" +
		"  at main (app.js:1:1)"

	cleaned := cleanStderr(raw)
	assert.Equal(t, "error: something broke\n  at main (app.js:1:1)", cleaned)
}
