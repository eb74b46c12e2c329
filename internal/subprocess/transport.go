// Package subprocess runs the external CLI as a child process and turns
// its newline-delimited JSON stdout into a stream of typed events.
package subprocess

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pablof7z/claude-code-provider-go/internal/cli"
	"github.com/pablof7z/claude-code-provider-go/internal/config"
	"github.com/pablof7z/claude-code-provider-go/internal/errors"
	"github.com/pablof7z/claude-code-provider-go/internal/event"
)

const (
	// maxScanTokenSize is the maximum buffer size for reading CLI output lines.
	maxScanTokenSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize caps the stderr buffer. The callback still
	// receives every line; only the buffer kept for error reporting stops
	// growing past this limit.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
	// promptExcerptLen is how much of the original input is carried on
	// ProcessError for diagnostics.
	promptExcerptLen = 200
)

// Transport runs one CLI subprocess for one request.
//
// The argument list and working directory come ready-built from the
// caller; the transport never constructs CLI flags. When the request
// carries a prompt, it is written to stdin which is then closed.
type Transport struct {
	log            *slog.Logger
	args           []string
	dir            string
	prompt         string
	cliPath        string
	env            []string
	stderrCallback func(string)

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu          sync.Mutex // Protects stdin writes and shutdown state
	closing     bool       // Whether Close() has been called (intentional shutdown)
	stdinClosed bool
}

// Compile-time verification that Transport implements config.Transport.
var _ config.Transport = (*Transport)(nil)

// New creates a transport for one request. The options supply the binary
// path, environment, and stderr callback; the request supplies the
// argument list, working directory, and prompt.
func New(log *slog.Logger, options *config.Options, req *config.Request) *Transport {
	return &Transport{
		log:            log.With("component", "cli_transport"),
		args:           req.Args,
		dir:            req.Dir,
		prompt:         req.Prompt,
		cliPath:        options.CLIPath,
		stderrCallback: options.Stderr,
		env:            buildEnvironment(options.Env),
	}
}

// buildEnvironment merges extra variables over the inherited environment.
func buildEnvironment(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}

	return env
}

// Start spawns the CLI subprocess.
//
// The binary is discovered from the explicit path or the system PATH, the
// process is started in the request's working directory, and stdin,
// stdout, and stderr pipes are set up.
//
// Returns *errors.CLINotFoundError if the binary cannot be located, or
// *errors.SpawnError if the process fails to start.
func (t *Transport) Start(ctx context.Context) error {
	t.log.Info("Starting CLI subprocess")

	cliPath, err := cli.Discover(t.log, t.cliPath)
	if err != nil {
		return err
	}

	t.cliPath = cliPath

	dir := t.dir
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	t.log.Debug("Spawning process", "cli_path", cliPath, "dir", dir, "args", t.args)

	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for CLI invocation
	cmd := exec.CommandContext(ctx, cliPath, t.args...)
	cmd.Dir = dir
	cmd.Env = t.env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.SpawnError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	t.stdin = stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.SpawnError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	t.stdout = stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.SpawnError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	t.stderr = stderr

	if err := cmd.Start(); err != nil {
		t.log.Error("Failed to start CLI process", "error", err)

		return &errors.SpawnError{Err: fmt.Errorf("start process: %w", err)}
	}

	t.cmd = cmd
	t.log.Info("CLI subprocess started", "pid", cmd.Process.Pid)

	return nil
}

// ReadEvents reads newline-delimited JSON events from the CLI stdout.
//
// A goroutine reassembles stdout chunks into complete lines, parses each
// line into an event, and sends it on the event channel. Lines that fail
// to JSON-decode are forwarded as *errors.EventParseError on the error
// channel and reading continues; whether such an error is recoverable is
// the translator's call. Events of unknown type are skipped.
//
// Every already-buffered line is delivered before the exit status is
// checked. After stdout drains, a non-zero exit surfaces as
// *errors.AuthenticationError or *errors.ProcessError. Both channels are
// closed when the goroutine exits.
func (t *Transport) ReadEvents(ctx context.Context) (<-chan event.Event, <-chan error) {
	events := make(chan event.Event)
	errs := make(chan error, 1)

	var stderrWg sync.WaitGroup

	var stderrBuffer strings.Builder

	var stderrMu sync.Mutex

	// Stderr is always buffered for error reporting, and the pipe must be
	// drained before Wait(). See https://pkg.go.dev/os/exec#Cmd.StderrPipe
	stderrWg.Go(func() {
		scanner := bufio.NewScanner(t.stderr)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()

			stderrMu.Lock()

			if stderrBuffer.Len() < maxStderrBufferSize {
				if stderrBuffer.Len() > 0 {
					stderrBuffer.WriteString("\n")
				}

				stderrBuffer.WriteString(line)
			}

			stderrMu.Unlock()

			if t.stderrCallback != nil {
				t.stderrCallback(line)
			}
		}

		if err := scanner.Err(); err != nil {
			t.log.Debug("Stderr scanner error", "error", err)
		}
	})

	go func() {
		defer close(events)
		defer close(errs)

		scanner := bufio.NewScanner(t.stdout)
		buf := make([]byte, maxScanTokenSize)
		scanner.Buffer(buf, maxScanTokenSize)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()

				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			ev, err := decodeLine(t.log, line)
			if err != nil {
				if stderrors.Is(err, errors.ErrUnknownEventType) {
					continue
				}

				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}

				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				errs <- ctx.Err()

				return
			}
		}

		if err := scanner.Err(); err != nil {
			t.log.Error("Scanner error while reading CLI output", "error", err)

			errs <- fmt.Errorf("scanner error: %w", err)
		}

		stderrWg.Wait()

		t.log.Debug("Waiting for CLI process to exit")

		if err := t.cmd.Wait(); err != nil {
			t.mu.Lock()
			isClosing := t.closing
			t.mu.Unlock()

			if isClosing {
				t.log.Debug("CLI process terminated during shutdown")

				return
			}

			stderrMu.Lock()

			stderrOutput := cleanStderr(stderrBuffer.String())

			stderrMu.Unlock()

			exitCode := 0

			if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
				exitCode = exitErr.ExitCode()
			}

			t.log.Error("CLI process exited with error", "exit_code", exitCode, "stderr", stderrOutput)

			errs <- exitError(exitCode, stderrOutput, t.prompt, err)
		} else {
			t.log.Info("CLI process exited successfully")
		}
	}()

	return events, errs
}

// decodeLine parses one stdout line into a typed event.
func decodeLine(log *slog.Logger, line []byte) (event.Event, error) {
	var raw map[string]any

	if err := json.Unmarshal(line, &raw); err != nil {
		log.Debug("Failed to unmarshal JSON event", "error", err, "line", string(line))

		return nil, &errors.EventParseError{
			RawData: string(line),
			Err:     err,
		}
	}

	ev, err := event.Parse(log, raw)
	if err != nil {
		return nil, err
	}

	return ev, nil
}

// exitError maps a non-zero exit to the right typed failure. The prompt
// excerpt rides along for diagnostics.
func exitError(exitCode int, stderr, prompt string, err error) error {
	if looksLikeAuthFailure(stderr) {
		return &errors.AuthenticationError{
			Message:  firstLine(stderr),
			ExitCode: exitCode,
		}
	}

	return &errors.ProcessError{
		ExitCode:      exitCode,
		Stderr:        stderr,
		PromptExcerpt: excerpt(prompt),
		Err:           err,
	}
}

// authFailurePhrases are stderr fragments the CLI emits when credentials
// are missing or rejected.
var authFailurePhrases = []string{
	"invalid api key",
	"authentication",
	"not logged in",
	"please run /login",
	"oauth token",
}

func looksLikeAuthFailure(stderr string) bool {
	lowered := strings.ToLower(stderr)
	for _, phrase := range authFailurePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}

	return false
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}

	return s
}

// excerpt truncates without splitting a UTF-8 rune mid-sequence.
func excerpt(s string) string {
	if len(s) <= promptExcerptLen {
		return s
	}

	cut := promptExcerptLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

// SendInput writes data to the CLI stdin.
//
// Safe for concurrent use and respects context cancellation even during
// blocking writes: if the context fires mid-write, stdin is closed to
// unblock the writer and subsequent calls return ErrStdinClosed.
func (t *Transport) SendInput(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdinClosed {
		return errors.ErrStdinClosed
	}

	if t.stdin == nil {
		return errors.ErrTransportNotConnected
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.log.Debug("Writing input to CLI", "data_len", len(data))

	// Write in goroutine to respect context cancellation
	done := make(chan error, 1)

	go func() {
		_, err := t.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stdin")
		// Closing stdin unblocks the pending Write (safe since Go 1.9+)
		if t.stdin != nil {
			_ = t.stdin.Close()
			t.stdinClosed = true
		}

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			t.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// EndInput closes the stdin pipe to signal end of input. The CLI finishes
// processing any pending input and then exits normally.
func (t *Transport) EndInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin != nil && !t.stdinClosed {
		t.log.Debug("Closing stdin pipe")

		err := t.stdin.Close()
		t.stdinClosed = true
		t.stdin = nil

		return err
	}

	return nil
}

// IsReady reports whether the CLI process is running and stdin is open.
func (t *Transport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cmd != nil && t.cmd.Process != nil && t.stdin != nil
}

// Close terminates the CLI process with SIGKILL. Safe to call multiple
// times or on an already-terminated process.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return nil
	}

	t.closing = true
	t.stdinClosed = true

	if t.cmd != nil && t.cmd.Process != nil {
		t.log.Debug("Killing CLI process", "pid", t.cmd.Process.Pid)

		if err := t.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill CLI process (pid %d): %w", t.cmd.Process.Pid, err)
		}
	}

	return nil
}

// cleanStderr strips the CLI runtime's minified source-context lines
// (format: "1234 | <code>") from stderr, keeping error messages and stack
// traces.
func cleanStderr(stderr string) string {
	if stderr == "" {
		return ""
	}

	var cleaned strings.Builder

	for line := range strings.SplitSeq(stderr, "\n") {
		if isSourceContextLine(strings.TrimSpace(line)) {
			continue
		}

		if cleaned.Len() > 0 {
			cleaned.WriteString("\n")
		}

		cleaned.WriteString(line)
	}

	return strings.TrimSpace(cleaned.String())
}

func isSourceContextLine(line string) bool {
	pipeIdx := strings.Index(line, "|")
	if pipeIdx < 1 {
		return false
	}

	prefix := strings.TrimSpace(line[:pipeIdx])
	if prefix == "" {
		return false
	}

	for _, ch := range prefix {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
