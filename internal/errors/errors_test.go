package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAbortError_WhileQueued(t *testing.T) {
	err := &AbortError{Err: context.Canceled, WhileQueued: true}

	require.Equal(
		t,
		"aborted while queued for a process slot: context canceled",
		err.Error(),
	)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, err.IsProviderError())
}

func TestAbortError_PreCancelled(t *testing.T) {
	err := &AbortError{Err: ErrRequestTimeout}

	require.Equal(
		t,
		"aborted before acquiring a process slot: request timeout",
		err.Error(),
	)
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestCLINotFoundError(t *testing.T) {
	err := &CLINotFoundError{
		SearchedPaths: []string{"/usr/bin/claude", "/opt/bin/claude"},
	}

	require.Equal(
		t,
		"CLI binary not found in: [/usr/bin/claude /opt/bin/claude]",
		err.Error(),
	)
	require.True(t, err.IsProviderError())
}

func TestSpawnError(t *testing.T) {
	root := errors.New("fork failed")
	err := &SpawnError{Err: root}

	require.Equal(t, "failed to spawn CLI process: fork failed", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsProviderError())
}

func TestProcessError_WithStderr(t *testing.T) {
	err := &ProcessError{
		ExitCode: 2,
		Stderr:   "permission denied",
	}

	require.Equal(t, "CLI process failed (exit 2): permission denied", err.Error())
	require.NoError(t, err.Unwrap())
	require.True(t, err.IsProviderError())
}

func TestProcessError_WithUnderlyingError(t *testing.T) {
	root := errors.New("process terminated")
	err := &ProcessError{
		ExitCode: 9,
		Err:      root,
	}

	require.Equal(t, "CLI process failed (exit 9): process terminated", err.Error())
	require.ErrorIs(t, err, root)
}

func TestEventParseError(t *testing.T) {
	root := errors.New("unexpected token")
	err := &EventParseError{
		RawData: `{"not":"valid",`,
		Err:     root,
	}

	require.Equal(t, "failed to decode JSON event: unexpected token", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsProviderError())
}

func TestMalformedEventError(t *testing.T) {
	err := &MalformedEventError{
		Reason: "assistant event: missing content field",
		Data:   map[string]any{"type": "assistant"},
	}

	require.Equal(t, "malformed event: assistant event: missing content field", err.Error())
	require.True(t, err.IsProviderError())
}

func TestAuthenticationError(t *testing.T) {
	err := &AuthenticationError{Message: "invalid API key", ExitCode: 1}

	require.Equal(t, "CLI authentication failed: invalid API key", err.Error())
	require.True(t, err.IsProviderError())
}

func TestProtocolError(t *testing.T) {
	err := &ProtocolError{Code: "overloaded", Message: "try again later"}

	require.Equal(t, "CLI error event (overloaded): try again later", err.Error())

	bare := &ProtocolError{Message: "try again later"}
	require.Equal(t, "CLI error event: try again later", bare.Error())
}
