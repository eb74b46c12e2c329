package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDiscover_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claude")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	found, err := Discover(discardLogger(), path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestDiscover_ExplicitPathMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "claude")

	_, err := Discover(discardLogger(), missing)

	var notFound *errors.CLINotFoundError

	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{missing}, notFound.SearchedPaths)
}
