// Package cli locates the external CLI binary.
package cli

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
)

// binaryName is the executable searched for when no explicit path is given.
const binaryName = "claude"

// Discover locates the CLI binary.
//
// When explicitPath is set, it is the only candidate. Otherwise the search
// order is the system PATH followed by common installation directories.
// Returns *errors.CLINotFoundError listing every searched location when no
// binary is found.
func Discover(log *slog.Logger, explicitPath string) (string, error) {
	if explicitPath != "" {
		log.Debug("Using explicit CLI path", "cli_path", explicitPath)

		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath, nil
		}

		return "", &errors.CLINotFoundError{SearchedPaths: []string{explicitPath}}
	}

	searchedPaths := make([]string, 0, 4)

	if path, err := exec.LookPath(binaryName); err == nil {
		log.Debug("Found CLI in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	commonPaths := []string{
		filepath.Join("/usr/local/bin", binaryName),
		filepath.Join("/usr/bin", binaryName),
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(homeDir, ".local/bin", binaryName))
	}

	for _, path := range commonPaths {
		searchedPaths = append(searchedPaths, path)

		if _, err := os.Stat(path); err == nil {
			log.Debug("Found CLI at common path", "path", path)

			return path, nil
		}
	}

	log.Warn("CLI binary not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.CLINotFoundError{SearchedPaths: searchedPaths}
}
