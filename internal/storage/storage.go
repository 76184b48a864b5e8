// Package storage provides file persistence for generated artifacts such as
// answered spreadsheets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidFilename indicates a name that is empty or attempts to
	// escape the storage directory.
	ErrInvalidFilename = errors.New("invalid filename")
)

// Local stores files on the local filesystem and serves URLs by joining a
// configured base URL with the stored name.
type Local struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
// logger may be nil.
func NewLocal(dir, baseURL string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Local{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Save writes the file bytes under name and returns the stored name.
// The name must be a bare filename; path separators are rejected.
func (l *Local) Save(ctx context.Context, data []byte, name string) (string, error) {
	if err := validateFilename(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}

	l.logger.Debug("stored file", "name", name, "bytes", len(data))
	return name, nil
}

// URL returns the download URL for a stored name.
func (l *Local) URL(storedName string) string {
	return l.baseURL + "/" + storedName
}

// validateFilename rejects empty names and anything that could traverse out
// of the storage directory.
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFilename)
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidFilename, name)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}
