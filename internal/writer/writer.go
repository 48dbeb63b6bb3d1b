// Package writer persists the sync artifacts to the local filesystem
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_writer.go -package=mocks -source=writer.go Writer

const (
	// FileMode is the mode of written artifacts. They are served as static files.
	FileMode os.FileMode = 0644

	// DirMode is the mode of created parent directories
	DirMode os.FileMode = 0750
)

// Writer defines the interface for persisting sync outputs
type Writer interface {
	// WriteJSON encodes v as two-space indented JSON and writes it to path
	WriteJSON(ctx context.Context, path string, v any) error

	// WriteFile writes data to path
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FileWriter implements Writer on the local filesystem
type FileWriter struct {
	atomic bool
}

// NewFileWriter creates a FileWriter. With atomic set, each file is written to
// a temporary file in the same directory and renamed over the target, so
// readers never observe a partially written file.
func NewFileWriter(atomic bool) *FileWriter {
	return &FileWriter{atomic: atomic}
}

// WriteJSON encodes v as two-space indented JSON and writes it to path
func (w *FileWriter) WriteJSON(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	return w.WriteFile(ctx, path, data)
}

// WriteFile writes data to path, creating parent directories as needed
func (w *FileWriter) WriteFile(ctx context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if w.atomic {
		if err := writeAtomic(dir, path, data); err != nil {
			return err
		}
	} else {
		// #nosec G306 -- artifacts are published as static files
		if err := os.WriteFile(path, data, FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	slog.DebugContext(ctx, "Wrote file", "path", path, "bytes", len(data), "atomic", w.atomic)
	return nil
}

func writeAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tempPath := tmp.Name()

	defer func() {
		if err != nil {
			// Clean up temp file on error
			_ = tmp.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file for %s: %w", path, err)
	}
	if err = tmp.Chmod(FileMode); err != nil {
		return fmt.Errorf("failed to set mode of temporary file for %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file for %s: %w", path, err)
	}

	// Atomic rename
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file to %s: %w", path, err)
	}
	return nil
}
