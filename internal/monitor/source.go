package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

// Source yields the current clipboard text.
type Source interface {
	ReadText() (string, error)
}

// Writer replaces the clipboard text.
type Writer interface {
	WriteText(content string) error
}

// SystemClipboard reads and writes the OS clipboard.
type SystemClipboard struct{}

// ReadText returns the current OS clipboard text.
func (SystemClipboard) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("monitor: system clipboard unsupported on this platform")
	}
	return clipboard.ReadAll()
}

// WriteText sets the OS clipboard text.
func (SystemClipboard) WriteText(content string) error {
	if clipboard.Unsupported {
		return errors.New("monitor: system clipboard unsupported on this platform")
	}
	return clipboard.WriteAll(content)
}

// FileSource mirrors the clipboard through a plain file. It serves headless
// hosts where another tool dumps the selection to disk.
type FileSource struct {
	Path string
}

// ReadText returns the file contents. A missing file reads as empty.
func (f FileSource) ReadText() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("monitor: read %s: %w", f.Path, err)
	}
	return string(data), nil
}

// WriteText replaces the file contents atomically: tmp file, fsync, rename.
// Readers and the watcher only ever see the complete new content.
func (f FileSource) WriteText(content string) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("monitor: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".clipman-tmp-*")
	if err != nil {
		return fmt.Errorf("monitor: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return fmt.Errorf("monitor: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("monitor: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("monitor: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("monitor: rename: %w", err)
	}
	success = true
	return nil
}
