package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Manager handles the archive filesystem: entry directories, existence checks
// and atomic file writes.
type Manager struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewManager creates a storage manager with the default permissions
func NewManager() *Manager {
	return &Manager{dirPerm: 0755, filePerm: 0644}
}

// EnsureDir creates path and its parents. existed reports whether the
// directory was already there.
func (m *Manager) EnsureDir(path string) (existed bool, err error) {
	info, statErr := os.Stat(path)
	if statErr == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		return true, nil
	}
	if !errors.Is(statErr, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat directory: %w", statErr)
	}

	if err := os.MkdirAll(path, m.dirPerm); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	return false, nil
}

// Exists reports whether dir/name is present
func (m *Manager) Exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// SaveFile streams r into dir/name through a temporary file and an atomic
// rename, so a partially written file never carries the final name.
func (m *Manager) SaveFile(dir, name string, r io.Reader) (int64, error) {
	filename := filepath.Join(dir, name)
	tempFile := filename + ".tmp"

	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, m.filePerm)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}

// WriteFile replaces dir/name with data atomically
func (m *Manager) WriteFile(dir, name string, data []byte) error {
	filename := filepath.Join(dir, name)
	tempFile := filename + ".tmp"

	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, m.filePerm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := out.Write(data); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write file data: %w", err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
