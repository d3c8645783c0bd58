package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	manager := NewManager()
	dir := filepath.Join(t.TempDir(), "Archive-Posted-Items", "2020-01-01-00:00:00-42")

	existed, err := manager.EnsureDir(dir)
	require.NoError(t, err)
	assert.False(t, existed)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// second call tolerates the existing directory
	existed, err = manager.EnsureDir(dir)
	require.NoError(t, err)
	assert.True(t, existed)
}

func TestEnsureDirRejectsFile(t *testing.T) {
	manager := NewManager()
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := manager.EnsureDir(path)
	assert.Error(t, err)
}

func TestSaveFile(t *testing.T) {
	manager := NewManager()
	dir := t.TempDir()

	assert.False(t, manager.Exists(dir, "abc.jpg"))

	data := []byte("jpeg bytes")
	n, err := manager.SaveFile(dir, "abc.jpg", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(filepath.Join(dir, "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, data, content)
	assert.True(t, manager.Exists(dir, "abc.jpg"))

	_, err = os.Stat(filepath.Join(dir, "abc.jpg.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file should be gone")
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestSaveFileCleansUpOnReadError(t *testing.T) {
	manager := NewManager()
	dir := t.TempDir()

	_, err := manager.SaveFile(dir, "broken.mp4", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveFileMissingDirectory(t *testing.T) {
	manager := NewManager()

	_, err := manager.SaveFile(filepath.Join(t.TempDir(), "missing"), "x.png", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestWriteFileOverwrites(t *testing.T) {
	manager := NewManager()
	dir := t.TempDir()

	require.NoError(t, manager.WriteFile(dir, "tweet-42.json", []byte(`{"old":true}`)))
	require.NoError(t, manager.WriteFile(dir, "tweet-42.json", []byte(`{"new":true}`)))

	content, err := os.ReadFile(filepath.Join(dir, "tweet-42.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"new":true}`, string(content))
}
