package report

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/processor"
)

func summary(kind processor.Kind, started time.Time) *processor.Summary {
	return &processor.Summary{
		RunID:      "run-" + started.Format("150405"),
		Kind:       kind,
		Destroy:    true,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Pages:      2,
		Items:      13,
		Destroyed:  13,
	}
}

func TestSaveAndLoad(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "runs"), logger.NewNopLogger())
	started := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	path, err := m.Save(summary(processor.Liked, started), nil)
	require.NoError(t, err)
	assert.Equal(t, "liked-20240301T123000Z.json", filepath.Base(path))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Version)
	assert.Empty(t, r.Error)
	assert.Equal(t, 13, r.Summary.Destroyed)
	assert.Equal(t, processor.Liked, r.Summary.Kind)
	assert.True(t, r.Summary.StartedAt.Equal(started))
}

func TestSaveRecordsError(t *testing.T) {
	m := NewManager(t.TempDir(), logger.NewNopLogger())

	path, err := m.Save(summary(processor.Posted, time.Now()), errors.New("fetch posted page: unauthorized"))
	require.NoError(t, err)

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fetch posted page: unauthorized", r.Error)
}

func TestSaveNilSummary(t *testing.T) {
	m := NewManager(t.TempDir(), logger.NewNopLogger())
	_, err := m.Save(nil, nil)
	assert.Error(t, err)
}

func TestListAndLatest(t *testing.T) {
	m := NewManager(t.TempDir(), logger.NewNopLogger())
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, kind := range []processor.Kind{processor.Posted, processor.Liked, processor.Posted} {
		_, err := m.Save(summary(kind, base.Add(time.Duration(i)*time.Hour)), nil)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0644))

	all, err := m.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	posted, err := m.List(processor.Posted)
	require.NoError(t, err)
	assert.Len(t, posted, 2)

	latest, err := m.Latest(processor.Posted)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Summary.StartedAt.Equal(base.Add(2*time.Hour)))
}

func TestLatestWithoutReports(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), logger.NewNopLogger())

	r, err := m.Latest(processor.Liked)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestDefaultManagerUsesXDGDataHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	m, err := NewDefaultManager(logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tweetsweep", "runs"), m.Dir())
}
