package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/processor"
	"tweetsweep/pkg/storage"
)

// filenameLayout sorts lexically in time order
const filenameLayout = "20060102T150405Z"

// Report is one finished run as written to disk
type Report struct {
	Version int                `json:"version"`
	Summary *processor.Summary `json:"summary"`
	Error   string             `json:"error,omitempty"`
}

// Manager writes and reads run reports under a directory
type Manager struct {
	dir    string
	store  *storage.Manager
	logger logger.Logger
}

// NewManager uses dir as is
func NewManager(dir string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{dir: dir, store: storage.NewManager(), logger: log}
}

// NewDefaultManager stores reports in the per-user data directory
func NewDefaultManager(log logger.Logger) (*Manager, error) {
	dataDir, err := DataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewManager(filepath.Join(dataDir, "runs"), log), nil
}

// Dir is where reports are written
func (m *Manager) Dir() string {
	return m.dir
}

// Save writes summary and the run's terminal error, if any, and returns the
// report path.
func (m *Manager) Save(summary *processor.Summary, runErr error) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("no summary to save")
	}
	if _, err := m.store.EnsureDir(m.dir); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	r := Report{Version: 1, Summary: summary}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	name := filename(summary)
	if err := m.store.WriteFile(m.dir, name, data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	path := filepath.Join(m.dir, name)
	m.logger.DebugWithFields("Run report saved", map[string]interface{}{
		"run_id": summary.RunID,
		"path":   path,
	})
	return path, nil
}

func filename(s *processor.Summary) string {
	started := s.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	return fmt.Sprintf("%s-%s.json", s.Kind, started.UTC().Format(filenameLayout))
}

// Load reads one report
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

// List returns report paths for kind, oldest first. An empty kind lists all.
func (m *Manager) List(kind processor.Kind) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if kind != "" && !strings.HasPrefix(name, string(kind)+"-") {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// Latest loads the newest report for kind, or nil when there is none
func (m *Manager) Latest(kind processor.Kind) (*Report, error) {
	paths, err := m.List(kind)
	if err != nil || len(paths) == 0 {
		return nil, err
	}
	return Load(paths[len(paths)-1])
}

// DataDirectory returns the per-user data directory for the current OS
func DataDirectory() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "tweetsweep"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "tweetsweep"), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "tweetsweep"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "tweetsweep"), nil
	}
}
