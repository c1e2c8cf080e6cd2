// Package session persists a live performance's taste state — current
// macro values, section/layer state, and the last-good seed — across
// restarts, implementing resonance.TasteStore. It is grounded on the
// teacher's tracker/gioui/preferences.go: a YAML file under the user's
// config directory, read with gopkg.in/yaml.v3, missing-file treated as
// "no saved state yet" rather than an error.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Snapshot is the opaque-to-the-core shape this package reads and writes;
// resonance.TasteStore only deals in raw bytes, so marshaling happens
// entirely on this side of that interface.
type Snapshot struct {
	Seed         uint64             `yaml:"seed"`
	MacroValues  map[string]float64 `yaml:"macro_values"`
	Section      int                `yaml:"section"`
	ActiveLayers []int              `yaml:"active_layers"`
	TempoBPM     float64            `yaml:"tempo_bpm"`
}

// FileStore implements resonance.TasteStore against a YAML file under the
// user's config directory.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for the given session name (e.g. the
// performance file's basename), resolving ~/.config/resonance/<name>.yaml
// (or the platform equivalent via os.UserConfigDir).
func NewFileStore(name string) (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve user config dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, "resonance", name+".yaml")}, nil
}

// Load reads the stored snapshot bytes. A missing file is reported as
// (nil, false, nil), not an error — a fresh session has no saved taste
// state yet.
func (s *FileStore) Load() ([]byte, bool, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cannot read session file %s: %w", s.path, err)
	}
	return b, true, nil
}

// Save writes b to the session file, creating its parent directory if
// needed.
func (s *FileStore) Save(b []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("cannot create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("cannot write session file %s: %w", s.path, err)
	}
	return nil
}

// LoadSnapshot loads and unmarshals the stored Snapshot, returning
// (zero-value, false, nil) if none has been saved yet.
func LoadSnapshot(store *FileStore) (Snapshot, bool, error) {
	b, ok, err := store.Load()
	if err != nil || !ok {
		return Snapshot{}, ok, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("cannot parse session file: %w", err)
	}
	return snap, true, nil
}

// SaveSnapshot marshals snap to YAML and writes it via store.
func SaveSnapshot(store *FileStore, snap Snapshot) error {
	b, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cannot marshal session snapshot: %w", err)
	}
	return store.Save(b)
}
