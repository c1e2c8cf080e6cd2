package session

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := &FileStore{path: filepath.Join(dir, "resonance", "demo.yaml")}

	want := Snapshot{
		Seed:         42,
		MacroValues:  map[string]float64{"energy": 0.7},
		Section:      2,
		ActiveLayers: []int{0, 2},
		TempoBPM:     128,
	}
	if err := SaveSnapshot(store, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := LoadSnapshot(store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a saved snapshot to be found")
	}
	if got.Seed != want.Seed || got.Section != want.Section || got.TempoBPM != want.TempoBPM {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if got.MacroValues["energy"] != 0.7 {
		t.Fatalf("got macro values %+v", got.MacroValues)
	}
	if len(got.ActiveLayers) != 2 || got.ActiveLayers[0] != 0 || got.ActiveLayers[1] != 2 {
		t.Fatalf("got active layers %+v", got.ActiveLayers)
	}
}

func TestLoadMissingFileReportsNotFoundNotError(t *testing.T) {
	dir := t.TempDir()
	store := &FileStore{path: filepath.Join(dir, "resonance", "missing.yaml")}

	_, ok, err := LoadSnapshot(store)
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a missing file")
	}
}
