package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    1000,
		Player: PlayerState{
			Location:   [3]float64{120, -40, 88},
			Velocity:   [3]float64{300, 0, 0},
			Yaw:        45,
			Mode:       "walking",
			HalfHeight: 44,
			Crouching:  true,
			Visibility: 0.35,
		},
		Light: LightState{
			Smoothed:     0.2,
			History:      []float64{0.1, 0.2, 0.3, 0, 0, 0, 0, 0, 0},
			HistoryIndex: 2,
			Cycles:       3,
		},
		Doors: []DoorState{{Hinge: [3]float64{400, 0, 100}, Angle: 90, Open: true}},
		Bookmark: &Bookmark{
			Type:        BookmarkExposed,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_1000_exposed.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Tick != 1000 {
		t.Errorf("tick mismatch: got %d", loaded.Tick)
	}
	if loaded.Player.Location != snapshot.Player.Location || !loaded.Player.Crouching {
		t.Errorf("player mismatch: got %+v", loaded.Player)
	}
	if len(loaded.Light.History) != 9 || loaded.Light.History[2] != 0.3 {
		t.Errorf("history mismatch: got %v", loaded.Light.History)
	}
	if len(loaded.Doors) != 1 || !loaded.Doors[0].Open {
		t.Errorf("doors mismatch: got %+v", loaded.Doors)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkExposed {
		t.Error("bookmark mismatch")
	}
}

func TestSnapshotFilenameWithoutBookmark(t *testing.T) {
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 42}, t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_42.json" {
		t.Errorf("unexpected filename: %s", filepath.Base(path))
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadSnapshot(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}

	old := filepath.Join(dir, "old.json")
	if err := os.WriteFile(old, []byte(`{"version": 0, "tick": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(old); err == nil {
		t.Error("expected error for version mismatch")
	}
}
