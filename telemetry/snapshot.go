package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the player and detector state at one tick so a run can be
// inspected or resumed from that point.
type Snapshot struct {
	Version int   `json:"version"`
	Tick    int32 `json:"tick"`

	Player PlayerState `json:"player"`
	Light  LightState  `json:"light"`
	Doors  []DoorState `json:"doors,omitempty"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// PlayerState is the movement state of the player.
type PlayerState struct {
	Location   [3]float64 `json:"location"`
	Velocity   [3]float64 `json:"velocity"`
	Yaw        float64    `json:"yaw"`
	Pitch      float64    `json:"pitch"`
	Mode       string     `json:"mode"`
	HalfHeight float64    `json:"half_height"`
	Crouching  bool       `json:"crouching"`
	LeanOffset float64    `json:"lean_offset"`
	Visibility float64    `json:"visibility"`
}

// LightState is the light detector's smoothing state.
type LightState struct {
	Smoothed     float64   `json:"smoothed"`
	History      []float64 `json:"history"`
	HistoryIndex int       `json:"history_index"`
	Cycles       int       `json:"cycles"`
	Processed    int64     `json:"processed"`
	Dropped      int64     `json:"dropped"`
}

// DoorState is one door's swing.
type DoorState struct {
	Hinge [3]float64 `json:"hinge"`
	Angle float64    `json:"angle"`
	Open  bool       `json:"open"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
