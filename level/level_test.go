package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/objects"
	"github.com/pthm-cable/thieflike/world"
)

func TestDefaultLevel(t *testing.T) {
	lvl := Default()
	if lvl.Name != "two_rooms" {
		t.Errorf("expected two_rooms, got %q", lvl.Name)
	}
	if len(lvl.Doors) != 1 || len(lvl.Lights) != 2 {
		t.Errorf("expected 1 door and 2 lights, got %d/%d", len(lvl.Doors), len(lvl.Lights))
	}
	if lvl.Spawn.V() != (mgl64.Vec3{-900, 0, 88}) {
		t.Errorf("unexpected spawn %v", lvl.Spawn)
	}
}

func TestBuildDefaultLevel(t *testing.T) {
	scene := world.NewScene()
	doors := objects.NewDoors(config.Default(), scene, nil)
	flicker := objects.NewFlicker(scene, 1, nil)
	lvl := Default()
	lvl.Build(scene, doors, flicker)

	if got, want := len(scene.Boxes()), len(lvl.Boxes)+len(lvl.Doors); got != want {
		t.Errorf("expected %d boxes, got %d", want, got)
	}
	if got := len(scene.Lights()); got != 2 {
		t.Errorf("expected 2 lights, got %d", got)
	}
	if got := len(doors.Entities()); got != 1 {
		t.Fatalf("expected 1 door, got %d", got)
	}

	// The closed door blocks the doorway at eye height
	eye := mgl64.Vec3{-100, 0, 150}
	hit, ok := scene.CastRay(eye, eye.Add(mgl64.Vec3{200, 0, 0}), world.Filter{Channels: components.ChannelInteract})
	if !ok || hit.Entity != doors.Entities()[0] {
		t.Error("expected interact trace through the doorway to hit the door")
	}

	// The lintel is not climbable
	top := mgl64.Vec3{0, 0, 500}
	if _, ok := scene.CastRay(top, top.Add(mgl64.Vec3{0, 0, -150}), world.Filter{Channels: components.ChannelClimbable}); ok {
		t.Error("expected lintel to be ignored by climb traces")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lvl.yaml")
	data := []byte("name: box\nspawn: [0, 0, 88]\nboxes:\n  - center: [0, 0, -10]\n    half: [100, 100, 10]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	lvl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl.Name != "box" || len(lvl.Boxes) != 1 || len(lvl.Lights) != 0 {
		t.Errorf("unexpected level %+v", lvl)
	}

	// Build without a door system still adds geometry
	scene := world.NewScene()
	lvl.Build(scene, nil, nil)
	if len(scene.Boxes()) != 1 {
		t.Errorf("expected 1 box, got %d", len(scene.Boxes()))
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"box":     "boxes:\n  - half: [0, 1, 1]\n",
		"light":   "lights:\n  - radius: -1\n",
		"flicker": "lights:\n  - flicker: 2\n",
		"door":    "doors:\n  - half: [1, 1, 0]\n",
		"yaml":    "boxes: {",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lvl.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
