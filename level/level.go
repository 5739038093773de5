// Package level loads level layouts from YAML and builds them into a scene.
package level

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/objects"
	"github.com/pthm-cable/thieflike/world"
)

//go:embed default.yaml
var defaultYAML []byte

// Vec is a YAML-friendly 3D vector.
type Vec [3]float64

// V converts to mgl64.
func (v Vec) V() mgl64.Vec3 {
	return mgl64.Vec3(v)
}

// Box is a static collider.
type Box struct {
	Name      string  `yaml:"name"`
	Center    Vec     `yaml:"center"`
	Half      Vec     `yaml:"half"`
	Yaw       float64 `yaml:"yaw"`
	Climbable bool    `yaml:"climbable"`
}

// Light is a point light. A non-zero Flicker makes it a torch.
type Light struct {
	Name         string  `yaml:"name"`
	Position     Vec     `yaml:"position"`
	Color        Vec     `yaml:"color"`
	Intensity    float64 `yaml:"intensity"`
	Radius       float64 `yaml:"radius"`
	Flicker      float64 `yaml:"flicker"`       // Fraction of intensity, 0-1
	FlickerSpeed float64 `yaml:"flicker_speed"` // Noise cycles per second
}

// Door is a hinged door panel.
type Door struct {
	Name  string  `yaml:"name"`
	Hinge Vec     `yaml:"hinge"`
	Yaw   float64 `yaml:"yaw"`
	Half  Vec     `yaml:"half"`
}

// Level is a complete layout.
type Level struct {
	Name     string  `yaml:"name"`
	Seed     int64   `yaml:"seed"`  // Flicker noise seed
	Spawn    Vec     `yaml:"spawn"` // Capsule centre
	SpawnYaw float64 `yaml:"spawn_yaw"`
	Boxes    []Box   `yaml:"boxes"`
	Lights   []Light `yaml:"lights"`
	Doors    []Door  `yaml:"doors"`
}

// Load reads a level file, or the embedded default when path is empty.
func Load(path string) (*Level, error) {
	data := defaultYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading level file: %w", err)
		}
	}
	lvl := &Level{}
	if err := yaml.Unmarshal(data, lvl); err != nil {
		return nil, fmt.Errorf("parsing level: %w", err)
	}
	if err := lvl.validate(); err != nil {
		return nil, err
	}
	return lvl, nil
}

// Default returns the embedded level. Panics if it fails to parse.
func Default() *Level {
	lvl, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("level: embedded default: %v", err))
	}
	return lvl
}

func (l *Level) validate() error {
	for i, b := range l.Boxes {
		if b.Half[0] <= 0 || b.Half[1] <= 0 || b.Half[2] <= 0 {
			return fmt.Errorf("box %d (%s): half extents must be positive", i, b.Name)
		}
	}
	for i, lt := range l.Lights {
		if lt.Intensity < 0 || lt.Radius < 0 {
			return fmt.Errorf("light %d (%s): intensity and radius must not be negative", i, lt.Name)
		}
		if lt.Flicker < 0 || lt.Flicker > 1 {
			return fmt.Errorf("light %d (%s): flicker must be within [0,1]", i, lt.Name)
		}
	}
	for i, d := range l.Doors {
		if d.Half[0] <= 0 || d.Half[1] <= 0 || d.Half[2] <= 0 {
			return fmt.Errorf("door %d (%s): half extents must be positive", i, d.Name)
		}
	}
	return nil
}

// Build adds every box, light and door to scene. Doors are registered
// with doors in file order. Either system may be nil.
func (l *Level) Build(scene *world.Scene, doors *objects.Doors, flicker *objects.Flicker) {
	for _, b := range l.Boxes {
		ch := components.ChannelVisibility
		if b.Climbable {
			ch |= components.ChannelClimbable
		}
		scene.AddBox(b.Center.V(), b.Half.V(), b.Yaw, ch)
	}
	for _, lt := range l.Lights {
		e := scene.AddLight(lt.Position.V(), lt.Color.V(), lt.Intensity, lt.Radius)
		if flicker != nil && lt.Flicker > 0 {
			flicker.Add(e, lt.Flicker, lt.FlickerSpeed)
		}
	}
	if doors == nil {
		return
	}
	for _, d := range l.Doors {
		doors.Add(d.Hinge.V(), d.Yaw, d.Half.V())
	}
}
