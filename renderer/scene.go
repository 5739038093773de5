// Package renderer draws the level with raylib and hosts the GPU light
// capture device.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/camera"
	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/world"
)

// Geometry is the scene view the renderer draws.
type Geometry interface {
	Boxes() []world.Box
	Lights() []world.Light
}

// Palette holds the colours boxes are drawn with, chosen by channel.
type Palette struct {
	Wall     color.RGBA
	Climb    color.RGBA
	Interact color.RGBA
	Wire     color.RGBA
	Sky      color.RGBA
}

// DefaultPalette returns the default level colours.
func DefaultPalette() Palette {
	return Palette{
		Wall:     rl.Color{R: 70, G: 70, B: 80, A: 255},
		Climb:    rl.Color{R: 90, G: 80, B: 60, A: 255},
		Interact: rl.Color{R: 120, G: 70, B: 40, A: 255},
		Wire:     rl.Color{R: 20, G: 20, B: 25, A: 255},
		Sky:      rl.Color{R: 8, G: 8, B: 14, A: 255},
	}
}

// SceneRenderer draws boxes and lights from the player's camera.
type SceneRenderer struct {
	Palette Palette

	// Debug toggles
	ShowLights   bool
	ShowDetector bool
	ShowTraces   bool

	traces []trace
}

type trace struct {
	start, end mgl64.Vec3
	hit        bool
}

// NewSceneRenderer creates a renderer with the default palette.
func NewSceneRenderer() *SceneRenderer {
	return &SceneRenderer{
		Palette:    DefaultPalette(),
		ShowLights: true,
	}
}

// Camera3D converts the player camera into a raylib camera.
func Camera3D(cam *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   toRL(cam.Position),
		Target:     toRL(cam.Target()),
		Up:         toRL(cam.Up()),
		Fovy:       float32(cam.FOV),
		Projection: rl.CameraPerspective,
	}
}

// AddTrace records a debug line for the next Draw.
func (r *SceneRenderer) AddTrace(start, end mgl64.Vec3, hit bool) {
	if !r.ShowTraces {
		return
	}
	r.traces = append(r.traces, trace{start: start, end: end, hit: hit})
}

// Draw renders the scene. Call between BeginDrawing and EndDrawing.
func (r *SceneRenderer) Draw(g Geometry, cam *camera.Camera, detector mgl64.Vec3, brightness float64) {
	rl.ClearBackground(r.Palette.Sky)
	rl.BeginMode3D(Camera3D(cam))

	for _, b := range g.Boxes() {
		if b.Channels.Has(components.ChannelPawn) {
			continue
		}
		r.drawBox(b)
	}

	if r.ShowLights {
		for _, l := range g.Lights() {
			c := lightColor(l.Color)
			rl.DrawSphere(toRL(l.Position), 6, c)
			rl.DrawSphereWires(toRL(l.Position), float32(l.Radius), 6, 12, rl.Fade(c, 0.08))
		}
	}

	if r.ShowDetector {
		v := uint8(mgl64.Clamp(brightness, 0, 1) * 255)
		rl.DrawSphere(toRL(detector), 8, rl.Color{R: v, G: v, B: v, A: 255})
	}

	for _, t := range r.traces {
		c := rl.Green
		if t.hit {
			c = rl.Red
		}
		rl.DrawLine3D(toRL(t.start), toRL(t.end), c)
	}
	r.traces = r.traces[:0]

	rl.EndMode3D()
}

func (r *SceneRenderer) drawBox(b world.Box) {
	col := r.Palette.Wall
	switch {
	case b.Channels.Has(components.ChannelInteract):
		col = r.Palette.Interact
	case b.Channels == components.ChannelClimbable|components.ChannelVisibility:
		col = r.Palette.Climb
	}
	size := b.HalfExtents.Mul(2)

	rl.PushMatrix()
	rl.Translatef(float32(b.Transform.Position.X()), float32(b.Transform.Position.Z()), float32(b.Transform.Position.Y()))
	// World yaw turns +X towards +Y, which is -Y rotation in raylib space
	rl.Rotatef(float32(-b.Transform.Yaw), 0, 1, 0)
	origin := rl.NewVector3(0, 0, 0)
	rl.DrawCube(origin, float32(size.X()), float32(size.Z()), float32(size.Y()), col)
	rl.DrawCubeWires(origin, float32(size.X()), float32(size.Z()), float32(size.Y()), r.Palette.Wire)
	rl.PopMatrix()
}

// DrawCaptures draws both detector views side by side at x, y in screen
// space, scaled up by scale.
func DrawCaptures(x, y int32, scale float32, views ...*CaptureView) {
	for _, v := range views {
		if v == nil || v.Target == nil {
			continue
		}
		tex, ok := v.Target.Texture()
		if !ok {
			continue
		}
		w, h := v.Target.Size()
		src := rl.Rectangle{Width: float32(w), Height: -float32(h)}
		dst := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(w) * scale, Height: float32(h) * scale}
		rl.DrawTexturePro(tex, src, dst, rl.Vector2{}, 0, rl.White)
		rl.DrawRectangleLines(x, y, int32(dst.Width), int32(dst.Height), rl.Gray)
		rl.DrawText(v.Side.String(), x+2, y+int32(dst.Height)+2, 10, rl.LightGray)
		x += int32(dst.Width) + 8
	}
}

func lightColor(c mgl64.Vec3) color.RGBA {
	return rl.Color{
		R: uint8(mgl64.Clamp(c.X(), 0, 1) * 255),
		G: uint8(mgl64.Clamp(c.Y(), 0, 1) * 255),
		B: uint8(mgl64.Clamp(c.Z(), 0, 1) * 255),
		A: 255,
	}
}
