package lightdetect

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/world"
)

// LitScene is the scene view the software device renders.
type LitScene interface {
	world.Tracer
	Lights() []world.Light
}

// SoftwareTarget is an in-memory render target.
type SoftwareTarget struct {
	width, height int
	pixels        []Pixel
}

// NewSoftwareTarget allocates a black target.
func NewSoftwareTarget(width, height int) *SoftwareTarget {
	return &SoftwareTarget{
		width:  width,
		height: height,
		pixels: make([]Pixel, width*height),
	}
}

// Size implements Target.
func (t *SoftwareTarget) Size() (int, int) {
	return t.width, t.height
}

// Pixels returns the target contents. Only valid on the simulation goroutine.
func (t *SoftwareTarget) Pixels() []Pixel {
	return t.pixels
}

// SoftwareCapture views one hemisphere of a spherical detector from
// directly above (SideTop) or below (SideBottom).
type SoftwareCapture struct {
	Side     Side
	Location mgl64.Vec3
	Target   *SoftwareTarget
}

// NewSoftwareCapture creates a capture with its own target.
func NewSoftwareCapture(side Side, width, height int) *SoftwareCapture {
	return &SoftwareCapture{
		Side:   side,
		Target: NewSoftwareTarget(width, height),
	}
}

// SetLocation implements Source.
func (c *SoftwareCapture) SetLocation(p mgl64.Vec3) {
	c.Location = p
}

type commandKind uint8

const (
	cmdCapture commandKind = iota
	cmdReadback
)

type command struct {
	kind    commandKind
	capture *SoftwareCapture
	target  *SoftwareTarget
	dst     *[]Pixel
}

// SoftwareDevice is a headless Device. Submitted commands execute on the
// next Advance and fences signal a fixed number of frames after they begin.
// It shades the detector from the scene's point lights, with shadow rays
// traced against visibility colliders.
type SoftwareDevice struct {
	scene   LitScene
	latency int
	frame   int
	queue   []command

	// DetectorRadius is the radius of the shaded sphere.
	DetectorRadius float64
	// Ambient is added to every lit detector pixel, 0-1 per channel.
	Ambient mgl64.Vec3
}

// NewSoftwareDevice creates a device rendering scene. Fences complete
// latency frames after BeginFence; values below 1 are raised to 1.
func NewSoftwareDevice(scene LitScene, latency int) *SoftwareDevice {
	if latency < 1 {
		latency = 1
	}
	return &SoftwareDevice{
		scene:          scene,
		latency:        latency,
		DetectorRadius: 8,
	}
}

// CaptureScene renders src immediately.
func (d *SoftwareDevice) CaptureScene(src Source) {
	if c, ok := src.(*SoftwareCapture); ok {
		d.render(c)
	}
}

// CaptureSceneDeferred renders src on the next Advance.
func (d *SoftwareDevice) CaptureSceneDeferred(src Source) {
	if c, ok := src.(*SoftwareCapture); ok {
		d.queue = append(d.queue, command{kind: cmdCapture, capture: c})
	}
}

// ReadPixels copies t into *dst on the next Advance.
func (d *SoftwareDevice) ReadPixels(t Target, dst *[]Pixel) {
	if st, ok := t.(*SoftwareTarget); ok && dst != nil {
		d.queue = append(d.queue, command{kind: cmdReadback, target: st, dst: dst})
	}
}

// BeginFence returns a fence that completes after the device latency.
func (d *SoftwareDevice) BeginFence() Fence {
	return softwareFence{dev: d, frame: d.frame + d.latency}
}

// Advance executes queued commands and moves to the next frame.
func (d *SoftwareDevice) Advance() {
	d.frame++
	queue := d.queue
	d.queue = d.queue[:0]
	for _, cmd := range queue {
		switch cmd.kind {
		case cmdCapture:
			d.render(cmd.capture)
		case cmdReadback:
			*cmd.dst = append((*cmd.dst)[:0], cmd.target.pixels...)
		}
	}
}

// Frame returns the number of frames advanced.
func (d *SoftwareDevice) Frame() int {
	return d.frame
}

type softwareFence struct {
	dev   *SoftwareDevice
	frame int
}

func (f softwareFence) Complete() bool {
	return f.dev.frame >= f.frame
}

func (d *SoftwareDevice) render(c *SoftwareCapture) {
	t := c.Target
	if t == nil {
		return
	}
	lights := d.scene.Lights()
	zSign := 1.0
	if c.Side == SideBottom {
		zSign = -1
	}

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			// Map the pixel centre onto the unit disc seen by the camera
			u := (float64(x)+0.5)/float64(t.width)*2 - 1
			v := (float64(y)+0.5)/float64(t.height)*2 - 1
			r2 := u*u + v*v
			if r2 > 1 {
				t.pixels[y*t.width+x] = Pixel{A: 255}
				continue
			}
			n := mgl64.Vec3{u, v, zSign * math.Sqrt(1-r2)}
			point := c.Location.Add(n.Mul(d.DetectorRadius))
			t.pixels[y*t.width+x] = ToPixel(Shade(d.scene, d.Ambient, point, n, lights))
		}
	}
}

// Shade returns the linear colour of a detector surface point lit by
// lights, with shadow rays traced against visibility colliders in scene.
func Shade(scene world.Tracer, ambient, point, normal mgl64.Vec3, lights []world.Light) mgl64.Vec3 {
	color := ambient
	origin := point.Add(normal.Mul(0.01))
	for _, l := range lights {
		toLight := l.Position.Sub(point)
		dist := toLight.Len()
		if dist < 1e-6 || (l.Radius > 0 && dist >= l.Radius) {
			continue
		}
		dir := toLight.Mul(1 / dist)
		ndotl := normal.Dot(dir)
		if ndotl <= 0 {
			continue
		}
		if _, blocked := scene.CastRay(origin, l.Position, world.Filter{Channels: components.ChannelVisibility}); blocked {
			continue
		}
		atten := 1.0
		if l.Radius > 0 {
			falloff := 1 - dist/l.Radius
			atten = falloff * falloff
		}
		color = color.Add(l.Color.Mul(l.Intensity * ndotl * atten))
	}
	return color
}

// ToPixel converts a linear colour to an opaque 8-bit pixel.
func ToPixel(c mgl64.Vec3) Pixel {
	return Pixel{
		R: channel(c.X()),
		G: channel(c.Y()),
		B: channel(c.Z()),
		A: 255,
	}
}

func channel(v float64) uint8 {
	return uint8(mgl64.Clamp(v, 0, 1)*255 + 0.5)
}
