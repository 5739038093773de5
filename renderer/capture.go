package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/lightdetect"
)

// CaptureTarget is a GPU render target for one detector view.
type CaptureTarget struct {
	width, height int
	tex           rl.RenderTexture2D
	loaded        bool
}

// Size implements lightdetect.Target.
func (t *CaptureTarget) Size() (int, int) {
	return t.width, t.height
}

// Texture returns the target texture for debug display.
func (t *CaptureTarget) Texture() (rl.Texture2D, bool) {
	return t.tex.Texture, t.loaded
}

// CaptureView looks at the detector sphere straight down (SideTop) or
// straight up (SideBottom) through an orthographic camera.
type CaptureView struct {
	Side     lightdetect.Side
	Location mgl64.Vec3
	Target   *CaptureTarget
}

// SetLocation implements lightdetect.Source.
func (v *CaptureView) SetLocation(p mgl64.Vec3) {
	v.Location = p
}

type readback struct {
	target *CaptureTarget
	dst    *[]lightdetect.Pixel
}

// CaptureDevice is the raylib lightdetect.Device. The detector sphere is
// tessellated and shaded per vertex on the CPU; the GPU rasterises it into
// small render textures that are copied back on the following frame.
// All methods must run on the thread that owns the raylib context.
type CaptureDevice struct {
	scene   lightdetect.LitScene
	latency int
	frame   int

	rings, segments int

	deferred []*CaptureView
	reads    []readback

	// DetectorRadius is the radius of the shaded sphere.
	DetectorRadius float64
	// Ambient is added to every lit vertex, 0-1 per channel.
	Ambient mgl64.Vec3
}

// NewCaptureDevice creates a device rendering scene. Fences complete
// latency frames after BeginFence; values below 1 are raised to 1.
func NewCaptureDevice(scene lightdetect.LitScene, latency int) *CaptureDevice {
	if latency < 1 {
		latency = 1
	}
	return &CaptureDevice{
		scene:          scene,
		latency:        latency,
		rings:          8,
		segments:       16,
		DetectorRadius: 8,
	}
}

// NewView allocates a view and its render target. Requires a window.
func (d *CaptureDevice) NewView(side lightdetect.Side, width, height int) *CaptureView {
	t := &CaptureTarget{width: width, height: height}
	t.tex = rl.LoadRenderTexture(int32(width), int32(height))
	t.loaded = true
	return &CaptureView{Side: side, Target: t}
}

// Unload frees a view's render target.
func (d *CaptureDevice) Unload(v *CaptureView) {
	if v == nil || v.Target == nil || !v.Target.loaded {
		return
	}
	rl.UnloadRenderTexture(v.Target.tex)
	v.Target.loaded = false
}

// CaptureScene renders src immediately.
func (d *CaptureDevice) CaptureScene(src lightdetect.Source) {
	if v, ok := src.(*CaptureView); ok {
		d.render(v)
	}
}

// CaptureSceneDeferred renders src on the next Advance.
func (d *CaptureDevice) CaptureSceneDeferred(src lightdetect.Source) {
	if v, ok := src.(*CaptureView); ok {
		d.deferred = append(d.deferred, v)
	}
}

// ReadPixels copies t into *dst on the next Advance.
func (d *CaptureDevice) ReadPixels(t lightdetect.Target, dst *[]lightdetect.Pixel) {
	if ct, ok := t.(*CaptureTarget); ok && dst != nil {
		d.reads = append(d.reads, readback{target: ct, dst: dst})
	}
}

// BeginFence returns a fence that completes after the device latency.
func (d *CaptureDevice) BeginFence() lightdetect.Fence {
	return frameFence{dev: d, frame: d.frame + d.latency}
}

// Frame returns the number of frames advanced.
func (d *CaptureDevice) Frame() int {
	return d.frame
}

// Advance runs deferred captures, then pending readbacks, and moves to the
// next frame. Call once per frame outside BeginDrawing.
func (d *CaptureDevice) Advance() {
	d.frame++
	for _, v := range d.deferred {
		d.render(v)
	}
	d.deferred = d.deferred[:0]

	for _, rb := range d.reads {
		if !rb.target.loaded {
			continue
		}
		img := rl.LoadImageFromTexture(rb.target.tex.Texture)
		colors := rl.LoadImageColors(img)
		out := (*rb.dst)[:0]
		for _, c := range colors {
			out = append(out, lightdetect.Pixel{R: c.R, G: c.G, B: c.B, A: c.A})
		}
		*rb.dst = out
		rl.UnloadImageColors(colors)
		rl.UnloadImage(img)
	}
	d.reads = d.reads[:0]
}

type frameFence struct {
	dev   *CaptureDevice
	frame int
}

func (f frameFence) Complete() bool {
	return f.dev.frame >= f.frame
}

func (d *CaptureDevice) render(v *CaptureView) {
	t := v.Target
	if t == nil || !t.loaded {
		return
	}
	lights := d.scene.Lights()
	tris := hemisphere(v.Side, d.rings, d.segments)

	eye := v.Location.Add(mgl64.Vec3{0, 0, 2 * d.DetectorRadius})
	if v.Side == lightdetect.SideBottom {
		eye = v.Location.Add(mgl64.Vec3{0, 0, -2 * d.DetectorRadius})
	}
	cam := rl.Camera3D{
		Position:   toRL(eye),
		Target:     toRL(v.Location),
		Up:         toRL(mgl64.Vec3{1, 0, 0}),
		Fovy:       float32(2 * d.DetectorRadius),
		Projection: rl.CameraOrthographic,
	}

	rl.BeginTextureMode(t.tex)
	rl.ClearBackground(rl.Black)
	rl.BeginMode3D(cam)
	for _, tri := range tris {
		var pts [3]rl.Vector3
		var cols [3]mgl64.Vec3
		for i, n := range tri {
			p := v.Location.Add(n.Mul(d.DetectorRadius))
			pts[i] = toRL(p)
			cols[i] = lightdetect.Shade(d.scene, d.Ambient, p, n, lights)
		}
		// Flat shade with the vertex average
		c := cols[0].Add(cols[1]).Add(cols[2]).Mul(1.0 / 3)
		px := lightdetect.ToPixel(c)
		col := rl.Color{R: px.R, G: px.G, B: px.B, A: 255}
		rl.DrawTriangle3D(pts[0], pts[1], pts[2], col)
		rl.DrawTriangle3D(pts[0], pts[2], pts[1], col)
	}
	rl.EndMode3D()
	rl.EndTextureMode()
}

// hemisphere tessellates the unit hemisphere facing +Z (SideTop) or -Z
// (SideBottom) into triangles of unit normals.
func hemisphere(side lightdetect.Side, rings, segments int) [][3]mgl64.Vec3 {
	zSign := 1.0
	if side == lightdetect.SideBottom {
		zSign = -1
	}
	point := func(ring, seg int) mgl64.Vec3 {
		polar := float64(ring) / float64(rings) * math.Pi / 2
		az := float64(seg) / float64(segments) * 2 * math.Pi
		s := math.Sin(polar)
		return mgl64.Vec3{s * math.Cos(az), s * math.Sin(az), zSign * math.Cos(polar)}
	}

	tris := make([][3]mgl64.Vec3, 0, rings*segments*2)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a, b := point(r, s), point(r, s+1)
			c, e := point(r+1, s), point(r+1, s+1)
			if r > 0 {
				tris = append(tris, [3]mgl64.Vec3{a, c, b})
			}
			tris = append(tris, [3]mgl64.Vec3{b, c, e})
		}
	}
	return tris
}

// toRL maps a Z-up world position into raylib's Y-up space.
func toRL(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v.X()), float32(v.Z()), float32(v.Y()))
}

var _ lightdetect.Device = (*CaptureDevice)(nil)
