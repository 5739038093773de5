package lightdetect

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/taskqueue"
	"github.com/pthm-cable/thieflike/world"
)

func litCount(c *SoftwareCapture) int {
	return CountLit(c.Target.Pixels(), false, 15)
}

func TestSoftwareDeviceShadesFacingSide(t *testing.T) {
	scene := world.NewScene()
	scene.AddLight(mgl64.Vec3{0, 0, 200}, mgl64.Vec3{1, 1, 1}, 4, 1000)
	dev := NewSoftwareDevice(scene, 1)

	top := NewSoftwareCapture(SideTop, 8, 8)
	bottom := NewSoftwareCapture(SideBottom, 8, 8)
	dev.CaptureScene(top)
	dev.CaptureScene(bottom)

	if litCount(top) == 0 {
		t.Error("expected top view lit by overhead light")
	}
	if litCount(bottom) != 0 {
		t.Errorf("expected bottom view dark, got %d lit pixels", litCount(bottom))
	}
}

func TestSoftwareDeviceShadow(t *testing.T) {
	scene := world.NewScene()
	scene.AddLight(mgl64.Vec3{0, 0, 200}, mgl64.Vec3{1, 1, 1}, 4, 1000)
	scene.AddBox(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{200, 200, 5}, 0, components.ChannelVisibility)
	dev := NewSoftwareDevice(scene, 1)

	top := NewSoftwareCapture(SideTop, 8, 8)
	dev.CaptureScene(top)
	if litCount(top) != 0 {
		t.Errorf("expected occluded detector to be dark, got %d lit pixels", litCount(top))
	}
}

func TestSoftwareDeviceOutOfRange(t *testing.T) {
	scene := world.NewScene()
	scene.AddLight(mgl64.Vec3{0, 0, 500}, mgl64.Vec3{1, 1, 1}, 4, 300)
	dev := NewSoftwareDevice(scene, 1)

	top := NewSoftwareCapture(SideTop, 8, 8)
	dev.CaptureScene(top)
	if litCount(top) != 0 {
		t.Errorf("expected light beyond its radius to contribute nothing, got %d", litCount(top))
	}
}

func TestSoftwareDeviceDeferredAndFences(t *testing.T) {
	scene := world.NewScene()
	scene.AddLight(mgl64.Vec3{0, 0, 200}, mgl64.Vec3{1, 1, 1}, 4, 1000)
	dev := NewSoftwareDevice(scene, 2)

	top := NewSoftwareCapture(SideTop, 4, 4)
	dev.CaptureSceneDeferred(top)
	fence := dev.BeginFence()
	if litCount(top) != 0 {
		t.Error("expected deferred capture not to render before Advance")
	}
	if fence.Complete() {
		t.Error("expected fence pending before Advance")
	}

	dev.Advance()
	if litCount(top) == 0 {
		t.Error("expected deferred capture to render on Advance")
	}
	if fence.Complete() {
		t.Error("expected fence to honour its latency")
	}
	dev.Advance()
	if !fence.Complete() {
		t.Error("expected fence complete after latency frames")
	}

	var dst []Pixel
	dev.ReadPixels(top.Target, &dst)
	if len(dst) != 0 {
		t.Error("expected readback to wait for Advance")
	}
	dev.Advance()
	if len(dst) != 16 {
		t.Errorf("expected 16 pixels read back, got %d", len(dst))
	}
}

func TestDetectorWithSoftwareDevice(t *testing.T) {
	cfg := testConfig(false)
	scene := world.NewScene()
	scene.AddLight(mgl64.Vec3{0, 0, 200}, mgl64.Vec3{1, 1, 1}, 4, 1000)
	dev := NewSoftwareDevice(scene, cfg.Light.FenceLatency)

	q := taskqueue.New()
	d := NewDetector(cfg, dev, q, nil)
	top := NewSoftwareCapture(SideTop, cfg.Light.CaptureWidth, cfg.Light.CaptureHeight)
	bottom := NewSoftwareCapture(SideBottom, cfg.Light.CaptureWidth, cfg.Light.CaptureHeight)
	d.SetCaptures(top, bottom)
	d.SetTargets(top.Target, bottom.Target)
	d.Follow(mgl64.Vec3{0, 0, 0})

	samples := 0
	d.OnSample(func(Sample) { samples++ })

	now := time.Duration(0)
	for i := 0; i < 2000 && samples < cfg.Light.MaxHistory; i++ {
		now += cfg.Derived.TickDuration
		q.Drain()
		d.Update(now)
		dev.Advance()
	}
	if samples < cfg.Light.MaxHistory {
		t.Fatalf("expected %d samples, got %d", cfg.Light.MaxHistory, samples)
	}
	b := d.Brightness()
	if b <= 0 || b >= 1 {
		t.Errorf("expected partial brightness in (0,1), got %f", b)
	}
}
