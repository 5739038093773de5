package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/lightdetect"
	"github.com/pthm-cable/thieflike/world"
)

func TestHemisphereFacesSide(t *testing.T) {
	for _, tc := range []struct {
		side lightdetect.Side
		sign float64
	}{
		{lightdetect.SideTop, 1},
		{lightdetect.SideBottom, -1},
	} {
		tris := hemisphere(tc.side, 4, 8)
		// One fan at the pole plus two triangles per remaining quad
		if want := 8 + 3*8*2; len(tris) != want {
			t.Errorf("%s: expected %d triangles, got %d", tc.side, want, len(tris))
		}
		for _, tri := range tris {
			for _, n := range tri {
				if math.Abs(n.Len()-1) > 1e-9 {
					t.Fatalf("%s: expected unit normal, got %v", tc.side, n)
				}
				if n.Z()*tc.sign < -1e-9 {
					t.Fatalf("%s: expected normal on the %s hemisphere, got %v", tc.side, tc.side, n)
				}
			}
		}
	}
}

func TestToRLSwapsUpAxis(t *testing.T) {
	v := toRL(mgl64.Vec3{1, 2, 3})
	if v.X != 1 || v.Y != 3 || v.Z != 2 {
		t.Errorf("expected (1,3,2), got (%v,%v,%v)", v.X, v.Y, v.Z)
	}
}

func TestCaptureFenceLatency(t *testing.T) {
	dev := NewCaptureDevice(world.NewScene(), 2)
	f := dev.BeginFence()
	if f.Complete() {
		t.Fatal("expected fresh fence to be pending")
	}
	dev.Advance()
	if f.Complete() {
		t.Error("expected fence pending after one frame")
	}
	dev.Advance()
	if !f.Complete() {
		t.Error("expected fence complete after two frames")
	}
	if dev.Frame() != 2 {
		t.Errorf("expected frame 2, got %d", dev.Frame())
	}
}

func TestCaptureIgnoresForeignSources(t *testing.T) {
	dev := NewCaptureDevice(world.NewScene(), 0)
	sw := lightdetect.NewSoftwareCapture(lightdetect.SideTop, 4, 4)
	var dst []lightdetect.Pixel

	dev.CaptureSceneDeferred(sw)
	dev.ReadPixels(sw.Target, &dst)
	if len(dev.deferred) != 0 || len(dev.reads) != 0 {
		t.Error("expected software views to be ignored")
	}
	if dev.latency != 1 {
		t.Errorf("expected latency raised to 1, got %d", dev.latency)
	}
}
