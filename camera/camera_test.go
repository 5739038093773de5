package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNew(t *testing.T) {
	cam := New(90)

	f := cam.Forward()
	if !f.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("expected forward (1,0,0), got %v", f)
	}
	if cam.FOV != 90 {
		t.Errorf("expected fov 90, got %f", cam.FOV)
	}
}

func TestRightIsPerpendicular(t *testing.T) {
	cam := New(90)
	for _, yaw := range []float64{0, 30, 90, -135} {
		cam.Yaw = yaw
		cam.Pitch = 20
		if d := cam.Right().Dot(cam.Forward()); math.Abs(d) > 1e-9 {
			t.Errorf("yaw %v: expected right perpendicular to forward, dot=%f", yaw, d)
		}
		if cam.Right().Z() != 0 {
			t.Errorf("yaw %v: expected horizontal right vector", yaw)
		}
	}

	cam.Yaw, cam.Pitch = 90, 0
	if !cam.Right().ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("expected right (-1,0,0) at yaw 90, got %v", cam.Right())
	}
}

func TestRotateClampsPitch(t *testing.T) {
	cam := New(90)
	cam.Rotate(0, 200)
	if cam.Pitch != 89 {
		t.Errorf("expected pitch clamped to 89, got %f", cam.Pitch)
	}
	cam.Rotate(0, -500)
	if cam.Pitch != -89 {
		t.Errorf("expected pitch clamped to -89, got %f", cam.Pitch)
	}
}

func TestRotateWrapsYaw(t *testing.T) {
	cam := New(90)
	cam.Rotate(270, 0)
	if math.Abs(cam.Yaw-(-90)) > 1e-9 {
		t.Errorf("expected yaw -90, got %f", cam.Yaw)
	}
	cam.Rotate(-100, 0)
	if math.Abs(cam.Yaw-170) > 1e-9 {
		t.Errorf("expected yaw 170, got %f", cam.Yaw)
	}
}

func TestUpWithRoll(t *testing.T) {
	cam := New(90)
	if !cam.Up().ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("expected up (0,0,1), got %v", cam.Up())
	}

	cam.Roll = 12
	up := cam.Up()
	if up.Dot(cam.Right()) <= 0 {
		t.Errorf("expected positive roll to tip up towards right, got %v", up)
	}
	if math.Abs(up.Len()-1) > 1e-9 {
		t.Errorf("expected unit up vector, got length %f", up.Len())
	}
}

func TestTarget(t *testing.T) {
	cam := New(90)
	cam.Position = mgl64.Vec3{10, 0, 64}
	if !cam.Target().ApproxEqual(mgl64.Vec3{11, 0, 64}) {
		t.Errorf("expected target (11,0,64), got %v", cam.Target())
	}
}
