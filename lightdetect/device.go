package lightdetect

import "github.com/go-gl/mathgl/mgl64"

// Side identifies one of the two detector views.
type Side int

const (
	SideTop Side = iota
	SideBottom
)

func (s Side) String() string {
	if s == SideTop {
		return "top"
	}
	return "bottom"
}

// Source is a capture viewpoint that renders into a Target.
type Source interface {
	SetLocation(p mgl64.Vec3)
}

// Target is a render target whose pixels can be read back.
type Target interface {
	Size() (width, height int)
}

// Fence signals completion of previously submitted device commands.
// Complete must never block.
type Fence interface {
	Complete() bool
}

// Device submits asynchronous capture and readback commands.
//
// CaptureScene renders src immediately. CaptureSceneDeferred renders it
// on the next frame the device draws. ReadPixels queues a copy of t into
// *dst; the slice is only valid once a fence begun after the call completes.
type Device interface {
	CaptureScene(src Source)
	CaptureSceneDeferred(src Source)
	ReadPixels(t Target, dst *[]Pixel)
	BeginFence() Fence
}
