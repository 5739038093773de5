// Package components defines ECS components for the level scene.
package components

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Channel is a bitmask of trace channels a collider responds to.
type Channel uint8

const (
	ChannelVisibility Channel = 1 << iota // Line-of-sight and light occlusion
	ChannelClimbable                      // Walls and ledges the player may mantle
	ChannelInteract                       // Doors and other usable objects
	ChannelPawn                           // The player capsule itself

	ChannelAll Channel = 0xFF
)

// Has reports whether c contains any bit of other.
func (c Channel) Has(other Channel) bool {
	return c&other != 0
}

// Transform places an entity in the world. Z is up; Yaw is in degrees
// around the Z axis, measured from +X towards +Y.
type Transform struct {
	Position mgl64.Vec3
	Yaw      float64
}

// Forward returns the unit vector the transform faces.
func (t Transform) Forward() mgl64.Vec3 {
	rad := t.Yaw * math.Pi / 180
	return mgl64.Vec3{math.Cos(rad), math.Sin(rad), 0}
}

// Right returns the unit vector to the right of Forward.
func (t Transform) Right() mgl64.Vec3 {
	rad := t.Yaw * math.Pi / 180
	return mgl64.Vec3{-math.Sin(rad), math.Cos(rad), 0}
}

// ToLocal converts a world-space point into the transform's local frame.
func (t Transform) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(t.Position)
	return t.ToLocalDir(d)
}

// ToLocalDir rotates a world-space direction into the local frame.
func (t Transform) ToLocalDir(d mgl64.Vec3) mgl64.Vec3 {
	f, r := t.Forward(), t.Right()
	return mgl64.Vec3{d.Dot(f), d.Dot(r), d.Z()}
}

// ToWorldDir rotates a local direction back into world space.
func (t Transform) ToWorldDir(d mgl64.Vec3) mgl64.Vec3 {
	f, r := t.Forward(), t.Right()
	return f.Mul(d.X()).Add(r.Mul(d.Y())).Add(mgl64.Vec3{0, 0, d.Z()})
}

// Collider is an oriented box (yaw only) centred on the entity's Transform.
type Collider struct {
	HalfExtents mgl64.Vec3 // Local X (forward), Y (right), Z (up)
	Channels    Channel
}

// PointLight is an omnidirectional light located at the entity's Transform.
type PointLight struct {
	Color     mgl64.Vec3 // Linear RGB, 0-1 per channel
	Intensity float64
	Radius    float64 // Attenuation reaches zero at this distance
}

// DoorState swings a box collider around a vertical hinge on its local
// -Y edge. Angle is measured from ClosedYaw in degrees.
type DoorState struct {
	Hinge     mgl64.Vec3
	ClosedYaw float64
	Angle     float64
	Target    float64
	Open      bool
}

// Flicker varies a PointLight's intensity around Base over time.
type Flicker struct {
	Base   float64 // Unmodulated intensity
	Amount float64 // Fraction of Base, 0-1
	Speed  float64 // Noise cycles per second
	Offset float64 // Separates lights in noise space
}
