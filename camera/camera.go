// Package camera provides a first-person camera.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a first-person view. Z is up; angles are in degrees.
// Yaw turns around Z from +X towards +Y, positive Pitch looks up, and
// positive Roll tilts the view to the right.
type Camera struct {
	// Position is the eye location in world coordinates
	Position mgl64.Vec3

	Yaw, Pitch, Roll float64

	// Vertical field of view
	FOV float64

	// Pitch constraints
	MinPitch, MaxPitch float64
}

// New creates a level camera at the origin looking along +X.
func New(fov float64) *Camera {
	return &Camera{
		FOV:      fov,
		MinPitch: -89,
		MaxPitch: 89,
	}
}

// Rotate applies look input, clamping pitch.
func (c *Camera) Rotate(dyaw, dpitch float64) {
	c.Yaw = wrapDegrees(c.Yaw + dyaw)
	c.Pitch = clamp(c.Pitch+dpitch, c.MinPitch, c.MaxPitch)
}

// Forward returns the unit view direction including pitch.
func (c *Camera) Forward() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(c.Pitch)
	cp := math.Cos(pitch)
	return mgl64.Vec3{cp * math.Cos(yaw), cp * math.Sin(yaw), math.Sin(pitch)}
}

// FlatForward returns the horizontal view direction.
func (c *Camera) FlatForward() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	return mgl64.Vec3{math.Cos(yaw), math.Sin(yaw), 0}
}

// Right returns the horizontal unit vector to the right of the view.
func (c *Camera) Right() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	return mgl64.Vec3{-math.Sin(yaw), math.Cos(yaw), 0}
}

// Up returns the view up vector with roll applied.
func (c *Camera) Up() mgl64.Vec3 {
	f := c.Forward()
	r := c.Right()
	up := r.Cross(f)
	if up.Z() < 0 {
		up = up.Mul(-1)
	}
	// Rotate up around the view axis; rolling right tips up towards Right
	q := mgl64.QuatRotate(-mgl64.DegToRad(c.Roll), f)
	return q.Rotate(up).Normalize()
}

// Target returns a point one unit along the view direction.
func (c *Camera) Target() mgl64.Vec3 {
	return c.Position.Add(c.Forward())
}

// wrapDegrees maps an angle into (-180, 180].
func wrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
