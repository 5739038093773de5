package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/world"
)

// Mode is the movement mode of a body.
type Mode uint8

const (
	ModeWalking Mode = iota
	ModeFalling
	ModeFlying // Scripted motion; no gravity or ground checks
)

func (m Mode) String() string {
	switch m {
	case ModeWalking:
		return "walking"
	case ModeFalling:
		return "falling"
	case ModeFlying:
		return "flying"
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String. Unknown names parse as falling.
func ParseMode(s string) Mode {
	switch s {
	case "walking":
		return ModeWalking
	case "flying":
		return ModeFlying
	}
	return ModeFalling
}

// Body is the movement state of an upright capsule. Location is the
// capsule centre.
type Body interface {
	Location() mgl64.Vec3
	SetLocation(p mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	Mode() Mode
	SetMode(m Mode)
	Forward() mgl64.Vec3
	Radius() float64
	HalfHeight() float64
	SetHalfHeight(h float64)
	MaxWalkSpeed() float64
	SetMaxWalkSpeed(s float64)
	// Jump launches the body if it is walking.
	Jump()
}

const (
	stepHeight = 10.0
	groundSnap = 2.0
	skin       = 0.1
)

var blockingFilter = world.Filter{Channels: components.ChannelVisibility | components.ChannelClimbable}

// KinematicBody is a Body that walks on the scene's colliders: it slides
// along walls, snaps to walkable floors and falls under gravity.
type KinematicBody struct {
	tracer world.Tracer

	loc, vel mgl64.Vec3
	mode     Mode
	yaw      float64
	input    mgl64.Vec2 // Desired local move, X forward, Y right

	radius       float64
	halfHeight   float64
	maxWalkSpeed float64

	gravity   float64
	jumpZ     float64
	walkableZ float64
	braking   float64
}

// NewKinematicBody creates a standing body at loc.
func NewKinematicBody(cfg *config.Config, tracer world.Tracer, loc mgl64.Vec3) *KinematicBody {
	m := cfg.Movement
	return &KinematicBody{
		tracer:       tracer,
		loc:          loc,
		mode:         ModeFalling,
		radius:       m.CapsuleRadius,
		halfHeight:   cfg.Crouch.StandHalfHeight,
		maxWalkSpeed: m.WalkSpeed,
		gravity:      m.Gravity,
		jumpZ:        m.JumpZVelocity,
		walkableZ:    m.WalkableFloorZ,
		braking:      m.BrakingFriction,
	}
}

func (b *KinematicBody) Location() mgl64.Vec3            { return b.loc }
func (b *KinematicBody) SetLocation(p mgl64.Vec3)        { b.loc = p }
func (b *KinematicBody) Velocity() mgl64.Vec3            { return b.vel }
func (b *KinematicBody) SetVelocity(v mgl64.Vec3)        { b.vel = v }
func (b *KinematicBody) Mode() Mode                      { return b.mode }
func (b *KinematicBody) SetMode(m Mode)                  { b.mode = m }
func (b *KinematicBody) Radius() float64                 { return b.radius }
func (b *KinematicBody) HalfHeight() float64             { return b.halfHeight }
func (b *KinematicBody) SetHalfHeight(h float64)         { b.halfHeight = h }
func (b *KinematicBody) MaxWalkSpeed() float64           { return b.maxWalkSpeed }
func (b *KinematicBody) SetMaxWalkSpeed(s float64)       { b.maxWalkSpeed = s }
func (b *KinematicBody) Yaw() float64                    { return b.yaw }
func (b *KinematicBody) SetYaw(yaw float64)              { b.yaw = yaw }
func (b *KinematicBody) SetInput(forward, right float64) { b.input = mgl64.Vec2{forward, right} }

// Forward returns the horizontal facing direction.
func (b *KinematicBody) Forward() mgl64.Vec3 {
	return components.Transform{Yaw: b.yaw}.Forward()
}

// Jump launches the body when it stands on the ground.
func (b *KinematicBody) Jump() {
	if b.mode != ModeWalking {
		return
	}
	b.vel[2] = b.jumpZ
	b.mode = ModeFalling
}

// Step integrates one tick of movement.
func (b *KinematicBody) Step(dt float64) {
	if b.mode == ModeFlying || dt <= 0 {
		return
	}

	b.updateHorizontalVelocity(dt)
	b.moveHorizontal(b.vel.Mul(dt))

	switch b.mode {
	case ModeWalking:
		if !b.snapToGround(groundSnap) {
			b.mode = ModeFalling
		}
	case ModeFalling:
		b.vel[2] -= b.gravity * dt
		b.moveVertical(b.vel.Z() * dt)
	}
}

func (b *KinematicBody) updateHorizontalVelocity(dt float64) {
	xf := components.Transform{Yaw: b.yaw}
	wish := xf.Forward().Mul(b.input.X()).Add(xf.Right().Mul(b.input.Y()))
	if l := wish.Len(); l > 1 {
		wish = wish.Mul(1 / l)
	}

	if b.mode == ModeFalling {
		// Falling keeps its momentum
		return
	}
	if wish.LenSqr() == 0 {
		f := math.Max(0, 1-b.braking*dt)
		b.vel[0] *= f
		b.vel[1] *= f
		return
	}
	b.vel[0] = wish.X() * b.maxWalkSpeed
	b.vel[1] = wish.Y() * b.maxWalkSpeed
}

// moveHorizontal sweeps the capsule above step height and slides along
// the first wall it meets.
func (b *KinematicBody) moveHorizontal(delta mgl64.Vec3) {
	delta[2] = 0
	for i := 0; i < 2 && delta.LenSqr() > 1e-10; i++ {
		center := b.loc.Add(mgl64.Vec3{0, 0, stepHeight / 2})
		hh := b.halfHeight - stepHeight/2
		hit, ok := b.firstBlocking(center, center.Add(delta), hh, delta)
		if !ok {
			b.loc = b.loc.Add(delta)
			return
		}
		length := delta.Len()
		travel := math.Max(0, hit.Distance-skin)
		b.loc = b.loc.Add(delta.Mul(travel / length))

		// Slide along the wall with what is left
		n := mgl64.Vec3{hit.Normal.X(), hit.Normal.Y(), 0}
		if n.LenSqr() < 1e-10 {
			return
		}
		n = n.Normalize()
		rest := delta.Mul(1 - travel/length)
		delta = rest.Sub(n.Mul(rest.Dot(n)))

		if vn := b.vel.Dot(n); vn < 0 {
			b.vel = b.vel.Sub(n.Mul(vn))
		}
	}
}

func (b *KinematicBody) firstBlocking(start, end mgl64.Vec3, hh float64, delta mgl64.Vec3) (world.Hit, bool) {
	for _, hit := range b.tracer.CastCapsule(start, end, b.radius, hh, blockingFilter) {
		// Overlaps only block motion that goes further in
		if hit.StartPenetrating {
			continue
		}
		if hit.Normal.Dot(delta) < 0 {
			return hit, true
		}
	}
	return world.Hit{}, false
}

// moveVertical applies a vertical displacement, landing on walkable
// floors and stopping at ceilings.
func (b *KinematicBody) moveVertical(dz float64) {
	if dz > 0 {
		start := b.loc.Add(mgl64.Vec3{0, 0, b.halfHeight - skin})
		if hit, ok := b.tracer.CastRay(start, start.Add(mgl64.Vec3{0, 0, dz + skin}), blockingFilter); ok && !hit.StartPenetrating {
			b.loc[2] = hit.ImpactPoint.Z() - b.halfHeight
			b.vel[2] = 0
			return
		}
		b.loc[2] += dz
		return
	}
	if !b.snapToGround(-dz) {
		b.loc[2] += dz
	}
}

// snapToGround looks for a walkable floor within reach below the feet
// and stands the body on it.
func (b *KinematicBody) snapToGround(reach float64) bool {
	start := b.loc
	end := b.loc.Sub(mgl64.Vec3{0, 0, b.halfHeight + reach})
	hit, ok := b.tracer.CastRay(start, end, blockingFilter)
	if !ok || hit.StartPenetrating || hit.Normal.Z() < b.walkableZ {
		return false
	}
	b.loc[2] = hit.ImpactPoint.Z() + b.halfHeight
	b.vel[2] = 0
	b.mode = ModeWalking
	return true
}
