package motion

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/world"
)

type fakeBody struct {
	loc, vel mgl64.Vec3
	mode     Mode
	fwd      mgl64.Vec3
	hh       float64
	radius   float64
	speed    float64
	pinned   bool // ignore SetLocation
	jumps    int
}

func newFakeBody(loc mgl64.Vec3) *fakeBody {
	return &fakeBody{loc: loc, fwd: mgl64.Vec3{1, 0, 0}, hh: 88, radius: 42}
}

func (b *fakeBody) Location() mgl64.Vec3 { return b.loc }
func (b *fakeBody) SetLocation(p mgl64.Vec3) {
	if !b.pinned {
		b.loc = p
	}
}
func (b *fakeBody) Velocity() mgl64.Vec3      { return b.vel }
func (b *fakeBody) SetVelocity(v mgl64.Vec3)  { b.vel = v }
func (b *fakeBody) Mode() Mode                { return b.mode }
func (b *fakeBody) SetMode(m Mode)            { b.mode = m }
func (b *fakeBody) Forward() mgl64.Vec3       { return b.fwd }
func (b *fakeBody) Radius() float64           { return b.radius }
func (b *fakeBody) HalfHeight() float64       { return b.hh }
func (b *fakeBody) SetHalfHeight(h float64)   { b.hh = h }
func (b *fakeBody) MaxWalkSpeed() float64     { return b.speed }
func (b *fakeBody) SetMaxWalkSpeed(s float64) { b.speed = s }
func (b *fakeBody) Jump()                     { b.jumps++ }

// scriptedTracer returns fixed hits so tests can shape surfaces boxes cannot.
type scriptedTracer struct {
	rays []world.Hit
	call int
}

func (s *scriptedTracer) CastRay(start, end mgl64.Vec3, f world.Filter) (world.Hit, bool) {
	if s.call >= len(s.rays) {
		return world.Hit{}, false
	}
	h := s.rays[s.call]
	s.call++
	return h, true
}

func (s *scriptedTracer) CastCapsule(start, end mgl64.Vec3, radius, halfHeight float64, f world.Filter) []world.Hit {
	return nil
}

const solid = components.ChannelVisibility | components.ChannelClimbable

// levelWithLedge builds a floor at z=0 and a wall whose near face is at
// x=wallX and whose top is at z=height.
func levelWithLedge(wallX, height float64) *world.Scene {
	s := world.NewScene()
	s.AddBox(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{2000, 2000, 10}, 0, solid)
	s.AddBox(mgl64.Vec3{wallX + 100, 0, height / 2}, mgl64.Vec3{100, 200, height / 2}, 0, solid)
	return s
}

func testConfig() *config.Config {
	return config.Default()
}
