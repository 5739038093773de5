package motion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/camera"
	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/world"
)

func newTestController(scene *world.Scene, body Body) *Controller {
	return NewController(testConfig(), scene, body, camera.New(90), nil)
}

// wallRight places a wall whose near face is dist to the right of the
// eye of a body at the origin facing +X.
func wallRight(s *world.Scene, dist float64) {
	s.AddBox(mgl64.Vec3{0, dist + 5, 0}, mgl64.Vec3{200, 5, 400}, 0, solid)
}

func TestAllowedLeanOffset(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name    string
		wall    float64 // 0 for none
		desired float64
		want    float64
	}{
		{"no wall", 0, 20, 20},
		{"wall beyond probe", 50, 20, 20},
		{"wall clamps", 20, 20, 15},
		{"wall inside margin", 3, 20, 0},
		{"other side unaffected", 20, -20, -20},
		{"no lean", 20, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := world.NewScene()
			if tt.wall > 0 {
				wallRight(s, tt.wall)
			}
			c := newTestController(s, newFakeBody(mgl64.Vec3{0, 0, 0}))
			got := c.AllowedLeanOffset(tt.desired)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
			if tt.wall > 0 && tt.desired > 0 && got > math.Max(0, tt.wall-cfg.Lean.SafetyMargin)+1e-9 {
				t.Errorf("expected offset within %f of the wall, got %f", cfg.Lean.SafetyMargin, got)
			}
		})
	}
}

func TestLeanInterpolatesToClampedTarget(t *testing.T) {
	cfg := testConfig()
	s := world.NewScene()
	wallRight(s, 20)
	c := newTestController(s, newFakeBody(mgl64.Vec3{0, 0, 0}))

	c.LeanRight(true)
	prev := 0.0
	for i := 0; i < 300; i++ {
		c.Update(1.0 / 60)
		if c.LeanOffset() < prev {
			t.Fatalf("expected monotonic lean, went %f -> %f", prev, c.LeanOffset())
		}
		prev = c.LeanOffset()
	}
	if math.Abs(c.LeanOffset()-15) > 1e-3 {
		t.Errorf("expected lean offset 15, got %f", c.LeanOffset())
	}
	wantRoll := cfg.Lean.MaxRoll * 15 / cfg.Lean.MaxOffset
	if math.Abs(c.LeanRoll()-wantRoll) > 1e-3 {
		t.Errorf("expected roll %f, got %f", wantRoll, c.LeanRoll())
	}
	if math.Abs(c.Camera().Roll-c.LeanRoll()) > 1e-9 {
		t.Errorf("expected camera roll to follow lean")
	}

	c.LeanRight(false)
	for i := 0; i < 300; i++ {
		c.Update(1.0 / 60)
	}
	if c.LeanOffset() != 0 || c.LeanRoll() != 0 {
		t.Errorf("expected lean to return to neutral, got %f/%f", c.LeanOffset(), c.LeanRoll())
	}
}

func TestCrouchToggle(t *testing.T) {
	cfg := testConfig()
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	c := newTestController(world.NewScene(), body)

	c.LeanLeft(true)
	c.ToggleCrouch()
	if body.speed != cfg.Crouch.Speed {
		t.Errorf("expected crouch speed %f, got %f", cfg.Crouch.Speed, body.speed)
	}
	for i := 0; i < 300; i++ {
		c.Update(1.0 / 60)
	}
	if math.Abs(body.hh-cfg.Crouch.CrouchHalfHeight) > 1e-3 {
		t.Errorf("expected half height %f, got %f", cfg.Crouch.CrouchHalfHeight, body.hh)
	}
	// Feet stay on the floor: shrinking moves the centre down by the
	// half-height delta instead of leaving the feet in the air
	if math.Abs(body.loc.Z()-body.hh) > 1e-3 {
		t.Errorf("expected feet at z=0, got centre %f with half height %f", body.loc.Z(), body.hh)
	}
	if c.LeanOffset() != 0 {
		t.Errorf("expected crouch to reset lean, got %f", c.LeanOffset())
	}
	if math.Abs(c.EyeHeight()-cfg.Crouch.CrouchCameraHeight) > 1e-3 {
		t.Errorf("expected eye height %f, got %f", cfg.Crouch.CrouchCameraHeight, c.EyeHeight())
	}

	c.ToggleCrouch()
	if body.speed != cfg.Movement.WalkSpeed {
		t.Errorf("expected walk speed after standing, got %f", body.speed)
	}
	for i := 0; i < 300; i++ {
		c.Update(1.0 / 60)
	}
	if math.Abs(body.hh-cfg.Crouch.StandHalfHeight) > 1e-3 {
		t.Errorf("expected standing half height, got %f", body.hh)
	}
}

func TestSprint(t *testing.T) {
	cfg := testConfig()
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	c := newTestController(world.NewScene(), body)

	c.StartSprint()
	if body.speed != cfg.Movement.RunSpeed {
		t.Errorf("expected run speed, got %f", body.speed)
	}
	c.StopSprint()
	if body.speed != cfg.Movement.WalkSpeed {
		t.Errorf("expected walk speed, got %f", body.speed)
	}

	c.ToggleCrouch()
	c.StartSprint()
	if body.speed != cfg.Crouch.Speed {
		t.Errorf("expected sprint ignored while crouched, got %f", body.speed)
	}
	c.ToggleCrouch()
	if body.speed != cfg.Movement.RunSpeed {
		t.Errorf("expected run speed when standing with sprint held, got %f", body.speed)
	}
}

func TestJumpFallsThroughWithoutLedge(t *testing.T) {
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	c := newTestController(world.NewScene(), body)

	c.Jump()
	if body.jumps != 1 {
		t.Errorf("expected a normal jump, got %d", body.jumps)
	}
	if c.Mantle().Active() {
		t.Error("expected no mantle")
	}
}

func TestJumpStartsMantle(t *testing.T) {
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	c := newTestController(levelWithLedge(50, 120), body)

	c.Jump()
	if !c.Mantle().Active() {
		t.Fatal("expected mantle to start")
	}
	if body.jumps != 0 {
		t.Errorf("expected no normal jump, got %d", body.jumps)
	}
	for i := 0; i < 600 && c.Mantle().Active(); i++ {
		c.Update(1.0 / 60)
	}
	if body.mode != ModeWalking {
		t.Errorf("expected walking on the ledge, got %v", body.mode)
	}

	c.StopJumping()
}

type recorder struct {
	forwards []mgl64.Vec3
}

func (r *recorder) OnInteract(forward mgl64.Vec3) {
	r.forwards = append(r.forwards, forward)
}

func TestInteract(t *testing.T) {
	s := world.NewScene()
	door := s.AddBox(mgl64.Vec3{150, 0, 100}, mgl64.Vec3{5, 50, 100}, 0, components.ChannelVisibility|components.ChannelInteract)
	rec := &recorder{}
	s.Bind(door, rec)

	c := newTestController(s, newFakeBody(mgl64.Vec3{0, 0, 88}))
	if !c.Interact() {
		t.Fatal("expected interact to reach the door")
	}
	if len(rec.forwards) != 1 || !rec.forwards[0].ApproxEqual(mgl64.Vec3{1, 0, 0}) {
		t.Errorf("expected one call with forward (1,0,0), got %v", rec.forwards)
	}

	// Out of reach
	c.Camera().Rotate(180, 0)
	if c.Interact() {
		t.Error("expected nothing behind the player")
	}
}

func TestInteractBlockedByWall(t *testing.T) {
	s := world.NewScene()
	s.AddBox(mgl64.Vec3{60, 0, 100}, mgl64.Vec3{5, 200, 200}, 0, solid)
	door := s.AddBox(mgl64.Vec3{150, 0, 100}, mgl64.Vec3{5, 50, 100}, 0, components.ChannelVisibility|components.ChannelInteract)
	rec := &recorder{}
	s.Bind(door, rec)

	c := newTestController(s, newFakeBody(mgl64.Vec3{0, 0, 88}))
	if c.Interact() {
		t.Error("expected wall to block the interact trace")
	}
}

func TestCanStartClimbing(t *testing.T) {
	t.Run("tall wall", func(t *testing.T) {
		c := newTestController(levelWithLedge(50, 400), newFakeBody(mgl64.Vec3{0, 0, 88}))
		if c.CanStartClimbing() {
			t.Error("expected eye-height trace to block")
		}
	})
	t.Run("low wall", func(t *testing.T) {
		c := newTestController(levelWithLedge(50, 100), newFakeBody(mgl64.Vec3{0, 0, 88}))
		if !c.CanStartClimbing() {
			t.Error("expected climbable surface below eye height")
		}
	})
	t.Run("open ground", func(t *testing.T) {
		s := world.NewScene()
		c := newTestController(s, newFakeBody(mgl64.Vec3{0, 0, 88}))
		if c.CanStartClimbing() {
			t.Error("expected nothing to climb")
		}
	})
	t.Run("falling", func(t *testing.T) {
		body := newFakeBody(mgl64.Vec3{0, 0, 88})
		body.mode = ModeFalling
		c := newTestController(levelWithLedge(50, 100), body)
		if c.CanStartClimbing() {
			t.Error("expected falling body not to climb")
		}
	})
}

func TestRestoreStance(t *testing.T) {
	cfg := testConfig()
	c := newTestController(world.NewScene(), &fakeBody{})
	c.RestoreStance(true)
	if !c.Crouching() || c.Body().HalfHeight() != cfg.Crouch.CrouchHalfHeight {
		t.Errorf("expected crouched capsule, got crouching=%v hh=%f", c.Crouching(), c.Body().HalfHeight())
	}
	if c.EyeHeight() != cfg.Crouch.CrouchCameraHeight {
		t.Errorf("expected crouched eye height, got %f", c.EyeHeight())
	}
	if c.Body().MaxWalkSpeed() != cfg.Crouch.Speed {
		t.Errorf("expected crouch speed, got %f", c.Body().MaxWalkSpeed())
	}
	c.RestoreStance(false)
	if c.Crouching() || c.Body().HalfHeight() != cfg.Crouch.StandHalfHeight {
		t.Error("expected standing capsule after restore")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeWalking, ModeFalling, ModeFlying} {
		if got := ParseMode(m.String()); got != m {
			t.Errorf("expected %v, got %v", m, got)
		}
	}
	if ParseMode("swimming") != ModeFalling {
		t.Error("expected unknown mode to parse as falling")
	}
}
