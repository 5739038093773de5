package motion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/world"
)

func TestCanMantleReachableLedge(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name   string
		height float64
	}{
		{"chest high", 120},
		{"below capsule centre", 60},
		{"just under reach limit", cfg.Derived.MaxJumpHeight + cfg.Mantle.MaxReachHeight - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := levelWithLedge(50, tt.height)
			body := newFakeBody(mgl64.Vec3{0, 0, 88})
			m := NewMantle(cfg, scene, body, nil)

			target, ok := m.CanMantle()
			if !ok {
				t.Fatal("expected ledge to be mantleable")
			}
			wantZ := tt.height + body.hh + cfg.Mantle.TargetEpsilon
			if math.Abs(target.Z()-wantZ) > 1e-6 {
				t.Errorf("expected target z %f, got %f", wantZ, target.Z())
			}
			if target.X() <= 50 {
				t.Errorf("expected target beyond the wall face, got x=%f", target.X())
			}
		})
	}
}

func TestCanMantleRejects(t *testing.T) {
	cfg := testConfig()
	limit := cfg.Derived.MaxJumpHeight + cfg.Mantle.MaxReachHeight

	t.Run("too high", func(t *testing.T) {
		m := NewMantle(cfg, levelWithLedge(50, limit+20), newFakeBody(mgl64.Vec3{0, 0, 88}), nil)
		if _, ok := m.CanMantle(); ok {
			t.Error("expected ledge above reach to be rejected")
		}
	})

	t.Run("wall too far", func(t *testing.T) {
		m := NewMantle(cfg, levelWithLedge(cfg.Mantle.MaxFrontCheckDistance+10, 120), newFakeBody(mgl64.Vec3{0, 0, 88}), nil)
		if _, ok := m.CanMantle(); ok {
			t.Error("expected distant wall to be rejected")
		}
	})

	t.Run("not grounded", func(t *testing.T) {
		body := newFakeBody(mgl64.Vec3{0, 0, 88})
		body.mode = ModeFalling
		m := NewMantle(cfg, levelWithLedge(50, 120), body, nil)
		if _, ok := m.CanMantle(); ok {
			t.Error("expected falling body to be rejected")
		}
	})

	t.Run("steep ledge", func(t *testing.T) {
		tracer := &scriptedTracer{rays: []world.Hit{
			{ImpactPoint: mgl64.Vec3{50, 0, 88}, Normal: mgl64.Vec3{-1, 0, 0}},
			{ImpactPoint: mgl64.Vec3{80, 0, 120}, Normal: mgl64.Vec3{-0.8, 0, 0.6}},
		}}
		m := NewMantle(cfg, tracer, newFakeBody(mgl64.Vec3{0, 0, 88}), nil)
		if _, ok := m.CanMantle(); ok {
			t.Error("expected non-walkable ledge to be rejected")
		}
	})
}

func TestMantleStuckAborts(t *testing.T) {
	cfg := testConfig()
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	body.pinned = true
	m := NewMantle(cfg, levelWithLedge(50, 120), body, nil)

	var events []MantleEvent
	m.OnFinish(func(ev MantleEvent) { events = append(events, ev) })

	m.Start(mgl64.Vec3{80, 0, 210})
	if body.mode != ModeFlying {
		t.Fatalf("expected flying during mantle, got %v", body.mode)
	}
	for i := 0; i < 20 && m.Active(); i++ {
		m.Update(0.1, true)
	}

	if m.Active() {
		t.Fatal("expected mantle to abort when stuck")
	}
	if body.mode != ModeFalling {
		t.Errorf("expected falling after abort, got %v", body.mode)
	}
	if len(events) != 1 || events[0].Outcome != MantleStuck {
		t.Fatalf("expected one stuck event, got %+v", events)
	}
	if events[0].Duration.Seconds() <= cfg.Mantle.StuckDuration {
		t.Errorf("expected abort after %fs, got %v", cfg.Mantle.StuckDuration, events[0].Duration)
	}
}

func TestMantleBlockedByCeilingAborts(t *testing.T) {
	cfg := testConfig()
	scene := levelWithLedge(50, 120)
	// Low ceiling over the player that stops short of the ledge
	scene.AddBox(mgl64.Vec3{-10, 0, 205}, mgl64.Vec3{50, 200, 5}, 0, solid)
	body := NewKinematicBody(cfg, scene, mgl64.Vec3{0, 0, 88})
	body.Step(tick)
	m := NewMantle(cfg, scene, body, nil)

	target, ok := m.CanMantle()
	if !ok {
		t.Fatal("expected ledge to be mantleable")
	}
	var events []MantleEvent
	m.OnFinish(func(ev MantleEvent) { events = append(events, ev) })
	m.Start(target)

	for i := 0; i < 300 && m.Active(); i++ {
		m.Update(tick, true)
		if top := body.Location().Z() + body.HalfHeight(); top > 200 {
			t.Fatalf("expected capsule to stay under the ceiling, got top z=%f", top)
		}
	}

	if m.Active() {
		t.Fatal("expected blocked mantle to abort")
	}
	if len(events) != 1 || events[0].Outcome != MantleStuck {
		t.Fatalf("expected one stuck event, got %+v", events)
	}
	if body.Mode() != ModeFalling {
		t.Errorf("expected falling after abort, got %v", body.Mode())
	}
}

func TestMantleReleasedAborts(t *testing.T) {
	cfg := testConfig()
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	m := NewMantle(cfg, levelWithLedge(50, 120), body, nil)

	m.Start(mgl64.Vec3{80, 0, 210})
	m.Update(1.0/60, false)

	if m.Active() {
		t.Fatal("expected release during hoist to abort")
	}
	if body.mode != ModeFalling {
		t.Errorf("expected falling, got %v", body.mode)
	}
	if body.loc.X() >= 0 {
		t.Errorf("expected push back away from the wall, got x=%f", body.loc.X())
	}
	if body.vel.X() >= 0 {
		t.Errorf("expected impulse away from the wall, got %v", body.vel)
	}
}

func TestMantleSucceeds(t *testing.T) {
	cfg := testConfig()
	scene := levelWithLedge(50, 120)
	body := newFakeBody(mgl64.Vec3{0, 0, 88})
	m := NewMantle(cfg, scene, body, nil)

	target, ok := m.CanMantle()
	if !ok {
		t.Fatal("expected ledge")
	}
	var outcome MantleOutcome = 255
	m.OnFinish(func(ev MantleEvent) { outcome = ev.Outcome })
	m.Start(target)

	hoisting := true
	for i := 0; i < 600 && m.Active(); i++ {
		m.Update(1.0/60, true)
		if hoisting && body.loc.Z() < target.Z()-cfg.Mantle.HeightTolerance && body.loc.X() > 0 {
			t.Fatalf("expected hoist to pull away from the wall, got x=%f", body.loc.X())
		}
		if body.loc.Z() >= target.Z()-cfg.Mantle.HeightTolerance {
			hoisting = false
		}
	}

	if m.Active() {
		t.Fatal("expected mantle to finish")
	}
	if outcome != MantleSucceeded {
		t.Errorf("expected success, got %v", outcome)
	}
	if body.mode != ModeWalking {
		t.Errorf("expected walking after success, got %v", body.mode)
	}
	d := flat(body.loc).Sub(flat(target)).Len()
	if d > cfg.Mantle.ReachTolerance {
		t.Errorf("expected to finish within %f of target, got %f", cfg.Mantle.ReachTolerance, d)
	}
	if body.loc.Z() != target.Z() {
		t.Errorf("expected final z %f, got %f", target.Z(), body.loc.Z())
	}
}
