package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Input is one tick of player intent. Crouch and Interact are presses;
// the other buttons are held.
type Input struct {
	Forward, Right     float64 // Axis values in [-1,1]
	LookYaw, LookPitch float64 // Degrees this tick

	LeanLeft  bool
	LeanRight bool
	Crouch    bool
	Sprint    bool
	Jump      bool
	Interact  bool
}

// InputSource produces the player input for a tick.
type InputSource interface {
	Poll(tick int32) Input
}

// mouseSensitivity is degrees of look per pixel of mouse travel.
const mouseSensitivity = 0.12

// KeyboardInput reads WASD movement and mouse look from raylib.
type KeyboardInput struct {
	// FreeCursor suspends mouse look while a panel has the cursor
	FreeCursor bool
}

// Poll samples the keyboard and mouse.
func (k KeyboardInput) Poll(int32) Input {
	var in Input
	if rl.IsKeyDown(rl.KeyW) {
		in.Forward++
	}
	if rl.IsKeyDown(rl.KeyS) {
		in.Forward--
	}
	if rl.IsKeyDown(rl.KeyD) {
		in.Right++
	}
	if rl.IsKeyDown(rl.KeyA) {
		in.Right--
	}
	if !k.FreeCursor {
		d := rl.GetMouseDelta()
		in.LookYaw = float64(d.X) * mouseSensitivity
		in.LookPitch = -float64(d.Y) * mouseSensitivity
	}
	in.LeanLeft = rl.IsKeyDown(rl.KeyQ)
	in.LeanRight = rl.IsKeyDown(rl.KeyE)
	in.Crouch = rl.IsKeyPressed(rl.KeyC)
	in.Sprint = rl.IsKeyDown(rl.KeyLeftShift)
	in.Jump = rl.IsKeyDown(rl.KeySpace)
	in.Interact = rl.IsKeyPressed(rl.KeyF)
	return in
}

// Patrol is a scripted input loop for headless runs. Each cycle walks out
// and turns back, sneaks crouched, leans both ways, jumps, sprints and
// finally uses whatever is in front of it.
type Patrol struct {
	dt    float64
	cycle float64
}

// NewPatrol creates a patrol for a simulation step of dt seconds.
func NewPatrol(dt float64) *Patrol {
	return &Patrol{dt: dt, cycle: 20}
}

// Poll returns the scripted input for tick.
func (p *Patrol) Poll(tick int32) Input {
	t := p.phase(tick)
	prev := p.phase(tick - 1)
	pressed := func(at float64) bool {
		return tick > 0 && crossed(prev, t, at)
	}

	var in Input
	switch {
	case t < 3:
		in.Forward = 1
	case t < 6:
		in.Forward = 1
		in.LookYaw = 60 * p.dt
	case t < 10:
		in.Forward = 0.5
	case t < 12:
		in.LeanLeft = true
	case t < 14:
		in.LeanRight = true
	case t < 15.5:
		in.Forward = 1
		in.Jump = true
	case t < 17:
		in.Forward = 1
		in.Sprint = true
	}
	in.Crouch = pressed(6) || pressed(10)
	in.Interact = pressed(18)
	return in
}

func (p *Patrol) phase(tick int32) float64 {
	if tick < 0 {
		return 0
	}
	return math.Mod(float64(tick)*p.dt, p.cycle)
}

// crossed reports whether mark lies in (prev, t], allowing for the wrap
// at the end of a cycle.
func crossed(prev, t, mark float64) bool {
	if prev <= t {
		return prev < mark && mark <= t
	}
	return mark > prev || mark <= t
}

// applyInput feeds one tick of input into the camera, body and controller.
// Held buttons act on their edges against the previous tick.
func (g *Game) applyInput(in Input) {
	g.cam.Rotate(in.LookYaw, in.LookPitch)
	g.body.SetYaw(g.cam.Yaw)
	g.body.SetInput(in.Forward, in.Right)

	if in.LeanLeft != g.prev.LeanLeft {
		g.controller.LeanLeft(in.LeanLeft)
	}
	if in.LeanRight != g.prev.LeanRight {
		g.controller.LeanRight(in.LeanRight)
	}
	if in.Crouch {
		g.controller.ToggleCrouch()
	}

	switch {
	case in.Sprint && !g.prev.Sprint:
		g.controller.StartSprint()
	case !in.Sprint && g.prev.Sprint:
		g.controller.StopSprint()
	}

	switch {
	case in.Jump && !g.prev.Jump:
		g.controller.Jump()
	case !in.Jump && g.prev.Jump:
		g.controller.StopJumping()
	}

	if in.Interact {
		if g.controller.Interact() {
			g.collector.RecordInteract()
			g.logger.Debug("interact", "tick", g.tick, "target", g.focus)
		}
	}
	g.prev = in
}

// handleInput processes the window keys that are not player input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyF1) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyF5) && g.snapshotDir != "" {
		g.saveSnapshot(nil)
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
		if g.controls.IsVisible() {
			rl.EnableCursor()
		} else {
			rl.DisableCursor()
		}
	}
	if kb, ok := g.input.(KeyboardInput); ok {
		kb.FreeCursor = g.controls.IsVisible()
		g.input = kb
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := g.overlays.HandleKeyPress(key); ok {
			g.logger.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
}
