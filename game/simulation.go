package game

import (
	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/telemetry"
	"github.com/pthm-cable/thieflike/world"
)

// focusFilter matches what Controller.Interact can reach.
var focusFilter = world.Filter{Channels: components.ChannelVisibility | components.ChannelInteract}

// Update runs one frame in windowed mode.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	g.handleInput()

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// UpdateHeadless runs one batch of ticks without input handling.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step runs a single tick of the simulation.
func (g *Game) step() {
	dt := g.cfg.Simulation.DT
	pc := g.perfCollector
	pc.StartTick()

	// 1. Results posted by the light worker
	pc.StartPhase(telemetry.PhaseTasks)
	g.detector.SetNow(g.Now())
	g.tasks.Drain()

	// 2. Input, lean, crouch and mantle
	pc.StartPhase(telemetry.PhaseController)
	g.updateFocus()
	g.applyInput(g.input.Poll(g.tick))
	g.controller.Update(dt)

	// 3. Movement
	pc.StartPhase(telemetry.PhaseBody)
	g.body.Step(dt)

	pc.StartPhase(telemetry.PhaseProps)
	g.doors.Update(dt)
	g.flicker.Update(g.Now())

	// 4. Light detector follows the body and advances its pipeline
	pc.StartPhase(telemetry.PhaseDetector)
	g.detector.Follow(g.body.Location())
	g.detector.Update(g.Now())

	pc.StartPhase(telemetry.PhaseDevice)
	g.device.Advance()

	// 5. Exposure
	pc.StartPhase(telemetry.PhaseStealth)
	g.visibility.Update(g.detector.Brightness(), dt)
	g.collector.RecordVisibility(g.visibility.Fraction(), g.visibility.IsVisible())

	g.tick++

	pc.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	pc.EndTick()
}

// updateFocus names the interactable under the crosshair and records the
// trace for the debug overlay.
func (g *Game) updateFocus() {
	g.focus = ""
	start := g.cam.Position
	end := start.Add(g.cam.Forward().Mul(g.cfg.Interact.TraceLength))
	hit, ok := g.scene.CastRay(start, end, focusFilter)
	if ok {
		if _, door := g.doors.State(hit.Entity); door {
			g.focus = "door"
		}
	}

	if g.sceneRenderer != nil {
		if ok {
			end = hit.Location
		}
		g.sceneRenderer.AddTrace(start, end, ok)
	}
}
