package game

import (
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/thieflike/lightdetect"
	"github.com/pthm-cable/thieflike/renderer"
	"github.com/pthm-cable/thieflike/ui"
)

const controlsLegend = "WASD move | Mouse look | Q/E lean | C crouch | Shift sprint | Space jump | F use | Tab controls | F1 pause | F5 snapshot"

// Draw renders the game state.
func (g *Game) Draw() {
	rl.BeginDrawing()

	g.sceneRenderer.ShowLights = g.overlays.IsEnabled(ui.OverlayLights)
	g.sceneRenderer.ShowDetector = g.overlays.IsEnabled(ui.OverlayDetector)
	g.sceneRenderer.ShowTraces = g.overlays.IsEnabled(ui.OverlayTraces)
	g.sceneRenderer.Draw(g.scene, g.cam, g.detectorPosition(), g.detector.Brightness())

	sw, sh := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	restored := ""
	if g.restoredFrom != "" {
		restored = filepath.Base(g.restoredFrom)
	}
	g.hud.Draw(ui.HUDData{
		Title:        "thieflike: " + g.level.Name,
		Tick:         g.tick,
		FPS:          rl.GetFPS(),
		Paused:       g.paused,
		Restored:     restored,
		ScreenWidth:  sw,
		ScreenHeight: sh,
	})
	g.hud.DrawControls(sw, sh, controlsLegend)

	if g.overlays.IsEnabled(ui.OverlayPlayerPanel) {
		view := g.playerView()
		g.uiRenderer.DrawPanelDescriptor(10, 100, ui.PlayerPanelFor(view), view)
	}
	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.SetPosition(sw-300, 10)
		g.perfPanel.Draw(g.perfCollector.Stats())
	}
	if g.overlays.IsEnabled(ui.OverlayCaptures) {
		g.drawCaptures(sw, sh)
	}

	if g.controls.IsVisible() {
		g.handleControls(g.controls.Draw(g.overlays, &g.tuning))
	}

	rl.EndDrawing()
}

// playerView gathers the player panel readout.
func (g *Game) playerView() ui.PlayerView {
	stance := "standing"
	if g.controller.Crouching() {
		stance = "crouching"
	}
	v := g.body.Velocity()
	view := ui.PlayerView{
		Brightness: g.detector.Brightness(),
		Visibility: g.visibility.Fraction(),
		Visible:    g.visibility.IsVisible(),
		Stance:     stance,
		Mode:       g.body.Mode().String(),
		Speed:      v.Vec2().Len(),
		Lean:       g.controller.LeanOffset(),
		MaxLean:    g.cfg.Lean.MaxOffset,
		Mantling:   g.controller.Mantle().Active(),
		Focus:      g.focus,
		Stage:      g.detector.Pipeline().Stage().String(),
		Cycles:     g.detector.Pipeline().Cycles(),
	}
	if w := g.detector.Worker(); w != nil && w.Running() {
		view.Threaded = true
		view.Processed = w.Processed()
		view.Dropped = w.Dropped()
		view.Pending = w.Pending()
	}
	return view
}

// drawCaptures shows both capture targets in the bottom right corner.
func (g *Game) drawCaptures(screenWidth, screenHeight int32) {
	const scale = 6
	w := int32(g.cfg.Light.CaptureWidth) * scale
	x := screenWidth - 2*w - 20
	y := screenHeight - int32(g.cfg.Light.CaptureHeight)*scale - 40
	renderer.DrawCaptures(x, y, scale, g.views[lightdetect.SideTop], g.views[lightdetect.SideBottom])
}

// handleControls applies what the user did on the controls panel.
func (g *Game) handleControls(action ui.ControlsAction) {
	if action.TuningChanged {
		g.ApplyTuning(g.tuning)
	}
	if action.SaveSnapshot && g.snapshotDir != "" {
		g.saveSnapshot(nil)
	}
	if action.SaveConfig {
		dir := "."
		if g.outputManager != nil {
			dir = g.outputManager.Dir()
		}
		path := filepath.Join(dir, "config_tuned.yaml")
		if err := g.cfg.WriteYAML(path); err != nil {
			g.logger.Error("failed to write config", "error", err)
			return
		}
		g.logger.Info("config saved", "path", path)
	}
}
