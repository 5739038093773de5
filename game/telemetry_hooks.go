package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/lightdetect"
	"github.com/pthm-cable/thieflike/motion"
	"github.com/pthm-cable/thieflike/telemetry"
)

// setupTelemetry creates the collectors and, when an output directory is
// set, the CSV writers.
func (g *Game) setupTelemetry(opts Options) {
	window := opts.StatsWindowSec
	if window <= 0 {
		window = g.cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(window, g.cfg.Simulation.DT)
	g.perfCollector = telemetry.NewPerfCollector(g.cfg.Telemetry.PerfCollectorWindow, g.cfg.Derived.TickDuration)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)

	if opts.OutputDir == "" {
		return
	}
	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.logger.Error("failed to create output manager", "error", err)
		return
	}
	g.outputManager = om
	if err := om.WriteConfig(g.cfg); err != nil {
		g.logger.Error("failed to write config", "error", err)
	}
	g.logger.Info("output enabled", "dir", om.Dir())
}

// onLightSample runs on the simulation goroutine for every published cycle.
func (g *Game) onLightSample(s lightdetect.Sample) {
	g.collector.RecordSample(s)
	g.logger.Debug("light sample", "tick", g.tick, "sample", s)
	if g.outputManager != nil {
		if err := g.outputManager.WriteLight(telemetry.NewLightRecord(g.tick, s)); err != nil {
			g.logger.Error("failed to write light sample", "error", err)
		}
	}
}

// onMantleFinished records every mantle outcome.
func (g *Game) onMantleFinished(ev motion.MantleEvent) {
	g.collector.RecordMantle(ev.Outcome)
	if g.outputManager != nil {
		if err := g.outputManager.WriteMantle(telemetry.NewMantleRecord(g.tick, ev)); err != nil {
			g.logger.Error("failed to write mantle", "error", err)
		}
	}
}

// workerDropped returns the worker's cumulative drop count.
func (g *Game) workerDropped() int64 {
	if w := g.detector.Worker(); w != nil {
		return w.Dropped()
	}
	return 0
}

// flushTelemetry closes the stats window when it is due.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.workerDropped())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats(g.logger)
		perfStats.LogStats(g.logger)
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.logger.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark(g.logger)
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				g.logger.Error("failed to write bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot writes the current state to the snapshot directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	g.logger.Info("snapshot saved", "path", path, "tick", g.tick)
}

// createSnapshot builds a snapshot from the current state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	hist := g.detector.History()
	snap := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		Tick:     g.tick,
		Bookmark: bookmark,
		Player: telemetry.PlayerState{
			Location:   g.body.Location(),
			Velocity:   g.body.Velocity(),
			Yaw:        g.cam.Yaw,
			Pitch:      g.cam.Pitch,
			Mode:       g.body.Mode().String(),
			HalfHeight: g.body.HalfHeight(),
			Crouching:  g.controller.Crouching(),
			LeanOffset: g.controller.LeanOffset(),
			Visibility: g.visibility.Fraction(),
		},
		Light: telemetry.LightState{
			Smoothed:     hist.Smoothed(),
			History:      hist.Samples(),
			HistoryIndex: hist.Index(),
			Cycles:       g.detector.Pipeline().Cycles(),
		},
	}
	if w := g.detector.Worker(); w != nil {
		snap.Light.Processed = w.Processed()
		snap.Light.Dropped = w.Dropped()
	}

	for _, e := range g.doors.Entities() {
		st, _ := g.doors.State(e)
		snap.Doors = append(snap.Doors, telemetry.DoorState{
			Hinge: st.Hinge,
			Angle: st.Angle,
			Open:  st.Open,
		})
	}
	return snap
}

// restoreSnapshot puts the player, the detector history and the doors back
// to a saved state. Lean restarts from centre and the pipeline starts a
// fresh cycle.
func (g *Game) restoreSnapshot(path string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	if len(snap.Doors) != len(g.doors.Entities()) {
		return fmt.Errorf("restoring snapshot: %d doors saved, level has %d", len(snap.Doors), len(g.doors.Entities()))
	}
	if err := g.detector.History().Restore(snap.Light.History, snap.Light.HistoryIndex); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}

	p := snap.Player
	g.cam.Yaw, g.cam.Pitch = p.Yaw, p.Pitch
	g.body.SetYaw(p.Yaw)
	g.body.SetLocation(mgl64.Vec3(p.Location))
	g.body.SetVelocity(mgl64.Vec3(p.Velocity))
	g.body.SetMode(motion.ParseMode(p.Mode))
	g.controller.RestoreStance(p.Crouching)
	g.visibility.Restore(p.Visibility)

	for i, e := range g.doors.Entities() {
		ds := snap.Doors[i]
		g.doors.Restore(e, ds.Angle, ds.Open)
	}

	g.tick = snap.Tick
	g.restoredFrom = path
	g.detector.Follow(g.body.Location())
	g.logger.Info("snapshot restored", "path", path, "tick", g.tick)
	return nil
}
