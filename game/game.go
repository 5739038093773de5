// Package game runs the fixed-step simulation: player input, locomotion,
// doors, the light detector and the stealth model, with telemetry around
// every tick. It runs headless or inside a raylib window.
package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/camera"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/level"
	"github.com/pthm-cable/thieflike/lightdetect"
	"github.com/pthm-cable/thieflike/motion"
	"github.com/pthm-cable/thieflike/objects"
	"github.com/pthm-cable/thieflike/renderer"
	"github.com/pthm-cable/thieflike/stealth"
	"github.com/pthm-cable/thieflike/taskqueue"
	"github.com/pthm-cable/thieflike/telemetry"
	"github.com/pthm-cable/thieflike/ui"
	"github.com/pthm-cable/thieflike/world"
)

// Options configures a game run.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Logger         *slog.Logger   // nil uses slog.Default()
	LevelPath      string         // empty uses the embedded level
	LogStats       bool
	StatsWindowSec float64
	SnapshotDir    string
	OutputDir      string
	RestorePath    string // Snapshot to resume from
	Headless       bool
	StepsPerUpdate int
	Input          InputSource // nil uses the keyboard, or a patrol when headless
}

// captureDevice is a light detector device that advances once per tick.
type captureDevice interface {
	lightdetect.Device
	Advance()
	Frame() int
}

// Game holds the complete game state.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger
	level  *level.Level

	scene      *world.Scene
	doors      *objects.Doors
	flicker    *objects.Flicker
	body       *motion.KinematicBody
	controller *motion.Controller
	cam        *camera.Camera
	tasks      *taskqueue.Queue
	detector   *lightdetect.Detector
	device     captureDevice
	views      [2]*renderer.CaptureView // Windowed only
	visibility *stealth.Visibility

	input InputSource
	prev  Input

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)

	// UI (windowed only)
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	controls      *ui.ControlsPanel
	overlays      *ui.OverlayRegistry
	uiRenderer    *ui.Renderer
	sceneRenderer *renderer.SceneRenderer
	tuning        ui.Tuning

	// State
	tick           int32
	paused         bool
	headless       bool
	stepsPerUpdate int
	restoredFrom   string
	focus          string
}

// NewGameWithOptions builds the level and the player. A windowed game must
// be created after the raylib window is open.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	lvl, err := level.Load(opts.LevelPath)
	if err != nil {
		return nil, fmt.Errorf("loading level: %w", err)
	}

	g := &Game{
		cfg:            cfg,
		logger:         logger,
		level:          lvl,
		scene:          world.NewScene(),
		tasks:          taskqueue.New(),
		visibility:     stealth.NewVisibility(cfg),
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
		headless:       opts.Headless,
		stepsPerUpdate: steps,
	}

	g.doors = objects.NewDoors(cfg, g.scene, logger)
	g.flicker = objects.NewFlicker(g.scene, lvl.Seed, logger)
	lvl.Build(g.scene, g.doors, g.flicker)

	g.cam = camera.New(75)
	g.cam.Yaw = lvl.SpawnYaw
	g.body = motion.NewKinematicBody(cfg, g.scene, lvl.Spawn.V())
	g.body.SetYaw(lvl.SpawnYaw)
	g.controller = motion.NewController(cfg, g.scene, g.body, g.cam, logger)

	g.setupDetector()
	g.setupTelemetry(opts)

	g.input = opts.Input
	if g.input == nil {
		if g.headless {
			g.input = NewPatrol(cfg.Simulation.DT)
		} else {
			g.input = KeyboardInput{}
		}
	}

	if !g.headless {
		g.setupUI()
	}

	if opts.RestorePath != "" {
		if err := g.restoreSnapshot(opts.RestorePath); err != nil {
			g.Unload()
			return nil, err
		}
	}

	if g.detector.StartWorker() {
		logger.Info("light worker started", "capacity", cfg.Light.QueueCapacity)
	}
	return g, nil
}

// setupDetector creates the capture device and wires the detector to it.
func (g *Game) setupDetector() {
	cfg := g.cfg
	w, h := cfg.Light.CaptureWidth, cfg.Light.CaptureHeight

	if g.headless {
		dev := lightdetect.NewSoftwareDevice(g.scene, cfg.Light.FenceLatency)
		top := lightdetect.NewSoftwareCapture(lightdetect.SideTop, w, h)
		bottom := lightdetect.NewSoftwareCapture(lightdetect.SideBottom, w, h)
		g.device = dev
		g.detector = lightdetect.NewDetector(cfg, dev, g.tasks, g.logger)
		g.detector.SetCaptures(top, bottom)
		g.detector.SetTargets(top.Target, bottom.Target)
	} else {
		dev := renderer.NewCaptureDevice(g.scene, cfg.Light.FenceLatency)
		g.views[lightdetect.SideTop] = dev.NewView(lightdetect.SideTop, w, h)
		g.views[lightdetect.SideBottom] = dev.NewView(lightdetect.SideBottom, w, h)
		g.device = dev
		g.detector = lightdetect.NewDetector(cfg, dev, g.tasks, g.logger)
		g.detector.SetCaptures(g.views[lightdetect.SideTop], g.views[lightdetect.SideBottom])
		g.detector.SetTargets(g.views[lightdetect.SideTop].Target, g.views[lightdetect.SideBottom].Target)
	}
	g.detector.Follow(g.body.Location())
	g.detector.OnSample(g.onLightSample)

	g.controller.Mantle().OnFinish(g.onMantleFinished)

	g.tuning = ui.Tuning{
		IgnoreBlue:          cfg.Light.IgnoreBlue,
		MinimumLight:        float32(cfg.Light.MinimumLight),
		VisibilityThreshold: float32(cfg.Stealth.VisibilityThreshold),
	}
}

// setupUI creates the HUD panels and the scene renderer.
func (g *Game) setupUI() {
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.cfg.Screen.Width)-300, 10)
	g.controls = ui.NewControlsPanel(10, 100, 220)
	g.overlays = ui.NewOverlayRegistry()
	g.uiRenderer = ui.NewRenderer()
	g.sceneRenderer = renderer.NewSceneRenderer()
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// Now returns the simulation clock.
func (g *Game) Now() time.Duration {
	return time.Duration(g.tick) * g.cfg.Derived.TickDuration
}

// Brightness returns the detector's smoothed lit fraction.
func (g *Game) Brightness() float64 {
	return g.detector.Brightness()
}

// Visibility returns the stealth model.
func (g *Game) Visibility() *stealth.Visibility {
	return g.visibility
}

// Controller returns the player controller.
func (g *Game) Controller() *motion.Controller {
	return g.controller
}

// Detector returns the light detector.
func (g *Game) Detector() *lightdetect.Detector {
	return g.detector
}

// Doors returns the door system.
func (g *Game) Doors() *objects.Doors {
	return g.doors
}

// Scene returns the level geometry.
func (g *Game) Scene() *world.Scene {
	return g.scene
}

// SetStatsCallback registers a function run with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// ApplyTuning pushes runtime-adjusted thresholds into the detector and the
// stealth model.
func (g *Game) ApplyTuning(t ui.Tuning) {
	g.tuning = t
	g.detector.Pipeline().SetThreshold(float64(t.MinimumLight), t.IgnoreBlue)
	g.visibility.SetThreshold(float64(t.VisibilityThreshold))
	g.cfg.Light.MinimumLight = float64(t.MinimumLight)
	g.cfg.Light.IgnoreBlue = t.IgnoreBlue
	g.cfg.Stealth.VisibilityThreshold = float64(t.VisibilityThreshold)
	g.logger.Info("tuning applied",
		"minimum_light", t.MinimumLight,
		"ignore_blue", t.IgnoreBlue,
		"visibility_threshold", t.VisibilityThreshold,
	)
}

// detectorPosition returns where the detector sits for the current body.
func (g *Game) detectorPosition() mgl64.Vec3 {
	return g.body.Location().Add(mgl64.Vec3{0, 0, g.cfg.Light.DetectorOffsetZ})
}

// Unload stops the worker and closes output files.
func (g *Game) Unload() {
	if g.detector != nil {
		g.detector.Close()
		// Apply results posted while stopping
		g.tasks.Drain()
	}
	if dev, ok := g.device.(*renderer.CaptureDevice); ok {
		for _, v := range g.views {
			dev.Unload(v)
		}
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			g.logger.Error("failed to close output", "error", err)
		}
		g.outputManager = nil
	}
}
