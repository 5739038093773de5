package lightdetect

import (
	"errors"
	"log/slog"
	"time"
)

// ErrNoResources is reported while a capture source or render target is unset.
var ErrNoResources = errors.New("lightdetect: capture sources or render targets not set")

// Stage is the position of the readback pipeline within a sampling cycle.
// Update advances at most one stage per tick.
type Stage uint8

const (
	StageIdle               Stage = iota // Waiting for the next sample time
	StageCaptureTop                      // Top capture fence pending
	StageWaitSettleTop                   // Top captured, settling before the bottom capture
	StageCaptureBottom                   // Bottom capture fence pending
	StageWaitSettleBottom                // Bottom captured, settling before readback
	StageReadbackTop                     // Top readback fence pending
	StageWaitSettleReadback              // Top read, settling before the bottom readback
	StageReadbackBottom                  // Bottom readback fence pending
	StageDone                            // Request handed off, waiting for Complete
)

var stageNames = [...]string{
	"idle",
	"capture_top",
	"wait_settle_top",
	"capture_bottom",
	"wait_settle_bottom",
	"readback_top",
	"wait_settle_readback",
	"readback_bottom",
	"done",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// SideState is the state of a single detector view.
type SideState uint8

const (
	SideIdle      SideState = iota
	SideCapturing           // Capture submitted, fence pending
	SideSettling            // Fence complete, settle delay running
	SideCaptured            // Captured, readback not yet issued
	SideReading             // Readback submitted, fence pending
	SideRead                // Pixels available
)

// PipelineConfig holds the timing and threshold parameters of a pipeline.
type PipelineConfig struct {
	UpdateInterval time.Duration
	SettleDelay    time.Duration
	MinimumLight   float64
	IgnoreBlue     bool
}

// Pipeline sequences two scene captures and two pixel readbacks through
// device fences. It never blocks: fences are polled once per Update.
// All methods must be called from the simulation goroutine.
type Pipeline struct {
	dev    Device
	cfg    PipelineConfig
	logger *slog.Logger

	sources [2]Source
	targets [2]Target
	pixels  [2][]Pixel

	stage      Stage
	fence      Fence
	firstRun   bool
	nextSample time.Duration
	settleAt   time.Duration // zero when not armed
	cycles     int
	parked     bool
}

// NewPipeline creates an idle pipeline. The first capture of each view is
// a full capture; later ones are deferred to the next rendered frame.
func NewPipeline(dev Device, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		dev:      dev,
		cfg:      cfg,
		logger:   logger,
		firstRun: true,
	}
}

// SetSources assigns the capture views.
func (p *Pipeline) SetSources(top, bottom Source) {
	p.sources = [2]Source{top, bottom}
}

// SetTargets assigns the render targets the views draw into.
func (p *Pipeline) SetTargets(top, bottom Target) {
	p.targets = [2]Target{top, bottom}
}

// Ready returns ErrNoResources unless every source and target is set.
func (p *Pipeline) Ready() error {
	if p.dev == nil {
		return ErrNoResources
	}
	for i := range 2 {
		if p.sources[i] == nil || p.targets[i] == nil {
			return ErrNoResources
		}
	}
	return nil
}

// SetThreshold changes the per-pixel light test for cycles that finish
// from now on.
func (p *Pipeline) SetThreshold(minimumLight float64, ignoreBlue bool) {
	p.cfg.MinimumLight = minimumLight
	p.cfg.IgnoreBlue = ignoreBlue
}

// Config returns the pipeline parameters.
func (p *Pipeline) Config() PipelineConfig {
	return p.cfg
}

// Stage returns the current stage.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Cycles returns the number of completed sampling cycles.
func (p *Pipeline) Cycles() int {
	return p.cycles
}

// NextSample returns the earliest time the next cycle may start.
func (p *Pipeline) NextSample() time.Duration {
	return p.nextSample
}

// SideState reports the state of one view. At most one view is ever
// capturing, settling, or reading.
func (p *Pipeline) SideState(side Side) SideState {
	if side == SideTop {
		switch p.stage {
		case StageCaptureTop:
			return SideCapturing
		case StageWaitSettleTop:
			return SideSettling
		case StageCaptureBottom, StageWaitSettleBottom:
			return SideCaptured
		case StageReadbackTop:
			return SideReading
		case StageWaitSettleReadback, StageReadbackBottom, StageDone:
			return SideRead
		}
		return SideIdle
	}
	switch p.stage {
	case StageCaptureBottom:
		return SideCapturing
	case StageWaitSettleBottom, StageWaitSettleReadback:
		return SideSettling
	case StageReadbackTop:
		return SideCaptured
	case StageReadbackBottom:
		return SideReading
	case StageDone:
		return SideRead
	}
	return SideIdle
}

// Update advances the pipeline by at most one stage. When both readbacks
// have completed it returns the cycle's request and parks in StageDone
// until Complete or Retry is called.
func (p *Pipeline) Update(now time.Duration) (CaptureRequest, bool) {
	if err := p.Ready(); err != nil {
		if !p.parked {
			p.parked = true
			p.logger.Debug("light pipeline parked", "stage", p.stage.String(), "reason", err)
		}
		return CaptureRequest{}, false
	}
	if p.parked {
		p.parked = false
		p.logger.Debug("light pipeline resumed", "stage", p.stage.String())
	}

	switch p.stage {
	case StageIdle:
		if p.nextSample < now {
			p.capture(SideTop)
			p.stage = StageCaptureTop
		}

	case StageCaptureTop:
		if p.fence.Complete() {
			p.arm(now)
			p.stage = StageWaitSettleTop
		}

	case StageWaitSettleTop:
		if p.settled(now) {
			p.capture(SideBottom)
			p.firstRun = false
			p.stage = StageCaptureBottom
		}

	case StageCaptureBottom:
		if p.fence.Complete() {
			p.arm(now)
			p.stage = StageWaitSettleBottom
		}

	case StageWaitSettleBottom:
		if p.settled(now) {
			p.readback(SideTop)
			p.stage = StageReadbackTop
		}

	case StageReadbackTop:
		if p.fence.Complete() {
			p.arm(now)
			p.stage = StageWaitSettleReadback
		}

	case StageWaitSettleReadback:
		if p.settled(now) {
			p.readback(SideBottom)
			p.stage = StageReadbackBottom
		}

	case StageReadbackBottom:
		if p.fence.Complete() {
			p.stage = StageDone
			req := NewCaptureRequest(p.pixels[SideTop], p.pixels[SideBottom], p.cfg.MinimumLight, p.cfg.IgnoreBlue)
			return req, true
		}

	case StageDone:
		// Parked until the result is published
	}
	return CaptureRequest{}, false
}

// Complete ends the cycle and schedules the next one at now plus the
// update interval.
func (p *Pipeline) Complete(now time.Duration) {
	p.stage = StageIdle
	p.fence = nil
	p.settleAt = 0
	p.nextSample = now + p.cfg.UpdateInterval
	p.cycles++
}

// Retry hands the finished readback out again on the next Update. Used when
// the request could not be queued.
func (p *Pipeline) Retry() {
	if p.stage == StageDone {
		p.stage = StageReadbackBottom
	}
}

func (p *Pipeline) capture(side Side) {
	src := p.sources[side]
	if p.firstRun {
		p.dev.CaptureScene(src)
	} else {
		p.dev.CaptureSceneDeferred(src)
	}
	p.fence = p.dev.BeginFence()
}

func (p *Pipeline) readback(side Side) {
	p.dev.ReadPixels(p.targets[side], &p.pixels[side])
	p.fence = p.dev.BeginFence()
}

// arm starts the settle timer if it is not already running.
func (p *Pipeline) arm(now time.Duration) {
	if p.settleAt == 0 {
		p.settleAt = now + p.cfg.SettleDelay
	}
}

// settled reports whether the settle timer has expired, disarming it if so.
func (p *Pipeline) settled(now time.Duration) bool {
	if p.settleAt < now {
		p.settleAt = 0
		return true
	}
	return false
}
