package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/thieflike/lightdetect"
	"github.com/pthm-cable/thieflike/motion"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	fractions    []float64
	brightness   []float64
	threaded     int
	visibility   []float64
	visibleTicks int

	mantlesSucceeded int
	mantlesStuck     int
	mantlesReleased  int
	interactions     int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSample records a published light sample.
func (c *Collector) RecordSample(s lightdetect.Sample) {
	c.fractions = append(c.fractions, s.Fraction)
	c.brightness = append(c.brightness, s.Smoothed)
	if s.Threaded {
		c.threaded++
	}
}

// RecordVisibility records the player's exposure for one tick.
func (c *Collector) RecordVisibility(fraction float64, visible bool) {
	c.visibility = append(c.visibility, fraction)
	if visible {
		c.visibleTicks++
	}
}

// RecordMantle records a finished mantle.
func (c *Collector) RecordMantle(outcome motion.MantleOutcome) {
	switch outcome {
	case motion.MantleSucceeded:
		c.mantlesSucceeded++
	case motion.MantleStuck:
		c.mantlesStuck++
	case motion.MantleReleased:
		c.mantlesReleased++
	}
}

// RecordInteract records an interact that reached an object.
func (c *Collector) RecordInteract() {
	c.interactions++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// workerDropped is the worker's cumulative drop count.
func (c *Collector) Flush(currentTick int32, workerDropped int64) WindowStats {
	b := Summarize(c.brightness)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Samples:         len(c.brightness),
		ThreadedSamples: c.threaded,
		BrightnessMean:  b.Mean,
		BrightnessStd:   b.Std,
		BrightnessP10:   b.P10,
		BrightnessP50:   b.P50,
		BrightnessP90:   b.P90,

		MantlesSucceeded: c.mantlesSucceeded,
		MantlesStuck:     c.mantlesStuck,
		MantlesReleased:  c.mantlesReleased,
		Interactions:     c.interactions,
		WorkerDropped:    workerDropped,
	}
	if len(c.fractions) > 0 {
		stats.FractionMean = stat.Mean(c.fractions, nil)
	}
	if n := len(c.visibility); n > 0 {
		stats.VisibilityMean = stat.Mean(c.visibility, nil)
		stats.VisibleShare = float64(c.visibleTicks) / float64(n)
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.fractions = c.fractions[:0]
	c.brightness = c.brightness[:0]
	c.threaded = 0
	c.visibility = c.visibility[:0]
	c.visibleTicks = 0
	c.mantlesSucceeded = 0
	c.mantlesStuck = 0
	c.mantlesReleased = 0
	c.interactions = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
