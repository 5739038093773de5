// Package telemetry tracks light samples, movement events and tick timing,
// and writes them out as CSV and JSON.
package telemetry

import (
	"github.com/pthm-cable/thieflike/lightdetect"
	"github.com/pthm-cable/thieflike/motion"
)

// LightRecord is one published light sample, a row of light.csv.
type LightRecord struct {
	Tick     int32   `csv:"tick"`
	TimeMS   float64 `csv:"time_ms"`
	Top      int     `csv:"top"`
	Bottom   int     `csv:"bottom"`
	Pixels   int     `csv:"pixels"`
	Fraction float64 `csv:"fraction"`
	Smoothed float64 `csv:"smoothed"`
	Threaded bool    `csv:"threaded"`
}

// NewLightRecord flattens a sample published at tick.
func NewLightRecord(tick int32, s lightdetect.Sample) LightRecord {
	return LightRecord{
		Tick:     tick,
		TimeMS:   float64(s.Time.Microseconds()) / 1000,
		Top:      s.Result.Top,
		Bottom:   s.Result.Bottom,
		Pixels:   s.Result.TotalPixels,
		Fraction: s.Fraction,
		Smoothed: s.Smoothed,
		Threaded: s.Threaded,
	}
}

// MantleRecord is one finished mantle, a row of mantle.csv.
type MantleRecord struct {
	Tick       int32   `csv:"tick"`
	Outcome    string  `csv:"outcome"`
	StartZ     float64 `csv:"start_z"`
	TargetZ    float64 `csv:"target_z"`
	EndX       float64 `csv:"end_x"`
	EndY       float64 `csv:"end_y"`
	EndZ       float64 `csv:"end_z"`
	DurationMS int64   `csv:"duration_ms"`
}

// NewMantleRecord flattens a mantle event finished at tick.
func NewMantleRecord(tick int32, ev motion.MantleEvent) MantleRecord {
	return MantleRecord{
		Tick:       tick,
		Outcome:    ev.Outcome.String(),
		StartZ:     ev.Start.Z(),
		TargetZ:    ev.Target.Z(),
		EndX:       ev.End.X(),
		EndY:       ev.End.Y(),
		EndZ:       ev.End.Z(),
		DurationMS: ev.Duration.Milliseconds(),
	}
}
