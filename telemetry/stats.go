package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated light and movement statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Light samples published during the window
	Samples         int     `csv:"samples"`
	ThreadedSamples int     `csv:"threaded_samples"`
	FractionMean    float64 `csv:"fraction_mean"`
	BrightnessMean  float64 `csv:"brightness_mean"`
	BrightnessStd   float64 `csv:"brightness_std"`
	BrightnessP10   float64 `csv:"brightness_p10"`
	BrightnessP50   float64 `csv:"brightness_p50"`
	BrightnessP90   float64 `csv:"brightness_p90"`

	// Visibility, sampled every tick
	VisibilityMean float64 `csv:"visibility_mean"`
	VisibleShare   float64 `csv:"visible_share"` // Share of ticks spent visible

	// Movement events
	MantlesSucceeded int `csv:"mantles_succeeded"`
	MantlesStuck     int `csv:"mantles_stuck"`
	MantlesReleased  int `csv:"mantles_released"`
	Interactions     int `csv:"interactions"`

	WorkerDropped int64 `csv:"worker_dropped"` // Cumulative requests refused by a full queue
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a set of values.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize computes mean, sample standard deviation and percentiles.
// A single value has zero spread.
func Summarize(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	var d Distribution
	if n == 1 {
		d.Mean = values[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	d.P10 = Percentile(sorted, 0.10)
	d.P50 = Percentile(sorted, 0.50)
	d.P90 = Percentile(sorted, 0.90)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("samples", s.Samples),
		slog.Int("threaded_samples", s.ThreadedSamples),
		slog.Float64("fraction_mean", s.FractionMean),
		slog.Float64("brightness_mean", s.BrightnessMean),
		slog.Float64("brightness_std", s.BrightnessStd),
		slog.Float64("brightness_p10", s.BrightnessP10),
		slog.Float64("brightness_p50", s.BrightnessP50),
		slog.Float64("brightness_p90", s.BrightnessP90),
		slog.Float64("visibility_mean", s.VisibilityMean),
		slog.Float64("visible_share", s.VisibleShare),
		slog.Int("mantles_succeeded", s.MantlesSucceeded),
		slog.Int("mantles_stuck", s.MantlesStuck),
		slog.Int("mantles_released", s.MantlesReleased),
		slog.Int("interactions", s.Interactions),
		slog.Int64("worker_dropped", s.WorkerDropped),
	)
}

// LogStats logs the window stats.
func (s WindowStats) LogStats(logger *slog.Logger) {
	logger.Info("stats", "window", s)
}
