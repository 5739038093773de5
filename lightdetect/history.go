package lightdetect

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// History is a circular buffer of lit fractions with one more slot than
// its averaging window. The smoothed value is the mean of the first window
// slots, so depending on where the write index sits the newest sample may
// fall outside the average.
type History struct {
	window   int
	samples  []float64
	index    int
	smoothed float64
}

// NewHistory creates a history averaging over window samples. The first
// Add writes slot 0.
func NewHistory(window int) *History {
	if window < 1 {
		window = 1
	}
	return &History{
		window:  window,
		samples: make([]float64, window+1),
		index:   window,
	}
}

// Add advances the write index, stores the result's lit fraction and
// recomputes the smoothed value, which it returns.
func (h *History) Add(r Result) float64 {
	h.index++
	if h.index >= len(h.samples) {
		h.index = 0
	}
	h.samples[h.index] = r.Fraction()
	h.smoothed = floats.Sum(h.samples[:h.window]) / float64(h.window)
	return h.smoothed
}

// Smoothed returns the current averaged brightness in [0,1].
func (h *History) Smoothed() float64 {
	return h.smoothed
}

// Index returns the slot written by the last Add.
func (h *History) Index() int {
	return h.index
}

// Capacity returns the buffer size.
func (h *History) Capacity() int {
	return len(h.samples)
}

// Samples returns a copy of the buffer.
func (h *History) Samples() []float64 {
	return append([]float64(nil), h.samples...)
}

// Reset clears all samples.
func (h *History) Reset() {
	for i := range h.samples {
		h.samples[i] = 0
	}
	h.index = h.window
	h.smoothed = 0
}

// Restore replaces the buffer with saved samples and the slot of their
// last write.
func (h *History) Restore(samples []float64, index int) error {
	if len(samples) != len(h.samples) {
		return fmt.Errorf("history has %d slots, got %d samples", len(h.samples), len(samples))
	}
	if index < 0 || index >= len(h.samples) {
		return fmt.Errorf("history index %d out of range", index)
	}
	copy(h.samples, samples)
	h.index = index
	h.smoothed = floats.Sum(h.samples[:h.window]) / float64(h.window)
	return nil
}
