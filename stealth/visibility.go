// Package stealth turns measured light into how visible the player is.
package stealth

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/config"
)

// Visibility tracks the player's exposure as a fraction in [0, 1].
// Even total darkness leaves the ambient share visible.
type Visibility struct {
	threshold float64
	speed     float64
	ambient   float64

	target  float64
	current float64
}

// NewVisibility creates a model starting fully hidden.
func NewVisibility(cfg *config.Config) *Visibility {
	return &Visibility{
		threshold: cfg.Stealth.VisibilityThreshold,
		speed:     cfg.Stealth.VisibilityInterpSpeed,
		ambient:   mgl64.Clamp(cfg.Stealth.AmbientLightFactor, 0, 1),
	}
}

// Update moves the exposure towards the level implied by brightness, a
// smoothed lit-pixel fraction from the light detector.
func (v *Visibility) Update(brightness, dt float64) {
	b := mgl64.Clamp(brightness, 0, 1)
	v.target = v.ambient + (1-v.ambient)*b

	dist := v.target - v.current
	if dist*dist < 1e-8 || v.speed <= 0 {
		v.current = v.target
		return
	}
	v.current += dist * mgl64.Clamp(dt*v.speed, 0, 1)
}

// SetThreshold changes the exposure at which the player counts as visible.
func (v *Visibility) SetThreshold(threshold float64) {
	v.threshold = threshold
}

// Threshold returns the visible threshold.
func (v *Visibility) Threshold() float64 {
	return v.threshold
}

// Restore sets the current exposure, as when loading a snapshot.
func (v *Visibility) Restore(fraction float64) {
	v.current = mgl64.Clamp(fraction, 0, 1)
	v.target = v.current
}

// Fraction returns the current exposure in [0, 1].
func (v *Visibility) Fraction() float64 {
	return v.current
}

// Percent returns the current exposure in [0, 100].
func (v *Visibility) Percent() float64 {
	return v.current * 100
}

// IsVisible reports whether exposure has reached the threshold.
func (v *Visibility) IsVisible() bool {
	return v.current >= v.threshold
}

// LogValue implements slog.LogValuer for structured logging.
func (v *Visibility) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("percent", v.Percent()),
		slog.Float64("target", v.target*100),
		slog.Bool("visible", v.IsVisible()),
	)
}
