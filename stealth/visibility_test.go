package stealth

import (
	"math"
	"testing"

	"github.com/pthm-cable/thieflike/config"
)

func settle(v *Visibility, brightness float64) {
	for i := 0; i < 600; i++ {
		v.Update(brightness, 1.0/60)
	}
}

func TestVisibilityTargets(t *testing.T) {
	cfg := config.Default()
	ambient := cfg.Stealth.AmbientLightFactor
	tests := []struct {
		name       string
		brightness float64
		want       float64
	}{
		{"dark", 0, ambient},
		{"half lit", 0.5, ambient + (1-ambient)*0.5},
		{"fully lit", 1, 1},
		{"clamped above", 3, 1},
		{"clamped below", -1, ambient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVisibility(cfg)
			settle(v, tt.brightness)
			if math.Abs(v.Fraction()-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, v.Fraction())
			}
			if p := v.Percent(); p < 0 || p > 100 {
				t.Errorf("expected percent in [0,100], got %f", p)
			}
		})
	}
}

func TestVisibilityInterpolates(t *testing.T) {
	v := NewVisibility(config.Default())
	v.Update(1, 1.0/60)
	if v.Fraction() <= 0 || v.Fraction() >= 1 {
		t.Errorf("expected partial move towards lit, got %f", v.Fraction())
	}
	prev := v.Fraction()
	v.Update(1, 1.0/60)
	if v.Fraction() <= prev {
		t.Errorf("expected exposure to keep rising, got %f after %f", v.Fraction(), prev)
	}
}

func TestVisibilityThreshold(t *testing.T) {
	cfg := config.Default()
	v := NewVisibility(cfg)
	if v.IsVisible() {
		t.Error("expected hidden at start")
	}
	settle(v, 1)
	if !v.IsVisible() {
		t.Error("expected visible in full light")
	}
	settle(v, 0)
	if v.IsVisible() {
		t.Error("expected hidden in the dark")
	}

	// Exactly at the threshold counts as visible
	v.current = cfg.Stealth.VisibilityThreshold
	v.Update(1, 0)
	if !v.IsVisible() {
		t.Errorf("expected visible at threshold, got %f", v.Fraction())
	}
}

func TestVisibilityRestoreAndThreshold(t *testing.T) {
	v := NewVisibility(config.Default())
	v.Restore(1.5)
	if v.Fraction() != 1 {
		t.Errorf("expected restore clamped to 1, got %f", v.Fraction())
	}
	v.SetThreshold(1.1)
	if v.IsVisible() {
		t.Error("expected raised threshold to hide the player")
	}
	if v.Threshold() != 1.1 {
		t.Errorf("expected threshold 1.1, got %f", v.Threshold())
	}
}
