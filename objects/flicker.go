package objects

import (
	"log/slog"
	"math"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/world"
)

// Flicker animates torch-like lights. Intensity is a pure function of the
// simulation clock, so a restored run flickers the same way it did when saved.
type Flicker struct {
	scene  *world.Scene
	noise  *Noise
	lights *ecs.Map[components.PointLight]
	state  *ecs.Map[components.Flicker]
	filter *ecs.Filter2[components.PointLight, components.Flicker]
	count  int
	logger *slog.Logger
}

// NewFlicker creates a flicker system for scene.
func NewFlicker(scene *world.Scene, seed int64, logger *slog.Logger) *Flicker {
	if logger == nil {
		logger = slog.Default()
	}
	w := scene.ECS()
	return &Flicker{
		scene:  scene,
		noise:  NewNoise(seed),
		lights: ecs.NewMap[components.PointLight](w),
		state:  ecs.NewMap[components.Flicker](w),
		filter: ecs.NewFilter2[components.PointLight, components.Flicker](w),
		logger: logger,
	}
}

// Add makes light flicker by up to amount of its current intensity. Lights
// that are unknown or already flickering are ignored.
func (f *Flicker) Add(light ecs.Entity, amount, speed float64) bool {
	if !f.scene.ECS().Alive(light) || !f.lights.Has(light) || f.state.Has(light) {
		return false
	}
	pl := f.lights.Get(light)
	f.state.Add(light, &components.Flicker{
		Base:   pl.Intensity,
		Amount: math.Min(math.Max(amount, 0), 1),
		Speed:  speed,
		Offset: float64(f.count) * 17.3,
	})
	f.count++
	f.logger.Debug("flicker added", "light", light.ID(), "amount", amount, "speed", speed)
	return true
}

// Update sets every flickering light's intensity for time now.
func (f *Flicker) Update(now time.Duration) {
	t := now.Seconds()
	query := f.filter.Query()
	for query.Next() {
		pl, fl := query.Get()
		n := f.noise.At(fl.Offset, 0.5, t*fl.Speed)
		pl.Intensity = math.Max(0, fl.Base*(1+fl.Amount*n))
	}
}
