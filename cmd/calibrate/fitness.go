package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/game"
)

// stillInput keeps the player in place.
type stillInput struct{}

func (stillInput) Poll(int32) game.Input { return game.Input{} }

// ProbeResult is what the detector read at one probe.
type ProbeResult struct {
	Probe      Probe
	Brightness float64
	Visibility float64
}

// Error is the squared distance from the probe's targets.
func (r ProbeResult) Error() float64 {
	db := r.Brightness - r.Probe.Brightness
	dv := r.Visibility - r.Probe.Visibility
	return db*db + dv*dv
}

// FitnessEvaluator runs headless games at every probe and scores how far
// the readings land from their targets.
type FitnessEvaluator struct {
	params      *ParamVector
	baseConfig  *config.Config
	probes      []Probe
	levelPath   string
	settleTicks int

	mu          sync.Mutex
	bestFitness float64
	bestResults []ProbeResult
	lastResults []ProbeResult
}

// NewFitnessEvaluator creates a new evaluator. Each probe runs for
// settleSec simulated seconds before it is read.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, probes []Probe, levelPath string, settleSec float64) *FitnessEvaluator {
	ticks := int(settleSec / baseCfg.Simulation.DT)
	if ticks < 1 {
		ticks = 1
	}
	return &FitnessEvaluator{
		params:      params,
		baseConfig:  baseCfg,
		probes:      probes,
		levelPath:   levelPath,
		settleTicks: ticks,
		bestFitness: math.Inf(1),
	}
}

// BestResults returns the probe readings from the best evaluation.
func (fe *FitnessEvaluator) BestResults() []ProbeResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestResults
}

// LastResults returns the probe readings from the most recent evaluation.
func (fe *FitnessEvaluator) LastResults() []ProbeResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResults
}

// Evaluate computes fitness for raw parameter values (lower = better):
// the mean squared error over all probes.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, raw)

	// Probes are independent games, run them in parallel
	results := make([]ProbeResult, len(fe.probes))
	errs := make([]error, len(fe.probes))
	var wg sync.WaitGroup
	for i, p := range fe.probes {
		wg.Add(1)
		go func(idx int, p Probe) {
			defer wg.Done()
			results[idx], errs[idx] = fe.runProbe(cfg, p)
		}(i, p)
	}
	wg.Wait()

	var total float64
	for i, r := range results {
		if errs[i] != nil {
			// A probe that cannot run is as bad as it gets
			return math.Inf(1)
		}
		total += r.Error()
	}
	fitness := total / float64(len(results))

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestResults = results
	}
	fe.lastResults = results
	fe.mu.Unlock()

	return fitness
}

// runProbe places a still player at the probe and reads the detector once
// it has settled.
func (fe *FitnessEvaluator) runProbe(cfg *config.Config, p Probe) (ProbeResult, error) {
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		LevelPath:      fe.levelPath,
		Headless:       true,
		StepsPerUpdate: fe.settleTicks,
		Input:          stillInput{},
	})
	if err != nil {
		return ProbeResult{}, fmt.Errorf("probe %s: %w", p.Name, err)
	}
	defer g.Unload()

	c := g.Controller()
	c.RestoreStance(p.Crouch)
	c.Body().SetLocation(p.Location())

	g.UpdateHeadless()
	return ProbeResult{
		Probe:      p,
		Brightness: g.Brightness(),
		Visibility: g.Visibility().Fraction(),
	}, nil
}

// copyConfig returns a private copy of the base config. Sampling runs
// inline so readings do not depend on worker scheduling.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Light.Threaded = false
	return &cfg
}
