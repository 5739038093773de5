package lightdetect

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/taskqueue"
)

// Sample describes one published sampling cycle.
type Sample struct {
	Time     time.Duration
	Result   Result
	Fraction float64
	Smoothed float64
	Threaded bool
}

// LogValue implements slog.LogValuer for structured logging.
func (s Sample) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("time", s.Time),
		slog.Int("top", s.Result.Top),
		slog.Int("bottom", s.Result.Bottom),
		slog.Int("pixels", s.Result.TotalPixels),
		slog.Float64("fraction", s.Fraction),
		slog.Float64("smoothed", s.Smoothed),
		slog.Bool("threaded", s.Threaded),
	)
}

// Detector owns the readback pipeline, the sampling worker and the history
// for one light detector.
type Detector struct {
	cfg      config.LightConfig
	derived  config.DerivedConfig
	pipeline *Pipeline
	history  *History
	queue    *taskqueue.Queue
	worker   *Worker
	logger   *slog.Logger

	sources [2]Source
	now     time.Duration

	onSample func(Sample)
}

// NewDetector creates a detector. Results from the worker are published
// through queue, which the caller must drain once per tick.
func NewDetector(cfg *config.Config, dev Device, queue *taskqueue.Queue, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if queue == nil {
		queue = taskqueue.New()
	}
	pcfg := PipelineConfig{
		UpdateInterval: cfg.Derived.UpdateInterval,
		SettleDelay:    cfg.Derived.SettleDelay,
		MinimumLight:   cfg.Light.MinimumLight,
		IgnoreBlue:     cfg.Light.IgnoreBlue,
	}
	return &Detector{
		cfg:      cfg.Light,
		derived:  cfg.Derived,
		pipeline: NewPipeline(dev, pcfg, logger),
		history:  NewHistory(cfg.Light.MaxHistory),
		queue:    queue,
		logger:   logger,
	}
}

// SetCaptures assigns the top and bottom capture views.
func (d *Detector) SetCaptures(top, bottom Source) {
	d.sources = [2]Source{top, bottom}
	d.pipeline.SetSources(top, bottom)
}

// SetTargets assigns the render targets the views draw into.
func (d *Detector) SetTargets(top, bottom Target) {
	d.pipeline.SetTargets(top, bottom)
}

// OnSample registers a callback run each time a sample is published.
func (d *Detector) OnSample(fn func(Sample)) {
	d.onSample = fn
}

// StartWorker starts the background sampler. It returns false when
// threading is disabled, in which case samples are computed inline.
func (d *Detector) StartWorker() bool {
	if !d.cfg.Threaded {
		d.logger.Info("light worker disabled, sampling inline")
		return false
	}
	if d.worker == nil {
		d.worker = NewWorker(
			d.cfg.QueueCapacity,
			d.derived.PollInterval,
			d.derived.StartupDelay,
			d.queue,
			d.publish,
			d.logger,
		)
	}
	d.worker.Start()
	return d.worker.Running()
}

// Follow moves both capture views to the detector location above pos.
func (d *Detector) Follow(pos mgl64.Vec3) {
	loc := pos.Add(mgl64.Vec3{0, 0, d.cfg.DetectorOffsetZ})
	for _, src := range d.sources {
		if src != nil {
			src.SetLocation(loc)
		}
	}
}

// SetNow sets the simulation time used by results published from the task
// queue. Call it before draining the queue each tick.
func (d *Detector) SetNow(now time.Duration) {
	d.now = now
}

// Update advances the readback pipeline. A finished readback is queued to
// the worker when one is running and sampled inline otherwise.
func (d *Detector) Update(now time.Duration) {
	d.now = now
	req, ok := d.pipeline.Update(now)
	if !ok {
		return
	}

	if d.worker != nil && d.worker.Running() {
		if !d.worker.Enqueue(req) {
			d.logger.Debug("light request queue full, retrying next tick")
			d.pipeline.Retry()
		}
		return
	}
	d.publish(sampleParallel(req))
}

// publish records a result and schedules the next cycle. It runs on the
// simulation goroutine.
func (d *Detector) publish(res Result) {
	smoothed := d.history.Add(res)
	d.pipeline.Complete(d.now)

	if d.onSample != nil {
		d.onSample(Sample{
			Time:     d.now,
			Result:   res,
			Fraction: res.Fraction(),
			Smoothed: smoothed,
			Threaded: d.worker != nil && d.worker.Running(),
		})
	}
}

// Brightness returns the smoothed lit fraction in [0,1].
func (d *Detector) Brightness() float64 {
	return d.history.Smoothed()
}

// Pipeline exposes the readback pipeline for inspection.
func (d *Detector) Pipeline() *Pipeline {
	return d.pipeline
}

// History exposes the sample history for inspection.
func (d *Detector) History() *History {
	return d.history
}

// Worker returns the background sampler, or nil if none was started.
func (d *Detector) Worker() *Worker {
	return d.worker
}

// Close stops the worker and waits for it. Safe to call more than once or
// when no worker was started.
func (d *Detector) Close() {
	if d.worker != nil {
		d.worker.Stop()
	}
}

// sampleParallel counts both views concurrently.
func sampleParallel(req CaptureRequest) Result {
	var top, bottom int
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		top = CountLit(req.Top, req.IgnoreBlue, req.MinimumLight)
	}()
	go func() {
		defer wg.Done()
		bottom = CountLit(req.Bottom, req.IgnoreBlue, req.MinimumLight)
	}()
	wg.Wait()
	return Result{Top: top, Bottom: bottom, TotalPixels: len(req.Top) + len(req.Bottom)}
}
