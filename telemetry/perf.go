package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one section of the simulation tick.
type Phase uint8

// Tick phases in the order the loop runs them.
const (
	PhaseTasks Phase = iota
	PhaseController
	PhaseBody
	PhaseProps
	PhaseDetector
	PhaseDevice
	PhaseStealth
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{
	"tasks", "controller", "body", "props",
	"detector", "device", "stealth", "telemetry",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// Phases lists every tick phase in loop order.
var Phases = []Phase{
	PhaseTasks, PhaseController, PhaseBody, PhaseProps,
	PhaseDetector, PhaseDevice, PhaseStealth, PhaseTelemetry,
}

// tickTiming is the measured cost of one tick.
type tickTiming struct {
	total  time.Duration
	phases [NumPhases]time.Duration
}

// PerfCollector times tick phases over a ring of recent ticks and counts
// ticks that ran longer than the simulated time they cover.
type PerfCollector struct {
	budget time.Duration
	ring   []tickTiming
	next   int
	filled int

	current    tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window ticks. budget
// is the simulated duration of one tick; zero disables overrun counting.
func NewPerfCollector(window int, budget time.Duration) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		budget: budget,
		ring:   make([]tickTiming, window),
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = tickTiming{}
	p.inPhase = false
}

// StartPhase closes the running phase and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = phase < NumPhases
}

// EndTick closes the running phase and stores the tick in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.current
	p.next = (p.next + 1) % len(p.ring)
	if p.filled < len(p.ring) {
		p.filled++
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// RecordFrame measures the time since the previous rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises the ticks in the collector's window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // Share of the average tick, 0-100

	// OverBudget counts ticks slower than real time.
	OverBudget int
	Slowest    Phase

	FrameDuration time.Duration
	FPS           float64
}

// Stats summarises the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var phaseTotal [NumPhases]time.Duration
	for i, t := range p.ring[:p.filled] {
		total += t.total
		if i == 0 || t.total < s.MinTickDuration {
			s.MinTickDuration = t.total
		}
		s.MaxTickDuration = max(s.MaxTickDuration, t.total)
		if p.budget > 0 && t.total > p.budget {
			s.OverBudget++
		}
		for ph, d := range t.phases {
			phaseTotal[ph] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgTickDuration = total / n
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	for ph := range phaseTotal {
		s.PhaseAvg[ph] = phaseTotal[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
		if s.PhaseAvg[ph] > s.PhaseAvg[s.Slowest] {
			s.Slowest = Phase(ph)
		}
	}
	return s
}

// LogStats logs the window summary at info level.
func (s PerfStats) LogStats(logger *slog.Logger) {
	logger.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Int("over_budget", s.OverBudget),
		slog.String("slowest", s.Slowest.String()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, ph := range Phases {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MinTickUS     int64   `csv:"min_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	OverBudget    int     `csv:"over_budget"`
	Slowest       string  `csv:"slowest"`
	FPS           float64 `csv:"fps"`
	TasksPct      float64 `csv:"tasks_pct"`
	ControllerPct float64 `csv:"controller_pct"`
	BodyPct       float64 `csv:"body_pct"`
	PropsPct      float64 `csv:"props_pct"`
	DetectorPct   float64 `csv:"detector_pct"`
	DevicePct     float64 `csv:"device_pct"`
	StealthPct    float64 `csv:"stealth_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		MinTickUS:     s.MinTickDuration.Microseconds(),
		MaxTickUS:     s.MaxTickDuration.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		OverBudget:    s.OverBudget,
		Slowest:       s.Slowest.String(),
		FPS:           s.FPS,
		TasksPct:      s.PhasePct[PhaseTasks],
		ControllerPct: s.PhasePct[PhaseController],
		BodyPct:       s.PhasePct[PhaseBody],
		PropsPct:      s.PhasePct[PhaseProps],
		DetectorPct:   s.PhasePct[PhaseDetector],
		DevicePct:     s.PhasePct[PhaseDevice],
		StealthPct:    s.PhasePct[PhaseStealth],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
