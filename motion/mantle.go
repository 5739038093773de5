package motion

import (
	"log/slog"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/world"
)

// MantleOutcome is how a mantle ended.
type MantleOutcome uint8

const (
	MantleSucceeded MantleOutcome = iota
	MantleStuck                   // No progress for the stuck duration
	MantleReleased                // Jump released during the hoist
)

func (o MantleOutcome) String() string {
	switch o {
	case MantleSucceeded:
		return "succeeded"
	case MantleStuck:
		return "stuck"
	case MantleReleased:
		return "released"
	}
	return "unknown"
}

// MantleEvent reports a finished mantle.
type MantleEvent struct {
	Outcome  MantleOutcome
	Start    mgl64.Vec3
	Target   mgl64.Vec3
	End      mgl64.Vec3
	Duration time.Duration
}

// LogValue implements slog.LogValuer for structured logging.
func (e MantleEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("outcome", e.Outcome.String()),
		slog.Float64("ledge_z", e.Target.Z()),
		slog.Float64("rise", e.Target.Z()-e.Start.Z()),
		slog.Duration("duration", e.Duration),
	)
}

var climbFilter = world.Filter{Channels: components.ChannelClimbable}

// Mantle detects climbable ledges ahead of a body and drives it onto them.
type Mantle struct {
	cfg       config.MantleConfig
	walkableZ float64
	maxJump   float64
	tracer    world.Tracer
	body      Body
	logger    *slog.Logger

	active   bool
	start    mgl64.Vec3
	target   mgl64.Vec3
	approach mgl64.Vec3 // Horizontal direction towards the ledge
	lastPos  mgl64.Vec3
	stuck    float64
	elapsed  float64

	onFinish func(MantleEvent)
}

// NewMantle creates an idle mantle state machine for body.
func NewMantle(cfg *config.Config, tracer world.Tracer, body Body, logger *slog.Logger) *Mantle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mantle{
		cfg:       cfg.Mantle,
		walkableZ: cfg.Movement.WalkableFloorZ,
		maxJump:   cfg.Derived.MaxJumpHeight,
		tracer:    tracer,
		body:      body,
		logger:    logger,
	}
}

// OnFinish registers a callback run when a mantle ends.
func (m *Mantle) OnFinish(fn func(MantleEvent)) {
	m.onFinish = fn
}

// Active reports whether a mantle is in progress.
func (m *Mantle) Active() bool {
	return m.active
}

// Target returns the capsule centre the current mantle is heading for.
func (m *Mantle) Target() mgl64.Vec3 {
	return m.target
}

// CanMantle looks for a wall ahead with a walkable ledge within reach and
// returns the capsule centre to finish at.
func (m *Mantle) CanMantle() (mgl64.Vec3, bool) {
	if m.body.Mode() != ModeWalking {
		return mgl64.Vec3{}, false
	}

	loc := m.body.Location()
	hh := m.body.HalfHeight()
	feet := loc.Z() - hh
	fwd := m.body.Forward()
	up := mgl64.Vec3{0, 0, 1}

	wall, ok := m.tracer.CastRay(loc, loc.Add(fwd.Mul(m.cfg.MaxFrontCheckDistance)), climbFilter)
	if !ok {
		// Ledges lower than the capsule centre
		low := mgl64.Vec3{loc.X(), loc.Y(), feet + m.cfg.LowProbeHeight}
		wall, ok = m.tracer.CastRay(low, low.Add(fwd.Mul(m.cfg.MaxFrontCheckDistance)), climbFilter)
	}
	if !ok || wall.StartPenetrating {
		return mgl64.Vec3{}, false
	}

	top := wall.ImpactPoint.
		Add(fwd.Mul(m.cfg.LedgeProbeDepth)).
		Add(up.Mul(m.cfg.MaxReachHeight + hh))
	bottom := mgl64.Vec3{top.X(), top.Y(), feet}
	ledge, ok := m.tracer.CastRay(top, bottom, climbFilter)
	if !ok || ledge.StartPenetrating {
		return mgl64.Vec3{}, false
	}
	if ledge.Normal.Z() < m.walkableZ {
		return mgl64.Vec3{}, false
	}

	height := ledge.ImpactPoint.Z() - feet
	if height <= m.cfg.HeightTolerance {
		return mgl64.Vec3{}, false
	}
	if height-m.maxJump-m.cfg.MaxReachHeight > 0 {
		return mgl64.Vec3{}, false
	}

	return ledge.ImpactPoint.Add(up.Mul(hh + m.cfg.TargetEpsilon)), true
}

// Start begins a mantle towards target.
func (m *Mantle) Start(target mgl64.Vec3) {
	loc := m.body.Location()
	m.active = true
	m.start = loc
	m.target = target
	m.lastPos = loc
	m.stuck = 0
	m.elapsed = 0

	m.approach = mgl64.Vec3{target.X() - loc.X(), target.Y() - loc.Y(), 0}
	if m.approach.LenSqr() > 1e-10 {
		m.approach = m.approach.Normalize()
	} else {
		m.approach = m.body.Forward()
	}

	m.body.SetMode(ModeFlying)
	m.body.SetVelocity(mgl64.Vec3{})
	m.logger.Debug("mantle started", "target_z", target.Z(), "rise", target.Z()-loc.Z())
}

// Update advances an active mantle by dt seconds. jumpHeld reports
// whether the jump input is still down.
func (m *Mantle) Update(dt float64, jumpHeld bool) {
	if !m.active {
		return
	}
	m.elapsed += dt
	loc := m.body.Location()

	if loc.Sub(m.lastPos).LenSqr() < m.cfg.StuckDistanceSq {
		m.stuck += dt
		if m.stuck > m.cfg.StuckDuration {
			m.fail(MantleStuck)
			return
		}
	} else {
		m.stuck = 0
	}
	m.lastPos = loc

	if loc.Z() < m.target.Z()-m.cfg.HeightTolerance {
		// Hoist, leaning back off the lip
		if !jumpHeld {
			m.fail(MantleReleased)
			return
		}
		z := interpTo(loc.Z(), m.target.Z(), dt, m.cfg.HoistSpeed)
		pull := m.approach.Mul(-m.cfg.WallPull * dt)
		m.moveTo(mgl64.Vec3{loc.X() + pull.X(), loc.Y() + pull.Y(), z})
		return
	}

	// Step onto the ledge at fixed height
	xy := interpTo2D(flat(loc), flat(m.target), dt, m.cfg.ForwardSpeed)
	next := m.moveTo(mgl64.Vec3{xy.X(), xy.Y(), m.target.Z()})
	if flat(next).Sub(flat(m.target)).Len() <= m.cfg.ReachTolerance {
		m.succeed()
	}
}

// moveTo sweeps the capsule towards dest and stops it short of the first
// surface in the way. A capsule that starts inside a collider does not
// move. It returns the new location.
func (m *Mantle) moveTo(dest mgl64.Vec3) mgl64.Vec3 {
	loc := m.body.Location()
	delta := dest.Sub(loc)
	length := delta.Len()
	if length < 1e-10 {
		return loc
	}

	hits := m.tracer.CastCapsule(loc, dest, m.body.Radius(), m.body.HalfHeight(), blockingFilter)
	for _, hit := range hits {
		if hit.StartPenetrating {
			return loc
		}
		if hit.Normal.Dot(delta) < 0 {
			dest = loc.Add(delta.Mul(math.Max(0, hit.Distance-skin) / length))
			break
		}
	}
	m.body.SetLocation(dest)
	return dest
}

func (m *Mantle) succeed() {
	m.active = false
	m.body.SetMode(ModeWalking)
	m.body.SetVelocity(mgl64.Vec3{})
	m.finish(MantleSucceeded)
}

// fail drops the body back off the wall with a small shove.
func (m *Mantle) fail(outcome MantleOutcome) {
	m.active = false
	m.stuck = 0

	push := m.approach.Mul(-m.cfg.FailPushBack)
	m.body.SetMode(ModeFalling)
	m.body.SetLocation(m.body.Location().Add(push))
	m.body.SetVelocity(push.Mul(m.cfg.FailImpulseScale))
	m.finish(outcome)
}

func (m *Mantle) finish(outcome MantleOutcome) {
	ev := MantleEvent{
		Outcome:  outcome,
		Start:    m.start,
		Target:   m.target,
		End:      m.body.Location(),
		Duration: time.Duration(m.elapsed * float64(time.Second)),
	}
	if outcome == MantleSucceeded {
		m.logger.Debug("mantle finished", "event", ev)
	} else {
		m.logger.Info("mantle failed", "event", ev)
	}
	if m.onFinish != nil {
		m.onFinish(ev)
	}
}
