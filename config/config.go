// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Simulation SimulationConfig `yaml:"simulation"`
	Light      LightConfig      `yaml:"light"`
	Lean       LeanConfig       `yaml:"lean"`
	Crouch     CrouchConfig     `yaml:"crouch"`
	Movement   MovementConfig   `yaml:"movement"`
	Mantle     MantleConfig     `yaml:"mantle"`
	Climb      ClimbConfig      `yaml:"climb"`
	Interact   InteractConfig   `yaml:"interact"`
	Stealth    StealthConfig    `yaml:"stealth"`
	Door       DoorConfig       `yaml:"door"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimulationConfig holds the fixed-step loop parameters.
type SimulationConfig struct {
	DT float64 `yaml:"dt"` // seconds per tick
}

// LightConfig holds light detector parameters.
type LightConfig struct {
	IgnoreBlue      bool    `yaml:"ignore_blue"`
	UpdateInterval  float64 `yaml:"update_interval"`  // Seconds between sampling cycles
	MinimumLight    float64 `yaml:"minimum_light"`    // Per-pixel brightness threshold (0-255)
	MaxHistory      int     `yaml:"max_history"`      // Averaging window; buffer holds one extra slot
	SettleDelay     float64 `yaml:"settle_delay"`     // Pause after each fence completes
	Threaded        bool    `yaml:"threaded"`         // Process captures on a worker goroutine
	QueueCapacity   int     `yaml:"queue_capacity"`   // Worker request queue size
	PollInterval    float64 `yaml:"poll_interval"`    // Worker idle sleep
	StartupDelay    float64 `yaml:"startup_delay"`    // Worker delay before first poll
	CaptureWidth    int     `yaml:"capture_width"`    // Render target size in pixels
	CaptureHeight   int     `yaml:"capture_height"`
	FenceLatency    int     `yaml:"fence_latency"`    // Frames until a software fence signals
	DetectorOffsetZ float64 `yaml:"detector_offset_z"` // Detector height above actor origin
}

// LeanConfig holds lean parameters.
type LeanConfig struct {
	MaxOffset     float64 `yaml:"max_offset"`     // Camera offset along right axis
	MaxRoll       float64 `yaml:"max_roll"`       // Camera roll in degrees
	InterpSpeed   float64 `yaml:"interp_speed"`
	CheckDistance float64 `yaml:"check_distance"` // Wall probe length
	SafetyMargin  float64 `yaml:"safety_margin"`  // Gap kept between camera and wall
}

// CrouchConfig holds crouch parameters.
type CrouchConfig struct {
	Speed              float64 `yaml:"speed"`            // Max walk speed while crouched
	TransitionSpeed    float64 `yaml:"transition_speed"` // Half-height interpolation rate
	StandHalfHeight    float64 `yaml:"stand_half_height"`
	CrouchHalfHeight   float64 `yaml:"crouch_half_height"`
	CameraHeight       float64 `yaml:"camera_height"`        // Eye height above capsule centre when standing
	CrouchCameraHeight float64 `yaml:"crouch_camera_height"` // Eye height above capsule centre when crouched
}

// MovementConfig holds character movement parameters.
type MovementConfig struct {
	WalkSpeed       float64 `yaml:"walk_speed"`
	RunSpeed        float64 `yaml:"run_speed"`
	CapsuleRadius   float64 `yaml:"capsule_radius"`
	Gravity         float64 `yaml:"gravity"`          // Positive, units/s^2
	JumpZVelocity   float64 `yaml:"jump_z_velocity"`
	WalkableFloorZ  float64 `yaml:"walkable_floor_z"` // Minimum normal Z for a walkable surface
	BrakingFriction float64 `yaml:"braking_friction"`
}

// MantleConfig holds ledge-climb parameters.
type MantleConfig struct {
	MaxFrontCheckDistance float64 `yaml:"max_front_check_distance"`
	MaxReachHeight        float64 `yaml:"max_reach_height"`
	LedgeProbeDepth       float64 `yaml:"ledge_probe_depth"` // How far past the wall face to probe for the top
	LowProbeHeight        float64 `yaml:"low_probe_height"`  // Second wall probe height above the feet
	TargetEpsilon         float64 `yaml:"target_epsilon"`
	HoistSpeed            float64 `yaml:"hoist_speed"`
	ForwardSpeed          float64 `yaml:"forward_speed"`
	WallPull              float64 `yaml:"wall_pull"` // Backward pull per second during hoist
	HeightTolerance       float64 `yaml:"height_tolerance"`
	ReachTolerance        float64 `yaml:"reach_tolerance"` // 2D distance for success
	StuckDistanceSq       float64 `yaml:"stuck_distance_sq"`
	StuckDuration         float64 `yaml:"stuck_duration"`
	FailPushBack          float64 `yaml:"fail_push_back"`
	FailImpulseScale      float64 `yaml:"fail_impulse_scale"`
}

// ClimbConfig holds the climbable-surface probe parameters.
type ClimbConfig struct {
	TraceOffset      float64 `yaml:"trace_offset"` // Capsule probe start ahead of the actor
	TraceRadius      float64 `yaml:"trace_radius"`
	TraceHalfHeight  float64 `yaml:"trace_half_height"`
	EyeTraceDistance float64 `yaml:"eye_trace_distance"`
}

// InteractConfig holds interaction trace parameters.
type InteractConfig struct {
	TraceLength float64 `yaml:"trace_length"`
}

// StealthConfig holds visibility model parameters.
type StealthConfig struct {
	VisibilityThreshold   float64 `yaml:"visibility_threshold"`
	VisibilityInterpSpeed float64 `yaml:"visibility_interp_speed"`
	AmbientLightFactor    float64 `yaml:"ambient_light_factor"`
}

// DoorConfig holds door animation parameters.
type DoorConfig struct {
	OpenAngle     float64 `yaml:"open_angle"`     // Degrees
	RotationSpeed float64 `yaml:"rotation_speed"` // Degrees per second
	Tolerance     float64 `yaml:"tolerance"`      // Degrees
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	StatsWindow         float64 `yaml:"stats_window"` // Seconds between stats log lines
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HistoryCapacity int           // Light.MaxHistory + 1
	MaxJumpHeight   float64       // JumpZVelocity^2 / (2*Gravity)
	SettleDelay     time.Duration // Light.SettleDelay as a duration
	UpdateInterval  time.Duration // Light.UpdateInterval as a duration
	PollInterval    time.Duration
	StartupDelay    time.Duration
	TickDuration    time.Duration // Simulation.DT as a duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they fail to parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Light.MaxHistory < 1 {
		return fmt.Errorf("light.max_history must be >= 1, got %d", c.Light.MaxHistory)
	}
	if c.Light.QueueCapacity < 1 {
		return fmt.Errorf("light.queue_capacity must be >= 1, got %d", c.Light.QueueCapacity)
	}
	if c.Movement.Gravity <= 0 {
		return fmt.Errorf("movement.gravity must be positive, got %g", c.Movement.Gravity)
	}
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("simulation.dt must be positive, got %g", c.Simulation.DT)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.HistoryCapacity = c.Light.MaxHistory + 1
	c.Derived.MaxJumpHeight = math.Pow(c.Movement.JumpZVelocity, 2) / (2 * c.Movement.Gravity)
	c.Derived.SettleDelay = seconds(c.Light.SettleDelay)
	c.Derived.UpdateInterval = seconds(c.Light.UpdateInterval)
	c.Derived.PollInterval = seconds(c.Light.PollInterval)
	c.Derived.StartupDelay = seconds(c.Light.StartupDelay)
	c.Derived.TickDuration = seconds(c.Simulation.DT)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
