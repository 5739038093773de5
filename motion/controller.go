// Package motion implements the player's locomotion: leaning around
// cover, crouching, sprinting, mantling onto ledges and interacting with
// objects in front of the camera.
package motion

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thieflike/camera"
	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/world"
)

// World is the geometry and interaction lookup the controller needs.
type World interface {
	world.Tracer
	Interactable(e ecs.Entity) (world.Interactable, bool)
}

var leanFilter = world.Filter{Channels: components.ChannelVisibility | components.ChannelClimbable}

// Controller owns the per-tick state of the player character and drives
// a Body through a World.
type Controller struct {
	lean     config.LeanConfig
	crouch   config.CrouchConfig
	movement config.MovementConfig
	interact config.InteractConfig
	climb    config.ClimbConfig

	world  World
	body   Body
	cam    *camera.Camera
	mantle *Mantle
	logger *slog.Logger

	// Lean
	targetLeanOffset  float64
	targetLeanRoll    float64
	currentLeanOffset float64
	currentLeanRoll   float64

	crouching        bool
	sprinting        bool
	jumpHeld         bool
	targetHalfHeight float64
	eyeHeight        float64
}

// NewController creates a standing controller for body.
func NewController(cfg *config.Config, w World, body Body, cam *camera.Camera, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		lean:             cfg.Lean,
		crouch:           cfg.Crouch,
		movement:         cfg.Movement,
		interact:         cfg.Interact,
		climb:            cfg.Climb,
		world:            w,
		body:             body,
		cam:              cam,
		mantle:           NewMantle(cfg, w, body, logger),
		logger:           logger,
		targetHalfHeight: cfg.Crouch.StandHalfHeight,
		eyeHeight:        cfg.Crouch.CameraHeight,
	}
	body.SetMaxWalkSpeed(cfg.Movement.WalkSpeed)
	c.syncCamera()
	return c
}

// Mantle returns the mantle state machine.
func (c *Controller) Mantle() *Mantle {
	return c.mantle
}

// Body returns the controlled body.
func (c *Controller) Body() Body {
	return c.body
}

// Camera returns the controlled camera.
func (c *Controller) Camera() *camera.Camera {
	return c.cam
}

// LeanOffset returns the current camera offset along the right axis.
func (c *Controller) LeanOffset() float64 {
	return c.currentLeanOffset
}

// LeanRoll returns the current camera roll in degrees.
func (c *Controller) LeanRoll() float64 {
	return c.currentLeanRoll
}

// Crouching reports whether the crouch toggle is on.
func (c *Controller) Crouching() bool {
	return c.crouching
}

// Sprinting reports whether sprint is held.
func (c *Controller) Sprinting() bool {
	return c.sprinting
}

// EyeHeight returns the current camera height above the capsule centre.
func (c *Controller) EyeHeight() float64 {
	return c.eyeHeight
}

// Update runs one tick: lean and crouch interpolation, then the mantle.
func (c *Controller) Update(dt float64) {
	desired := c.targetLeanOffset
	allowed := c.AllowedLeanOffset(desired)
	rollTarget := c.targetLeanRoll
	if desired != 0 {
		rollTarget *= math.Abs(allowed) / math.Abs(desired)
	}
	c.currentLeanOffset = interpTo(c.currentLeanOffset, allowed, dt, c.lean.InterpSpeed)
	c.currentLeanRoll = interpTo(c.currentLeanRoll, rollTarget, dt, c.lean.InterpSpeed)

	// Shrinking the capsule keeps the feet planted
	current := c.body.HalfHeight()
	next := interpTo(current, c.targetHalfHeight, dt, c.crouch.TransitionSpeed)
	if delta := next - current; delta != 0 {
		c.body.SetHalfHeight(next)
		c.body.SetLocation(c.body.Location().Add(mgl64.Vec3{0, 0, delta}))
	}
	eyeTarget := c.crouch.CameraHeight
	if c.crouching {
		eyeTarget = c.crouch.CrouchCameraHeight
	}
	c.eyeHeight = interpTo(c.eyeHeight, eyeTarget, dt, c.crouch.TransitionSpeed)

	c.mantle.Update(dt, c.jumpHeld)
	c.syncCamera()
}

// syncCamera places the camera at the leaned eye position.
func (c *Controller) syncCamera() {
	if c.cam == nil {
		return
	}
	c.cam.Position = c.baseEye().Add(c.cam.Right().Mul(c.currentLeanOffset))
	c.cam.Roll = c.currentLeanRoll
}

// baseEye returns the eye position without lean.
func (c *Controller) baseEye() mgl64.Vec3 {
	return c.body.Location().Add(mgl64.Vec3{0, 0, c.eyeHeight})
}

func (c *Controller) right() mgl64.Vec3 {
	if c.cam != nil {
		return c.cam.Right()
	}
	f := c.body.Forward()
	return mgl64.Vec3{-f.Y(), f.X(), 0}
}

// AllowedLeanOffset clamps a desired lean so the camera keeps the safety
// margin from any wall on that side.
func (c *Controller) AllowedLeanOffset(desired float64) float64 {
	if desired == 0 {
		return 0
	}
	s := sign(desired)
	start := c.baseEye()
	end := start.Add(c.right().Mul(s * c.lean.CheckDistance))

	hit, ok := c.world.CastRay(start, end, leanFilter)
	if !ok {
		return desired
	}
	allowed := math.Max(0, math.Min(math.Abs(desired), hit.Distance-c.lean.SafetyMargin))
	return s * allowed
}

// LeanLeft sets the lean target while pressed and clears it on release.
func (c *Controller) LeanLeft(pressed bool) {
	c.setLean(pressed, -1)
}

// LeanRight sets the lean target while pressed and clears it on release.
func (c *Controller) LeanRight(pressed bool) {
	c.setLean(pressed, 1)
}

func (c *Controller) setLean(pressed bool, dir float64) {
	if !pressed {
		c.targetLeanOffset = 0
		c.targetLeanRoll = 0
		return
	}
	c.targetLeanOffset = dir * c.lean.MaxOffset
	c.targetLeanRoll = dir * c.lean.MaxRoll
}

// ToggleCrouch switches between crouching and standing.
func (c *Controller) ToggleCrouch() {
	c.targetLeanOffset = 0
	c.targetLeanRoll = 0

	if c.crouching {
		c.crouching = false
		c.targetHalfHeight = c.crouch.StandHalfHeight
		if c.sprinting {
			c.body.SetMaxWalkSpeed(c.movement.RunSpeed)
		} else {
			c.body.SetMaxWalkSpeed(c.movement.WalkSpeed)
		}
		return
	}
	c.crouching = true
	c.targetHalfHeight = c.crouch.CrouchHalfHeight
	c.body.SetMaxWalkSpeed(c.crouch.Speed)
}

// RestoreStance puts the controller straight into a saved stance without
// interpolating the capsule or the eye.
func (c *Controller) RestoreStance(crouching bool) {
	c.crouching = crouching
	c.targetLeanOffset, c.targetLeanRoll = 0, 0
	c.currentLeanOffset, c.currentLeanRoll = 0, 0
	if crouching {
		c.targetHalfHeight = c.crouch.CrouchHalfHeight
		c.eyeHeight = c.crouch.CrouchCameraHeight
		c.body.SetMaxWalkSpeed(c.crouch.Speed)
	} else {
		c.targetHalfHeight = c.crouch.StandHalfHeight
		c.eyeHeight = c.crouch.CameraHeight
		c.body.SetMaxWalkSpeed(c.movement.WalkSpeed)
	}
	c.body.SetHalfHeight(c.targetHalfHeight)
	c.syncCamera()
}

// StartSprint switches to run speed unless crouched.
func (c *Controller) StartSprint() {
	c.sprinting = true
	if !c.crouching {
		c.body.SetMaxWalkSpeed(c.movement.RunSpeed)
	}
}

// StopSprint returns to walk speed unless crouched.
func (c *Controller) StopSprint() {
	c.sprinting = false
	if !c.crouching {
		c.body.SetMaxWalkSpeed(c.movement.WalkSpeed)
	}
}

// Jump starts a mantle when a ledge is in reach and jumps otherwise.
func (c *Controller) Jump() {
	c.jumpHeld = true
	if c.mantle.Active() {
		return
	}
	if target, ok := c.mantle.CanMantle(); ok {
		c.mantle.Start(target)
		return
	}
	c.body.Jump()
}

// StopJumping releases the jump input.
func (c *Controller) StopJumping() {
	c.jumpHeld = false
}

// Interact traces from the camera along its view and notifies the first
// interactable it hits. It reports whether anything was notified.
func (c *Controller) Interact() bool {
	if c.cam == nil {
		return false
	}
	start := c.cam.Position
	fwd := c.cam.Forward()
	hit, ok := c.world.CastRay(start, start.Add(fwd.Mul(c.interact.TraceLength)), world.Filter{
		Channels: components.ChannelVisibility | components.ChannelInteract,
	})
	if !ok {
		return false
	}
	h, ok := c.world.Interactable(hit.Entity)
	if !ok {
		return false
	}
	h.OnInteract(fwd)
	return true
}

// CanStartClimbing reports whether the body faces a climbable surface it
// cannot see over: a capsule probe ahead must touch it while a ray at eye
// height must not.
func (c *Controller) CanStartClimbing() bool {
	if c.body.Mode() == ModeFalling {
		return false
	}
	loc := c.body.Location()
	fwd := c.body.Forward()

	start := loc.Add(fwd.Mul(c.climb.TraceOffset))
	hits := c.world.CastCapsule(start, start.Add(fwd), c.climb.TraceRadius, c.climb.TraceHalfHeight, climbFilter)
	if len(hits) == 0 {
		return false
	}

	eye := c.baseEye()
	if _, blocked := c.world.CastRay(eye, eye.Add(fwd.Mul(c.climb.EyeTraceDistance)), climbFilter); blocked {
		return false
	}
	return true
}
