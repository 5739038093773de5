// Package objects holds the interactive props of a level.
package objects

import (
	"log/slog"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thieflike/components"
	"github.com/pthm-cable/thieflike/config"
	"github.com/pthm-cable/thieflike/world"
)

// Doors owns the hinged doors of a scene and swings them once per tick.
type Doors struct {
	cfg    config.DoorConfig
	scene  *world.Scene
	state  *ecs.Map[components.DoorState]
	filter *ecs.Filter3[components.Transform, components.Collider, components.DoorState]
	logger *slog.Logger
}

// NewDoors creates a door system for scene.
func NewDoors(cfg *config.Config, scene *world.Scene, logger *slog.Logger) *Doors {
	if logger == nil {
		logger = slog.Default()
	}
	w := scene.ECS()
	return &Doors{
		cfg:    cfg.Door,
		scene:  scene,
		state:  ecs.NewMap[components.DoorState](w),
		filter: ecs.NewFilter3[components.Transform, components.Collider, components.DoorState](w),
		logger: logger,
	}
}

// Add creates a closed door hinged at hinge. The panel faces closedYaw and
// extends 2*halfExtents.Y along its right axis.
func (d *Doors) Add(hinge mgl64.Vec3, closedYaw float64, halfExtents mgl64.Vec3) ecs.Entity {
	xf := panelTransform(hinge, closedYaw, halfExtents.Y())
	e := d.scene.AddBox(xf.Position, halfExtents, closedYaw, components.ChannelVisibility|components.ChannelInteract)
	d.state.Add(e, &components.DoorState{Hinge: hinge, ClosedYaw: closedYaw})
	d.scene.Bind(e, &Door{doors: d, entity: e})
	return e
}

// Toggle opens a closed door away from a viewer looking along forward, or
// closes an open one. It reports whether e is a door.
func (d *Doors) Toggle(e ecs.Entity, forward mgl64.Vec3) bool {
	if !d.scene.ECS().Alive(e) || !d.state.Has(e) {
		return false
	}
	st := d.state.Get(e)
	if st.Open {
		st.Open = false
		st.Target = 0
	} else {
		facing := components.Transform{Yaw: st.ClosedYaw}.Forward()
		side := 1.0
		if facing.Dot(forward) < 0 {
			side = -1
		}
		st.Open = true
		st.Target = side * d.cfg.OpenAngle
	}
	d.logger.Debug("door toggled", "open", st.Open, "target", st.Target)
	return true
}

// State returns a copy of the door's state.
func (d *Doors) State(e ecs.Entity) (components.DoorState, bool) {
	if !d.scene.ECS().Alive(e) || !d.state.Has(e) {
		return components.DoorState{}, false
	}
	return *d.state.Get(e), true
}

// Entities returns every door in creation order.
func (d *Doors) Entities() []ecs.Entity {
	var out []ecs.Entity
	query := d.filter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	slices.SortFunc(out, func(a, b ecs.Entity) int { return int(a.ID()) - int(b.ID()) })
	return out
}

// Restore puts a door at a saved angle. The door keeps moving towards the
// target implied by open.
func (d *Doors) Restore(e ecs.Entity, angle float64, open bool) bool {
	if !d.scene.ECS().Alive(e) || !d.state.Has(e) {
		return false
	}
	st := d.state.Get(e)
	st.Angle = angle
	st.Open = open
	if !open {
		st.Target = 0
	} else if angle != 0 {
		st.Target = math.Copysign(d.cfg.OpenAngle, angle)
	} else {
		st.Target = d.cfg.OpenAngle
	}
	if col, ok := d.scene.Collider(e); ok {
		d.scene.SetTransform(e, panelTransform(st.Hinge, st.ClosedYaw+angle, col.HalfExtents.Y()))
	}
	return true
}

// Update rotates every moving door towards its target at the configured
// speed and moves its collider with it.
func (d *Doors) Update(dt float64) {
	step := d.cfg.RotationSpeed * dt
	query := d.filter.Query()
	for query.Next() {
		xf, col, st := query.Get()
		diff := st.Target - st.Angle
		if diff == 0 {
			continue
		}
		if math.Abs(diff) <= d.cfg.Tolerance {
			st.Angle = st.Target
		} else {
			st.Angle += math.Copysign(math.Min(step, math.Abs(diff)), diff)
		}
		*xf = panelTransform(st.Hinge, st.ClosedYaw+st.Angle, col.HalfExtents.Y())
	}
}

// panelTransform places a panel of half width halfWidth so its -Y edge
// sits on the hinge.
func panelTransform(hinge mgl64.Vec3, yaw, halfWidth float64) components.Transform {
	xf := components.Transform{Yaw: yaw}
	xf.Position = hinge.Add(xf.Right().Mul(halfWidth))
	return xf
}

// Door is the interact handler bound to one door entity.
type Door struct {
	doors  *Doors
	entity ecs.Entity
}

// OnInteract toggles the door.
func (h *Door) OnInteract(forward mgl64.Vec3) {
	h.doors.Toggle(h.entity, forward)
}
