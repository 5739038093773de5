// Package world holds the level geometry and answers line and capsule
// queries against it.
package world

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thieflike/components"
)

// Interactable is implemented by objects that respond to the interact trace.
type Interactable interface {
	OnInteract(forward mgl64.Vec3)
}

// Light is a snapshot of a point light in the scene.
type Light struct {
	Position  mgl64.Vec3
	Color     mgl64.Vec3
	Intensity float64
	Radius    float64
}

// Scene stores colliders and lights as ECS entities.
// It is owned by the simulation goroutine and is not safe for concurrent use.
type Scene struct {
	w *ecs.World

	boxMapper   *ecs.Map2[components.Transform, components.Collider]
	lightMapper *ecs.Map2[components.Transform, components.PointLight]
	xformMap    *ecs.Map1[components.Transform]
	colliderMap *ecs.Map1[components.Collider]

	boxFilter   *ecs.Filter2[components.Transform, components.Collider]
	lightFilter *ecs.Filter2[components.Transform, components.PointLight]

	interactables map[ecs.Entity]Interactable
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	w := ecs.NewWorld()
	return &Scene{
		w:             w,
		boxMapper:     ecs.NewMap2[components.Transform, components.Collider](w),
		lightMapper:   ecs.NewMap2[components.Transform, components.PointLight](w),
		xformMap:      ecs.NewMap1[components.Transform](w),
		colliderMap:   ecs.NewMap1[components.Collider](w),
		boxFilter:     ecs.NewFilter2[components.Transform, components.Collider](w),
		lightFilter:   ecs.NewFilter2[components.Transform, components.PointLight](w),
		interactables: make(map[ecs.Entity]Interactable),
	}
}

// ECS returns the underlying world so other packages can attach their
// own components to scene entities.
func (s *Scene) ECS() *ecs.World {
	return s.w
}

// AddBox adds an oriented box collider and returns its entity.
func (s *Scene) AddBox(center, halfExtents mgl64.Vec3, yaw float64, channels components.Channel) ecs.Entity {
	xf := components.Transform{Position: center, Yaw: yaw}
	col := components.Collider{HalfExtents: halfExtents, Channels: channels}
	return s.boxMapper.NewEntity(&xf, &col)
}

// AddLight adds a point light and returns its entity.
func (s *Scene) AddLight(pos, color mgl64.Vec3, intensity, radius float64) ecs.Entity {
	xf := components.Transform{Position: pos}
	light := components.PointLight{Color: color, Intensity: intensity, Radius: radius}
	return s.lightMapper.NewEntity(&xf, &light)
}

// Remove deletes an entity and any interactable bound to it.
func (s *Scene) Remove(e ecs.Entity) {
	if !s.w.Alive(e) {
		return
	}
	delete(s.interactables, e)
	s.w.RemoveEntity(e)
}

// Transform returns the entity's transform.
func (s *Scene) Transform(e ecs.Entity) (components.Transform, bool) {
	if !s.w.Alive(e) {
		return components.Transform{}, false
	}
	xf := s.xformMap.Get(e)
	if xf == nil {
		return components.Transform{}, false
	}
	return *xf, true
}

// SetTransform moves an entity.
func (s *Scene) SetTransform(e ecs.Entity, t components.Transform) {
	if !s.w.Alive(e) {
		return
	}
	if xf := s.xformMap.Get(e); xf != nil {
		*xf = t
	}
}

// Collider returns the entity's collider.
func (s *Scene) Collider(e ecs.Entity) (components.Collider, bool) {
	if !s.w.Alive(e) {
		return components.Collider{}, false
	}
	col := s.colliderMap.Get(e)
	if col == nil {
		return components.Collider{}, false
	}
	return *col, true
}

// Bind registers an interact handler for an entity.
func (s *Scene) Bind(e ecs.Entity, h Interactable) {
	s.interactables[e] = h
}

// Interactable returns the handler bound to e, if any.
func (s *Scene) Interactable(e ecs.Entity) (Interactable, bool) {
	h, ok := s.interactables[e]
	return h, ok
}

// Lights returns a snapshot of every point light.
func (s *Scene) Lights() []Light {
	var lights []Light
	query := s.lightFilter.Query()
	for query.Next() {
		xf, pl := query.Get()
		lights = append(lights, Light{
			Position:  xf.Position,
			Color:     pl.Color,
			Intensity: pl.Intensity,
			Radius:    pl.Radius,
		})
	}
	return lights
}

// Box is a snapshot of a collider for drawing.
type Box struct {
	Entity      ecs.Entity
	Transform   components.Transform
	HalfExtents mgl64.Vec3
	Channels    components.Channel
}

// Boxes returns a snapshot of every collider.
func (s *Scene) Boxes() []Box {
	var boxes []Box
	query := s.boxFilter.Query()
	for query.Next() {
		xf, col := query.Get()
		boxes = append(boxes, Box{
			Entity:      query.Entity(),
			Transform:   *xf,
			HalfExtents: col.HalfExtents,
			Channels:    col.Channels,
		})
	}
	return boxes
}
