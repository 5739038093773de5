package world

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/thieflike/components"
)

const parallelEpsilon = 1e-9

// Filter selects which colliders a trace responds to.
type Filter struct {
	Channels components.Channel
	Ignore   []ecs.Entity
}

func (f Filter) accepts(e ecs.Entity, col *components.Collider) bool {
	if !col.Channels.Has(f.Channels) {
		return false
	}
	return !slices.Contains(f.Ignore, e)
}

// Hit describes a blocking hit along a trace.
type Hit struct {
	Entity ecs.Entity

	// Location is where the trace shape came to rest. For a line trace it
	// equals ImpactPoint; for a capsule it is the capsule centre.
	Location    mgl64.Vec3
	ImpactPoint mgl64.Vec3
	Normal      mgl64.Vec3

	Time     float64 // Fraction of the trace, 0-1
	Distance float64

	// StartPenetrating is set when the trace began inside the collider.
	StartPenetrating bool
}

// Tracer answers world geometry queries.
type Tracer interface {
	CastRay(start, end mgl64.Vec3, f Filter) (Hit, bool)
	CastCapsule(start, end mgl64.Vec3, radius, halfHeight float64, f Filter) []Hit
}

// CastRay returns the closest blocking hit between start and end.
func (s *Scene) CastRay(start, end mgl64.Vec3, f Filter) (Hit, bool) {
	var best Hit
	found := false

	query := s.boxFilter.Query()
	for query.Next() {
		xf, col := query.Get()
		e := query.Entity()
		if !f.accepts(e, col) {
			continue
		}
		hit, ok := intersectBox(*xf, col.HalfExtents, start, end)
		if !ok {
			continue
		}
		if !found || hit.Time < best.Time {
			hit.Entity = e
			best = hit
			found = true
		}
	}
	if found {
		best.ImpactPoint = best.Location
	}
	return best, found
}

// CastCapsule sweeps an upright capsule from start to end and returns every
// blocking hit ordered by distance. Boxes are expanded by the capsule extents,
// which is conservative at box corners.
func (s *Scene) CastCapsule(start, end mgl64.Vec3, radius, halfHeight float64, f Filter) []Hit {
	var hits []Hit
	inflate := mgl64.Vec3{radius, radius, halfHeight}

	query := s.boxFilter.Query()
	for query.Next() {
		xf, col := query.Get()
		e := query.Entity()
		if !f.accepts(e, col) {
			continue
		}
		hit, ok := intersectBox(*xf, col.HalfExtents.Add(inflate), start, end)
		if !ok {
			continue
		}
		hit.Entity = e
		// Push the contact back out from the capsule centre along the normal.
		hit.ImpactPoint = hit.Location.Sub(mgl64.Vec3{
			hit.Normal.X() * radius,
			hit.Normal.Y() * radius,
			hit.Normal.Z() * halfHeight,
		})
		hits = append(hits, hit)
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return hits
}

// intersectBox runs a slab test in the box's local frame. The returned hit
// carries Location, Normal, Time, Distance and StartPenetrating.
func intersectBox(xf components.Transform, half, start, end mgl64.Vec3) (Hit, bool) {
	delta := end.Sub(start)
	length := delta.Len()

	o := xf.ToLocal(start)
	d := xf.ToLocalDir(delta)

	tmin, tmax := 0.0, 1.0
	axis := -1
	var normal mgl64.Vec3

	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < parallelEpsilon {
			if o[i] < -half[i] || o[i] > half[i] {
				return Hit{}, false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (-half[i] - o[i]) * inv
		t2 := (half[i] - o[i]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tmin {
			tmin = t1
			axis = i
			normal = mgl64.Vec3{}
			normal[i] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return Hit{}, false
		}
	}

	if axis < 0 {
		if tmax <= parallelEpsilon {
			// Leaving the box from its surface
			return Hit{}, false
		}
		// Origin inside the box on every axis
		n := mgl64.Vec3{0, 0, 1}
		if length > parallelEpsilon {
			n = delta.Mul(-1 / length)
		}
		return Hit{
			Location:         start,
			Normal:           n,
			StartPenetrating: true,
		}, true
	}

	return Hit{
		Location: start.Add(delta.Mul(tmin)),
		Normal:   xf.ToWorldDir(normal),
		Time:     tmin,
		Distance: tmin * length,
	}, true
}
