package motion

import "github.com/go-gl/mathgl/mgl64"

// interpTo moves current towards target by a dt*speed share of the gap,
// snapping once the gap is negligible. A non-positive speed snaps at once.
func interpTo(current, target, dt, speed float64) float64 {
	if speed <= 0 {
		return target
	}
	dist := target - current
	if dist*dist < 1e-8 {
		return target
	}
	alpha := mgl64.Clamp(dt*speed, 0, 1)
	return current + dist*alpha
}

// interpTo2D is interpTo on the XY plane.
func interpTo2D(current, target mgl64.Vec2, dt, speed float64) mgl64.Vec2 {
	if speed <= 0 {
		return target
	}
	dist := target.Sub(current)
	if dist.LenSqr() < 1e-8 {
		return target
	}
	alpha := mgl64.Clamp(dt*speed, 0, 1)
	return current.Add(dist.Mul(alpha))
}

func flat(v mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{v.X(), v.Y()}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
