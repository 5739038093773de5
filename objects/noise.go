package objects

import (
	"math"
	"math/rand"
)

// Noise is seeded 3D gradient noise in roughly [-1,1].
type Noise struct {
	perm [512]int
}

// NewNoise creates a noise source. The same seed always gives the same
// field.
func NewNoise(seed int64) *Noise {
	n := &Noise{}
	rng := rand.New(rand.NewSource(seed))
	p := rng.Perm(256)
	for i := 0; i < 512; i++ {
		n.perm[i] = p[i&255]
	}
	return n
}

// At samples the field.
func (n *Noise) At(x, y, z float64) float64 {
	xi, yi, zi := int(math.Floor(x))&255, int(math.Floor(y))&255, int(math.Floor(z))&255
	x -= math.Floor(x)
	y -= math.Floor(y)
	z -= math.Floor(z)
	u, v, w := smootherstep(x), smootherstep(y), smootherstep(z)

	p := &n.perm
	a := p[xi] + yi
	aa, ab := p[a]+zi, p[a+1]+zi
	b := p[xi+1] + yi
	ba, bb := p[b]+zi, p[b+1]+zi

	near := mix(v,
		mix(u, gradient(p[aa], x, y, z), gradient(p[ba], x-1, y, z)),
		mix(u, gradient(p[ab], x, y-1, z), gradient(p[bb], x-1, y-1, z)))
	far := mix(v,
		mix(u, gradient(p[aa+1], x, y, z-1), gradient(p[ba+1], x-1, y, z-1)),
		mix(u, gradient(p[ab+1], x, y-1, z-1), gradient(p[bb+1], x-1, y-1, z-1)))
	return mix(w, near, far)
}

func smootherstep(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix(t, a, b float64) float64 {
	return a + t*(b-a)
}

// gradient dots the offset with one of twelve cube-edge directions.
func gradient(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := y
	if h < 8 {
		u = x
	}
	var v float64
	switch {
	case h < 4:
		v = y
	case h == 12 || h == 14:
		v = x
	default:
		v = z
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
