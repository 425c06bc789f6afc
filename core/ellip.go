package core

import "math"

// ellPi computes the complete elliptic integral of the third kind in the
// Bulirsch characteristic convention,
//
//	cel(kc, 1+n, 1, 1) = Int_0^{pi/2} dtheta / ((1 + n sin^2 theta) sqrt(1 - k^2 sin^2 theta)),
//
// using Bulirsch's arithmetic-geometric iteration. The caller passes the
// complementary modulus kc directly so a cancellation-free value can be
// used near the tangency boundaries. Requires n > -1.
func ellPi(n, kc float64) float64 {
	if kc == 0 {
		return math.NaN()
	}
	p := math.Sqrt(n + 1)
	m0 := 1.0
	c := 1.0
	d := 1 / p
	e := kc

	for i := 0; i < 64; i++ {
		f := c
		c = d/p + c
		g := e / p
		d = 2 * (f*g + d)
		p = g + p
		g = m0
		m0 = kc + m0
		if math.Abs(1-kc/g) <= 1e-13 {
			return math.Pi / 2 * (c*m0 + d) / (m0 * (m0 + p))
		}
		kc = 2 * math.Sqrt(e)
		e = kc * m0
	}
	return math.NaN()
}

// kiteAreaSq is Kahan's numerically stable expression for sixteen times
// the squared area of a triangle with sides a, b, c. It stays accurate
// when the triangle is needle-shaped, which is exactly the geometry at
// the transit contact points.
func kiteAreaSq(a, b, c float64) float64 {
	if a < b {
		a, b = b, a
	}
	if b < c {
		b, c = c, b
	}
	if a < b {
		a, b = b, a
	}
	// Invariant: a >= b >= c.
	return (a + (b + c)) * (c - (a - b)) * (c + (a - b)) * (a + (b - c))
}
