package core

import (
	"math"
	"testing"
)

func mustLimbDark(t *testing.T, u ...float64) *LimbDarkModel {
	t.Helper()
	ld, err := NewLimbDark(u...)
	if err != nil {
		t.Fatalf("NewLimbDark(%v): %v", u, err)
	}
	return ld
}

func TestFluxTrivialBranches(t *testing.T) {
	ld := mustLimbDark(t, 0.4, 0.26)

	if got := ld.Flux(2.0, 0.1); got != 1 {
		t.Errorf("no overlap: got %v, want 1", got)
	}
	if got := ld.Flux(1.1, 0.1); got != 1 {
		t.Errorf("external tangency: got %v, want 1", got)
	}
	if got := ld.Flux(0.5, 0); got != 1 {
		t.Errorf("zero radius: got %v, want 1", got)
	}
	if got := ld.Flux(0.0, 1.5); got != 0 {
		t.Errorf("total eclipse: got %v, want 0", got)
	}
	if got := ld.Flux(0.5, 1.5); got != 0 {
		t.Errorf("total eclipse offset: got %v, want 0", got)
	}
}

func TestFluxUniformDisk(t *testing.T) {
	// With no limb darkening the flux deficit is the overlap area over pi.
	ld := mustLimbDark(t)

	cases := []struct{ b, r float64 }{
		{0, 0.1},
		{0.3, 0.1},
		{0.95, 0.1},
		{1.0, 0.1},
		{0.5, 0.5},
		{0.2, 0.8},
	}
	for _, c := range cases {
		var area float64
		switch {
		case c.b+c.r <= 1:
			area = math.Pi * c.r * c.r
		default:
			d2 := c.b * c.b
			kap0 := math.Acos((d2 + c.r*c.r - 1) / (2 * c.b * c.r))
			kap1 := math.Acos((d2 + 1 - c.r*c.r) / (2 * c.b))
			area = c.r*c.r*kap0 + kap1 -
				0.5*math.Sqrt(math.Max(4*d2-(1+d2-c.r*c.r)*(1+d2-c.r*c.r), 0))
		}
		want := 1 - area/math.Pi
		got := ld.Flux(c.b, c.r)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Flux(%v, %v) = %.15f, want %.15f", c.b, c.r, got, want)
		}
	}
}

func TestFluxConcentric(t *testing.T) {
	// b = 0 has elementary closed forms for each basis term.
	r := 0.1
	onemr2 := 1 - r*r

	lin := mustLimbDark(t, 1.0)
	want := math.Pow(onemr2, 1.5)
	if got := lin.Flux(0, r); math.Abs(got-want) > 1e-12 {
		t.Errorf("linear Flux(0, %v) = %.15f, want %.15f", r, got, want)
	}

	ld := mustLimbDark(t, 0.4, 0.26)
	want = (ld.GN[0]*onemr2 + 2.0/3.0*ld.GN[1]*math.Pow(onemr2, 1.5) -
		2*ld.GN[2]*r*r*onemr2) * math.Pi * ld.Norm
	if got := ld.Flux(0, r); math.Abs(got-want) > 1e-12 {
		t.Errorf("quadratic Flux(0, %v) = %.15f, want %.15f", r, got, want)
	}
}

func TestFluxContinuityAcrossBranches(t *testing.T) {
	ld := mustLimbDark(t, 0.4, 0.26)
	const eps = 1e-7
	const tol = 1e-5

	seams := []struct {
		name string
		b, r float64
	}{
		{"concentric", eps, 0.1},
		{"inner tangency window low", 1 - 0.1 - innerTangentTol, 0.1},
		{"inner tangency window high", 1 - 0.1 + innerTangentTol, 0.1},
		{"outer tangency", 1.1, 0.1},
	}
	for _, s := range seams {
		lo := ld.Flux(math.Max(s.b-eps, 0), s.r)
		hi := ld.Flux(s.b+eps, s.r)
		if math.Abs(hi-lo) > tol {
			t.Errorf("%s: flux jumps %.3e across b = %v (lo %.10f hi %.10f)",
				s.name, hi-lo, s.b, lo, hi)
		}
	}

	// The equal-radii shortcut must agree with the neighboring general
	// branches on both sides of its window.
	for _, r := range []float64{0.2, 0.5, 0.7} {
		at := ld.Flux(r, r)
		out := ld.Flux(r*(1+3*equalRadiiTol), r)
		// The window spans a finite b interval, so allow the physical
		// gradient across it on top of numerical error.
		if math.Abs(at-out) > 1e-3 {
			t.Errorf("equal radii r = %v: window edge jumps %.3e", r, at-out)
		}
	}
}

func TestFluxKRegimes(t *testing.T) {
	// Sweep b across all complementary-modulus regimes and demand a
	// smooth, bounded light curve.
	ld := mustLimbDark(t, 0.4, 0.26)
	r := 0.1

	prev := ld.Flux(0, r)
	for i := 1; i <= 2200; i++ {
		b := float64(i) * 0.0005
		f := ld.Flux(b, r)
		if math.IsNaN(f) || f < 0 || f > 1 {
			t.Fatalf("Flux(%v, %v) = %v out of range", b, r, f)
		}
		if math.Abs(f-prev) > 1e-3 {
			t.Fatalf("Flux jumps %.3e at b = %v", f-prev, b)
		}
		if f < prev-1e-9 && b > r {
			// Egress side of an ingress-only sweep never re-darkens once
			// past the disk center.
			t.Fatalf("flux decreasing at b = %v: %.12f -> %.12f", b, prev, f)
		}
		prev = f
	}
	if prev != 1 {
		t.Errorf("flux after egress = %v, want 1", prev)
	}
}

func TestFluxLargeOcculter(t *testing.T) {
	ld := mustLimbDark(t, 0.4, 0.26)

	// r > 1 occulters pass straight from total eclipse to crossing.
	if got := ld.Flux(0.2, 1.5); got != 0 {
		t.Errorf("interior total eclipse: got %v, want 0", got)
	}
	f := ld.Flux(1.0, 1.5)
	if math.IsNaN(f) || f <= 0 || f >= 1 {
		t.Errorf("partial giant occulter: got %v, want in (0, 1)", f)
	}
}

func TestFluxCoefficientDegradation(t *testing.T) {
	uniform := mustLimbDark(t)
	linear := mustLimbDark(t, 0.4)
	quad := mustLimbDark(t, 0.4, 0.0)

	// A zero quadratic coefficient matches the linear model.
	for _, b := range []float64{0, 0.3, 0.95, 1.05} {
		gl := linear.Flux(b, 0.1)
		gq := quad.Flux(b, 0.1)
		if math.Abs(gl-gq) > 1e-12 {
			t.Errorf("Flux(%v, 0.1): linear %.15f != quad(u2=0) %.15f", b, gl, gq)
		}
	}

	// And zero coefficients overall match the uniform disk.
	zq := mustLimbDark(t, 0.0, 0.0)
	for _, b := range []float64{0, 0.3, 0.95, 1.05} {
		gu := uniform.Flux(b, 0.1)
		gz := zq.Flux(b, 0.1)
		if math.Abs(gu-gz) > 1e-12 {
			t.Errorf("Flux(%v, 0.1): uniform %.15f != quad(0,0) %.15f", b, gu, gz)
		}
	}
}

func TestFluxDepthMatchesSmallPlanet(t *testing.T) {
	// For a tiny planet at disk center, the depth approaches
	// r^2 * I(0) / I0 with I(0) the central surface brightness.
	u1, u2 := 0.4, 0.26
	ld := mustLimbDark(t, u1, u2)
	r := 1e-3

	norm := 1 - u1/3 - u2/6
	want := r * r / norm
	got := 1 - ld.Flux(0, r)
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("central depth = %.12e, want %.12e", got, want)
	}
}
