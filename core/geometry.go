package core

import "math"

// Vec3 is a relative position on the sky in units of the stellar radius.
// The observer sits on the +Z axis: positive Z means the body is in front
// of the star, X and Y span the plane of the sky.
type Vec3 struct {
	X, Y, Z float64
}

// ProjectedSeparation returns the center-to-center separation projected
// onto the sky plane.
func (v Vec3) ProjectedSeparation() float64 {
	return math.Hypot(v.X, v.Y)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Neg returns the vector pointing the opposite way.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// InFront reports whether the body sits between the star and the observer,
// which is the precondition for it to occult the stellar disk.
func (v Vec3) InFront() bool {
	return v.Z > 0
}
