// Package world holds the small, dependency-light vector/angle/time types
// shared by every other package (mirrors how the teacher's world package
// centralizes Vec2f/Angle/Ticks for its 2-D game; this one is 3-D because
// the voxel world is volumetric, not top-down).
package world

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a position or velocity in world space, Y-up.
type Vec3 = mgl32.Vec3

// XZ returns the horizontal components of v.
func XZ(v Vec3) (x, z float32) {
	return v[0], v[2]
}

// WithXZ returns v with its horizontal components replaced.
func WithXZ(v Vec3, x, z float32) Vec3 {
	v[0], v[2] = x, z
	return v
}

// HorizontalLength returns the length of v's XZ projection.
func HorizontalLength(v Vec3) float32 {
	return math32.Hypot(v[0], v[2])
}

// RotateYawXZ rotates the XZ pair (x, z) by yaw radians around the Y axis,
// matching the convention that yaw=0 faces -Z (the teacher's Angle.Vec2f
// rotates the same way around its single up axis).
func RotateYawXZ(x, z, yaw float32) (rx, rz float32) {
	sin, cos := math32.Sincos(yaw)
	rx = x*cos - z*sin
	rz = x*sin + z*cos
	return
}

// Finite reports whether every component of v is a finite, non-NaN number.
func Finite(v Vec3) bool {
	return FiniteF(v[0]) && FiniteF(v[1]) && FiniteF(v[2])
}

// FiniteF reports whether f is a finite, non-NaN number.
func FiniteF(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

// Clamp clamps f to [lo, hi].
func Clamp(f, lo, hi float32) float32 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
