package engine

import "math"

// Matrix2D is a 2x2 linear map on (east, north) kilometre offsets from a
// rectangle's center, stored row-major:
//
//	| m[0]  m[1] |
//	| m[2]  m[3] |
//
// Domain frames only ever rotate, so no translation column is kept.
type Matrix2D [4]float64

func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1}
}

// RotateClockwiseDegrees returns the rotation of a rectangle's own frame
// into ground axes: a positive angle turns north towards east. At 90
// degrees the local y axis (0, 1) lands on east (1, 0).
func RotateClockwiseDegrees(degrees float64) Matrix2D {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Matrix2D{cos, sin, -sin, cos}
}

// Apply maps a local offset to ground axes.
func (m Matrix2D) Apply(x, y float64) (east, north float64) {
	return m[0]*x + m[1]*y, m[2]*x + m[3]*y
}

func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Inverse returns the inverse map, or Identity when m is singular.
func (m Matrix2D) Inverse() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}
	return Matrix2D{m[3] / det, -m[1] / det, -m[2] / det, m[0] / det}
}
