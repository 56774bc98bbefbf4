// Package spatialmath defines spatial mathematical operations for rigid-body
// poses: quaternion utilities, SE(3) transforms, triangles and meshes, and
// the small dense linear algebra the rest of the library needs.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// QuaternionTol is the tolerance within which a quaternion or direction must
// be normalized.
const QuaternionTol = 1e-9

// Norm returns the norm of the imaginary part of the quaternion, i.e. the
// sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize scales a quaternion to unit length.
func Normalize(q quat.Number) quat.Number {
	length := quat.Abs(q)
	if length == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/length, q)
}

// Flip multiplies a quaternion by -1. The result represents the same
// rotation in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Canonicalize returns the sign-canonical representative of {q, -q}: the one
// with a positive scalar part, breaking ties toward a positive first nonzero
// imaginary component.
func Canonicalize(q quat.Number) quat.Number {
	if q.Real < 0 {
		return Flip(q)
	}
	if q.Real == 0 {
		if q.Imag < 0 || (q.Imag == 0 && (q.Jmag < 0 || (q.Jmag == 0 && q.Kmag < 0))) {
			return Flip(q)
		}
	}
	return q
}

// Dot returns the 4-dimensional dot product of two quaternions.
func Dot(q1, q2 quat.Number) float64 {
	return q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
}

// AngleBetween returns the geodesic distance on SO(3) between the rotations
// q1 and q2, in radians, treating q and -q as the same rotation.
func AngleBetween(q1, q2 quat.Number) float64 {
	d := math.Abs(Dot(q1, q2))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// QuatFromAxisAngle builds the quaternion rotating by theta radians about the
// given axis. The axis need not be normalized.
func QuatFromAxisAngle(axis r3.Vector, theta float64) quat.Number {
	n := axis.Norm()
	if n == 0 {
		return quat.Number{Real: 1}
	}
	s, c := math.Sincos(theta / 2)
	u := axis.Mul(s / n)
	return quat.Number{Real: c, Imag: u.X, Jmag: u.Y, Kmag: u.Z}
}

// QuatExp is the exponential map from a rotation vector (axis scaled by
// angle, in radians) to a unit quaternion.
func QuatExp(w r3.Vector) quat.Number {
	theta := w.Norm()
	if theta < QuaternionTol {
		return Normalize(quat.Number{Real: 1, Imag: w.X / 2, Jmag: w.Y / 2, Kmag: w.Z / 2})
	}
	s, c := math.Sincos(theta / 2)
	u := w.Mul(s / theta)
	return quat.Number{Real: c, Imag: u.X, Jmag: u.Y, Kmag: u.Z}
}

// QuatLog is the logarithmic map from a unit quaternion to a rotation vector.
// Inverse of QuatExp for angles in [0, pi].
func QuatLog(q quat.Number) r3.Vector {
	q = Canonicalize(q)
	imagNorm := Norm(q)
	if imagNorm < QuaternionTol {
		return r3.Vector{X: 2 * q.Imag, Y: 2 * q.Jmag, Z: 2 * q.Kmag}
	}
	theta := 2 * math.Atan2(imagNorm, q.Real)
	scale := theta / imagNorm
	return r3.Vector{X: q.Imag * scale, Y: q.Jmag * scale, Z: q.Kmag * scale}
}

// Slerp spherically interpolates between q1 and q2. t=0 gives q1, t=1 gives
// the representative of q2 on the same hemisphere as q1.
func Slerp(q1, q2 quat.Number, t float64) quat.Number {
	d := Dot(q1, q2)
	if d < 0 {
		q2 = Flip(q2)
		d = -d
	}
	if d > 1-QuaternionTol {
		// Nearly parallel, fall back to a normalized lerp.
		return Normalize(quat.Add(quat.Scale(1-t, q1), quat.Scale(t, q2)))
	}
	theta := math.Acos(d)
	sinTheta := math.Sin(theta)
	a := math.Sin((1-t)*theta) / sinTheta
	b := math.Sin(t*theta) / sinTheta
	return quat.Add(quat.Scale(a, q1), quat.Scale(b, q2))
}

// OrthonormalBasis returns two unit vectors completing w (assumed unit) to a
// right-handed frame (w, u, v). The choice is deterministic in w.
func OrthonormalBasis(w r3.Vector) (r3.Vector, r3.Vector) {
	ref := r3.Vector{X: 1}
	if math.Abs(w.X) > math.Abs(w.Y) {
		ref = r3.Vector{Y: 1}
	}
	u := w.Cross(ref).Normalize()
	v := w.Cross(u)
	return u, v
}

// QuatFromRotationMatrix converts a right-handed rotation matrix given by its
// column vectors into a unit quaternion (Shepperd's method).
func QuatFromRotationMatrix(c0, c1, c2 r3.Vector) quat.Number {
	m00, m01, m02 := c0.X, c1.X, c2.X
	m10, m11, m12 := c0.Y, c1.Y, c2.Y
	m20, m21, m22 := c0.Z, c1.Z, c2.Z
	trace := m00 + m11 + m22
	var q quat.Number
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	return Canonicalize(Normalize(q))
}
