package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Rigid transforms are carried around as a (translation, rotation quaternion)
// pair; composition goes through unit dual quaternions, inversion and point
// transforms through quaternion rotation.

// NewDualQuaternion packs a translation and a unit rotation quaternion into a
// unit dual quaternion.
func NewDualQuaternion(loc r3.Vector, ori quat.Number) dualquat.Number {
	q := dualquat.Number{Real: ori}
	q.Dual = quat.Mul(quat.Number{Imag: loc.X / 2, Jmag: loc.Y / 2, Kmag: loc.Z / 2}, ori)
	return q
}

// DualQuaternionTranslation extracts the translation of a unit dual
// quaternion by multiplying it with its own conjugate.
func DualQuaternionTranslation(q dualquat.Number) r3.Vector {
	t := dualquat.Mul(q, dualquat.Conj(q)).Dual
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Compose returns the transform applying (loc2, ori2) first and then
// (loc1, ori1).
func Compose(loc1 r3.Vector, ori1 quat.Number, loc2 r3.Vector, ori2 quat.Number) (r3.Vector, quat.Number) {
	q := dualquat.Mul(NewDualQuaternion(loc1, ori1), NewDualQuaternion(loc2, ori2))
	q.Real = Normalize(q.Real)
	return DualQuaternionTranslation(q), q.Real
}

// Invert returns the inverse rigid transform.
func Invert(loc r3.Vector, ori quat.Number) (r3.Vector, quat.Number) {
	inv := quat.Conj(ori)
	return RotateVector(inv, loc.Mul(-1)), inv
}

// TransformPoint applies the rigid transform (loc, ori) to point p.
func TransformPoint(loc r3.Vector, ori quat.Number, p r3.Vector) r3.Vector {
	return RotateVector(ori, p).Add(loc)
}
