package ikpose

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Euler is a rotation expressed as three angles in radians applied in Order.
type Euler struct {
	X, Y, Z float64
	Order   RotationOrder
}

// EulerDegrees builds an XYZ Euler from angles given in degrees.
func EulerDegrees(x, y, z float64) Euler {
	return Euler{X: mgl64.DegToRad(x), Y: mgl64.DegToRad(y), Z: mgl64.DegToRad(z)}
}

// Degrees returns the three angles in degrees.
func (e Euler) Degrees() Vec3 {
	return Vec3{mgl64.RadToDeg(e.X), mgl64.RadToDeg(e.Y), mgl64.RadToDeg(e.Z)}
}

// Axis returns the angle of axis i (0=X, 1=Y, 2=Z).
func (e Euler) Axis(i int) float64 {
	switch i {
	case 0:
		return e.X
	case 1:
		return e.Y
	default:
		return e.Z
	}
}

// IsNaN reports whether any angle is NaN.
func (e Euler) IsNaN() bool {
	return math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsNaN(e.Z)
}

// IsFinite reports whether every angle is neither NaN nor infinite.
func (e Euler) IsFinite() bool {
	for _, v := range [3]float64{e.X, e.Y, e.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Quat converts the Euler triple to a unit quaternion.
func (e Euler) Quat() mgl64.Quat {
	qx := mgl64.QuatRotate(e.X, Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(e.Y, Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(e.Z, Vec3{0, 0, 1})
	switch e.Order {
	case OrderXZY:
		return qx.Mul(qz).Mul(qy)
	case OrderYXZ:
		return qy.Mul(qx).Mul(qz)
	case OrderYZX:
		return qy.Mul(qz).Mul(qx)
	case OrderZXY:
		return qz.Mul(qx).Mul(qy)
	case OrderZYX:
		return qz.Mul(qy).Mul(qx)
	default:
		return qx.Mul(qy).Mul(qz)
	}
}

// rotationMatrix is a row-major 3x3 rotation matrix; m[r][c].
type rotationMatrix [3][3]float64

func quatMatrix(q mgl64.Quat) rotationMatrix {
	q = q.Normalize()
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	return rotationMatrix{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// gimbalLockThreshold is the |sin| above which the middle axis is treated
// as locked and the third angle is folded into the first.
const gimbalLockThreshold = 0.9999999

// EulerFromQuat decomposes q into angles for the given order.
func EulerFromQuat(q mgl64.Quat, order RotationOrder) Euler {
	m := quatMatrix(q)
	m11, m12, m13 := m[0][0], m[0][1], m[0][2]
	m21, m22, m23 := m[1][0], m[1][1], m[1][2]
	m31, m32, m33 := m[2][0], m[2][1], m[2][2]

	e := Euler{Order: order}
	switch order {
	case OrderXZY:
		e.Z = math.Asin(-mgl64.Clamp(m12, -1, 1))
		if math.Abs(m12) < gimbalLockThreshold {
			e.X = math.Atan2(m32, m22)
			e.Y = math.Atan2(m13, m11)
		} else {
			e.X = math.Atan2(-m23, m33)
		}
	case OrderYXZ:
		e.X = math.Asin(-mgl64.Clamp(m23, -1, 1))
		if math.Abs(m23) < gimbalLockThreshold {
			e.Y = math.Atan2(m13, m33)
			e.Z = math.Atan2(m21, m22)
		} else {
			e.Y = math.Atan2(-m31, m11)
		}
	case OrderYZX:
		e.Z = math.Asin(mgl64.Clamp(m21, -1, 1))
		if math.Abs(m21) < gimbalLockThreshold {
			e.X = math.Atan2(-m23, m22)
			e.Y = math.Atan2(-m31, m11)
		} else {
			e.Y = math.Atan2(m13, m33)
		}
	case OrderZXY:
		e.X = math.Asin(mgl64.Clamp(m32, -1, 1))
		if math.Abs(m32) < gimbalLockThreshold {
			e.Y = math.Atan2(-m31, m33)
			e.Z = math.Atan2(-m12, m22)
		} else {
			e.Z = math.Atan2(m21, m11)
		}
	case OrderZYX:
		e.Y = math.Asin(-mgl64.Clamp(m31, -1, 1))
		if math.Abs(m31) < gimbalLockThreshold {
			e.X = math.Atan2(m32, m33)
			e.Z = math.Atan2(m21, m11)
		} else {
			e.Z = math.Atan2(-m12, m22)
		}
	default:
		e.Y = math.Asin(mgl64.Clamp(m13, -1, 1))
		if math.Abs(m13) < gimbalLockThreshold {
			e.X = math.Atan2(-m23, m33)
			e.Z = math.Atan2(-m12, m11)
		} else {
			e.X = math.Atan2(m32, m22)
		}
	}
	return e
}

// --- Angle helpers ---

var (
	d180 = math.Pi
	d160 = mgl64.DegToRad(160)
)

// isD180 reports whether r is exactly plus or minus 180 degrees.
func isD180(r float64) bool {
	return r == d180 || r == -d180
}

// wrapDegrees folds d into (-180, 180]. Non-finite input gives NaN.
func wrapDegrees(d float64) float64 {
	d = math.Remainder(d, 360)
	if d <= -180 {
		d += 360
	}
	return d
}

// wrapRadians folds r into [-Pi, Pi]. Exact -Pi is kept so isD180 can see
// it. Non-finite input gives NaN.
func wrapRadians(r float64) float64 {
	return math.Remainder(r, 2*math.Pi)
}

// ikSafeRotation remaps a rotation that sits on the ±180 degree
// singularity, or whose twist (Z) is past ±160 degrees, to an equivalent
// XYZ triple further from it. Best-effort: the remap is one of several
// equivalent triples and is only exact for XYZ order.
func ikSafeRotation(e Euler) Euler {
	switch {
	case isD180(e.X) && isD180(e.Z):
		r := mgl64.RadToDeg(e.Y)
		if r > 0 {
			r = 180 - r
		} else {
			r = -180 - r
		}
		return Euler{X: 0, Y: mgl64.DegToRad(r), Z: 0, Order: e.Order}
	case e.Z > d160:
		x := d180 + e.X
		if e.X > 0 {
			x = -d180 + e.X
		}
		y := -d180 - e.Y
		if e.Y > 0 {
			y = d180 - e.Y
		}
		return Euler{X: x, Y: y, Z: e.Z - d180, Order: e.Order}
	case e.Z < -d160:
		x := e.X + d180
		if e.X > 0 {
			x = e.X - d180
		}
		y := -d180 - e.Y
		if e.Y > 0 {
			y = d180 - e.Y
		}
		return Euler{X: x, Y: y, Z: e.Z + d180, Order: e.Order}
	}
	return e
}
