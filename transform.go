package ikpose

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a decomposed affine transform: translate, then rotate, then
// scale. Use IdentityTransform for a neutral value; the zero Transform has a
// zero scale and is singular.
type Transform struct {
	Position Vec3
	Rotation mgl64.Quat
	Scale    Vec3
}

// IdentityTransform returns a transform with no translation, no rotation and
// unit scale.
func IdentityTransform() Transform {
	return Transform{Rotation: mgl64.QuatIdent(), Scale: Vec3{1, 1, 1}}
}

// Matrix composes the transform into a 4x4 matrix.
//
// Composition order:
//
//	Scale -> Rotate -> Translate
func (t Transform) Matrix() mgl64.Mat4 {
	return composeMatrix(t.Position, t.Rotation, t.Scale)
}

func composeMatrix(pos Vec3, rot mgl64.Quat, scale Vec3) mgl64.Mat4 {
	m := mgl64.Translate3D(pos[0], pos[1], pos[2])
	m = m.Mul4(rot.Normalize().Mat4())
	return m.Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// computeLocalMatrix computes a bone's local matrix from its translation,
// Euler rotation and scale.
func computeLocalMatrix(b *Bone) mgl64.Mat4 {
	return composeMatrix(b.Position, b.Rotation.Quat(), b.Scale)
}

// invertMatrix inverts m. Returns the identity matrix if m is singular.
func invertMatrix(m mgl64.Mat4) mgl64.Mat4 {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return mgl64.Ident4()
	}
	return m.Inv()
}

// transformPoint applies m to the point p.
func transformPoint(m mgl64.Mat4, p Vec3) Vec3 {
	return mgl64.TransformCoordinate(p, m)
}

// matrixTranslation returns the translation column of m.
func matrixTranslation(m mgl64.Mat4) Vec3 {
	return m.Col(3).Vec3()
}

// vecNear reports whether a and b are within eps on every axis.
func vecNear(a, b Vec3, eps float64) bool {
	return math.Abs(a[0]-b[0]) <= eps &&
		math.Abs(a[1]-b[1]) <= eps &&
		math.Abs(a[2]-b[2]) <= eps
}
