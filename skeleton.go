package ikpose

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

// Bone is one entry of a Skeleton arena. Bones refer to their parent by
// index; -1 marks a root.
type Bone struct {
	Name   string
	Parent int

	// Transform (local)
	Position Vec3
	Rotation Euler
	Scale    Vec3

	// Computed, refreshed lazily when transformDirty is set.
	world          mgl64.Mat4
	worldQuat      mgl64.Quat
	transformDirty bool

	children []int
}

// Skeleton is an index-stable bone arena plus the model transform that
// parents its root bones. It is not safe for concurrent use.
type Skeleton struct {
	bones  []Bone
	byName map[string]int
	roots  []int

	model     Transform
	modelMat  mgl64.Mat4
	modelQuat mgl64.Quat

	log      zerolog.Logger
	debug    bool
	disposed bool
}

// NewSkeleton creates an empty skeleton with an identity model transform.
func NewSkeleton() *Skeleton {
	return &Skeleton{
		byName:    make(map[string]int),
		model:     IdentityTransform(),
		modelMat:  mgl64.Ident4(),
		modelQuat: mgl64.QuatIdent(),
		log:       zerolog.Nop(),
	}
}

// SetLogger sets the logger used for debug checks.
func (s *Skeleton) SetLogger(l zerolog.Logger) {
	s.log = l
}

// SetDebug enables the tree depth and child count checks on AddBone.
func (s *Skeleton) SetDebug(enabled bool) {
	s.debug = enabled
}

// AddBone appends a bone under parent (-1 for a root) at the given local
// position and returns its index. Names must be unique and the parent must
// already exist, so the arena is always a forest in insertion order.
func (s *Skeleton) AddBone(name string, parent int, position Vec3) (int, error) {
	if s.disposed {
		return -1, fmt.Errorf("ikpose: add bone %q: skeleton disposed: %w", name, ErrInvalidState)
	}
	if name == "" {
		return -1, fmt.Errorf("ikpose: add bone: empty name: %w", ErrConfiguration)
	}
	if _, dup := s.byName[name]; dup {
		return -1, fmt.Errorf("ikpose: add bone %q: duplicate name: %w", name, ErrConfiguration)
	}
	if parent < -1 || parent >= len(s.bones) {
		return -1, fmt.Errorf("ikpose: add bone %q: parent %d: %w", name, parent, ErrConfiguration)
	}
	idx := len(s.bones)
	s.bones = append(s.bones, Bone{
		Name:           name,
		Parent:         parent,
		Position:       position,
		Scale:          Vec3{1, 1, 1},
		transformDirty: true,
	})
	s.byName[name] = idx
	if parent < 0 {
		s.roots = append(s.roots, idx)
	} else {
		s.bones[parent].children = append(s.bones[parent].children, idx)
	}
	if s.debug {
		s.debugCheckTreeDepth(idx)
		if parent >= 0 {
			s.debugCheckChildCount(parent)
		}
	}
	return idx, nil
}

// MustAddBone is like AddBone but panics on error. Intended for fixtures and
// procedurally built rigs.
func (s *Skeleton) MustAddBone(name string, parent int, position Vec3) int {
	idx, err := s.AddBone(name, parent, position)
	if err != nil {
		panic(err)
	}
	return idx
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.bones)
}

// Bone returns the bone at index i. The returned pointer MUST NOT be used to
// change transforms directly; use the setters so world caches stay valid.
func (s *Skeleton) Bone(i int) *Bone {
	return &s.bones[i]
}

// BoneIndex returns the index of the named bone.
func (s *Skeleton) BoneIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// Roots returns the root bone indices in insertion order. The returned slice
// MUST NOT be mutated by the caller.
func (s *Skeleton) Roots() []int {
	return s.roots
}

// Children returns the child indices of bone i in insertion order. The
// returned slice MUST NOT be mutated by the caller.
func (s *Skeleton) Children(i int) []int {
	return s.bones[i].children
}

// --- Transform property setters ---

// Rotation returns the local rotation of bone i.
func (s *Skeleton) Rotation(i int) Euler {
	return s.bones[i].Rotation
}

// SetRotation sets the local rotation of bone i and marks its subtree dirty.
// The bone keeps its own rotation order; e.Order is ignored.
func (s *Skeleton) SetRotation(i int, e Euler) {
	b := &s.bones[i]
	e.Order = b.Rotation.Order
	if b.Rotation == e {
		return
	}
	b.Rotation = e
	s.markSubtreeDirty(i)
}

// SetRotationOrder changes the Euler order of bone i, keeping the angles.
func (s *Skeleton) SetRotationOrder(i int, order RotationOrder) {
	s.bones[i].Rotation.Order = order
	s.markSubtreeDirty(i)
}

// SetPosition sets the local translation of bone i.
func (s *Skeleton) SetPosition(i int, p Vec3) {
	s.bones[i].Position = p
	s.markSubtreeDirty(i)
}

// SetScale sets the local scale of bone i.
func (s *Skeleton) SetScale(i int, scale Vec3) {
	s.bones[i].Scale = scale
	s.markSubtreeDirty(i)
}

// ModelTransform returns the transform that parents every root bone.
func (s *Skeleton) ModelTransform() Transform {
	return s.model
}

// SetModelTransform sets the transform that parents every root bone.
func (s *Skeleton) SetModelTransform(t Transform) {
	s.model = t
	s.modelMat = t.Matrix()
	s.modelQuat = t.Rotation.Normalize()
	for _, r := range s.roots {
		s.markSubtreeDirty(r)
	}
}

// --- World transforms ---

// WorldMatrix returns the world matrix of bone i, recomputing it and any
// dirty ancestors first.
func (s *Skeleton) WorldMatrix(i int) mgl64.Mat4 {
	s.ensureWorld(i)
	return s.bones[i].world
}

// WorldQuat returns the world rotation of bone i. Scale is assumed uniform.
func (s *Skeleton) WorldQuat(i int) mgl64.Quat {
	s.ensureWorld(i)
	return s.bones[i].worldQuat
}

// WorldPosition returns the world-space origin of bone i.
func (s *Skeleton) WorldPosition(i int) Vec3 {
	return matrixTranslation(s.WorldMatrix(i))
}

// ParentWorldQuat returns the world rotation of bone i's parent, or the
// model rotation for a root bone.
func (s *Skeleton) ParentWorldQuat(i int) mgl64.Quat {
	if p := s.bones[i].Parent; p >= 0 {
		return s.WorldQuat(p)
	}
	return s.modelQuat
}

// UpdateWorld marks every bone dirty and re-derives all world transforms
// top-down. Call it after changing bones behind the setters' back.
func (s *Skeleton) UpdateWorld() {
	for _, r := range s.roots {
		s.markSubtreeDirty(r)
	}
	for i := range s.bones {
		s.ensureWorld(i)
	}
}

func (s *Skeleton) ensureWorld(i int) {
	b := &s.bones[i]
	if !b.transformDirty {
		return
	}
	parentMat, parentQuat := s.modelMat, s.modelQuat
	if b.Parent >= 0 {
		s.ensureWorld(b.Parent)
		p := &s.bones[b.Parent]
		parentMat, parentQuat = p.world, p.worldQuat
	}
	b.world = parentMat.Mul4(computeLocalMatrix(b))
	b.worldQuat = parentQuat.Mul(b.Rotation.Quat()).Normalize()
	b.transformDirty = false
}

// markSubtreeDirty sets transformDirty on bone i and all its descendants.
func (s *Skeleton) markSubtreeDirty(i int) {
	b := &s.bones[i]
	b.transformDirty = true
	for _, c := range b.children {
		s.markSubtreeDirty(c)
	}
}

// --- Disposal ---

// Dispose releases the arena. Any JointProxySet or registry built on the
// skeleton must be disposed first.
func (s *Skeleton) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.bones = nil
	s.byName = nil
	s.roots = nil
}

// IsDisposed returns true if the skeleton has been disposed.
func (s *Skeleton) IsDisposed() bool {
	return s.disposed
}
