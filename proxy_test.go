package ikpose

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newForkSkeleton builds
//
//	a ─┬─ b ── d
//	   └─ c ── e
//
// with bones inserted as a, b, c, d, e.
func newForkSkeleton() *Skeleton {
	s := NewSkeleton()
	a := s.MustAddBone("a", -1, Vec3{})
	b := s.MustAddBone("b", a, Vec3{0, 1, 0})
	c := s.MustAddBone("c", a, Vec3{1, 0, 0})
	s.MustAddBone("d", b, Vec3{0, 1, 0})
	s.MustAddBone("e", c, Vec3{1, 0, 0})
	return s
}

func TestNewJointProxySetTooSmall(t *testing.T) {
	s := NewSkeleton()
	s.MustAddBone("only", -1, Vec3{})
	_, err := NewJointProxySet(s)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewJointProxySet(nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestJointProxySetTraversalOrder(t *testing.T) {
	ps, err := NewJointProxySet(newForkSkeleton())
	require.NoError(t, err)

	// Depth-first pre-order: a, b, d, c, e.
	assert.Equal(t, 5, ps.Len())
	wantBones := []string{"a", "b", "d", "c", "e"}
	for i, name := range wantBones {
		assert.Equal(t, name, ps.Skeleton().Bone(ps.BoneAt(i)).Name, "traversal %d", i)
	}

	var names []string
	for _, p := range ps.Proxies() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names, "leaves have no proxy")

	ix, err := ps.IndexOf("c")
	require.NoError(t, err)
	assert.Equal(t, 3, ix)
	cBone, _ := ps.Skeleton().BoneIndex("c")
	assert.Equal(t, 3, ps.TraversalIndex(cBone))

	_, err = ps.ByIndex(2) // d is a leaf
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ps.ByIndex(99)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ps.ByBoneName("e")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJointProxyDefaults(t *testing.T) {
	ps, err := NewJointProxySet(newForkSkeleton())
	require.NoError(t, err)

	p, err := ps.ByBoneName("b")
	require.NoError(t, err)
	assert.True(t, p.Targetable)
	assert.True(t, p.Visible)
	assert.False(t, p.CanTranslate)
	assert.Nil(t, p.EndSite)
	assertVec(t, "b", p.Position, Vec3{0, 1, 0})
}

func TestJointProxyUpdateOne(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	skel.SetRotation(0, EulerDegrees(0, 0, -90))
	c, _ := ps.ByBoneName("c")
	assertVec(t, "stale", c.Position, Vec3{1, 0, 0})

	require.NoError(t, ps.UpdateOne(c.Index))
	assertVec(t, "refreshed", c.Position, Vec3{0, -1, 0})

	assert.ErrorIs(t, ps.UpdateOne(4), ErrNotFound)
}

func TestJointProxySpace(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	space := IdentityTransform()
	space.Position = Vec3{0, 1, 0}
	space.Rotation = mgl64.QuatRotate(mgl64.DegToRad(90), Vec3{0, 0, 1})
	ps.SetSpace(space)
	ps.Update(false)

	b, _ := ps.ByBoneName("b")
	c, _ := ps.ByBoneName("c")
	// b sits at the space origin; c at world (1,0,0) is (1,-1,0) from it,
	// which the inverse Rz(90) turns into (-1,-1,0).
	assertVec(t, "b", b.Position, Vec3{0, 0, 0})
	assertVec(t, "c", c.Position, Vec3{-1, -1, 0})
	assert.True(t, ps.SpaceRotation().ApproxEqualThreshold(space.Rotation, epsilon))
}

func TestJointProxyForceRefresh(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	// Change a bone behind the setters' back; only a forced update sees it.
	skel.Bone(0).Position = Vec3{0, 0, 5}
	ps.Update(false)
	a, _ := ps.ByBoneName("a")
	assertVec(t, "unforced", a.Position, Vec3{})

	ps.Update(true)
	assertVec(t, "forced", a.Position, Vec3{0, 0, 5})
}

func TestJointProxyDefaultPosition(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	skel.SetRotation(0, EulerDegrees(0, 0, 90))
	ps.Update(false)

	ix, _ := ps.IndexOf("c")
	def, err := ps.DefaultPosition(ix)
	require.NoError(t, err)
	assertVec(t, "default", def, Vec3{1, 0, 0})

	_, err = ps.DefaultPosition(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJointProxyEndSitePosition(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	ix, _ := ps.IndexOf("c")
	got, err := ps.EndSitePosition(ix)
	require.NoError(t, err)
	assertVec(t, "no site", got, Vec3{1, 0, 0})

	c, _ := ps.ByIndex(ix)
	c.EndSite = &EndSite{Offset: Vec3{0, 0.5, 0}}
	skel.SetRotation(2, EulerDegrees(0, 0, -90))
	ps.Update(false)
	got, _ = ps.EndSitePosition(ix)
	// The offset turns with c: (0,0.5,0) under Rz(-90) is (0.5,0,0).
	assertVec(t, "rotated site", got, Vec3{1.5, 0, 0})
}

func TestJointProxyLocalOffset(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	skel.SetRotation(2, EulerDegrees(0, 0, 90))
	ps.Update(false)
	c, _ := ps.ByBoneName("c")
	// A world +x displacement is -y in a frame turned 90 degrees about z.
	assertVec(t, "offset", ps.localOffset(c, Vec3{1, 0, 0}), Vec3{0, -1, 0})
}

func TestJointProxyFlags(t *testing.T) {
	ps, err := NewJointProxySet(newForkSkeleton())
	require.NoError(t, err)

	err = ps.SetDraggable([]string{"a", "nope", "c"}, false)
	assert.ErrorIs(t, err, ErrNotFound)
	a, _ := ps.ByBoneName("a")
	c, _ := ps.ByBoneName("c")
	assert.False(t, a.Targetable, "known names are still updated")
	assert.False(t, c.Targetable)

	require.NoError(t, ps.SetCanTranslate("a", true))
	assert.True(t, a.CanTranslate)
	assert.ErrorIs(t, ps.SetCanTranslate("d", true), ErrNotFound)

	ps.SetVisible(false)
	assert.False(t, ps.Visible())
	for _, p := range ps.Proxies() {
		assert.False(t, p.Visible, p.Name)
	}
}

func TestJointProxyBounds(t *testing.T) {
	ps, err := NewJointProxySet(newForkSkeleton())
	require.NoError(t, err)

	b := ps.Bounds()
	assertVec(t, "min", b.Min, Vec3{0, 0, 0})
	assertVec(t, "max", b.Max, Vec3{1, 1, 0})
	assert.True(t, b.Contains(Vec3{0.5, 0.5, 0}))
	assert.False(t, b.Contains(Vec3{0.5, 0.5, 0.1}))
}

func TestJointProxySetDispose(t *testing.T) {
	skel := newForkSkeleton()
	ps, err := NewJointProxySet(skel)
	require.NoError(t, err)

	ps.Dispose()
	assert.True(t, ps.IsDisposed())
	assert.Equal(t, 0, ps.Len())
	assert.Nil(t, ps.Skeleton())
	assert.False(t, skel.IsDisposed(), "skeleton belongs to the caller")
	ps.Update(true) // no-op after dispose
}
