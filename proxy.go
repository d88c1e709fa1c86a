package ikpose

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// JointProxy mirrors the world position of one bone that has at least one
// child. Positions are expressed in the proxy set's space.
type JointProxy struct {
	// Identity
	Index int    // traversal index
	Bone  int    // skeleton bone index
	Name  string // bone name

	// Cached position, refreshed by UpdateOne.
	Position Vec3

	// Interaction flags. They have no geometric effect.
	Targetable   bool
	CanTranslate bool
	Visible      bool

	// EndSite is the optional virtual tip attached by the chain registry.
	EndSite *EndSite
}

// EndSite is a virtual bone tip beyond the owning joint, such as a
// fingertip past the last finger bone. It belongs to the joint, so chains
// that end on the same joint share one EndSite and its settings.
type EndSite struct {
	// Offset is expressed in the owning bone's local frame, so the site
	// follows the bone's rotation.
	Offset      Vec3
	Enabled     bool // authoritative tip of its chain
	Visible     bool
	LinkVisible bool // visual link between the joint and the site
}

// JointProxySet owns one JointProxy per interior bone of a skeleton. Proxy
// indices are the bones' depth-first pre-order traversal indices; leaf
// bones occupy an index but have no proxy.
type JointProxySet struct {
	skel *Skeleton

	order    []int         // traversal index -> bone index
	boneToIx []int         // bone index -> traversal index
	proxies  []*JointProxy // traversal index -> proxy, nil for leaves
	byName   map[string]*JointProxy
	defaults []Vec3 // proxy-space positions at build time

	space     Transform
	spaceInv  mgl64.Mat4
	spaceQuat mgl64.Quat

	visible  bool
	disposed bool
}

// NewJointProxySet traverses skel depth-first from every root, children in
// insertion order, and creates a proxy for every bone with a child. The
// proxy space starts as the identity.
func NewJointProxySet(skel *Skeleton) (*JointProxySet, error) {
	if skel == nil || skel.Len() < 2 {
		return nil, fmt.Errorf("ikpose: joint proxies: skeleton needs at least 2 bones: %w", ErrConfiguration)
	}
	ps := &JointProxySet{
		skel:      skel,
		order:     make([]int, 0, skel.Len()),
		boneToIx:  make([]int, skel.Len()),
		proxies:   make([]*JointProxy, 0, skel.Len()),
		byName:    make(map[string]*JointProxy),
		space:     IdentityTransform(),
		spaceInv:  mgl64.Ident4(),
		spaceQuat: mgl64.QuatIdent(),
		visible:   true,
	}
	var visit func(bone int)
	visit = func(bone int) {
		ix := len(ps.order)
		ps.order = append(ps.order, bone)
		ps.boneToIx[bone] = ix
		var p *JointProxy
		if len(skel.Children(bone)) > 0 {
			b := skel.Bone(bone)
			p = &JointProxy{
				Index:      ix,
				Bone:       bone,
				Name:       b.Name,
				Targetable: true,
				Visible:    true,
			}
			ps.byName[b.Name] = p
		}
		ps.proxies = append(ps.proxies, p)
		for _, c := range skel.Children(bone) {
			visit(c)
		}
	}
	for _, r := range skel.Roots() {
		visit(r)
	}

	ps.Update(true)
	ps.defaults = make([]Vec3, len(ps.proxies))
	for i, p := range ps.proxies {
		if p != nil {
			ps.defaults[i] = p.Position
		}
	}
	return ps, nil
}

// Skeleton returns the tracked skeleton.
func (ps *JointProxySet) Skeleton() *Skeleton {
	return ps.skel
}

// Len returns the number of traversal entries, leaves included.
func (ps *JointProxySet) Len() int {
	return len(ps.proxies)
}

// BoneAt returns the skeleton bone index of traversal entry i.
func (ps *JointProxySet) BoneAt(i int) int {
	return ps.order[i]
}

// TraversalIndex returns the traversal index of skeleton bone b.
func (ps *JointProxySet) TraversalIndex(b int) int {
	return ps.boneToIx[b]
}

// --- Update ---

// SetSpace sets the world transform of the proxy group. Positions are
// expressed relative to it from the next Update.
func (ps *JointProxySet) SetSpace(t Transform) {
	ps.space = t
}

// Space returns the world transform of the proxy group.
func (ps *JointProxySet) Space() Transform {
	return ps.space
}

// SpaceRotation returns the rotation of the proxy space as seen from world.
func (ps *JointProxySet) SpaceRotation() mgl64.Quat {
	return ps.spaceQuat
}

// UpdateOne refreshes the bone's world transform and recomputes the proxy
// position as inverse(space) * boneWorld.
func (ps *JointProxySet) UpdateOne(i int) error {
	p, err := ps.ByIndex(i)
	if err != nil {
		return err
	}
	p.Position = transformPoint(ps.spaceInv, ps.skel.WorldPosition(p.Bone))
	return nil
}

// Update recomputes the inverse space transform once, then refreshes every
// proxy in traversal order. forceRefresh first re-derives every world
// transform of the skeleton, for use after an external pose change.
func (ps *JointProxySet) Update(forceRefresh bool) {
	if ps.disposed {
		return
	}
	if forceRefresh {
		ps.skel.UpdateWorld()
	}
	ps.spaceInv = invertMatrix(ps.space.Matrix())
	ps.spaceQuat = ps.space.Rotation.Normalize()
	for _, p := range ps.proxies {
		if p == nil {
			continue
		}
		p.Position = transformPoint(ps.spaceInv, ps.skel.WorldPosition(p.Bone))
	}
}

// --- Lookup ---

// ByBoneName returns the proxy of the named bone.
func (ps *JointProxySet) ByBoneName(name string) (*JointProxy, error) {
	p, ok := ps.byName[name]
	if !ok {
		return nil, fmt.Errorf("ikpose: joint proxy %q: %w", name, ErrNotFound)
	}
	return p, nil
}

// ByIndex returns the proxy at traversal index i. Leaves have no proxy.
func (ps *JointProxySet) ByIndex(i int) (*JointProxy, error) {
	if i < 0 || i >= len(ps.proxies) || ps.proxies[i] == nil {
		return nil, fmt.Errorf("ikpose: joint proxy #%d: %w", i, ErrNotFound)
	}
	return ps.proxies[i], nil
}

// IndexOf returns the traversal index of the named bone's proxy.
func (ps *JointProxySet) IndexOf(name string) (int, error) {
	p, err := ps.ByBoneName(name)
	if err != nil {
		return -1, err
	}
	return p.Index, nil
}

// Proxies returns every proxy in traversal order, leaves skipped.
func (ps *JointProxySet) Proxies() []*JointProxy {
	out := make([]*JointProxy, 0, len(ps.byName))
	for _, p := range ps.proxies {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// --- Flags ---

// SetVisible shows or hides every proxy.
func (ps *JointProxySet) SetVisible(visible bool) {
	ps.visible = visible
	for _, p := range ps.proxies {
		if p != nil {
			p.Visible = visible
		}
	}
}

// Visible reports the group visibility last set by SetVisible.
func (ps *JointProxySet) Visible() bool {
	return ps.visible
}

// SetDraggable sets the Targetable flag of the named proxies. Known names
// are updated even when some names are unknown; the first unknown name is
// reported.
func (ps *JointProxySet) SetDraggable(names []string, draggable bool) error {
	var firstErr error
	for _, name := range names {
		p, err := ps.ByBoneName(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.Targetable = draggable
	}
	return firstErr
}

// SetCanTranslate sets whether the named proxy may be moved directly.
func (ps *JointProxySet) SetCanTranslate(name string, canTranslate bool) error {
	p, err := ps.ByBoneName(name)
	if err != nil {
		return err
	}
	p.CanTranslate = canTranslate
	return nil
}

// --- Geometry ---

// DefaultPosition returns the proxy position recorded when the set was
// built.
func (ps *JointProxySet) DefaultPosition(i int) (Vec3, error) {
	if _, err := ps.ByIndex(i); err != nil {
		return Vec3{}, err
	}
	return ps.defaults[i], nil
}

// EndSitePosition returns the proxy-space position of proxy i's EndSite, or
// the proxy position when it has none.
func (ps *JointProxySet) EndSitePosition(i int) (Vec3, error) {
	p, err := ps.ByIndex(i)
	if err != nil {
		return Vec3{}, err
	}
	return ps.endSitePosition(p), nil
}

func (ps *JointProxySet) endSitePosition(p *JointProxy) Vec3 {
	if p.EndSite == nil {
		return p.Position
	}
	world := transformPoint(ps.skel.WorldMatrix(p.Bone), p.EndSite.Offset)
	return transformPoint(ps.spaceInv, world)
}

// localOffset converts a proxy-space displacement from proxy p into p's
// bone-local frame.
func (ps *JointProxySet) localOffset(p *JointProxy, diff Vec3) Vec3 {
	world := transformPoint(ps.space.Matrix(), p.Position.Add(diff))
	return transformPoint(invertMatrix(ps.skel.WorldMatrix(p.Bone)), world)
}

// Bounds returns the axis-aligned box around every proxy position.
func (ps *JointProxySet) Bounds() Bounds {
	var b Bounds
	first := true
	for _, p := range ps.proxies {
		if p == nil {
			continue
		}
		if first {
			b = Bounds{Min: p.Position, Max: p.Position}
			first = false
			continue
		}
		for a := 0; a < 3; a++ {
			b.Min[a] = min(b.Min[a], p.Position[a])
			b.Max[a] = max(b.Max[a], p.Position[a])
		}
	}
	return b
}

// --- Disposal ---

// Dispose drops every proxy. The skeleton itself is not disposed.
func (ps *JointProxySet) Dispose() {
	if ps.disposed {
		return
	}
	ps.disposed = true
	for _, p := range ps.proxies {
		if p != nil {
			p.EndSite = nil
		}
	}
	ps.proxies = nil
	ps.byName = nil
	ps.order = nil
	ps.boneToIx = nil
	ps.defaults = nil
	ps.skel = nil
}

// IsDisposed returns true if the set has been disposed.
func (ps *JointProxySet) IsDisposed() bool {
	return ps.disposed
}
