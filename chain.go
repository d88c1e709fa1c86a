package ikpose

import (
	"fmt"
	"maps"

	"github.com/rs/zerolog"
)

const (
	defaultIterations = 25
	defaultMaxAngle   = 1.0 // degrees per step
)

// Target is the freestanding point a chain is solved toward. It is owned by
// its chain and disposed with it.
type Target struct {
	Position Vec3
	Visible  bool

	chain    string
	disposed bool
}

// Chain returns the name of the owning chain.
func (t *Target) Chain() string {
	return t.chain
}

// Dispose detaches the target from its chain.
func (t *Target) Dispose() {
	t.disposed = true
	t.Visible = false
}

// IsDisposed returns true if the target has been disposed.
func (t *Target) IsDisposed() bool {
	return t.disposed
}

// Limit is a per-bone rotation box in degrees. Min == Max on an axis locks
// that axis.
type Limit struct {
	Min, Max Vec3
}

// Contains reports whether every axis of deg lies in the box.
func (l Limit) Contains(deg Vec3) bool {
	return Bounds(l).Contains(deg)
}

// Clamp clamps every axis of deg into the box.
func (l Limit) Clamp(deg Vec3) Vec3 {
	for a := 0; a < 3; a++ {
		deg[a] = min(max(deg[a], l.Min[a]), l.Max[a])
	}
	return deg
}

// Chain is a named list of joints solved together toward one target.
type Chain struct {
	Name       string
	Joints     []int // proxy traversal indices, root to tip
	Target     *Target
	Iterations int
	MaxAngle   float64 // degrees per step

	lastTarget Vec3
	hasLast    bool
}

// Tip returns the traversal index of the last joint.
func (c *Chain) Tip() int {
	return c.Joints[len(c.Joints)-1]
}

// Registry owns every named chain of one skeleton together with the
// per-bone tables the solver reads: limits, speed ratios and locks. Bone
// tables are keyed by bone name and shared by every chain containing the
// bone.
type Registry struct {
	proxies *JointProxySet
	chains  map[string]*Chain
	names   []string

	limits        map[string]Limit
	defaultLimits map[string]Limit
	ratios        map[string]float64
	locked        map[string]bool

	iterations int
	maxAngle   float64

	log      zerolog.Logger
	disposed bool
}

// NewRegistry creates an empty registry over proxies.
func NewRegistry(proxies *JointProxySet) *Registry {
	return &Registry{
		proxies:       proxies,
		chains:        make(map[string]*Chain),
		limits:        make(map[string]Limit),
		defaultLimits: make(map[string]Limit),
		ratios:        make(map[string]float64),
		locked:        make(map[string]bool),
		iterations:    defaultIterations,
		maxAngle:      defaultMaxAngle,
		log:           zerolog.Nop(),
	}
}

// SetLogger sets the logger for registry lifecycle messages.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.log = l
}

// SetDefaults sets the iteration count and per-step max angle given to
// chains registered afterwards.
func (r *Registry) SetDefaults(iterations int, maxAngle float64) {
	if iterations > 0 {
		r.iterations = iterations
	}
	if maxAngle > 0 {
		r.maxAngle = maxAngle
	}
}

// Proxies returns the joint proxy set the registry is built on.
func (r *Registry) Proxies() *JointProxySet {
	return r.proxies
}

// --- Registration ---

// RegisterChain registers joints (proxy traversal indices, root to tip)
// under name. An existing chain of the same name is disposed first. The
// last joint gets a disabled EndSite one segment beyond it unless another
// registered chain already ends on that joint, in which case both chains
// share its EndSite. The new target starts at the chain's effective tip.
func (r *Registry) RegisterChain(name string, joints []int) (*Chain, error) {
	if name == "" {
		return nil, fmt.Errorf("ikpose: register chain: empty name: %w", ErrInvalidArgument)
	}
	if len(joints) == 0 {
		return nil, fmt.Errorf("ikpose: register chain %q: no joints: %w", name, ErrInvalidArgument)
	}
	seen := make(map[int]bool, len(joints))
	for _, j := range joints {
		if seen[j] {
			return nil, fmt.Errorf("ikpose: register chain %q: duplicate joint #%d: %w", name, j, ErrInvalidArgument)
		}
		seen[j] = true
		if _, err := r.proxies.ByIndex(j); err != nil {
			return nil, fmt.Errorf("ikpose: register chain %q: joint #%d has no proxy: %w", name, j, ErrInvalidArgument)
		}
	}

	if _, exists := r.chains[name]; exists {
		r.removeChain(name)
	}

	tip := joints[len(joints)-1]
	last, _ := r.proxies.ByIndex(tip)
	if last.EndSite == nil || r.tipOwner(tip, "") == "" {
		var diff Vec3
		if len(joints) > 1 {
			prev, _ := r.proxies.ByIndex(joints[len(joints)-2])
			diff = last.Position.Sub(prev.Position)
		}
		last.EndSite = &EndSite{Offset: r.proxies.localOffset(last, diff)}
	}

	c := &Chain{
		Name:       name,
		Joints:     append([]int(nil), joints...),
		Target:     &Target{chain: name, Visible: true},
		Iterations: r.iterations,
		MaxAngle:   r.maxAngle,
	}
	c.Target.Position = r.tipOf(c)
	r.chains[name] = c
	r.names = append(r.names, name)
	r.log.Debug().Str("chain", name).Ints("joints", c.Joints).Msg("chain registered")
	return c, nil
}

// RegisterChainByNames resolves bone names to proxy indices and registers
// the chain.
func (r *Registry) RegisterChainByNames(name string, bones []string) (*Chain, error) {
	joints := make([]int, 0, len(bones))
	for _, b := range bones {
		i, err := r.proxies.IndexOf(b)
		if err != nil {
			return nil, fmt.Errorf("ikpose: register chain %q: %w", name, err)
		}
		joints = append(joints, i)
	}
	return r.RegisterChain(name, joints)
}

// tipOwner returns the first registered chain other than except whose last
// joint is tip, or "".
func (r *Registry) tipOwner(tip int, except string) string {
	for _, n := range r.names {
		if n != except && r.chains[n].Tip() == tip {
			return n
		}
	}
	return ""
}

// removeChain disposes the chain's target and detaches its EndSite unless
// another chain still ends on the same joint.
func (r *Registry) removeChain(name string) {
	c := r.chains[name]
	c.Target.Dispose()
	c.Target = nil
	if r.tipOwner(c.Tip(), name) == "" {
		if p, err := r.proxies.ByIndex(c.Tip()); err == nil {
			p.EndSite = nil
		}
	}
	delete(r.chains, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	r.log.Debug().Str("chain", name).Msg("chain disposed")
}

// Chain returns the named chain.
func (r *Registry) Chain(name string) (*Chain, error) {
	c, ok := r.chains[name]
	if !ok {
		return nil, fmt.Errorf("ikpose: chain %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// Names returns chain names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of registered chains.
func (r *Registry) Len() int {
	return len(r.chains)
}

// ChainOfTarget returns the chain owning t, or nil.
func (r *Registry) ChainOfTarget(t *Target) *Chain {
	if t == nil || t.disposed {
		return nil
	}
	return r.chains[t.chain]
}

// --- Per-chain settings ---

// SetIterations sets the number of CCD passes per solve for a chain.
func (r *Registry) SetIterations(name string, n int) error {
	c, err := r.Chain(name)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("ikpose: chain %q: iterations %d: %w", name, n, ErrInvalidArgument)
	}
	c.Iterations = n
	return nil
}

// SetMaxAngle sets the per-step rotation cap of a chain, in degrees.
func (r *Registry) SetMaxAngle(name string, deg float64) error {
	c, err := r.Chain(name)
	if err != nil {
		return err
	}
	if !(deg > 0) {
		return fmt.Errorf("ikpose: chain %q: max angle %g: %w", name, deg, ErrInvalidArgument)
	}
	c.MaxAngle = deg
	return nil
}

// --- EndSite ---

func (r *Registry) endSite(name string) (*Chain, *EndSite, error) {
	c, err := r.Chain(name)
	if err != nil {
		return nil, nil, err
	}
	p, err := r.proxies.ByIndex(c.Tip())
	if err != nil {
		return nil, nil, err
	}
	if p.EndSite == nil {
		p.EndSite = &EndSite{}
	}
	return c, p.EndSite, nil
}

// SetEndSiteEnabled makes the chain's EndSite its authoritative tip (or
// not) and snaps the chain's target to the new tip.
func (r *Registry) SetEndSiteEnabled(name string, enabled bool) error {
	_, es, err := r.endSite(name)
	if err != nil {
		return err
	}
	es.Enabled = enabled
	es.Visible = enabled
	es.LinkVisible = enabled
	return r.ResetTarget(name)
}

// SetEndSiteVisible shows or hides the chain's EndSite and its link
// without changing which point is the tip.
func (r *Registry) SetEndSiteVisible(name string, visible bool) error {
	_, es, err := r.endSite(name)
	if err != nil {
		return err
	}
	es.Visible = visible
	es.LinkVisible = visible
	return nil
}

// SetEndSiteOffset sets the EndSite offset in the last bone's local frame.
func (r *Registry) SetEndSiteOffset(name string, offset Vec3) error {
	_, es, err := r.endSite(name)
	if err != nil {
		return err
	}
	es.Offset = offset
	return r.ResetTarget(name)
}

// EndSiteEnabled reports whether the chain's EndSite is its tip.
func (r *Registry) EndSiteEnabled(name string) bool {
	c, ok := r.chains[name]
	return ok && r.endSiteEnabled(c)
}

func (r *Registry) endSiteEnabled(c *Chain) bool {
	p, err := r.proxies.ByIndex(c.Tip())
	return err == nil && p.EndSite != nil && p.EndSite.Enabled
}

// --- Tip and targets ---

// TipPosition returns the chain's effective tip: the EndSite position if
// enabled, else the last joint's proxy position.
func (r *Registry) TipPosition(name string) (Vec3, error) {
	c, err := r.Chain(name)
	if err != nil {
		return Vec3{}, err
	}
	return r.tipOf(c), nil
}

func (r *Registry) tipOf(c *Chain) Vec3 {
	p, _ := r.proxies.ByIndex(c.Tip())
	if p.EndSite != nil && p.EndSite.Enabled {
		return r.proxies.endSitePosition(p)
	}
	return p.Position
}

// AffectedJoints returns the joints the solver rotates for a chain: all of
// them when the EndSite is enabled, else all but the last.
func (r *Registry) AffectedJoints(name string) ([]int, error) {
	c, err := r.Chain(name)
	if err != nil {
		return nil, err
	}
	return append([]int(nil), c.Joints[:r.workingCount(c)]...), nil
}

func (r *Registry) workingCount(c *Chain) int {
	if r.endSiteEnabled(c) {
		return len(c.Joints)
	}
	return len(c.Joints) - 1
}

// SetTarget moves a chain's target.
func (r *Registry) SetTarget(name string, p Vec3) error {
	c, err := r.Chain(name)
	if err != nil {
		return err
	}
	c.Target.Position = p
	return nil
}

// ResetTarget refreshes the proxies and snaps the chain's target to its
// effective tip.
func (r *Registry) ResetTarget(name string) error {
	c, err := r.Chain(name)
	if err != nil {
		return err
	}
	r.proxies.Update(false)
	c.Target.Position = r.tipOf(c)
	return nil
}

// ResetAllTargets refreshes the proxies once and snaps every target except
// exclude's to its chain's effective tip. An empty exclude resets all.
func (r *Registry) ResetAllTargets(exclude string) {
	r.proxies.Update(false)
	for _, name := range r.names {
		if name == exclude {
			continue
		}
		c := r.chains[name]
		c.Target.Position = r.tipOf(c)
	}
}

// SetVisible shows or hides every target and every enabled EndSite.
func (r *Registry) SetVisible(visible bool) {
	for _, c := range r.chains {
		c.Target.Visible = visible
		if p, err := r.proxies.ByIndex(c.Tip()); err == nil && p.EndSite != nil && p.EndSite.Enabled {
			p.EndSite.Visible = visible
			p.EndSite.LinkVisible = visible
		}
	}
}

// --- Limits ---

func (r *Registry) checkBone(bone string) error {
	if _, ok := r.proxies.Skeleton().BoneIndex(bone); !ok {
		return fmt.Errorf("ikpose: bone %q: %w", bone, ErrNotFound)
	}
	return nil
}

// SetLimits stores the rotation box of a bone in degrees. Limits belong to
// the bone, so a bone shared by several chains has one box; the last write
// wins. The first box ever set for a bone is kept as its default.
func (r *Registry) SetLimits(bone string, minDeg, maxDeg Vec3) error {
	if err := r.checkBone(bone); err != nil {
		return fmt.Errorf("ikpose: set limits: %w", err)
	}
	for a := 0; a < 3; a++ {
		if minDeg[a] > maxDeg[a] {
			return fmt.Errorf("ikpose: set limits %q: axis %d min %g > max %g: %w",
				bone, a, minDeg[a], maxDeg[a], ErrInvalidArgument)
		}
	}
	l := Limit{Min: minDeg, Max: maxDeg}
	r.limits[bone] = l
	if _, ok := r.defaultLimits[bone]; !ok {
		r.defaultLimits[bone] = l
	}
	return nil
}

// Limits returns the rotation box of a bone.
func (r *Registry) Limits(bone string) (Limit, bool) {
	l, ok := r.limits[bone]
	return l, ok
}

// ClearLimits removes the rotation box of a bone. Its default is kept.
func (r *Registry) ClearLimits(bone string) {
	delete(r.limits, bone)
}

// ResetLimits restores every bone's default box.
func (r *Registry) ResetLimits() {
	r.limits = maps.Clone(r.defaultLimits)
}

// --- Speed ratios ---

// SetSpeedRatio scales the per-step max angle for one bone. ratio must lie
// in [0, 1]; 0 keeps the bone from moving.
func (r *Registry) SetSpeedRatio(bone string, ratio float64) error {
	if err := r.checkBone(bone); err != nil {
		return fmt.Errorf("ikpose: set speed ratio: %w", err)
	}
	if !(ratio >= 0 && ratio <= 1) {
		return fmt.Errorf("ikpose: set speed ratio %q: %g: %w", bone, ratio, ErrInvalidArgument)
	}
	r.ratios[bone] = ratio
	return nil
}

// SpeedRatio returns the ratio of a bone, 1 when unset.
func (r *Registry) SpeedRatio(bone string) float64 {
	if v, ok := r.ratios[bone]; ok {
		return v
	}
	return 1
}

// SpeedRatios returns a copy of every explicitly set ratio.
func (r *Registry) SpeedRatios() map[string]float64 {
	return maps.Clone(r.ratios)
}

// SetSpeedRatios replaces every ratio. Nothing changes if any entry is
// invalid.
func (r *Registry) SetSpeedRatios(ratios map[string]float64) error {
	for bone, v := range ratios {
		if err := r.checkBone(bone); err != nil {
			return fmt.Errorf("ikpose: set speed ratios: %w", err)
		}
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("ikpose: set speed ratios %q: %g: %w", bone, v, ErrInvalidArgument)
		}
	}
	r.ratios = maps.Clone(ratios)
	if r.ratios == nil {
		r.ratios = make(map[string]float64)
	}
	return nil
}

// ClearSpeedRatios resets every ratio to 1.
func (r *Registry) ClearSpeedRatios() {
	clear(r.ratios)
}

// --- Locks ---

// SetLocked freezes or unfreezes a bone. Locked bones are skipped by every
// chain that contains them.
func (r *Registry) SetLocked(bone string, locked bool) error {
	if err := r.checkBone(bone); err != nil {
		return fmt.Errorf("ikpose: set locked: %w", err)
	}
	if locked {
		r.locked[bone] = true
	} else {
		delete(r.locked, bone)
	}
	return nil
}

// IsLocked reports whether a bone is frozen.
func (r *Registry) IsLocked(bone string) bool {
	return r.locked[bone]
}

// --- Disposal ---

// Dispose disposes every chain's target, detaches every EndSite and
// empties the registry.
func (r *Registry) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	for _, name := range r.Names() {
		r.removeChain(name)
	}
	r.limits = nil
	r.defaultLimits = nil
	r.ratios = nil
	r.locked = nil
	r.proxies = nil
}
