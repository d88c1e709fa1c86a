package ikpose

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Controller drives the drag lifecycle of IK handles: select a chain, press,
// move the target (solving on every move), release. It owns the event
// callbacks and is the only mutator of the pose during a drag.
type Controller struct {
	skel    *Skeleton
	proxies *JointProxySet
	reg     *Registry
	solver  *Solver

	handlers handlerRegistry
	store    EventStore

	state    State
	selected string
	solved   []string // chains solved this interaction, in first-solve order
	solving  atomic.Bool
	enabled  bool

	injectQueue []injectedEvent
	testRunner  *TestRunner

	log      zerolog.Logger
	disposed bool
}

// New builds the proxy set, registry and solver for skel, configured from
// cfg, and returns a controller over them.
func New(skel *Skeleton, cfg Config) (*Controller, error) {
	proxies, err := NewJointProxySet(skel)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry(proxies)
	reg.SetDefaults(cfg.Iterations, cfg.MaxAngle)
	solver := NewSolver(reg)
	solver.SetLimitsEnabled(cfg.LimitsEnabled)
	solver.SetFollowOtherTargets(cfg.FollowOtherTargets)
	c := NewController(reg, solver)
	skel.SetDebug(cfg.Debug)
	return c, nil
}

// NewController creates an idle, enabled controller over reg and solver.
func NewController(reg *Registry, solver *Solver) *Controller {
	return &Controller{
		skel:    reg.proxies.skel,
		proxies: reg.proxies,
		reg:     reg,
		solver:  solver,
		enabled: true,
		log:     zerolog.Nop(),
	}
}

// SetLogger sets the logger of the controller, its registry, solver and
// skeleton.
func (c *Controller) SetLogger(l zerolog.Logger) {
	c.log = l
	c.reg.SetLogger(l)
	c.solver.SetLogger(l)
	c.skel.SetLogger(l)
}

// Skeleton returns the posed skeleton.
func (c *Controller) Skeleton() *Skeleton { return c.skel }

// Proxies returns the joint proxy set.
func (c *Controller) Proxies() *JointProxySet { return c.proxies }

// Registry returns the chain registry.
func (c *Controller) Registry() *Registry { return c.reg }

// Solver returns the CCD solver.
func (c *Controller) Solver() *Solver { return c.solver }

// State returns the drag lifecycle state.
func (c *Controller) State() State { return c.state }

// Selected returns the selected chain name, or "".
func (c *Controller) Selected() string { return c.selected }

// Enabled reports whether IK handles respond to input.
func (c *Controller) Enabled() bool { return c.enabled }

// --- Selection ---

// Select selects a chain's handle. Selecting "" is ClearSelection. The
// selected chain's target is excluded from every global reset until the
// selection changes.
func (c *Controller) Select(name string) error {
	if name == "" {
		return c.ClearSelection()
	}
	if c.state == StateDragging {
		return fmt.Errorf("ikpose: select %q while dragging: %w", name, ErrInvalidState)
	}
	if !c.enabled {
		return fmt.Errorf("ikpose: select %q: controller disabled: %w", name, ErrInvalidState)
	}
	if _, err := c.reg.Chain(name); err != nil {
		return fmt.Errorf("ikpose: select: %w", err)
	}
	if c.selected != "" && c.selected != name {
		// The previous handle may still be off its tip.
		_ = c.reg.ResetTarget(c.selected)
	}
	c.selected = name
	c.state = StateChainSelected
	c.log.Debug().Str("chain", name).Msg("chain selected")
	c.emit(Event{Type: EventChainSelected, Chain: name, Joint: -1})
	return nil
}

// ClearSelection deselects the current chain and snaps every target back
// to its tip. EventChainCleared fires only if a chain was selected.
func (c *Controller) ClearSelection() error {
	if c.state == StateDragging {
		return fmt.Errorf("ikpose: clear selection while dragging: %w", ErrInvalidState)
	}
	prev := c.selected
	c.selected = ""
	c.state = StateIdle
	c.reg.ResetAllTargets("")
	if prev == "" {
		return nil
	}
	c.log.Debug().Str("chain", prev).Msg("selection cleared")
	c.emit(Event{Type: EventChainCleared, Chain: prev, Joint: -1})
	return nil
}

// --- Drag lifecycle ---

// PointerDown starts dragging the selected handle. Every other target is
// snapped to its tip so the coming solves start from the current pose.
func (c *Controller) PointerDown() error {
	if c.state != StateChainSelected {
		return fmt.Errorf("ikpose: pointer down in state %s: %w", c.state, ErrInvalidState)
	}
	c.state = StateDragging
	c.solved = c.solved[:0]
	c.reg.ResetAllTargets(c.selected)
	c.log.Debug().Str("chain", c.selected).Msg("drag started")
	return nil
}

// PointerMove moves the selected chain's target to position and solves the
// chain. A move that arrives while a solve is still running is dropped.
// It reports whether a solve ran.
func (c *Controller) PointerMove(position Vec3) (bool, error) {
	if c.state != StateDragging {
		return false, fmt.Errorf("ikpose: pointer move in state %s: %w", c.state, ErrInvalidState)
	}
	if err := c.reg.SetTarget(c.selected, position); err != nil {
		return false, err
	}
	if !c.solving.CompareAndSwap(false, true) {
		c.log.Debug().Str("chain", c.selected).Msg("still solving, move ignored")
		return false, nil
	}
	defer c.solving.Store(false)

	solved, err := c.solver.Solve(c.selected, false)
	if err != nil {
		return false, err
	}
	if solved {
		c.markSolved(c.selected)
		c.emit(Event{Type: EventChainSolved, Chain: c.selected, Joint: -1})
	}
	c.proxies.Update(false)
	return solved, nil
}

// PointerUp ends the drag. With follow mode off every other chain is
// re-solved once first. Then, for every chain solved during the drag, each
// affected joint gets a rotated event followed by a rotation-finished
// event.
func (c *Controller) PointerUp() error {
	if c.state != StateDragging {
		return fmt.Errorf("ikpose: pointer up in state %s: %w", c.state, ErrInvalidState)
	}
	c.state = StateChainSelected

	if !c.solver.FollowOtherTargets() {
		c.solveOthers()
	}

	for _, name := range c.solved {
		joints, err := c.reg.AffectedJoints(name)
		if err != nil {
			continue
		}
		for _, j := range joints {
			c.emitJoint(EventJointRotated, name, j)
			c.emitJoint(EventJointRotationFinished, name, j)
		}
	}
	c.log.Debug().Str("chain", c.selected).Strs("solved", c.solved).Msg("drag finished")
	return nil
}

// solveOthers runs one forced solve of every chain except the selected one
// toward its current target.
func (c *Controller) solveOthers() {
	if !c.solving.CompareAndSwap(false, true) {
		return
	}
	defer c.solving.Store(false)
	for _, name := range c.reg.Names() {
		if name == c.selected {
			continue
		}
		solved, err := c.solver.Solve(name, true)
		if err == nil && solved {
			c.markSolved(name)
		}
	}
	c.proxies.Update(false)
}

func (c *Controller) markSolved(name string) {
	for _, n := range c.solved {
		if n == name {
			return
		}
	}
	c.solved = append(c.solved, name)
}

// SolvedChains returns the chains solved during the current or last drag.
func (c *Controller) SolvedChains() []string {
	return append([]string(nil), c.solved...)
}

// --- Pose ---

// PoseChanged re-derives every world transform after an external pose
// change and snaps every target to its tip.
func (c *Controller) PoseChanged() {
	c.proxies.Update(true)
	c.reg.ResetAllTargets("")
}

// SetEnabled shows or hides every IK handle. A disabled controller ends any
// drag and clears its selection.
func (c *Controller) SetEnabled(enabled bool) {
	if !enabled {
		if c.state == StateDragging {
			_ = c.PointerUp()
		}
		if c.state != StateIdle {
			_ = c.ClearSelection()
		}
	}
	c.enabled = enabled
	c.reg.SetVisible(enabled)
}

// ApplyPose sets the local rotation of every named bone, then behaves like
// PoseChanged. Nothing changes if any name is unknown or any angle is NaN
// or infinite.
func (c *Controller) ApplyPose(pose map[string]Euler) error {
	idx := make(map[int]Euler, len(pose))
	for name, e := range pose {
		i, ok := c.skel.BoneIndex(name)
		if !ok {
			return fmt.Errorf("ikpose: apply pose: bone %q: %w", name, ErrNotFound)
		}
		if !e.IsFinite() {
			return fmt.Errorf("ikpose: apply pose: bone %q: non-finite rotation %v: %w", name, e, ErrInvalidArgument)
		}
		idx[i] = e
	}
	for i, e := range idx {
		c.skel.SetRotation(i, e)
	}
	c.PoseChanged()
	return nil
}

// Pose returns the local rotation of every bone keyed by name.
func (c *Controller) Pose() map[string]Euler {
	pose := make(map[string]Euler, c.skel.Len())
	for i := 0; i < c.skel.Len(); i++ {
		pose[c.skel.Bone(i).Name] = c.skel.Rotation(i)
	}
	return pose
}

// ResetPose zeroes every bone rotation.
func (c *Controller) ResetPose() {
	for i := 0; i < c.skel.Len(); i++ {
		c.skel.SetRotation(i, Euler{})
	}
	c.PoseChanged()
}

// --- Frame update ---

// Update advances one frame: the test runner steps, then one injected event
// is consumed.
func (c *Controller) Update() {
	if c.testRunner != nil {
		c.testRunner.step(c)
	}
	c.processInjectedInput()
}

// --- Disposal ---

// Dispose removes every registered callback and disposes the registry and
// proxies. The skeleton is left to its owner.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.handlers.clear()
	c.store = nil
	c.injectQueue = nil
	c.testRunner = nil
	c.reg.Dispose()
	c.proxies.Dispose()
}

// IsDisposed returns true if the controller has been disposed.
func (c *Controller) IsDisposed() bool {
	return c.disposed
}

// HandlerCount returns the number of registered callbacks.
func (c *Controller) HandlerCount() int {
	return c.handlers.count()
}
