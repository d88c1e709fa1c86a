package ikpose

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TargetTween animates the dragged chain's target toward a point, feeding
// every frame's position through Controller.PointerMove so the chain is
// solved as if the user dragged it. Call Update(dt) each frame.
//
// There is no global animation manager; users call Update themselves.
type TargetTween struct {
	tweens [3]*gween.Tween
	ctrl   *Controller
	chain  string
	Done   bool
}

// TweenTarget starts a tween of the selected chain's target to `to`. The
// controller must be dragging.
func TweenTarget(c *Controller, to Vec3, duration float32, fn ease.TweenFunc) (*TargetTween, error) {
	if c.State() != StateDragging {
		return nil, fmt.Errorf("ikpose: tween target in state %s: %w", c.State(), ErrInvalidState)
	}
	ch, err := c.reg.Chain(c.selected)
	if err != nil {
		return nil, err
	}
	from := ch.Target.Position
	g := &TargetTween{ctrl: c, chain: c.selected}
	for a := 0; a < 3; a++ {
		g.tweens[a] = gween.New(float32(from[a]), float32(to[a]), duration, fn)
	}
	return g, nil
}

// Update advances the tween by dt seconds and moves the target. The tween
// stops when it finishes, when the drag ends, or when another chain gets
// selected.
func (g *TargetTween) Update(dt float32) {
	if g.Done {
		return
	}
	if g.ctrl.State() != StateDragging || g.ctrl.Selected() != g.chain {
		g.Done = true
		return
	}
	var pos Vec3
	allDone := true
	for a := 0; a < 3; a++ {
		val, finished := g.tweens[a].Update(dt)
		pos[a] = float64(val)
		if !finished {
			allDone = false
		}
	}
	if _, err := g.ctrl.PointerMove(pos); err != nil {
		g.ctrl.log.Warn().Err(err).Str("chain", g.chain).Msg("target tween stopped")
		allDone = true
	}
	g.Done = allDone
}

// JointTween animates one bone's rotation through Controller.RotateJoint, so
// limits are clamped and joint events fire every frame.
type JointTween struct {
	tweens [3]*gween.Tween
	ctrl   *Controller
	bone   string
	order  RotationOrder
	Done   bool
}

// TweenJoint starts a tween of bone's rotation to `to`. Angles are
// interpolated per axis.
func TweenJoint(c *Controller, bone string, to Euler, duration float32, fn ease.TweenFunc) (*JointTween, error) {
	i, ok := c.skel.BoneIndex(bone)
	if !ok {
		return nil, fmt.Errorf("ikpose: tween joint %q: %w", bone, ErrNotFound)
	}
	from := c.skel.Rotation(i)
	g := &JointTween{ctrl: c, bone: bone, order: from.Order}
	g.tweens[0] = gween.New(float32(mgl64.RadToDeg(from.X)), float32(mgl64.RadToDeg(to.X)), duration, fn)
	g.tweens[1] = gween.New(float32(mgl64.RadToDeg(from.Y)), float32(mgl64.RadToDeg(to.Y)), duration, fn)
	g.tweens[2] = gween.New(float32(mgl64.RadToDeg(from.Z)), float32(mgl64.RadToDeg(to.Z)), duration, fn)
	return g, nil
}

// Update advances the tween by dt seconds and rotates the joint.
func (g *JointTween) Update(dt float32) {
	if g.Done {
		return
	}
	if g.ctrl.IsDisposed() {
		g.Done = true
		return
	}
	var deg [3]float64
	allDone := true
	for a := 0; a < 3; a++ {
		val, finished := g.tweens[a].Update(dt)
		deg[a] = float64(val)
		if !finished {
			allDone = false
		}
	}
	e := EulerDegrees(deg[0], deg[1], deg[2])
	e.Order = g.order
	if err := g.ctrl.RotateJoint(g.bone, e); err != nil {
		allDone = true
	}
	g.Done = allDone
}
