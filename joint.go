package ikpose

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// RotateJoint sets one bone's local rotation directly, without the solver.
// When the bone has a limit box and limits are enabled, each axis is
// clamped into it. Proxies are refreshed, every target except the selected
// chain's is snapped to its tip, and a rotated then a rotation-finished
// event are emitted for the joint.
func (c *Controller) RotateJoint(bone string, rotation Euler) error {
	i, ok := c.skel.BoneIndex(bone)
	if !ok {
		return fmt.Errorf("ikpose: rotate joint %q: %w", bone, ErrNotFound)
	}
	if !rotation.IsFinite() {
		return fmt.Errorf("ikpose: rotate joint %q: non-finite rotation %v: %w", bone, rotation, ErrInvalidArgument)
	}
	rotation = c.clampToLimits(bone, rotation)
	c.skel.SetRotation(i, rotation)
	c.proxies.Update(false)
	c.reg.ResetAllTargets(c.selected)

	joint := c.proxies.TraversalIndex(i)
	c.emit(Event{Type: EventJointRotated, Joint: joint, Bone: bone})
	c.emit(Event{Type: EventJointRotationFinished, Joint: joint, Bone: bone})
	return nil
}

// RotateJointDegrees is RotateJoint with angles in degrees and the bone's
// own rotation order.
func (c *Controller) RotateJointDegrees(bone string, x, y, z float64) error {
	return c.RotateJoint(bone, EulerDegrees(x, y, z))
}

func (c *Controller) clampToLimits(bone string, e Euler) Euler {
	l, ok := c.reg.Limits(bone)
	if !ok || !c.solver.LimitsEnabled() {
		return e
	}
	deg := e.Degrees()
	for a := 0; a < 3; a++ {
		deg[a] = wrapDegrees(deg[a])
	}
	deg = l.Clamp(deg)
	return Euler{
		X:     mgl64.DegToRad(deg[0]),
		Y:     mgl64.DegToRad(deg[1]),
		Z:     mgl64.DegToRad(deg[2]),
		Order: e.Order,
	}
}
