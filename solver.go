package ikpose

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// minStepAngle is the smallest CCD step worth applying; smaller ones
	// only make the chain vibrate.
	minStepAngle = 0.001 * math.Pi / 180

	// stepCapTolerance is how far (radians) a scaled step may exceed the
	// cap before it is discarded.
	stepCapTolerance = 1e-7

	// limitTolerance is the slack (degrees) allowed on limit edges so
	// accumulated steps can land exactly on a bound.
	limitTolerance = 1e-7

	// tipEpsilon is the distance under which the tip is considered to be
	// on the target.
	tipEpsilon = 1e-9

	minDirLength = 1e-12
)

// Solver runs Cyclic Coordinate Descent over the chains of a Registry.
type Solver struct {
	reg *Registry

	limitsEnabled bool
	follow        bool
	selectedOnly  bool
	selectedJoint int
	lockAxes      [3]bool

	log zerolog.Logger

	// onIteration, when set, runs after every full pass over a chain.
	onIteration func(c *Chain, iteration int)
}

// NewSolver creates a solver over reg with limits enabled and follow mode
// on.
func NewSolver(reg *Registry) *Solver {
	return &Solver{
		reg:           reg,
		limitsEnabled: true,
		follow:        true,
		selectedJoint: -1,
		log:           zerolog.Nop(),
	}
}

// SetLogger sets the logger for skipped joints and limit rejections.
func (s *Solver) SetLogger(l zerolog.Logger) {
	s.log = l
}

// SetLimitsEnabled turns per-bone limit boxes on or off.
func (s *Solver) SetLimitsEnabled(enabled bool) {
	s.limitsEnabled = enabled
}

// LimitsEnabled reports whether limit boxes are honored.
func (s *Solver) LimitsEnabled() bool {
	return s.limitsEnabled
}

// SetSelectedOnly restricts solving to one joint (a proxy traversal
// index). A negative joint lifts the restriction.
func (s *Solver) SetSelectedOnly(joint int) {
	s.selectedOnly = joint >= 0
	s.selectedJoint = joint
}

// LockAxes keeps the solver from changing the given local axes of any
// joint.
func (s *Solver) LockAxes(x, y, z bool) {
	s.lockAxes = [3]bool{x, y, z}
}

// SetFollowOtherTargets controls whether a solve snaps every other chain's
// target to its tip afterwards.
func (s *Solver) SetFollowOtherTargets(follow bool) {
	s.follow = follow
}

// FollowOtherTargets reports the follow mode.
func (s *Solver) FollowOtherTargets() bool {
	return s.follow
}

// Solve moves the named chain's joints so its effective tip approaches its
// target. It returns false without touching any joint when the target has
// not moved since the chain's last solve (unless force is set) or already
// sits on the tip; otherwise it runs the chain's full iteration count and
// returns true. Degenerate steps are skipped, never reported.
func (s *Solver) Solve(name string, force bool) (bool, error) {
	c, err := s.reg.Chain(name)
	if err != nil {
		return false, err
	}
	target := c.Target.Position
	if c.hasLast && c.lastTarget == target && !force {
		s.log.Debug().Str("chain", name).Msg("target unmoved, solve skipped")
		return false, nil
	}
	c.lastTarget = target
	c.hasLast = true

	if vecNear(target, s.reg.tipOf(c), tipEpsilon) {
		s.log.Debug().Str("chain", name).Msg("target on tip, solve skipped")
		return false, nil
	}

	ps := s.reg.proxies
	skel := ps.skel
	for it := 0; it < c.Iterations; it++ {
		working := s.reg.workingCount(c)
		for k := 0; k < working; k++ {
			j := c.Joints[k]
			if s.selectedOnly && j != s.selectedJoint {
				continue
			}
			p := ps.proxies[j]
			b := skel.Bone(p.Bone)
			if s.reg.locked[b.Name] {
				continue
			}
			tip := s.reg.tipOf(c)
			if vecNear(target, tip, tipEpsilon) {
				s.finish(c)
				return true, nil
			}

			ratio := s.reg.SpeedRatio(b.Name)
			if ratio == 0 {
				continue
			}
			inv := skel.ParentWorldQuat(p.Bone).Inverse().Mul(ps.spaceQuat)
			step, ok := stepRotation(inv, tip, p.Position, target, c.MaxAngle*ratio, b.Rotation.Order)
			if !ok {
				continue
			}

			cur := ikSafeRotation(b.Rotation)
			if isD180(cur.X) || isD180(cur.Y) || isD180(cur.Z) {
				deg := cur.Degrees()
				s.log.Debug().Str("bone", b.Name).Floats64("deg", deg[:]).Msg("unsafe rotation, joint skipped")
				continue
			}
			next := s.integrate(b.Name, cur, step)
			if !next.IsFinite() || !s.insideLimits(b.Name, b.Rotation, next) {
				continue
			}
			skel.SetRotation(p.Bone, next)
			for m := len(c.Joints) - 1; m >= k; m-- {
				_ = ps.UpdateOne(c.Joints[m])
			}
		}
		for m := len(c.Joints) - 1; m >= 0; m-- {
			_ = ps.UpdateOne(c.Joints[m])
		}
		if s.onIteration != nil {
			s.onIteration(c, it)
		}
	}
	s.finish(c)
	return true, nil
}

func (s *Solver) finish(c *Chain) {
	if s.follow {
		s.reg.ResetAllTargets(c.Name)
	}
}

// stepRotation returns the clamped CCD step for one joint as an Euler
// triple in order. inv maps proxy-space directions into the parent bone's
// frame. ok is false when the step is too small, degenerate, or cannot be
// brought under the cap.
func stepRotation(inv mgl64.Quat, tip, joint, target Vec3, maxDeg float64, order RotationOrder) (Euler, bool) {
	jv := inv.Rotate(tip.Sub(joint))
	tv := inv.Rotate(target.Sub(joint))
	if jv.Len() < minDirLength || tv.Len() < minDirLength {
		return Euler{}, false
	}
	jv, tv = jv.Normalize(), tv.Normalize()

	angle := math.Acos(mgl64.Clamp(jv.Dot(tv), -1, 1))
	if math.IsNaN(angle) || angle <= minStepAngle {
		return Euler{}, false
	}
	axis := jv.Cross(tv)
	if axis.Len() < minDirLength {
		return Euler{}, false
	}
	q := mgl64.QuatRotate(angle, axis.Normalize())
	if math.IsNaN(q.W) || math.IsNaN(q.V[0]) || math.IsNaN(q.V[1]) || math.IsNaN(q.V[2]) {
		return Euler{}, false
	}

	e := EulerFromQuat(q, order)
	if maxDeg > 0 {
		rad := mgl64.DegToRad(maxDeg)
		m := max(math.Abs(e.X), math.Abs(e.Y), math.Abs(e.Z))
		if m > rad {
			r := m / rad
			e.X /= r
			e.Y /= r
			e.Z /= r
		}
		if math.Abs(e.X) > rad+stepCapTolerance ||
			math.Abs(e.Y) > rad+stepCapTolerance ||
			math.Abs(e.Z) > rad+stepCapTolerance {
			return Euler{}, false
		}
	}
	return e, !e.IsNaN()
}

// integrate adds step to cur. With a limit box, each axis is accepted or
// kept on its own: an axis whose wrapped candidate leaves the box keeps its
// current angle while the others still move.
func (s *Solver) integrate(bone string, cur, step Euler) Euler {
	l, limited := s.reg.limits[bone]
	limited = limited && s.limitsEnabled
	curAxes := [3]float64{cur.X, cur.Y, cur.Z}
	stepAxes := [3]float64{step.X, step.Y, step.Z}
	var out [3]float64
	for a := 0; a < 3; a++ {
		out[a] = curAxes[a]
		if s.lockAxes[a] {
			continue
		}
		sum := curAxes[a] + stepAxes[a]
		if limited {
			cand := wrapDegrees(mgl64.RadToDeg(sum))
			if !withinLimit(cand, l.Min[a], l.Max[a]) {
				s.log.Debug().Str("bone", bone).Int("axis", a).
					Float64("min", l.Min[a]).Float64("max", l.Max[a]).Float64("deg", cand).
					Msg("limit rejected step")
				continue
			}
		}
		out[a] = wrapRadians(sum)
	}
	return Euler{X: out[0], Y: out[1], Z: out[2], Order: cur.Order}
}

// insideLimits reports whether every axis that next changes from prev lies
// in the bone's box. An axis that rejected its step keeps the remapped angle
// from ikSafeRotation, which is not always inside the box; an axis left as
// it was is not judged.
func (s *Solver) insideLimits(bone string, prev, next Euler) bool {
	l, ok := s.reg.limits[bone]
	if !ok || !s.limitsEnabled {
		return true
	}
	for a := 0; a < 3; a++ {
		if next.Axis(a) == prev.Axis(a) {
			continue
		}
		if !withinLimit(wrapDegrees(mgl64.RadToDeg(next.Axis(a))), l.Min[a], l.Max[a]) {
			return false
		}
	}
	return true
}

func withinLimit(deg, lo, hi float64) bool {
	return (deg >= lo || scalar.EqualWithinAbs(deg, lo, limitTolerance)) &&
		(deg <= hi || scalar.EqualWithinAbs(deg, hi, limitTolerance))
}
