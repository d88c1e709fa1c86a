package ikpose

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is the 3D vector used for positions, offsets and directions
// throughout the API.
type Vec3 = mgl64.Vec3

// RotationOrder selects the axis order of an Euler triple. Order XYZ means
// the rotation matrix is Rx * Ry * Rz (intrinsic X, then Y, then Z).
type RotationOrder uint8

const (
	OrderXYZ RotationOrder = iota // default order for bones
	OrderXZY
	OrderYXZ
	OrderYZX
	OrderZXY
	OrderZYX
)

// String returns the three-letter name of the order.
func (o RotationOrder) String() string {
	switch o {
	case OrderXYZ:
		return "XYZ"
	case OrderXZY:
		return "XZY"
	case OrderYXZ:
		return "YXZ"
	case OrderYZX:
		return "YZX"
	case OrderZXY:
		return "ZXY"
	case OrderZYX:
		return "ZYX"
	default:
		return "XYZ"
	}
}

// ParseRotationOrder converts a three-letter name back to a RotationOrder.
// Unknown names report false.
func ParseRotationOrder(s string) (RotationOrder, bool) {
	switch s {
	case "XYZ", "":
		return OrderXYZ, true
	case "XZY":
		return OrderXZY, true
	case "YXZ":
		return OrderYXZ, true
	case "YZX":
		return OrderYZX, true
	case "ZXY":
		return OrderZXY, true
	case "ZYX":
		return OrderZYX, true
	}
	return OrderXYZ, false
}

// EventType identifies a kind of posing event.
type EventType uint8

const (
	EventJointRotated          EventType = iota // a joint's rotation changed
	EventJointRotationFinished                  // the edit that changed a joint is complete
	EventChainSelected                          // an IK handle was selected
	EventChainCleared                           // the IK selection was cleared
	EventChainSolved                            // a solve call moved a chain
)

// String returns a readable event name for logs.
func (t EventType) String() string {
	switch t {
	case EventJointRotated:
		return "joint-rotated"
	case EventJointRotationFinished:
		return "joint-rotation-finished"
	case EventChainSelected:
		return "chain-selected"
	case EventChainCleared:
		return "chain-cleared"
	case EventChainSolved:
		return "chain-solved"
	default:
		return "unknown"
	}
}

// State is the drag lifecycle state of a Controller.
type State uint8

const (
	StateIdle          State = iota // nothing selected
	StateChainSelected              // an IK handle is selected, pointer up
	StateDragging                   // the selected handle is being dragged
)

// String returns a readable state name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChainSelected:
		return "chain-selected"
	case StateDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Bounds is an axis-aligned box in proxy space.
type Bounds struct {
	Min, Max Vec3
}

// Contains reports whether p lies inside the box. Points on a face are
// considered inside.
func (b Bounds) Contains(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}
