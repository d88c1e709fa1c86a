package ecs

import (
	"github.com/phanxgames/ikpose"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// PoseEventType carries every ikpose.Event a Controller emits. Systems
// switch on Event.Type:
//
//   - EventChainSelected, EventChainCleared: Chain names the handle, Joint is -1.
//   - EventChainSolved: one per PointerMove whose solve ran, Joint is -1.
//   - EventJointRotated then EventJointRotationFinished: one pair per affected
//     joint of each chain solved during a drag, published at PointerUp, and
//     one pair per RotateJoint call (Chain empty). Joint is the proxy
//     traversal index and Bone the bone name.
//
// Events are queued in the world and delivered by
// PoseEventType.ProcessEvents, after the controller's own callbacks ran.
var PoseEventType = events.NewEventType[ikpose.Event]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore returns an ikpose.EventStore that publishes to
// PoseEventType in world. Attach it with Controller.SetEventStore.
func NewDonburiStore(world donburi.World) ikpose.EventStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event ikpose.Event) {
	PoseEventType.Publish(s.world, event)
}
