// Package ecs bridges ikpose posing events into a [Donburi] world.
//
// [NewDonburiStore] returns an ikpose.EventStore; every event the
// controller emits is published to [PoseEventType] so ECS systems can react
// to drags and joint edits without holding callback handles:
//
//	store := ecs.NewDonburiStore(world)
//	ctrl.SetEventStore(store)
//	ecs.PoseEventType.Subscribe(world, func(w donburi.World, e ikpose.Event) {
//		if e.Type == ikpose.EventJointRotationFinished {
//			// persist e.Bone's new rotation
//		}
//	})
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
