// Package ikpose is an interactive inverse-kinematics posing engine for
// articulated skeletons.
//
// Dragging a chain's end handle moves the whole chain with Cyclic
// Coordinate Descent (CCD) while each joint stays inside its rotation
// limits. Rendering, picking and model loading are left to the caller;
// ikpose owns the bones' rotations, the handles and the drag lifecycle.
//
// # Quick start
//
// Build a skeleton, wrap it in a [Controller], register chains and drive
// the drag from your input code:
//
//	skel := ikpose.HumanoidSkeleton()
//	ctrl, err := ikpose.New(skel, ikpose.DefaultConfig())
//	if err != nil { ... }
//	rig, _ := ikpose.HumanoidRig(ikpose.HumanoidBoneMap(skel))
//	if err := rig.Apply(ctrl.Registry()); err != nil { ... }
//
//	ctrl.Select("LeftArm")
//	ctrl.PointerDown()
//	ctrl.PointerMove(ikpose.Vec3{0.5, 1.2, 0.3})
//	ctrl.PointerUp()
//
// # Layers
//
// A [Skeleton] is an index-stable bone arena with lazily cached world
// transforms. A [JointProxySet] mirrors the world position of every bone
// that has a child. A [Registry] owns the named chains with their targets
// and EndSites, and the per-bone limit, speed-ratio and lock tables. The
// [Solver] runs CCD over one chain. The [Controller] ties them to the
// select / press / move / release lifecycle and emits events.
//
// # Events
//
// Callbacks are registered with [Controller.On] and removed through the
// returned [CallbackHandle]. An optional [EventStore] receives every event
// after the callbacks; the ecs subpackage publishes them into a [Donburi]
// world.
//
// Rigs can be described in YAML ([LoadRigFile]), tool settings are read
// with viper ([LoadConfig]), scripted drags run through [LoadTestScript],
// and targets can be animated with [gween] ([TweenTarget]).
//
// ikpose is single-threaded: every call must come from the same goroutine.
//
// [Donburi]: https://github.com/yohamta/donburi
// [gween]: https://github.com/tanema/gween
package ikpose
