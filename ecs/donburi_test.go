package ecs

import (
	"testing"

	"github.com/phanxgames/ikpose"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []ikpose.Event
	PoseEventType.Subscribe(world, func(w donburi.World, e ikpose.Event) {
		received = append(received, e)
	})

	store.EmitEvent(ikpose.Event{Type: ikpose.EventJointRotated, Chain: "LeftArm", Joint: 12, Bone: "leftUpperArm"})
	store.EmitEvent(ikpose.Event{Type: ikpose.EventChainCleared, Chain: "LeftArm", Joint: -1})

	// Events are queued; process them.
	PoseEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if e := received[0]; e.Type != ikpose.EventJointRotated || e.Joint != 12 || e.Bone != "leftUpperArm" {
		t.Errorf("event 0: %+v", e)
	}
	if e := received[1]; e.Type != ikpose.EventChainCleared || e.Chain != "LeftArm" {
		t.Errorf("event 1: %+v", e)
	}
}

func TestDonburiStore_ImplementsEventStore(t *testing.T) {
	world := donburi.NewWorld()
	var store ikpose.EventStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	PoseEventType.Subscribe(world, func(w donburi.World, e ikpose.Event) {
		count1++
	})
	PoseEventType.Subscribe(world, func(w donburi.World, e ikpose.Event) {
		count2++
	})

	store.EmitEvent(ikpose.Event{Type: ikpose.EventChainSelected, Chain: "Head", Joint: -1})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestDonburiStore_ControllerDrag(t *testing.T) {
	skel := ikpose.HumanoidSkeleton()
	ctrl, err := ikpose.New(skel, ikpose.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	rig, err := ikpose.HumanoidRig(ikpose.HumanoidBoneMap(skel))
	if err != nil {
		t.Fatal(err)
	}
	if err := rig.Apply(ctrl.Registry()); err != nil {
		t.Fatal(err)
	}

	world := donburi.NewWorld()
	ctrl.SetEventStore(NewDonburiStore(world))

	counts := map[ikpose.EventType]int{}
	PoseEventType.Subscribe(world, func(w donburi.World, e ikpose.Event) {
		counts[e.Type]++
	})

	tip, err := ctrl.Registry().TipPosition("LeftArm")
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Select("LeftArm"); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.PointerDown(); err != nil {
		t.Fatal(err)
	}
	solved, err := ctrl.PointerMove(tip.Add(ikpose.Vec3{0, -0.2, 0.1}))
	if err != nil {
		t.Fatal(err)
	}
	if !solved {
		t.Fatal("expected the move to solve the chain")
	}
	if err := ctrl.PointerUp(); err != nil {
		t.Fatal(err)
	}
	PoseEventType.ProcessEvents(world)

	if counts[ikpose.EventChainSelected] != 1 {
		t.Errorf("chain selected events = %d, want 1", counts[ikpose.EventChainSelected])
	}
	if counts[ikpose.EventChainSolved] != 1 {
		t.Errorf("chain solved events = %d, want 1", counts[ikpose.EventChainSolved])
	}
	// LeftArm without an EndSite rotates shoulder, upper arm and lower arm.
	if counts[ikpose.EventJointRotated] != 3 || counts[ikpose.EventJointRotationFinished] != 3 {
		t.Errorf("joint events = %d/%d, want 3/3",
			counts[ikpose.EventJointRotated], counts[ikpose.EventJointRotationFinished])
	}
}

func TestDonburiStore_RotateJoint(t *testing.T) {
	skel := ikpose.HumanoidSkeleton()
	ctrl, err := ikpose.New(skel, ikpose.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	world := donburi.NewWorld()
	ctrl.SetEventStore(NewDonburiStore(world))

	var received []ikpose.Event
	PoseEventType.Subscribe(world, func(w donburi.World, e ikpose.Event) {
		received = append(received, e)
	})

	if err := ctrl.RotateJointDegrees(ikpose.HumanNeck, 5, 0, 0); err != nil {
		t.Fatal(err)
	}
	PoseEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	want := []ikpose.EventType{ikpose.EventJointRotated, ikpose.EventJointRotationFinished}
	for i, e := range received {
		if e.Type != want[i] || e.Bone != ikpose.HumanNeck || e.Chain != "" || e.Joint < 0 {
			t.Errorf("event %d: %+v", i, e)
		}
	}
}
