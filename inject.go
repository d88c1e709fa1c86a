package ikpose

import "fmt"

type injectKind uint8

const (
	injectSelect injectKind = iota
	injectPress
	injectMove
	injectRelease
	injectRotate
)

// injectedEvent is a single queued synthetic input event.
type injectedEvent struct {
	kind     injectKind
	chain    string
	bone     string
	position Vec3
	rotation Euler
}

// InjectSelect queues a handle selection. An empty name clears the
// selection. Consumed on the next Update.
func (c *Controller) InjectSelect(chain string) {
	c.injectQueue = append(c.injectQueue, injectedEvent{kind: injectSelect, chain: chain})
}

// InjectPress queues a pointer press on the selected handle.
func (c *Controller) InjectPress() {
	c.injectQueue = append(c.injectQueue, injectedEvent{kind: injectPress})
}

// InjectMove queues a drag move of the selected handle to position. Use it
// between InjectPress and InjectRelease.
func (c *Controller) InjectMove(position Vec3) {
	c.injectQueue = append(c.injectQueue, injectedEvent{kind: injectMove, position: position})
}

// InjectRelease queues a pointer release.
func (c *Controller) InjectRelease() {
	c.injectQueue = append(c.injectQueue, injectedEvent{kind: injectRelease})
}

// InjectRotate queues a direct joint rotation.
func (c *Controller) InjectRotate(bone string, rotation Euler) {
	c.injectQueue = append(c.injectQueue, injectedEvent{kind: injectRotate, bone: bone, rotation: rotation})
}

// InjectDrag queues a full drag of chain's handle: select, press, `frames`
// moves linearly interpolated from the chain's current target to `to`
// (the last one exactly at `to`), and release. The sequence consumes
// frames+3 frames. Minimum frames is 1.
func (c *Controller) InjectDrag(chain string, to Vec3, frames int) error {
	ch, err := c.reg.Chain(chain)
	if err != nil {
		return fmt.Errorf("ikpose: inject drag: %w", err)
	}
	if frames < 1 {
		frames = 1
	}
	from := ch.Target.Position
	c.InjectSelect(chain)
	c.InjectPress()
	for i := 1; i <= frames; i++ {
		t := float64(i) / float64(frames)
		c.InjectMove(from.Add(to.Sub(from).Mul(t)))
	}
	c.InjectRelease()
	return nil
}

// PendingInjections returns the number of queued events.
func (c *Controller) PendingInjections() int {
	return len(c.injectQueue)
}

// processInjectedInput pops one event from the inject queue and feeds it
// through the same entry points as real input. Returns true if an event
// was consumed.
func (c *Controller) processInjectedInput() bool {
	if len(c.injectQueue) == 0 {
		return false
	}
	evt := c.injectQueue[0]
	copy(c.injectQueue, c.injectQueue[1:])
	c.injectQueue = c.injectQueue[:len(c.injectQueue)-1]

	var err error
	switch evt.kind {
	case injectSelect:
		err = c.Select(evt.chain)
	case injectPress:
		err = c.PointerDown()
	case injectMove:
		_, err = c.PointerMove(evt.position)
	case injectRelease:
		err = c.PointerUp()
	case injectRotate:
		err = c.RotateJoint(evt.bone, evt.rotation)
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("injected event rejected")
	}
	return true
}
