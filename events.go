package ikpose

// Event is one posing notification. Joint and Bone are set for joint
// events; Chain is set whenever a chain is involved.
type Event struct {
	Type  EventType
	Chain string
	Joint int // proxy traversal index, -1 when not a joint event
	Bone  string
}

// EventStore is the interface for optional ECS integration. When set on a
// Controller, every event is forwarded after the registered callbacks.
type EventStore interface {
	EmitEvent(event Event)
}

const eventTypeCount = int(EventChainSolved) + 1

// --- Handler registry ---

type eventHandler struct {
	id uint32
	fn func(Event)
}

type handlerRegistry struct {
	handlers [eventTypeCount][]eventHandler
	nextID   uint32
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires. Removing twice
// is a no-op.
func (h CallbackHandle) Remove() {
	if h.reg == nil || int(h.event) >= eventTypeCount {
		return
	}
	h.reg.handlers[h.event] = removeEventHandler(h.reg.handlers[h.event], h.id)
}

func removeEventHandler(s []eventHandler, id uint32) []eventHandler {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = eventHandler{}
			return s[:len(s)-1]
		}
	}
	return s
}

func (r *handlerRegistry) add(t EventType, fn func(Event)) CallbackHandle {
	r.nextID++
	r.handlers[t] = append(r.handlers[t], eventHandler{id: r.nextID, fn: fn})
	return CallbackHandle{id: r.nextID, reg: r, event: t}
}

func (r *handlerRegistry) count() int {
	n := 0
	for _, hs := range r.handlers {
		n += len(hs)
	}
	return n
}

func (r *handlerRegistry) clear() {
	for i := range r.handlers {
		r.handlers[i] = nil
	}
}

// --- Controller-level event registration ---

// On registers fn for events of type t.
func (c *Controller) On(t EventType, fn func(Event)) CallbackHandle {
	if int(t) >= eventTypeCount || fn == nil {
		return CallbackHandle{}
	}
	return c.handlers.add(t, fn)
}

// OnJointRotated registers fn for joint rotation changes.
func (c *Controller) OnJointRotated(fn func(Event)) CallbackHandle {
	return c.On(EventJointRotated, fn)
}

// OnJointRotationFinished registers fn for completed joint edits.
func (c *Controller) OnJointRotationFinished(fn func(Event)) CallbackHandle {
	return c.On(EventJointRotationFinished, fn)
}

// OnChainSelected registers fn for IK handle selection.
func (c *Controller) OnChainSelected(fn func(Event)) CallbackHandle {
	return c.On(EventChainSelected, fn)
}

// OnChainCleared registers fn for IK selection clears.
func (c *Controller) OnChainCleared(fn func(Event)) CallbackHandle {
	return c.On(EventChainCleared, fn)
}

// SetEventStore sets the optional ECS bridge. Pass nil to detach.
func (c *Controller) SetEventStore(store EventStore) {
	c.store = store
}

// emit fires callbacks synchronously, then the store.
func (c *Controller) emit(e Event) {
	for _, h := range c.handlers.handlers[e.Type] {
		h.fn(e)
	}
	if c.store != nil {
		c.store.EmitEvent(e)
	}
}

func (c *Controller) emitJoint(t EventType, chain string, joint int) {
	bone := ""
	if p, err := c.proxies.ByIndex(joint); err == nil {
		bone = p.Name
	}
	c.emit(Event{Type: t, Chain: chain, Joint: joint, Bone: bone})
}
