package core

import (
	"go.uber.org/zap"

	"github.com/dviglo/dviglo-go/ref"
)

// receiverGroup is the set of objects subscribed to one (sender, type) or
// (any sender, type) pair. Removal during an in-flight dispatch nulls the
// slot instead of erasing it, so delivery order is preserved and the
// iterating sender never skips a receiver; the group is compacted when the
// last nested send returns.
type receiverGroup struct {
	receivers []*Object
	inSend    int
	dirty     bool
}

func (g *receiverGroup) beginSend() { g.inSend++ }

func (g *receiverGroup) endSend() {
	g.inSend--
	if g.inSend == 0 && g.dirty {
		// Compact in reverse so surviving relative order is untouched
		for i := len(g.receivers) - 1; i >= 0; i-- {
			if g.receivers[i] == nil {
				g.receivers = append(g.receivers[:i], g.receivers[i+1:]...)
			}
		}
		g.dirty = false
	}
}

func (g *receiverGroup) add(o *Object) {
	g.receivers = append(g.receivers, o)
}

func (g *receiverGroup) remove(o *Object) {
	for i, r := range g.receivers {
		if r == o {
			if g.inSend > 0 {
				g.receivers[i] = nil
				g.dirty = true
			} else {
				g.receivers = append(g.receivers[:i], g.receivers[i+1:]...)
			}
			return
		}
	}
}

// Context is the process-wide event bus state. It is explicitly
// constructed at the composition root and passed to every Object; there is
// no package-level singleton.
//
// Threading contract: subscription state and SendEvent are owned by the
// goroutine that constructed the Context (the main goroutine). Other
// goroutines hand events over with Post; DispatchPosted drains them on the
// main goroutine once per frame.
type Context struct {
	log  *zap.Logger
	main uint64

	// any-sender receivers by event type
	receivers map[StringHash]*receiverGroup
	// sender-scoped receivers, outer key is the sender's opaque identity
	senderReceivers map[uint64]map[StringHash]*receiverGroup
	// live senders present in senderReceivers, for cleanup on disposal
	senders map[uint64]*Object

	// innermost sender last; nil entries mark broadcast dispatches
	eventSenders []*Object
	// reusable event-data maps indexed by send-nesting depth
	dataPool []EventData

	posted *PostQueue
}

// NewContext creates the bus, capturing the calling goroutine as the
// designated dispatch goroutine. A nil logger disables logging.
func NewContext(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		log:             log,
		main:            goroutineID(),
		receivers:       make(map[StringHash]*receiverGroup),
		senderReceivers: make(map[uint64]map[StringHash]*receiverGroup),
		senders:         make(map[uint64]*Object),
		posted:          NewPostQueue(),
	}
}

// Logger returns the context logger for subsystems to derive from.
func (c *Context) Logger() *zap.Logger { return c.log }

// EventSender returns the sender of the innermost event currently being
// dispatched, or nil.
func (c *Context) EventSender() *Object {
	if len(c.eventSenders) == 0 {
		return nil
	}
	return c.eventSenders[len(c.eventSenders)-1]
}

// SendBroadcast dispatches an event with no sender: only any-sender
// receivers are notified. Used for frame events driven by the main loop.
func (c *Context) SendBroadcast(eventType StringHash, data EventData) {
	c.sendEvent(nil, eventType, data)
}

// Post queues an event from any goroutine for delivery on the main
// goroutine. The data map must not be mutated after posting.
func (c *Context) Post(eventType StringHash, data EventData) {
	c.posted.Push(PostedEvent{Type: eventType, Data: data})
}

// DispatchPosted drains cross-goroutine posted events, dispatching each as
// a broadcast. Main goroutine only.
func (c *Context) DispatchPosted() {
	for _, ev := range c.posted.Consume() {
		c.sendEvent(nil, ev.Type, ev.Data)
	}
}

// EventDataMap returns a pooled map sized for the current nesting depth.
// The map is reused by the next send at the same depth; handlers must not
// retain it.
func (c *Context) EventDataMap() EventData {
	depth := len(c.eventSenders)
	for len(c.dataPool) <= depth {
		c.dataPool = append(c.dataPool, make(EventData))
	}
	m := c.dataPool[depth]
	clear(m)
	return m
}

// sendEvent is the dispatch algorithm. Sender-scoped receivers first in
// registration order, then any-sender receivers that were not already
// notified. After every handler the sender's liveness is rechecked; a
// handler destroying the sender aborts the remainder of the dispatch.
func (c *Context) sendEvent(sender *Object, eventType StringHash, data EventData) {
	if goroutineID() != c.main {
		c.log.Error("Sending events is only supported from the main thread",
			zap.Stringer("event", eventType))
		return
	}
	if data == nil {
		data = c.EventDataMap()
	}

	var senderAlive ref.Weak[*Object]
	if sender != nil {
		senderAlive = ref.NewWeak(sender)
		defer senderAlive.Reset()
	}

	c.eventSenders = append(c.eventSenders, sender)
	defer func() {
		c.eventSenders = c.eventSenders[:len(c.eventSenders)-1]
	}()

	var processed map[*Object]struct{}

	if sender != nil {
		if group := c.senderGroup(sender, eventType); group != nil {
			group.beginSend()
			for i := 0; i < len(group.receivers); i++ {
				receiver := group.receivers[i]
				if receiver == nil {
					continue
				}
				if processed == nil {
					processed = make(map[*Object]struct{})
				}
				processed[receiver] = struct{}{}
				receiver.handleEvent(sender, eventType, data)
				if senderAlive.Expired() {
					group.endSend()
					return
				}
			}
			group.endSend()
		}
	}

	group := c.receivers[eventType]
	if group == nil {
		return
	}
	group.beginSend()
	for i := 0; i < len(group.receivers); i++ {
		receiver := group.receivers[i]
		if receiver == nil {
			continue
		}
		if processed != nil {
			if _, done := processed[receiver]; done {
				continue
			}
		}
		receiver.handleEvent(sender, eventType, data)
		if sender != nil && senderAlive.Expired() {
			group.endSend()
			return
		}
	}
	group.endSend()
}

func (c *Context) senderGroup(sender *Object, eventType StringHash) *receiverGroup {
	byType := c.senderReceivers[sender.ID()]
	if byType == nil {
		return nil
	}
	return byType[eventType]
}

// addEventReceiver registers receiver in the matching group. A nil sender
// targets the any-sender registry.
func (c *Context) addEventReceiver(receiver *Object, sender *Object, eventType StringHash) {
	if sender == nil {
		group := c.receivers[eventType]
		if group == nil {
			group = &receiverGroup{}
			c.receivers[eventType] = group
		}
		group.add(receiver)
		return
	}
	id := sender.ID()
	byType := c.senderReceivers[id]
	if byType == nil {
		byType = make(map[StringHash]*receiverGroup)
		c.senderReceivers[id] = byType
		c.senders[id] = sender
	}
	group := byType[eventType]
	if group == nil {
		group = &receiverGroup{}
		byType[eventType] = group
	}
	group.add(receiver)
}

// removeEventReceiver drops receiver from the matching group so stale
// entries do not accumulate in the registries.
func (c *Context) removeEventReceiver(receiver *Object, sender *Object, eventType StringHash) {
	if sender == nil {
		if group := c.receivers[eventType]; group != nil {
			group.remove(receiver)
		}
		return
	}
	if byType := c.senderReceivers[sender.ID()]; byType != nil {
		if group := byType[eventType]; group != nil {
			group.remove(receiver)
		}
	}
}

// removeEventSender is called when a sender is disposed: every
// subscription scoped to it, held by any receiver, is dropped along with
// the sender's registry entry.
func (c *Context) removeEventSender(sender *Object) {
	id := sender.ID()
	byType := c.senderReceivers[id]
	if byType == nil {
		return
	}
	delete(c.senderReceivers, id)
	delete(c.senders, id)
	for eventType, group := range byType {
		for _, receiver := range group.receivers {
			if receiver == nil {
				continue
			}
			receiver.dropSenderHandlers(sender, eventType)
		}
	}
}
