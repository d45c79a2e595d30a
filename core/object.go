package core

import (
	"go.uber.org/zap"

	"github.com/dviglo/dviglo-go/ref"
)

// HandlerFunc processes one delivered event. Invoked synchronously on the
// main goroutine during dispatch.
type HandlerFunc func(eventType StringHash, data EventData)

// eventHandler is one subscription record. A nil sender means any sender.
type eventHandler struct {
	sender    *Object
	eventType StringHash
	fn        HandlerFunc
}

// Object is the embeddable base for everything that participates in the
// event bus. Subsystems and components embed it by value and initialize it
// with MakeObject. An Object's subscriptions are main-goroutine-only state;
// see Context for the threading contract.
type Object struct {
	ref.RefCounted
	context  *Context
	handlers []*eventHandler
}

// MakeObject binds a new Object to ctx.
func MakeObject(ctx *Context) Object {
	return Object{context: ctx}
}

// Context returns the context the object was created with.
func (o *Object) Context() *Context { return o.context }

// SendEvent dispatches an event with this object as the sender. Receivers
// subscribed to this specific sender are notified first, then any-sender
// receivers that have not already been notified. Must be called from the
// main goroutine; off-goroutine sends are reported and dropped.
func (o *Object) SendEvent(eventType StringHash, data EventData) {
	o.context.sendEvent(o, eventType, data)
}

// SubscribeToEvent registers for eventType from any sender. Resubscribing
// the same type replaces the previous handler.
func (o *Object) SubscribeToEvent(eventType StringHash, fn HandlerFunc) {
	for _, h := range o.handlers {
		if h.sender == nil && h.eventType == eventType {
			h.fn = fn
			return
		}
	}
	o.handlers = append(o.handlers, &eventHandler{eventType: eventType, fn: fn})
	o.context.addEventReceiver(o, nil, eventType)
}

// SubscribeToSenderEvent registers for eventType from one specific sender.
// A nil sender is reported and the handler discarded. Resubscribing the
// same (sender, type) pair replaces the previous handler.
func (o *Object) SubscribeToSenderEvent(sender *Object, eventType StringHash, fn HandlerFunc) {
	if sender == nil {
		o.context.log.Error("Null sender for specific event subscription",
			zap.Stringer("event", eventType))
		return
	}
	for _, h := range o.handlers {
		if h.sender == sender && h.eventType == eventType {
			h.fn = fn
			return
		}
	}
	o.handlers = append(o.handlers, &eventHandler{sender: sender, eventType: eventType, fn: fn})
	o.context.addEventReceiver(o, sender, eventType)
}

// UnsubscribeFromEvent removes all subscriptions for eventType, both
// any-sender and sender-scoped.
func (o *Object) UnsubscribeFromEvent(eventType StringHash) {
	kept := o.handlers[:0]
	for _, h := range o.handlers {
		if h.eventType == eventType {
			o.context.removeEventReceiver(o, h.sender, h.eventType)
			continue
		}
		kept = append(kept, h)
	}
	o.handlers = kept
}

// UnsubscribeFromSenderEvent removes the subscription for eventType scoped
// to sender, if present.
func (o *Object) UnsubscribeFromSenderEvent(sender *Object, eventType StringHash) {
	if sender == nil {
		return
	}
	for i, h := range o.handlers {
		if h.sender == sender && h.eventType == eventType {
			o.context.removeEventReceiver(o, sender, eventType)
			o.handlers = append(o.handlers[:i], o.handlers[i+1:]...)
			return
		}
	}
}

// UnsubscribeFromAllEvents removes every subscription.
func (o *Object) UnsubscribeFromAllEvents() {
	for _, h := range o.handlers {
		o.context.removeEventReceiver(o, h.sender, h.eventType)
	}
	o.handlers = nil
}

// UnsubscribeFromAllEventsExcept removes every subscription whose event
// type is not listed in exceptions.
func (o *Object) UnsubscribeFromAllEventsExcept(exceptions []StringHash) {
	kept := o.handlers[:0]
	for _, h := range o.handlers {
		excepted := false
		for _, e := range exceptions {
			if h.eventType == e {
				excepted = true
				break
			}
		}
		if excepted {
			kept = append(kept, h)
			continue
		}
		o.context.removeEventReceiver(o, h.sender, h.eventType)
	}
	o.handlers = kept
}

// EventSender returns the sender of the event currently being handled, or
// nil outside dispatch.
func (o *Object) EventSender() *Object {
	return o.context.EventSender()
}

// handleEvent delivers one event to this object. A sender-scoped handler
// wins over the any-sender handler for the same type.
func (o *Object) handleEvent(sender *Object, eventType StringHash, data EventData) {
	var generic *eventHandler
	for _, h := range o.handlers {
		if h.eventType != eventType {
			continue
		}
		if sender != nil && h.sender == sender {
			h.fn(eventType, data)
			return
		}
		if h.sender == nil && generic == nil {
			generic = h
		}
	}
	if generic != nil {
		generic.fn(eventType, data)
	}
}

// dropSenderHandlers removes handler records scoped to a disposed sender.
// Registry cleanup is handled by the caller.
func (o *Object) dropSenderHandlers(sender *Object, eventType StringHash) {
	kept := o.handlers[:0]
	for _, h := range o.handlers {
		if h.sender == sender && h.eventType == eventType {
			continue
		}
		kept = append(kept, h)
	}
	o.handlers = kept
}

// Dispose detaches the object from the bus: all own subscriptions are
// removed and subscriptions other objects hold scoped to this sender are
// dropped so stale registry entries cannot accumulate.
func (o *Object) Dispose() {
	o.UnsubscribeFromAllEvents()
	o.context.removeEventSender(o)
	o.RefCounted.Dispose()
}
