package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(RenderStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	// Use type switch to call the generic Publish with the correct type
	switch e := ev.(type) {
	case RenderStartedEvent:
		event.Publish(b.dispatcher, e)
	case RenderProgressEvent:
		event.Publish(b.dispatcher, e)
	case RenderStatusEvent:
		event.Publish(b.dispatcher, e)
	case RenderLogEvent:
		event.Publish(b.dispatcher, e)
	case RenderFinishedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives (type inference)
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e RenderFinishedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RenderStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RenderProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RenderStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RenderLogEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RenderFinishedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
