// Package events provides an in-process publish/subscribe bus for
// cross-step notifications.
//
// A bus is constructed explicitly and handed to whatever needs it; pipelines
// publish their lifecycle on it and steps may publish findings that later
// steps' conditions react to.
//
//	bus := events.NewBus()
//	bus.On("security.finding", func(ctx context.Context, e events.Event) {
//	    found.Store(true)
//	})
//	bus.Emit(ctx, "security.finding", finding)
//
// Delivery is synchronous: Emit returns after every listener has run.
// A single listener sees events in emission order; there is no ordering
// guarantee between different listeners.
package events
