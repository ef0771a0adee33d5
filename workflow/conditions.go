package workflow

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/toolflow/events"
)

// Always is a condition that always holds.
func Always(*Results) bool { return true }

// Never is a condition that never holds.
func Never(*Results) bool { return false }

// Not negates cond.
func Not(cond Condition) Condition {
	return func(prior *Results) bool { return !cond(prior) }
}

// AllOf holds when every condition holds.
func AllOf(conds ...Condition) Condition {
	return func(prior *Results) bool {
		for _, c := range conds {
			if !c(prior) {
				return false
			}
		}
		return true
	}
}

// Succeeded holds when every named step ran and succeeded.
func Succeeded(steps ...string) Condition {
	return func(prior *Results) bool {
		for _, s := range steps {
			if !prior.Succeeded(s) {
				return false
			}
		}
		return true
	}
}

// AnyFailed holds when one of the named steps failed, or with no names,
// when any earlier step failed.
func AnyFailed(steps ...string) Condition {
	return func(prior *Results) bool {
		if len(steps) == 0 {
			return prior.AnyFailed()
		}
		for _, s := range steps {
			if prior.Failed(s) {
				return true
			}
		}
		return false
	}
}

// Signal latches when a topic is emitted on an event bus, so a later step can
// react to a notification published by an earlier one.
type Signal struct {
	bus   *events.Bus
	topic string
	id    events.ID
	fired atomic.Bool
	last  atomic.Pointer[any]
}

// OnEvent subscribes a Signal to topic on bus. Close releases the subscription.
func OnEvent(bus *events.Bus, topic string) *Signal {
	s := &Signal{bus: bus, topic: topic}
	s.id = bus.On(topic, func(_ context.Context, evt events.Event) {
		if payload := evt.Payload; payload != nil {
			s.last.Store(&payload)
		}
		s.fired.Store(true)
	})
	return s
}

// Fired reports whether the topic has been emitted since creation or Reset.
func (s *Signal) Fired() bool { return s.fired.Load() }

// Payload returns the most recent non-nil payload seen.
func (s *Signal) Payload() any {
	if p := s.last.Load(); p != nil {
		return *p
	}
	return nil
}

// Condition returns a condition that holds once the signal has fired.
func (s *Signal) Condition() Condition {
	return func(*Results) bool { return s.Fired() }
}

// Reset clears the latch, e.g. between runs of the same pipeline.
func (s *Signal) Reset() { s.fired.Store(false) }

// Close unsubscribes from the bus.
func (s *Signal) Close() { s.bus.Off(s.topic, s.id) }
