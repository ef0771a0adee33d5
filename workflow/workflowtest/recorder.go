package workflowtest

import (
	"context"
	"sync"

	"github.com/kbukum/toolflow/events"
)

// Recorder captures every event emitted on a bus.
type Recorder struct {
	bus *events.Bus
	id  events.ID

	mu     sync.Mutex
	events []events.Event
}

// NewRecorder subscribes to all topics on bus.
func NewRecorder(bus *events.Bus) *Recorder {
	r := &Recorder{bus: bus}
	r.id = bus.On(events.Wildcard, func(_ context.Context, evt events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, evt)
	})
	return r
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Topics returns the recorded topics in emission order.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Topic
	}
	return out
}

// Count returns how many events were recorded on topic.
func (r *Recorder) Count(topic string) int {
	n := 0
	for _, t := range r.Topics() {
		if t == topic {
			n++
		}
	}
	return n
}

// Close stops recording.
func (r *Recorder) Close() { r.bus.Off(events.Wildcard, r.id) }
