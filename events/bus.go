package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/toolflow/logger"
)

// Wildcard subscribes a handler to every topic.
const Wildcard = "*"

// Event is one published notification.
type Event struct {
	Topic   string
	Payload any
	Time    time.Time
}

// Handler receives events for the topics it is subscribed to.
type Handler func(ctx context.Context, evt Event)

// ID identifies a subscription for Off.
type ID string

type subscription struct {
	id      ID
	handler Handler
	once    bool
	fired   atomic.Bool
}

// Bus is a topic-keyed publish/subscribe bus. Safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]*subscription
	log  *logger.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bus) { b.log = l }
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{subs: make(map[string][]*subscription)}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logger.OrNop(b.log).WithComponent("events")
	return b
}

// On subscribes h to topic until Off is called.
func (b *Bus) On(topic string, h Handler) ID {
	return b.subscribe(topic, h, false)
}

// Once subscribes h to the next event on topic only.
func (b *Bus) Once(topic string, h Handler) ID {
	return b.subscribe(topic, h, true)
}

func (b *Bus) subscribe(topic string, h Handler, once bool) ID {
	sub := &subscription{id: ID(uuid.NewString()), handler: h, once: once}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], sub)
	return sub.id
}

// Off removes the subscription. It reports whether anything was removed.
func (b *Bus) Off(topic string, id ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(topic, id)
}

func (b *Bus) removeLocked(topic string, id ID) bool {
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id != id {
			continue
		}
		b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
		return true
	}
	return false
}

// Emit delivers payload to every listener of topic, then to wildcard
// listeners, and returns how many handlers ran.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) int {
	evt := Event{Topic: topic, Payload: payload, Time: time.Now()}

	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs[topic])+len(b.subs[Wildcard]))
	targets = append(targets, b.subs[topic]...)
	if topic != Wildcard {
		targets = append(targets, b.subs[Wildcard]...)
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if sub.once {
			if !sub.fired.CompareAndSwap(false, true) {
				continue
			}
			b.mu.Lock()
			if !b.removeLocked(topic, sub.id) {
				b.removeLocked(Wildcard, sub.id)
			}
			b.mu.Unlock()
		}
		b.deliver(ctx, sub, evt)
		delivered++
	}
	return delivered
}

func (b *Bus) deliver(ctx context.Context, sub *subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", logger.Fields(
				logger.FieldTopic, evt.Topic,
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	sub.handler(ctx, evt)
}

// Listeners returns the number of subscriptions on topic (wildcards excluded).
func (b *Bus) Listeners(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
