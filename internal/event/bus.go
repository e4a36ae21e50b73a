package event

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/galaxevo/internal/ctxlog"
)

// Type tags an event kind. Modules define their own types; the bus treats
// them as opaque.
type Type string

// Flags carries event modifiers. None are interpreted by the bus itself.
type Flags uint32

// Event is one synchronous notification between modules.
type Event struct {
	Type Type
	// Source is the name of the emitting module.
	Source string
	// Galaxy is the subject galaxy index, or -1 when the event concerns the
	// whole group.
	Galaxy int
	// Step is the integration sub-step the event belongs to.
	Step int
	// Payload is whatever the emitter attaches. Handlers assert its shape
	// and report a mismatch as a handler error.
	Payload any
	Flags   Flags
}

// Handler observes events of one type. A non-nil error is recorded against
// the handler but never interrupts dispatch.
type Handler func(ctx context.Context, ev Event) error

type registration struct {
	id         int
	subscriber string
	name       string
	priority   int
	fn         Handler
}

// Bus is a synchronous, at-most-once dispatcher. Handlers for a type run in
// priority order (ties by registration order) before Emit returns. Nothing
// is buffered or replayed; a subscriber registered after an emission never
// sees it.
type Bus struct {
	handlers map[Type][]registration
	nextID   int

	counts   map[Type]uint64
	failures map[Type]uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		counts:   make(map[Type]uint64),
		failures: make(map[Type]uint64),
	}
}

// Subscribe registers a handler for a type and returns its registration id.
// Lower priority values run first.
func (b *Bus) Subscribe(t Type, fn Handler, subscriber, name string, priority int) (int, error) {
	if fn == nil {
		return 0, fmt.Errorf("event: nil handler for type %q (subscriber %q)", t, subscriber)
	}
	b.nextID++
	reg := registration{
		id:         b.nextID,
		subscriber: subscriber,
		name:       name,
		priority:   priority,
		fn:         fn,
	}
	hs := append(b.handlers[t], reg)
	// Stable sort keeps registration order among equal priorities.
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].priority < hs[j].priority })
	b.handlers[t] = hs
	return reg.id, nil
}

// Unsubscribe removes the registration with the given id from a type.
func (b *Bus) Unsubscribe(t Type, id int) bool {
	hs := b.handlers[t]
	for i, reg := range hs {
		if reg.id == id {
			b.handlers[t] = append(hs[:i:i], hs[i+1:]...)
			return true
		}
	}
	return false
}

// UnsubscribeAll drops every registration owned by a subscriber, across all
// types. It returns how many were removed.
func (b *Bus) UnsubscribeAll(subscriber string) int {
	removed := 0
	for t, hs := range b.handlers {
		kept := hs[:0:0]
		for _, reg := range hs {
			if reg.subscriber == subscriber {
				removed++
				continue
			}
			kept = append(kept, reg)
		}
		b.handlers[t] = kept
	}
	return removed
}

// Emit dispatches ev to every handler registered for its type, in order,
// before returning. Handler failures are logged and counted but do not stop
// dispatch. The number of handlers invoked is returned; emitting with no
// subscribers is valid and returns zero.
func (b *Bus) Emit(ctx context.Context, ev Event) int {
	b.counts[ev.Type]++
	hs := b.handlers[ev.Type]
	for _, reg := range hs {
		if err := reg.fn(ctx, ev); err != nil {
			b.failures[ev.Type]++
			ctxlog.FromContext(ctx).Warn("event handler failed",
				"type", ev.Type,
				"handler", reg.name,
				"subscriber", reg.subscriber,
				"source", ev.Source,
				"error", err)
		}
	}
	return len(hs)
}

// NumHandlers returns how many handlers are registered for a type.
func (b *Bus) NumHandlers(t Type) int { return len(b.handlers[t]) }

// Counts returns a copy of the per-type emission counts, for the
// diagnostics collaborator.
func (b *Bus) Counts() map[Type]uint64 {
	out := make(map[Type]uint64, len(b.counts))
	for t, n := range b.counts {
		out[t] = n
	}
	return out
}

// Failures returns a copy of the per-type handler-failure counts.
func (b *Bus) Failures() map[Type]uint64 {
	out := make(map[Type]uint64, len(b.failures))
	for t, n := range b.failures {
		out[t] = n
	}
	return out
}
