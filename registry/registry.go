package registry

import (
	"sync"
	"time"
)

// Clock returns the current time in Unix seconds. Mutations read the clock
// exactly once, at commit.
type Clock func() int64

// Registry is the owned store for roles and certificate records.
//
// A single write lock serializes mutations: each mutating operation either
// applies all of its effects and emits its event, or applies none. Read
// operations take the read lock and return copies, so a returned record is a
// consistent snapshot relative to the last applied mutation.
type Registry struct {
	mu         sync.RWMutex
	admin      Principal
	registrars map[Principal]struct{}
	records    map[Hash]*CertificateRecord
	count      uint64

	now  Clock
	sink Sink
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithClock replaces the wall clock. Intended for tests and replay.
func WithClock(now Clock) Option {
	return func(r *Registry) { r.now = now }
}

// WithSink sets the event sink. Without one, events are dropped.
func WithSink(sink Sink) Option {
	return func(r *Registry) { r.sink = sink }
}

// New constructs a registry administered by admin. The administrator is
// fixed for the registry's lifetime and is immediately a registrar.
func New(admin Principal, opts ...Option) (*Registry, error) {
	if admin.IsZero() {
		return nil, newError(KindInvalidArgument, "Invalid address")
	}
	r := &Registry{
		admin:      admin,
		registrars: map[Principal]struct{}{admin: {}},
		records:    make(map[Hash]*CertificateRecord),
		now:        func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Admin returns the fixed administrator principal.
func (r *Registry) Admin() Principal {
	return r.admin
}

// emit delivers ev to the sink, if any. Callers must have released the write
// lock first: observers only ever see events for committed mutations.
func (r *Registry) emit(ev Event) {
	if r.sink != nil {
		r.sink.Emit(ev)
	}
}
