package eventlog

import (
	"sync"

	"xdao.co/credreg/registry"
)

// Memory retains emitted events in order. It backs tests and in-process
// consumers such as a UI poll loop.
type Memory struct {
	mu     sync.Mutex
	events []registry.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Emit(ev registry.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// Events returns a copy of every event emitted so far, in emission order.
func (m *Memory) Events() []registry.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]registry.Event(nil), m.events...)
}

// Len returns the number of events emitted so far.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
