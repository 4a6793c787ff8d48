package eventlog

import "xdao.co/credreg/registry"

// Fanout delivers each event to every member sink in order. Delivery is
// sequential and deterministic; a slow member delays the ones after it.
type Fanout struct {
	sinks []registry.Sink
}

// NewFanout builds a fan-out over the given sinks. The slice is copied.
func NewFanout(sinks ...registry.Sink) *Fanout {
	return &Fanout{sinks: append([]registry.Sink(nil), sinks...)}
}

func (f *Fanout) Emit(ev registry.Event) {
	for _, s := range f.sinks {
		s.Emit(ev)
	}
}
