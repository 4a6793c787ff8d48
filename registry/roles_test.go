package registry

import (
	"errors"
	"testing"
)

// captureSink retains emitted events in order.
type captureSink struct {
	events []Event
}

func (s *captureSink) Emit(ev Event) { s.events = append(s.events, ev) }

func newTestRegistry(t *testing.T, admin Principal, opts ...Option) *Registry {
	t.Helper()
	r, err := New(admin, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected structured *registry.Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, e.Kind, err)
	}
}

func TestNew_RejectsZeroAdmin(t *testing.T) {
	_, err := New(Principal{})
	wantKind(t, err, KindInvalidArgument)
}

func TestNew_AdminIsRegistrar(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)
	if r.Admin() != admin {
		t.Fatalf("Admin: got %s want %s", r.Admin(), admin)
	}
	if !r.IsRegistrar(admin) {
		t.Fatal("admin must be a registrar immediately after construction")
	}
	if r.IsRegistrar(principal(0x02)) {
		t.Fatal("unexpected registrar")
	}
	if got := r.TotalCertificates(); got != 0 {
		t.Fatalf("TotalCertificates: got %d want 0", got)
	}
}

func TestAddRegistrar(t *testing.T) {
	admin := principal(0x01)
	target := principal(0x02)
	sink := &captureSink{}
	r := newTestRegistry(t, admin, WithSink(sink), WithClock(func() int64 { return 42 }))

	if err := r.AddRegistrar(admin, target); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	if !r.IsRegistrar(target) {
		t.Fatal("target must be a registrar after AddRegistrar")
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	ev, ok := sink.events[0].(RegistrarAdded)
	if !ok {
		t.Fatalf("expected RegistrarAdded, got %T", sink.events[0])
	}
	if ev.Registrar != target || ev.Timestamp != 42 {
		t.Fatalf("unexpected event payload: %+v", ev)
	}
}

func TestAddRegistrar_NonAdmin(t *testing.T) {
	r := newTestRegistry(t, principal(0x01))
	err := r.AddRegistrar(principal(0x05), principal(0x02))
	wantKind(t, err, KindUnauthorized)
	if r.IsRegistrar(principal(0x02)) {
		t.Fatal("failed AddRegistrar must not change state")
	}
}

func TestAddRegistrar_ZeroTarget(t *testing.T) {
	r := newTestRegistry(t, principal(0x01))
	wantKind(t, r.AddRegistrar(principal(0x01), Principal{}), KindInvalidArgument)
}

func TestAddRegistrar_Duplicate(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)
	if err := r.AddRegistrar(admin, principal(0x02)); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	wantKind(t, r.AddRegistrar(admin, principal(0x02)), KindConflict)
}

func TestRemoveRegistrar(t *testing.T) {
	admin := principal(0x01)
	target := principal(0x02)
	sink := &captureSink{}
	r := newTestRegistry(t, admin, WithSink(sink))

	if err := r.AddRegistrar(admin, target); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	if err := r.RemoveRegistrar(admin, target); err != nil {
		t.Fatalf("RemoveRegistrar: %v", err)
	}
	if r.IsRegistrar(target) {
		t.Fatal("target must not be a registrar after RemoveRegistrar")
	}
	last := sink.events[len(sink.events)-1]
	if ev, ok := last.(RegistrarRemoved); !ok || ev.Registrar != target {
		t.Fatalf("expected RegistrarRemoved for %s, got %+v", target, last)
	}
}

func TestRemoveRegistrar_NonAdmin(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)
	if err := r.AddRegistrar(admin, principal(0x02)); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	wantKind(t, r.RemoveRegistrar(principal(0x03), principal(0x02)), KindUnauthorized)
}

func TestRemoveRegistrar_AdminNeverRemovable(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)
	wantKind(t, r.RemoveRegistrar(admin, admin), KindInvalidState)
	if !r.IsRegistrar(admin) {
		t.Fatal("admin must remain a registrar")
	}
}

func TestRemoveRegistrar_Unknown(t *testing.T) {
	r := newTestRegistry(t, principal(0x01))
	wantKind(t, r.RemoveRegistrar(principal(0x01), principal(0x09)), KindNotFound)
}
