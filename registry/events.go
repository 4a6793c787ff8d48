package registry

// Event is a notification emitted exactly once per accepted mutation.
//
// Events are write-only from the registry's perspective: the registry never
// consults them for decisions and retains no history beyond emission.
// Each event carries the same timestamp as the mutation that produced it.
type Event interface {
	// EventName returns the stable event type name.
	EventName() string
	// EventTime returns the mutation timestamp in Unix seconds.
	EventTime() int64
}

// Sink receives committed events.
//
// Emit is called strictly after the corresponding state transition has
// committed and outside the registry's write lock, so a sink may call back
// into read operations but must not assume it still observes the emitting
// mutation as the latest one.
type Sink interface {
	Emit(Event)
}

// RegistrarAdded announces a successful AddRegistrar.
type RegistrarAdded struct {
	Registrar Principal `json:"registrar"`
	Timestamp int64     `json:"timestamp"`
}

func (e RegistrarAdded) EventName() string { return "RegistrarAdded" }
func (e RegistrarAdded) EventTime() int64  { return e.Timestamp }

// RegistrarRemoved announces a successful RemoveRegistrar.
type RegistrarRemoved struct {
	Registrar Principal `json:"registrar"`
	Timestamp int64     `json:"timestamp"`
}

func (e RegistrarRemoved) EventName() string { return "RegistrarRemoved" }
func (e RegistrarRemoved) EventTime() int64  { return e.Timestamp }

// CertificateIssued announces a successful IssueCertificate.
type CertificateIssued struct {
	Hash      Hash      `json:"certHash"`
	Student   Principal `json:"student"`
	Issuer    Principal `json:"issuer"`
	DriveLink string    `json:"driveLink"`
	Timestamp int64     `json:"timestamp"`
}

func (e CertificateIssued) EventName() string { return "CertificateIssued" }
func (e CertificateIssued) EventTime() int64  { return e.Timestamp }

// CertificateRevoked announces a successful RevokeCertificate.
//
// The revocation reason travels only in this event; it is not stored in the
// record and no query surfaces it afterwards.
type CertificateRevoked struct {
	Hash      Hash   `json:"certHash"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

func (e CertificateRevoked) EventName() string { return "CertificateRevoked" }
func (e CertificateRevoked) EventTime() int64  { return e.Timestamp }
