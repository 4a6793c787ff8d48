package eventlog

import (
	"os"
	"path/filepath"
	"sync"

	"xdao.co/credreg/registry"
)

// JSONL appends one JSON envelope per line to a file. The file is the
// durable notification stream handed to external consumers; the registry
// never reads it back.
type JSONL struct {
	mu      sync.Mutex
	f       *os.File
	lastErr error
}

// NewJSONL creates or opens the JSONL file at path, creating parent
// directories as needed.
func NewJSONL(path string) (*JSONL, error) {
	if path == "" {
		return nil, os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONL{f: f}, nil
}

func (s *JSONL) Emit(ev registry.Event) {
	env, err := Encode(ev)
	if err != nil {
		s.record(err)
		return
	}
	s.append(env)
}

// EmitEnvelope appends an already-built envelope, e.g. a signed one.
func (s *JSONL) EmitEnvelope(env Envelope) {
	s.append(env)
}

func (s *JSONL) append(env Envelope) {
	line, err := marshalLine(env)
	if err != nil {
		s.record(err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(line); err != nil {
		s.lastErr = err
	}
}

func (s *JSONL) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Err returns the most recent append failure, if any. Sinks cannot fail the
// mutation that fed them; callers poll this to surface delivery problems.
func (s *JSONL) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
