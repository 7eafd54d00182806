package telemetry

import (
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/rangefinder/internal/errors"
)

// ConfigStore holds the active Config. Readers take lock-free snapshots;
// writers are serialized and replace the whole record at once.
type ConfigStore struct {
	current atomic.Pointer[Config]
	mu      sync.Mutex
}

// NewConfigStore returns a store holding initial. The initial record must
// satisfy Validate.
func NewConfigStore(initial Config) (*ConfigStore, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}

	s := &ConfigStore{}
	s.current.Store(&initial)

	return s, nil
}

// Get returns a consistent snapshot of the active record
func (s *ConfigStore) Get() Config {
	return *s.current.Load()
}

// TryReplace validates candidate and, if it passes, makes it the active
// record. On failure the active record is left untouched.
func (s *ConfigStore) TryReplace(candidate Config) error {
	if err := candidate.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := candidate
	s.current.Store(&next)

	return nil
}

// Write applies a remote write of an encoded record. A write reaching past
// the end of the record is an invalid offset; any other write that does not
// carry the whole record is a malformed length. Both are checked before the
// payload is validated.
func (s *ConfigStore) Write(offset int, payload []byte) error {
	if offset < 0 || offset+len(payload) > ConfigPayloadLen {
		return errors.New().WithData(ErrInvalidOffset, struct {
			Offset int
			Length int
		}{offset, len(payload)})
	}

	var candidate Config
	if err := candidate.UnmarshalBinary(payload); err != nil {
		return err
	}

	return s.TryReplace(candidate)
}

// Bytes returns the active record in its wire layout
func (s *ConfigStore) Bytes() []byte {
	b, _ := s.Get().MarshalBinary()
	return b
}

// Reading is the latest accepted distance. It has a single writer, the
// range sampler, and any number of readers.
type Reading struct {
	distance atomic.Uint32
}

// Load returns the latest distance in millimeters
func (r *Reading) Load() uint16 {
	return uint16(r.distance.Load())
}

// Store replaces the latest distance
func (r *Reading) Store(mm uint16) {
	r.distance.Store(uint32(mm))
}

// Bytes returns the latest distance in its wire layout
func (r *Reading) Bytes() []byte {
	return EncodeDistance(r.Load())
}
