package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// UUIDSequence returns predictable UUIDs: the counter in the low eight bytes
// with version 4 and RFC 4122 variant bits set.
type UUIDSequence struct {
	mu sync.Mutex
	n  uint64
}

// Next returns the next UUID in the sequence, starting at 1.
func (s *UUIDSequence) Next() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++

	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], s.n)
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}
