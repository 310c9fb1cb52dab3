package storage

import "github.com/Azzybana/astd/errors"

// InlineCapacity is the fixed backing size used when no heap allocator
// capability is linked. Large enough for typical marshaled arguments;
// anything bigger is an explicit capacity_exceeded failure.
const InlineCapacity = 256

// Inline is fixed-capacity storage. Growth past InlineCapacity fails and
// leaves prior contents untouched.
type Inline struct {
	buf [InlineCapacity]byte
	n   int
}

func (s *Inline) Len() int { return s.n }

func (s *Inline) Cap() int { return InlineCapacity }

// Bytes returns the current contents. The slice aliases the inline array
// and is valid until the next mutation.
func (s *Inline) Bytes() []byte { return s.buf[:s.n] }

func (s *Inline) Reset() { s.n = 0 }

// Write appends p. The write is all-or-nothing: on capacity_exceeded no
// byte of p is stored.
func (s *Inline) Write(p []byte) (int, error) {
	if s.n+len(p) > InlineCapacity {
		return 0, errors.CapacityExceeded(s.n+len(p), InlineCapacity)
	}
	copy(s.buf[s.n:], p)
	s.n += len(p)
	return len(p), nil
}

// Grow verifies that n additional bytes fit. Inline storage cannot
// actually grow, so this is a capacity check only.
func (s *Inline) Grow(n int) error {
	if s.n+n > InlineCapacity {
		return errors.CapacityExceeded(s.n+n, InlineCapacity)
	}
	return nil
}
