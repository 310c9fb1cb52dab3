package storage

const heapInitCap = 64

// Heap is allocator-backed storage. Growth reallocates; the fixed
// capacity failure path of Inline is unreachable here.
type Heap struct {
	buf []byte
}

func (s *Heap) Len() int { return len(s.buf) }

func (s *Heap) Cap() int { return cap(s.buf) }

// Bytes returns the current contents, valid until the next mutation.
func (s *Heap) Bytes() []byte { return s.buf }

func (s *Heap) Reset() { s.buf = s.buf[:0] }

func (s *Heap) Write(p []byte) (int, error) {
	if s.buf == nil && len(p) > 0 {
		s.buf = make([]byte, 0, max(heapInitCap, len(p)))
	}
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Grow reserves room for n additional bytes, preserving contents.
func (s *Heap) Grow(n int) error {
	if len(s.buf)+n <= cap(s.buf) {
		return nil
	}
	next := make([]byte, len(s.buf), max(len(s.buf)+n, 2*cap(s.buf)))
	copy(next, s.buf)
	s.buf = next
	return nil
}
