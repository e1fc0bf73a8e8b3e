package audio

import "sync"

// Sequence is the ordered list of chunks of the current recording.
// A chunk flagged first discards everything before it.
type Sequence struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds chunk and returns the new length of the sequence.
func (s *Sequence) Append(chunk []byte, first bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if first {
		s.chunks = s.chunks[:0]
		s.size = 0
	}
	s.chunks = append(s.chunks, chunk)
	s.size += len(chunk)
	return len(s.chunks)
}

func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.size = 0
}

func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

func (s *Sequence) Empty() bool { return s.Len() == 0 }

// Bytes returns a copy of the concatenated chunks.
func (s *Sequence) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}
