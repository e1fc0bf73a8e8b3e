package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	req := require.New(t)
	s := NewSequence()
	req.True(s.Empty())

	req.Equal(1, s.Append([]byte("ab"), true))
	req.Equal(2, s.Append([]byte("cd"), false))
	req.Equal(3, s.Append([]byte("e"), false))
	req.Equal([]byte("abcde"), s.Bytes())

	// first restarts the recording
	req.Equal(1, s.Append([]byte("XY"), true))
	req.Equal([]byte("XY"), s.Bytes())

	s.Reset()
	req.True(s.Empty())
	req.Empty(s.Bytes())
}

func TestSequenceBytesIsACopy(t *testing.T) {
	s := NewSequence()
	s.Append([]byte("abc"), true)
	b := s.Bytes()
	b[0] = 'z'
	require.Equal(t, []byte("abc"), s.Bytes())
}
