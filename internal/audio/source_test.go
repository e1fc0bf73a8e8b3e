package audio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeSine(t *testing.T, f Format, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	require.NoError(t, WriteWAV(path, f, sine(f, d, 440, 0.5)))
	return path
}

func TestFileMicrophone(t *testing.T) {
	req := require.New(t)
	path := writeSine(t, monoFormat, time.Second)

	mic := &FileMicrophone{Path: path}
	chunks, err := mic.Start(context.Background(), Timeslice)
	req.NoError(err)

	var got [][]byte
	for c := range chunks {
		req.NotEmpty(c.Samples)
		got = append(got, c.Data)
	}
	req.Len(got, 4)
	req.Equal("RIFF", string(got[0][:4]))
	req.NotEqual("RIFF", string(got[1][:4]))

	pcm, err := Decode(concat(got))
	req.NoError(err)
	req.Equal(8000, pcm.Frames())
}

func TestFileMicrophoneStops(t *testing.T) {
	path := writeSine(t, monoFormat, 2*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	chunks, err := (&FileMicrophone{Path: path, Realtime: true}).Start(ctx, 10*time.Millisecond)
	require.NoError(t, err)
	<-chunks
	cancel()
	for range chunks {
	}
}

func TestFileMicrophoneMissing(t *testing.T) {
	c := NewCapture(&FileMicrophone{Path: filepath.Join(t.TempDir(), "nope.wav")}, &recordingSender{}, NewSequence(), nil)
	require.ErrorIs(t, c.Start(context.Background()), ErrDeviceAccess)
}

func TestCaptureFromFile(t *testing.T) {
	req := require.New(t)
	path := writeSine(t, monoFormat, 500*time.Millisecond)
	sender := &recordingSender{}
	seq := NewSequence()
	c := NewCapture(&FileMicrophone{Path: path}, sender, seq, nil)

	req.NoError(c.Start(context.Background()))
	<-c.Done()
	c.Stop()

	req.Equal(2, seq.Len())
	d, err := Duration(seq.Bytes())
	req.NoError(err)
	req.Equal(500*time.Millisecond, d)
}
