package audio

import (
	"bytes"
	"fmt"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// PCM is decoded audio, one slice per channel, samples in [-1, 1].
type PCM struct {
	SampleRate int
	Channels   [][]float64
}

func (p *PCM) Frames() int {
	if p == nil || len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Decode decodes the concatenation of a chunk sequence. Anything that does not yield at
// least one frame, including empty input, is ErrDecodeSkip.
func Decode(data []byte) (*PCM, error) {
	file, err := Reconstruct(data)
	if err != nil {
		return nil, err
	}
	d := wav.NewDecoder(bytes.NewReader(file))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav", ErrDecodeSkip)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeSkip, err)
	}
	pcm := fromIntBuffer(buf, int(d.BitDepth))
	if pcm.Frames() == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrDecodeSkip)
	}
	return pcm, nil
}

func fromIntBuffer(buf *goaudio.IntBuffer, bitDepth int) *PCM {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	scale := float64(int64(1) << (bitDepth - 1))

	pcm := &PCM{SampleRate: buf.Format.SampleRate, Channels: make([][]float64, channels)}
	for ch := range pcm.Channels {
		pcm.Channels[ch] = make([]float64, frames)
	}
	for i := 0; i < frames*channels; i++ {
		pcm.Channels[i%channels][i/channels] = float64(buf.Data[i]) / scale
	}
	return pcm
}
