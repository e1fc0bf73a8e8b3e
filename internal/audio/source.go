package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog/log"
)

// FileMicrophone replays a WAV file as if it were being recorded live. Each Start reads
// the file from the beginning.
type FileMicrophone struct {
	Path string
	// Realtime paces chunks at the timeslice; otherwise they are produced as fast as read.
	Realtime bool
}

func (m *FileMicrophone) Start(ctx context.Context, timeslice time.Duration) (<-chan Chunk, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		return nil, err
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: not a PCM wav file", m.Path)
	}
	format := Format{SampleRate: int(d.SampleRate), Channels: int(d.NumChans), BitDepth: int(d.BitDepth)}
	if err := format.validate(); err != nil {
		_ = f.Close()
		return nil, err
	}

	out := make(chan Chunk)
	go m.pump(ctx, f, d, format, timeslice, out)
	return out, nil
}

func (m *FileMicrophone) pump(ctx context.Context, f *os.File, d *wav.Decoder, format Format, timeslice time.Duration, out chan<- Chunk) {
	defer close(out)
	defer f.Close()

	frames := max(1, format.BytesFor(timeslice)/format.BlockAlign())
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:   make([]int, frames*format.Channels),
	}

	var tick <-chan time.Time
	if m.Realtime {
		t := time.NewTicker(timeslice)
		defer t.Stop()
		tick = t.C
	}

	first := true
	for {
		n, err := d.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Error().Err(err).Str("module", "audio.source").Str("path", m.Path).Msg("read pcm")
			return
		}
		if n == 0 {
			return
		}
		samples := buf.Data[:n-n%format.Channels]
		data := EncodePCM(format, samples)
		if first {
			data = append(StreamHeader(format), data...)
			first = false
		}
		chunk := Chunk{Data: data, Samples: monoOf(samples, format)}

		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		}
		select {
		case <-ctx.Done():
			return
		case out <- chunk:
		}
	}
}

func monoOf(interleaved []int, f Format) []float64 {
	scale := float64(int64(1) << (f.BitDepth - 1))
	frames := len(interleaved) / f.Channels
	mono := make([]float64, frames)
	for i := range mono {
		var sum float64
		for ch := 0; ch < f.Channels; ch++ {
			sum += float64(interleaved[i*f.Channels+ch])
		}
		mono[i] = sum / float64(f.Channels) / scale
	}
	return mono
}

// WriteWAV writes interleaved samples as a complete WAV file.
func WriteWAV(path string, format Format, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           samples,
		SourceBitDepth: format.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
