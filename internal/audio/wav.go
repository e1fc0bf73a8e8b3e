package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	headerSize     = 44
	wavFormatPCM   = 1
	streamingSize  = math.MaxUint32
	riffSizeOffset = 4
)

// Format describes interleaved little-endian integer PCM.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func (f Format) BlockAlign() int { return f.Channels * f.BitDepth / 8 }

func (f Format) ByteRate() int { return f.SampleRate * f.BlockAlign() }

// BytesFor is the PCM byte count of d, whole frames only.
func (f Format) BytesFor(d time.Duration) int {
	frames := int(d.Seconds() * float64(f.SampleRate))
	return frames * f.BlockAlign()
}

func (f Format) validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("invalid format %+v", f)
	}
	switch f.BitDepth {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
}

// StreamHeader is the canonical 44 byte header with both sizes left open.
func StreamHeader(f Format) []byte {
	h := make([]byte, headerSize)
	le := binary.LittleEndian
	copy(h[0:], "RIFF")
	le.PutUint32(h[4:], streamingSize)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	le.PutUint32(h[16:], 16)
	le.PutUint16(h[20:], wavFormatPCM)
	le.PutUint16(h[22:], uint16(f.Channels))
	le.PutUint32(h[24:], uint32(f.SampleRate))
	le.PutUint32(h[28:], uint32(f.ByteRate()))
	le.PutUint16(h[32:], uint16(f.BlockAlign()))
	le.PutUint16(h[34:], uint16(f.BitDepth))
	copy(h[36:], "data")
	le.PutUint32(h[40:], streamingSize)
	return h
}

// header is what Reconstruct learns while walking the RIFF chunks.
type header struct {
	format    Format
	dataStart int
}

func parseHeader(data []byte) (header, error) {
	var h header
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return h, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrDecodeSkip)
	}
	le := binary.LittleEndian
	haveFmt := false
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(le.Uint32(data[off+4:]))
		body := off + 8
		switch id {
		case "fmt ":
			if body+16 > len(data) {
				return h, fmt.Errorf("%w: truncated fmt chunk", ErrDecodeSkip)
			}
			h.format = Format{
				Channels:   int(le.Uint16(data[body+2:])),
				SampleRate: int(le.Uint32(data[body+4:])),
				BitDepth:   int(le.Uint16(data[body+14:])),
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return h, fmt.Errorf("%w: data before fmt", ErrDecodeSkip)
			}
			if err := h.format.validate(); err != nil {
				return h, fmt.Errorf("%w: %w", ErrDecodeSkip, err)
			}
			h.dataStart = body
			return h, nil
		}
		if size == streamingSize || body+size > len(data) {
			break
		}
		off = body + size + size%2
	}
	return h, fmt.Errorf("%w: no data chunk", ErrDecodeSkip)
}

// Reconstruct turns the concatenation of a chunk sequence into a complete WAV file:
// sizes are patched to the bytes actually present and a trailing partial frame is cut.
func Reconstruct(data []byte) ([]byte, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	align := h.format.BlockAlign()
	payload := len(data) - h.dataStart
	payload -= payload % align
	if payload <= 0 {
		return nil, fmt.Errorf("%w: no complete frame", ErrDecodeSkip)
	}

	out := make([]byte, h.dataStart+payload)
	copy(out, data)
	le := binary.LittleEndian
	le.PutUint32(out[riffSizeOffset:], uint32(len(out)-8))
	le.PutUint32(out[h.dataStart-4:], uint32(payload))
	return out, nil
}

// Duration is the playable length of a chunk sequence.
func Duration(data []byte) (time.Duration, error) {
	h, err := parseHeader(data)
	if err != nil {
		return 0, err
	}
	frames := (len(data) - h.dataStart) / h.format.BlockAlign()
	return time.Duration(float64(frames) / float64(h.format.SampleRate) * float64(time.Second)), nil
}

// EncodePCM writes interleaved samples in f's bit depth, little endian.
func EncodePCM(f Format, samples []int) []byte {
	bps := f.BitDepth / 8
	out := make([]byte, len(samples)*bps)
	for i, s := range samples {
		o := i * bps
		switch f.BitDepth {
		case 16:
			binary.LittleEndian.PutUint16(out[o:], uint16(int16(s)))
		case 24:
			out[o] = byte(s)
			out[o+1] = byte(s >> 8)
			out[o+2] = byte(s >> 16)
		case 32:
			binary.LittleEndian.PutUint32(out[o:], uint32(int32(s)))
		}
	}
	return out
}
