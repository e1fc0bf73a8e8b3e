package audio

import "errors"

var (
	// ErrDeviceAccess is returned when the microphone cannot be opened.
	ErrDeviceAccess = errors.New("microphone unavailable")
	// ErrDecodeSkip means the accumulated data does not decode yet. Callers skip the redraw.
	ErrDecodeSkip       = errors.New("audio not decodable")
	ErrAlreadyCapturing = errors.New("capture already running")
	ErrNothingToPlay    = errors.New("no audio to play")
)
