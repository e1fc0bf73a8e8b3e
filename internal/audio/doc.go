// Package audio holds the client side of a room recording: the capture pipeline that
// chunks microphone audio, the sequence that reassembles chunks into a playable stream,
// and the waveform renderer.
//
// Chunks are raw slices of one WAV stream. The first chunk of a recording starts with a
// streaming header whose sizes are unknown; Reconstruct patches them so the concatenation
// of a sequence decodes as a regular file.
package audio
