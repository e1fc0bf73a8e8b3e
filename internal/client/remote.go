package client

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/audio"
)

// RemoteAudio rebuilds the recording another member is streaming into the room.
type RemoteAudio struct {
	Seq      *audio.Sequence
	Renderer *audio.Renderer
}

func NewRemoteAudio(renderer *audio.Renderer) *RemoteAudio {
	return &RemoteAudio{Seq: audio.NewSequence(), Renderer: renderer}
}

// Handlers wires r into a connection, keeping other handlers of h.
func (r *RemoteAudio) Handlers(h Handlers) Handlers {
	h.OnAudioChunk = r.OnAudioChunk
	h.OnClearOldAudio = r.OnClearOldAudio
	return h
}

func (r *RemoteAudio) OnAudioChunk(chunk []byte, first bool) {
	n := r.Seq.Append(chunk, first)
	log.Debug().Str("module", "client.remote").Int("chunks", n).Bool("first", first).Msg("audio chunk")
	if r.Renderer != nil {
		r.Renderer.DrawCombined(r.Seq.Bytes())
	}
}

func (r *RemoteAudio) OnClearOldAudio() {
	r.Seq.Reset()
	if r.Renderer != nil {
		r.Renderer.DrawCombined(nil)
	}
}
