package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/app"
	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

// RelayChat sends message to every member of the room, the sender included.
func (o *Orchestrator) RelayChat(sid core.SessionID, rawRoom, message string) (core.PublishResult, error) {
	room, sess, err := o.requireJoined(sid, rawRoom)
	if err != nil {
		return core.PublishResult{}, err
	}
	var from string
	if u := sess.Meta().User; u != nil {
		from = u.Username
	}
	frame, err := protocol.Encode(protocol.ReceiveMessageEvent{Type: protocol.ReceiveMessage, Message: message, From: from})
	if err != nil {
		return core.PublishResult{}, err
	}
	res := core.Broadcast(o.Registry.MembersOfRoom(room), "", frame)
	o.applyPolicy(app.TrafficChat, res)
	return res, nil
}

// RelayAudioChunk sends the chunk to every other member of the room. The sender already
// holds it locally.
func (o *Orchestrator) RelayAudioChunk(sid core.SessionID, rawRoom string, chunk []byte, first bool) (core.PublishResult, error) {
	room, _, err := o.requireJoined(sid, rawRoom)
	if err != nil {
		return core.PublishResult{}, err
	}
	frame, err := protocol.Encode(protocol.ReceiveAudioChunkEvent{Type: protocol.ReceiveAudioChunk, Chunk: chunk, First: first})
	if err != nil {
		return core.PublishResult{}, err
	}
	res := core.Broadcast(o.Registry.MembersOfRoom(room), sid, frame)
	o.applyPolicy(app.TrafficAudio, res)
	return res, nil
}

// NotifyRecordingStart tells the other members to discard their reconstructed stream
// before the next first chunk arrives.
func (o *Orchestrator) NotifyRecordingStart(sid core.SessionID, rawRoom string) (core.PublishResult, error) {
	room, _, err := o.requireJoined(sid, rawRoom)
	if err != nil {
		return core.PublishResult{}, err
	}
	frame, err := protocol.Encode(protocol.ClearOldAudioEvent{Type: protocol.ClearOldAudio})
	if err != nil {
		return core.PublishResult{}, err
	}
	res := core.Broadcast(o.Registry.MembersOfRoom(room), sid, frame)
	o.applyPolicy(app.TrafficControl, res)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("recording started")
	return res, nil
}

func (o *Orchestrator) applyPolicy(traffic app.Traffic, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(traffic, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.SID)).Msg("kicking slow member")
			o.Registry.Cancel(slow.SID)
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "orch").Str("sid", string(slow.SID)).Msg("frame dropped for slow member")
		}
	}
}
