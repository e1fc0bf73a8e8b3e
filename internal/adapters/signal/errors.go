package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/app/orch"
	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

var ErrRateLimited = errors.New("rate limited")

// Error codes carried by the error event.
const (
	CodeBadPayload    = protocol.CodeBadPayload
	CodeUnknownEvent  = protocol.CodeUnknownEvent
	CodeInvalidRoomID = protocol.CodeInvalidRoomID
	CodeRoomNotFound  = protocol.CodeRoomNotFound
	CodeUnauthorized  = protocol.CodeUnauthenticated
	CodeRateLimited   = protocol.CodeRateLimited
)

// errorCode maps a handler error to the code reported back to the sender.
// An empty code means the event is dropped without a reply.
func errorCode(err error) string {
	switch {
	case errors.Is(err, protocol.ErrBadPayload):
		return CodeBadPayload
	case errors.Is(err, orch.ErrUnknownEvent):
		return CodeUnknownEvent
	case errors.Is(err, domain.ErrInvalidRoomID):
		return CodeInvalidRoomID
	case errors.Is(err, domain.ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, orch.ErrAnonymous):
		return CodeUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return ""
	}
}

// reportError answers only the offending connection; nobody else sees the failure.
// ev names the rejected event, its code is filled in here.
func (ctl *SignalWSController) reportError(c *WsSignalConn, sid core.SessionID, ev protocol.ErrorEvent, err error) {
	if err == nil {
		return
	}
	code := errorCode(err)
	if code == "" {
		if errors.Is(err, orch.ErrNotJoined) || errors.Is(err, orch.ErrUnknownSession) {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", string(ev.Event)).Msg("dropped event")
		} else {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", string(ev.Event)).Msg("handle event")
		}
		return
	}
	log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", string(ev.Event)).Msg("rejected event")
	ev.Type = protocol.Error
	ev.Error = code
	ctl.sendJSON(c, ev)
}
