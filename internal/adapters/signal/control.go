package signal

import (
	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, protocol.Envelope{Type: protocol.Pong})
}

func (ctl *SignalWSController) handleWhoAmI(sid core.SessionID, meta *domain.Member, c *WsSignalConn) {
	resp := protocol.WhoAmIEvent{
		Type:   protocol.WhoAmI,
		UserID: string(meta.UserID()),
	}
	if meta.User != nil {
		resp.Username = meta.User.Username
	}
	if room, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
		resp.RoomID = string(room)
	}
	ctl.sendJSON(c, resp)
}
