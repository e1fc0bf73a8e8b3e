package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

// writePump owns every write on the socket, pings included.
func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, meta *domain.Member, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(sid)
		// account keys outlive the connection so reconnecting does not reset the limit
		if ctl.Chat != nil && meta.Anonymous() {
			ctl.Chat.Forget(rateKey(sid, meta))
		}
		cancel()
		c.Close()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(ctx, sid, meta, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, meta *domain.Member, c *WsSignalConn, data []byte) {
	typ, err := protocol.TypeOf(data)
	if err != nil {
		ctl.reportError(c, sid, protocol.ErrorEvent{}, err)
		return
	}
	rejected := protocol.ErrorEvent{Event: typ}
	if typ == protocol.JoinRoom {
		if p, err := protocol.Decode[protocol.JoinRoomPayload](data); err == nil {
			rejected.RoomID = p.RoomID
		}
	}

	switch typ {
	case protocol.Ping:
		ctl.handlePing(c)
		return
	case protocol.WhoAmI:
		ctl.handleWhoAmI(sid, meta, c)
		return
	case protocol.SendMessage:
		if ctl.Chat != nil && !ctl.Chat.Allow(rateKey(sid, meta)) {
			ctl.reportError(c, sid, rejected, ErrRateLimited)
			return
		}
	}

	ctl.reportError(c, sid, rejected, ctl.Orch.Dispatch(ctx, sid, data))
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// rateKey limits per account; anonymous connections are limited one by one.
func rateKey(sid core.SessionID, meta *domain.Member) string {
	if meta.Anonymous() {
		return "sid:" + string(sid)
	}
	return "user:" + string(meta.UserID())
}
