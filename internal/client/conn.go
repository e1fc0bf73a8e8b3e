package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/protocol"
)

var ErrNotInRoom = errors.New("join a room first")

// Handlers receive room events. Nil handlers are skipped. They run on the read loop,
// one at a time.
type Handlers struct {
	OnMessage       func(protocol.ReceiveMessageEvent)
	OnAudioChunk    func(chunk []byte, first bool)
	OnClearOldAudio func()
	OnError         func(protocol.ErrorEvent)
}

// Conn is one room socket.
type Conn struct {
	ws       *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex

	mu   sync.Mutex
	room string
	acks chan joinResult
	done chan struct{}
	err  error
}

// joinResult answers the join_room for room.
type joinResult struct {
	room string
	err  error
}

// Dial opens the room socket, authenticating with the client's token.
func (c *Client) Dial(ctx context.Context, h Handlers) (*Conn, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/api/ws"

	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}

	conn := &Conn{
		ws:       ws,
		handlers: h,
		acks:     make(chan joinResult, 1),
		done:     make(chan struct{}),
	}
	go conn.readLoop()
	return conn, nil
}

// Join binds the socket to room and waits for the server to accept or reject it.
// Answers to earlier joins that gave up waiting are skipped.
func (c *Conn) Join(ctx context.Context, room string) error {
	c.drainAcks()
	if err := c.send(protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: room}); err != nil {
		return err
	}
	for {
		select {
		case res := <-c.acks:
			if !strings.EqualFold(res.room, room) {
				log.Debug().Str("module", "client").Str("room", res.room).Msg("stale join answer")
				continue
			}
			return res.err
		case <-c.done:
			return c.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) drainAcks() {
	for {
		select {
		case <-c.acks:
		default:
			return
		}
	}
}

// Room is the room the server last confirmed.
func (c *Conn) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Conn) SendMessage(message string) error {
	return c.send(protocol.MessagePayload{Type: protocol.SendMessage, RoomID: c.Room(), Message: message})
}

func (c *Conn) SendAudioChunk(chunk []byte, first bool) error {
	room := c.Room()
	if room == "" {
		return ErrNotInRoom
	}
	return c.send(protocol.AudioChunkPayload{Type: protocol.SendAudioChunk, RoomID: room, Chunk: chunk, First: first})
}

func (c *Conn) StartRecording() error {
	room := c.Room()
	if room == "" {
		return ErrNotInRoom
	}
	return c.send(protocol.StartRecordingPayload{Type: protocol.StartRecording, RoomID: room})
}

func (c *Conn) Ping() error {
	return c.send(protocol.Envelope{Type: protocol.Ping})
}

// Done is closed when the read loop ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) send(v any) error {
	b, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	typ, err := protocol.TypeOf(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "client").Msg("bad frame")
		return
	}
	switch typ {
	case protocol.ReceiveMessage:
		ev, err := protocol.Decode[protocol.ReceiveMessageEvent](data)
		if err == nil && c.handlers.OnMessage != nil {
			c.handlers.OnMessage(ev)
		}
	case protocol.ReceiveAudioChunk:
		ev, err := protocol.Decode[protocol.ReceiveAudioChunkEvent](data)
		if err == nil && c.handlers.OnAudioChunk != nil {
			c.handlers.OnAudioChunk(ev.Chunk, ev.First)
		}
	case protocol.ClearOldAudio:
		if c.handlers.OnClearOldAudio != nil {
			c.handlers.OnClearOldAudio()
		}
	case protocol.Joined:
		ev, err := protocol.Decode[protocol.JoinedEvent](data)
		if err != nil {
			return
		}
		// the server's last join wins, whether or not a Join still waits for it
		c.mu.Lock()
		c.room = ev.RoomID
		c.mu.Unlock()
		c.ack(joinResult{room: ev.RoomID})
	case protocol.Error:
		ev, err := protocol.Decode[protocol.ErrorEvent](data)
		if err != nil {
			return
		}
		if ev.Event == protocol.JoinRoom {
			c.ack(joinResult{room: ev.RoomID, err: fmt.Errorf("join rejected: %s", ev.Error)})
		}
		if c.handlers.OnError != nil {
			c.handlers.OnError(ev)
		}
	case protocol.Pong:
	default:
		log.Debug().Str("module", "client").Str("type", string(typ)).Msg("unhandled event")
	}
}

// ack hands a join outcome to Join, replacing an older one nobody read. Answers
// arrive in request order, so the newest is the one a waiting Join may want.
func (c *Conn) ack(res joinResult) {
	for {
		select {
		case c.acks <- res:
			return
		default:
		}
		select {
		case <-c.acks:
		default:
		}
	}
}
