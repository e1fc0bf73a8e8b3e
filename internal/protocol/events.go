// Package protocol defines the JSON events exchanged over the room signal socket.
//
// Every frame is a JSON object with a "type" field naming the event. Binary audio
// chunks travel base64 encoded in the "chunk" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadPayload marks a frame that is not a well-formed event.
var ErrBadPayload = errors.New("bad payload")

type EventType string

// Inbound, client to server.
const (
	JoinRoom       EventType = "join_room"
	SendAudioChunk EventType = "send_audio_chunk"
	SendMessage    EventType = "send_message"
	StartRecording EventType = "start_recording"
	Ping           EventType = "ping"
	WhoAmI         EventType = "whoami"
)

// Outbound, server to client.
const (
	ReceiveAudioChunk EventType = "receive_audio_chunk"
	ReceiveMessage    EventType = "receive_message"
	ClearOldAudio     EventType = "clear_old_audio"
	Joined            EventType = "joined"
	Error             EventType = "error"
	Pong              EventType = "pong"
)

// Envelope is decoded first to route a frame by its type. Alone it is the whole
// payload of ping and pong.
type Envelope struct {
	Type EventType `json:"type"`
}

type JoinRoomPayload struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomID"`
}

type AudioChunkPayload struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomID"`
	Chunk  []byte    `json:"chunk"`
	First  bool      `json:"first"`
}

type MessagePayload struct {
	Type    EventType `json:"type"`
	RoomID  string    `json:"roomID"`
	Message string    `json:"message"`
}

type StartRecordingPayload struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomID,omitempty"`
}

type ReceiveAudioChunkEvent struct {
	Type  EventType `json:"type"`
	Chunk []byte    `json:"chunk"`
	First bool      `json:"first"`
}

type ReceiveMessageEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
	From    string    `json:"from,omitempty"`
}

type ClearOldAudioEvent struct {
	Type EventType `json:"type"`
}

type JoinedEvent struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomID"`
}

type WhoAmIEvent struct {
	Type     EventType `json:"type"`
	UserID   string    `json:"userID,omitempty"`
	Username string    `json:"username,omitempty"`
	RoomID   string    `json:"roomID,omitempty"`
}

// ErrorEvent rejects one inbound event. RoomID echoes the room a rejected join_room named.
type ErrorEvent struct {
	Type   EventType `json:"type"`
	Event  EventType `json:"event,omitempty"`
	Error  string    `json:"error"`
	RoomID string    `json:"roomID,omitempty"`
}

// Error codes carried by socket error events and REST error bodies.
const (
	CodeBadPayload         = "bad_payload"
	CodeUnknownEvent       = "unknown_event"
	CodeInvalidRoomID      = "invalid_room_id"
	CodeRoomNotFound       = "room_not_found"
	CodeUnauthenticated    = "unauthenticated"
	CodeRateLimited        = "rate_limited"
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserExists         = "user_exists"
	CodeNotConfigured      = "not_configured"
	CodeInternal           = "internal"
)

// APIError is the body of every failed REST call.
type APIError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Decode unmarshals data into a typed payload.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return v, nil
}

// TypeOf reads only the envelope of data.
func TypeOf(data []byte) (EventType, error) {
	env, err := Decode[Envelope](data)
	if err != nil {
		return "", err
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrBadPayload)
	}
	return env.Type, nil
}

func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}
