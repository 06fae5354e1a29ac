// Package types defines the WebSocket wire protocol frames shared by the
// session, dispatcher, and registry.
package types

import (
	"encoding/json"
	"time"
)

// Client frame type tags.
const (
	TypeAuth = "auth"

	CmdTodoCreate   = "todo.create"
	CmdTodoUpdate   = "todo.update"
	CmdTodoComplete = "todo.complete"
	CmdDiaryCreate  = "diary.create"
	CmdMoodLog      = "mood.log"
)

// Server frame type tags.
const (
	TypeAuthOK    = "auth.ok"
	TypeAuthError = "auth.error"
	TypeAck       = "ack"

	EventTodoCreated   = "event.todo.created"
	EventTodoUpdated   = "event.todo.updated"
	EventTodoCompleted = "event.todo.completed"
	EventDiaryCreated  = "event.diary.created"
	EventMoodLogged    = "event.mood.logged"
)

// Ack error codes.
const (
	CodeNotFound    = "NOT_FOUND"
	CodeUnknownType = "UNKNOWN_TYPE"
	CodeInvalidJSON = "INVALID_JSON"
	CodeInternal    = "INTERNAL_ERROR"
)

// CloseAuthTimeout is sent when a socket fails to authenticate before the
// deadline. Private-range code, distinct from normal closure.
const CloseAuthTimeout = 4008

// Envelope is an inbound client frame before type-specific decoding.
// Only the fields relevant to the tagged type are populated.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Token     string          `json:"token,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	TodoID    string          `json:"todoId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// AuthOK confirms a successful authentication.
type AuthOK struct {
	Type string `json:"type"`
}

// AuthError reports a failed authentication attempt.
type AuthError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AckError is the structured error carried by a failed ack.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Ack is the reply correlated to a single command frame.
type Ack struct {
	Type      string    `json:"type"`
	RequestID string    `json:"requestId"`
	OK        bool      `json:"ok"`
	Data      any       `json:"data,omitempty"`
	Error     *AckError `json:"error,omitempty"`
}

// Event is an uncorrelated push delivered to all of a user's connections.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewAuthOK builds an auth.ok frame.
func NewAuthOK() AuthOK { return AuthOK{Type: TypeAuthOK} }

// NewAuthError builds an auth.error frame with a human-readable reason.
func NewAuthError(message string) AuthError {
	return AuthError{Type: TypeAuthError, Message: message}
}

// OkAck builds a successful ack carrying the resulting entity.
func OkAck(requestID string, data any) Ack {
	return Ack{Type: TypeAck, RequestID: requestID, OK: true, Data: data}
}

// ErrAck builds a failed ack with a structured code and message.
func ErrAck(requestID, code, message string) Ack {
	return Ack{Type: TypeAck, RequestID: requestID, OK: false, Error: &AckError{Code: code, Message: message}}
}

// NewEvent builds a broadcast event frame.
func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data}
}

// Conn abstracts a WebSocket connection for testability.
// *websocket.Conn satisfies it directly.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}
