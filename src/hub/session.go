package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daybook-app/server/src/types"
)

// Session lifecycle states.
const (
	stateConnecting = iota
	stateAuthenticated
	stateClosed
)

// Authenticator resolves a bearer credential to a user identity.
// Defined here so the hub does not depend on the auth package.
type Authenticator interface {
	Verify(ctx context.Context, token, targetUserID string) (uuid.UUID, error)
}

// CommandHandler processes one command frame from an authenticated session.
type CommandHandler interface {
	Handle(ctx context.Context, client *Client, userID uuid.UUID, frame []byte)
}

// Session drives one socket through its authentication lifecycle:
// Connecting -> Authenticated -> Closed. It owns the auth deadline timer and
// guarantees the registry sees at most one register and one unregister.
type Session struct {
	client   *Client
	registry *Registry
	auth     Authenticator
	commands CommandHandler
	deadline time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	state  int
	userID uuid.UUID
	timer  *time.Timer
}

// NewSession wraps an accepted client socket.
func NewSession(client *Client, registry *Registry, auth Authenticator, commands CommandHandler, deadline time.Duration, logger zerolog.Logger) *Session {
	return &Session{
		client:   client,
		registry: registry,
		auth:     auth,
		commands: commands,
		deadline: deadline,
		logger:   logger.With().Str("component", "session").Str("client_id", client.ID).Logger(),
	}
}

// Run starts the write pump and the auth deadline timer, then processes
// inbound frames until the socket closes. It blocks until teardown.
func (s *Session) Run(ctx context.Context) {
	go s.client.WritePump()

	s.mu.Lock()
	s.timer = time.AfterFunc(s.deadline, s.onAuthDeadline)
	s.mu.Unlock()

	defer s.teardown()

	for {
		_, frame, err := s.client.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleFrame(ctx, frame)
	}
}

// handleFrame routes one inbound frame according to the current state.
// Frames are handled to completion before the next read, which serializes
// command handling per socket.
func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	s.mu.Lock()
	state := s.state
	userID := s.userID
	s.mu.Unlock()

	switch state {
	case stateConnecting:
		s.handleAuth(ctx, frame)
	case stateAuthenticated:
		s.commands.Handle(ctx, s.client, userID, frame)
	case stateClosed:
	}
}

// handleAuth processes traffic received before authentication. Anything but
// a well-formed auth frame is dropped without advancing state.
func (s *Session) handleAuth(ctx context.Context, frame []byte) {
	var env types.Envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Type != types.TypeAuth {
		s.logger.Debug().Msg("dropping frame from unauthenticated session")
		return
	}

	uid, err := s.auth.Verify(ctx, env.Token, env.UserID)
	if err != nil {
		s.registry.SendTo(s.client, types.NewAuthError(err.Error()))
		s.logger.Debug().Err(err).Msg("authentication failed")
		return // client may retry until the deadline
	}

	s.mu.Lock()
	if s.state != stateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = stateAuthenticated
	s.userID = uid
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.registry.Register(s.client, uid.String())
	s.registry.SendTo(s.client, types.NewAuthOK())
	s.logger.Info().Str("user_id", uid.String()).Msg("session authenticated")
}

// onAuthDeadline fires when the socket fails to authenticate in time. The
// state guard makes a late firing after auth or close a no-op.
func (s *Session) onAuthDeadline() {
	s.mu.Lock()
	if s.state != stateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	s.timer = nil
	s.mu.Unlock()

	s.registry.SendTo(s.client, types.NewAuthError("authentication timeout"))
	s.client.CloseWithCode(types.CloseAuthTimeout, "authentication timeout")
	s.logger.Info().Msg("authentication deadline expired, closing")
}

// teardown transitions to Closed, cancels any pending timer, and removes the
// connection from the registry. Idempotent: the registry ignores unknown
// client IDs and Client.Close guards against double close.
func (s *Session) teardown() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = stateClosed
	s.mu.Unlock()

	s.registry.Unregister(s.client.ID)
	s.client.Close()
}
