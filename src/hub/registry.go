package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Connection binds one authenticated socket to a user identity.
type Connection struct {
	Client          *Client
	UserID          string
	AuthenticatedAt time.Time
}

// Registry is the authoritative mapping from user identity to that user's
// live sockets. Sockets appear here only after successful authentication.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection        // client ID -> connection, for O(1) teardown
	users  map[string]map[string]*Client // user ID -> client ID -> client
	logger zerolog.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		users:  make(map[string]map[string]*Client),
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds an authenticated client under a user identity. The session
// state machine guarantees at most one successful authentication per socket,
// so a client ID is never registered twice.
func (r *Registry) Register(c *Client, userID string) {
	r.mu.Lock()
	r.conns[c.ID] = &Connection{Client: c, UserID: userID, AuthenticatedAt: time.Now()}
	if r.users[userID] == nil {
		r.users[userID] = make(map[string]*Client)
	}
	r.users[userID][c.ID] = c
	r.mu.Unlock()

	r.logger.Info().Str("client_id", c.ID).Str("user_id", userID).Msg("connection registered")
}

// Unregister removes a client from its user's group. No-op when the client
// was never registered or was already removed, so double-close is safe.
func (r *Registry) Unregister(clientID string) {
	r.mu.Lock()
	conn, ok := r.conns[clientID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, clientID)

	if group, ok := r.users[conn.UserID]; ok {
		delete(group, clientID)
		if len(group) == 0 {
			delete(r.users, conn.UserID)
		}
	}
	r.mu.Unlock()

	r.logger.Info().Str("client_id", clientID).Str("user_id", conn.UserID).Msg("connection unregistered")
}

// BroadcastToUser serializes msg once and queues the identical bytes to every
// live connection of the user. Closed or saturated clients are skipped;
// removal happens only via the close path.
func (r *Registry) BroadcastToUser(userID string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("broadcast marshal failed")
		return
	}

	// Snapshot targets under the lock, send outside it.
	r.mu.RLock()
	group := r.users[userID]
	targets := make([]*Client, 0, len(group))
	for _, c := range group {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if !c.TrySend(payload) {
			r.logger.Warn().Str("client_id", c.ID).Msg("send buffer full or closed, dropping")
		}
	}
}

// SendTo serializes msg and queues it to a single client. Silent no-op when
// the client is closed or its buffer is full.
func (r *Registry) SendTo(c *Client, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("client_id", c.ID).Msg("send marshal failed")
		return
	}
	if !c.TrySend(payload) {
		r.logger.Debug().Str("client_id", c.ID).Msg("send skipped, client closed or saturated")
	}
}

// CountForUser returns the number of live connections for a user.
func (r *Registry) CountForUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// TotalCount returns the number of registered connections.
func (r *Registry) TotalCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ConnectionInfo is a point-in-time view of one registered connection.
type ConnectionInfo struct {
	ClientID        string    `json:"clientId"`
	UserID          string    `json:"userId"`
	ConnectedAt     time.Time `json:"connectedAt"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// Snapshot lists the registered connections for diagnostics.
func (r *Registry) Snapshot() []ConnectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnectionInfo, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, ConnectionInfo{
			ClientID:        conn.Client.ID,
			UserID:          conn.UserID,
			ConnectedAt:     conn.Client.ConnectedAt(),
			AuthenticatedAt: conn.AuthenticatedAt,
		})
	}
	return out
}

// ConnectedUsers returns user IDs with at least one live connection.
func (r *Registry) ConnectedUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}
