// Package bridge is the shared notification path that keeps every live
// session of a user convergent, regardless of whether a mutation arrived
// over a WebSocket command or a REST call.
package bridge

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daybook-app/server/src/hub"
	"github.com/daybook-app/server/src/types"
)

// Broadcaster is the single entry point invoked after every successful
// todo/diary/mood mutation, exactly once per mutation, after commit.
type Broadcaster interface {
	BroadcastToUser(userID uuid.UUID, eventType string, entity any)
}

// Local fans events out to the in-process connection registry.
type Local struct {
	registry *hub.Registry
	logger   zerolog.Logger
}

// NewLocal creates a bridge backed by the given registry.
func NewLocal(registry *hub.Registry, logger zerolog.Logger) *Local {
	return &Local{
		registry: registry,
		logger:   logger.With().Str("component", "bridge").Logger(),
	}
}

// BroadcastToUser wraps the entity in an event frame and delivers it to all
// of the user's live connections, including the mutation's originator.
func (b *Local) BroadcastToUser(userID uuid.UUID, eventType string, entity any) {
	b.registry.BroadcastToUser(userID.String(), types.NewEvent(eventType, entity))
	b.logger.Debug().Str("user_id", userID.String()).Str("event", eventType).Msg("broadcast")
}

var _ Broadcaster = (*Local)(nil)
