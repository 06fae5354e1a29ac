// Package protocol interprets authenticated command frames: each frame maps
// to exactly one of a closed set of mutations, and each produces exactly one
// ack followed by at most one broadcast event.
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daybook-app/server/src/bridge"
	"github.com/daybook-app/server/src/errs"
	"github.com/daybook-app/server/src/hub"
	"github.com/daybook-app/server/src/model"
	"github.com/daybook-app/server/src/store"
	"github.com/daybook-app/server/src/types"
)

// Dispatcher routes decoded command frames to store mutations.
type Dispatcher struct {
	todos    store.TodoStore
	diary    store.DiaryStore
	moods    store.MoodStore
	registry *hub.Registry
	bridge   bridge.Broadcaster
	logger   zerolog.Logger
}

// NewDispatcher wires the dispatcher to its stores and notification paths.
func NewDispatcher(todos store.TodoStore, diary store.DiaryStore, moods store.MoodStore, registry *hub.Registry, b bridge.Broadcaster, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		todos:    todos,
		diary:    diary,
		moods:    moods,
		registry: registry,
		bridge:   b,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

var _ hub.CommandHandler = (*Dispatcher)(nil)

// Handle processes one command frame from an authenticated session. Nothing
// may propagate out of here and tear the socket down: decode failures,
// store errors, and panics all become error acks.
func (d *Dispatcher) Handle(ctx context.Context, client *hub.Client, userID uuid.UUID, frame []byte) {
	var env types.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		d.registry.SendTo(client, types.ErrAck("", types.CodeInvalidJSON, "malformed JSON frame"))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error().Any("panic", rec).Str("type", env.Type).Msg("command handler panic")
			d.registry.SendTo(client, types.ErrAck(env.RequestID, types.CodeInternal, "internal error"))
		}
	}()

	ack, event, entity := d.dispatch(ctx, userID, env)

	// Ack first, then the event: the originator's frames share one send
	// queue, so it observes the ack before its own broadcast copy.
	d.registry.SendTo(client, ack)
	if ack.OK && event != "" {
		d.bridge.BroadcastToUser(userID, event, entity)
	}
}

// dispatch matches the envelope against the closed command set and runs the
// mutation scoped by the session's user identity, never one supplied by the
// payload.
func (d *Dispatcher) dispatch(ctx context.Context, userID uuid.UUID, env types.Envelope) (types.Ack, string, any) {
	switch env.Type {
	case types.CmdTodoCreate:
		var in model.NewTodo
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return types.ErrAck(env.RequestID, types.CodeInvalidJSON, "invalid todo.create payload"), "", nil
		}
		todo, err := d.todos.Create(ctx, userID, in)
		if err != nil {
			return d.failureAck(env, err), "", nil
		}
		return types.OkAck(env.RequestID, todo), types.EventTodoCreated, todo

	case types.CmdTodoUpdate:
		todoID, err := uuid.Parse(env.TodoID)
		if err != nil {
			return types.ErrAck(env.RequestID, types.CodeNotFound, "todo not found"), "", nil
		}
		var patch model.TodoPatch
		if err := json.Unmarshal(env.Data, &patch); err != nil {
			return types.ErrAck(env.RequestID, types.CodeInvalidJSON, "invalid todo.update payload"), "", nil
		}
		todo, err := d.todos.Update(ctx, userID, todoID, patch)
		if err != nil {
			return d.failureAck(env, err), "", nil
		}
		return types.OkAck(env.RequestID, todo), types.EventTodoUpdated, todo

	case types.CmdTodoComplete:
		todoID, err := uuid.Parse(env.TodoID)
		if err != nil {
			return types.ErrAck(env.RequestID, types.CodeNotFound, "todo not found"), "", nil
		}
		var in model.CompleteTodo
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &in); err != nil {
				return types.ErrAck(env.RequestID, types.CodeInvalidJSON, "invalid todo.complete payload"), "", nil
			}
		}
		completedAt := time.Now()
		if in.CompletedAt != nil {
			completedAt = *in.CompletedAt
		}
		todo, err := d.todos.Complete(ctx, userID, todoID, completedAt)
		if err != nil {
			return d.failureAck(env, err), "", nil
		}
		return types.OkAck(env.RequestID, todo), types.EventTodoCompleted, todo

	case types.CmdDiaryCreate:
		var in model.NewDiaryEntry
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return types.ErrAck(env.RequestID, types.CodeInvalidJSON, "invalid diary.create payload"), "", nil
		}
		entry, err := d.diary.Create(ctx, userID, in)
		if err != nil {
			return d.failureAck(env, err), "", nil
		}
		return types.OkAck(env.RequestID, entry), types.EventDiaryCreated, entry

	case types.CmdMoodLog:
		var in model.NewMoodLog
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return types.ErrAck(env.RequestID, types.CodeInvalidJSON, "invalid mood.log payload"), "", nil
		}
		if !in.ScoreInRange() {
			return types.ErrAck(env.RequestID, types.CodeInvalidJSON, "moodScore must be between 1 and 5"), "", nil
		}
		log, err := d.moods.Create(ctx, userID, in)
		if err != nil {
			return d.failureAck(env, err), "", nil
		}
		return types.OkAck(env.RequestID, log), types.EventMoodLogged, log

	default:
		return types.ErrAck(env.RequestID, types.CodeUnknownType, "unknown command type"), "", nil
	}
}

// failureAck maps store errors to wire codes. Anything other than a scoped
// not-found is logged server-side and reported as an opaque internal error.
func (d *Dispatcher) failureAck(env types.Envelope, err error) types.Ack {
	if errors.Is(err, errs.ErrNotFound) {
		return types.ErrAck(env.RequestID, types.CodeNotFound, "todo not found")
	}
	d.logger.Error().Err(err).Str("type", env.Type).Str("request_id", env.RequestID).Msg("mutation failed")
	return types.ErrAck(env.RequestID, types.CodeInternal, "internal error")
}
