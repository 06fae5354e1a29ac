// Package store defines the persistence interfaces consumed by the command
// dispatcher and the REST handlers. Implementations scope every operation by
// user, so a missing row and another user's row are indistinguishable.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/server/src/model"
)

// TodoStore persists task items.
type TodoStore interface {
	Create(ctx context.Context, userID uuid.UUID, in model.NewTodo) (*model.Todo, error)
	// Update applies a partial patch. Returns errs.ErrNotFound when the todo
	// does not exist for the given user.
	Update(ctx context.Context, userID, todoID uuid.UUID, patch model.TodoPatch) (*model.Todo, error)
	// Complete marks a todo done. Returns errs.ErrNotFound when scoped lookup misses.
	Complete(ctx context.Context, userID, todoID uuid.UUID, completedAt time.Time) (*model.Todo, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Todo, error)
}

// DiaryStore persists journal entries.
type DiaryStore interface {
	Create(ctx context.Context, userID uuid.UUID, in model.NewDiaryEntry) (*model.DiaryEntry, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.DiaryEntry, error)
}

// MoodStore persists mood logs.
type MoodStore interface {
	Create(ctx context.Context, userID uuid.UUID, in model.NewMoodLog) (*model.MoodLog, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.MoodLog, error)
}

// UserStore persists accounts for the login flow.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}
