package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daybook-app/server/src/errs"
	"github.com/daybook-app/server/src/model"
)

const todoColumns = `id, user_id, title, description, priority, due_date, due_time, tags, source, telegram_message_id, completed, completed_at, created_at, updated_at`

// TodoRepo implements store.TodoStore using PostgreSQL.
type TodoRepo struct{ db *DB }

// NewTodoRepo constructs a todo repository.
func NewTodoRepo(db *DB) *TodoRepo { return &TodoRepo{db: db} }

func scanTodo(row pgx.Row) (*model.Todo, error) {
	var t model.Todo
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority,
		&t.DueDate, &t.DueTime, &t.Tags, &t.Source, &t.TelegramMessageID,
		&t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a todo row for the given user.
func (r *TodoRepo) Create(ctx context.Context, userID uuid.UUID, in model.NewTodo) (*model.Todo, error) {
	const q = `
INSERT INTO todos (id, user_id, title, description, priority, due_date, due_time, tags, source, telegram_message_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + todoColumns
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	row := r.db.Pool.QueryRow(ctx, q,
		uuid.New(), userID, in.Title, in.Description, in.Priority,
		in.DueDate, in.DueTime, tags, in.Source, in.TelegramMessageID,
	)
	return scanTodo(row)
}

// Update applies a partial patch; nil fields keep their current value.
// The user_id predicate makes another user's todo indistinguishable from a
// missing one.
func (r *TodoRepo) Update(ctx context.Context, userID, todoID uuid.UUID, patch model.TodoPatch) (*model.Todo, error) {
	const q = `
UPDATE todos SET
  title        = COALESCE($3, title),
  description  = COALESCE($4, description),
  priority     = COALESCE($5, priority),
  due_date     = COALESCE($6, due_date),
  due_time     = COALESCE($7, due_time),
  tags         = COALESCE($8, tags),
  updated_at   = now()
WHERE id=$1 AND user_id=$2
RETURNING ` + todoColumns
	var tags any
	if patch.Tags != nil {
		tags = *patch.Tags
	}
	row := r.db.Pool.QueryRow(ctx, q,
		todoID, userID, patch.Title, patch.Description, patch.Priority,
		patch.DueDate, patch.DueTime, tags,
	)
	return scanTodo(row)
}

// Complete marks a todo done with the provided completion time.
func (r *TodoRepo) Complete(ctx context.Context, userID, todoID uuid.UUID, completedAt time.Time) (*model.Todo, error) {
	const q = `
UPDATE todos SET completed=true, completed_at=$3, updated_at=now()
WHERE id=$1 AND user_id=$2
RETURNING ` + todoColumns
	row := r.db.Pool.QueryRow(ctx, q, todoID, userID, completedAt)
	return scanTodo(row)
}

// List returns the user's todos, newest first.
func (r *TodoRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Todo, error) {
	const q = `SELECT ` + todoColumns + ` FROM todos WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
