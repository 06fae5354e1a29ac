package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/daybook-app/server/src/model"
)

const moodColumns = `id, user_id, mood_score, note, source, telegram_message_id, local_date, created_at`

// MoodRepo implements store.MoodStore using PostgreSQL.
type MoodRepo struct{ db *DB }

// NewMoodRepo constructs a mood log repository.
func NewMoodRepo(db *DB) *MoodRepo { return &MoodRepo{db: db} }

// Create inserts a mood log for the given user.
func (r *MoodRepo) Create(ctx context.Context, userID uuid.UUID, in model.NewMoodLog) (*model.MoodLog, error) {
	const q = `
INSERT INTO mood_logs (id, user_id, mood_score, note, source, telegram_message_id, local_date)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + moodColumns
	row := r.db.Pool.QueryRow(ctx, q,
		uuid.New(), userID, in.MoodScore, in.Note, in.Source, in.TelegramMessageID, in.LocalDate,
	)
	var m model.MoodLog
	if err := row.Scan(&m.ID, &m.UserID, &m.MoodScore, &m.Note, &m.Source, &m.TelegramMessageID, &m.LocalDate, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the user's mood logs, newest first.
func (r *MoodRepo) List(ctx context.Context, userID uuid.UUID) ([]model.MoodLog, error) {
	const q = `SELECT ` + moodColumns + ` FROM mood_logs WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MoodLog
	for rows.Next() {
		var m model.MoodLog
		if err := rows.Scan(&m.ID, &m.UserID, &m.MoodScore, &m.Note, &m.Source, &m.TelegramMessageID, &m.LocalDate, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
