package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/daybook-app/server/src/model"
)

const diaryColumns = `id, user_id, raw_text, tags, source, telegram_message_id, local_date, created_at`

// DiaryRepo implements store.DiaryStore using PostgreSQL.
type DiaryRepo struct{ db *DB }

// NewDiaryRepo constructs a diary repository.
func NewDiaryRepo(db *DB) *DiaryRepo { return &DiaryRepo{db: db} }

// Create inserts a diary entry for the given user.
func (r *DiaryRepo) Create(ctx context.Context, userID uuid.UUID, in model.NewDiaryEntry) (*model.DiaryEntry, error) {
	const q = `
INSERT INTO diary_entries (id, user_id, raw_text, tags, source, telegram_message_id, local_date)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + diaryColumns
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	row := r.db.Pool.QueryRow(ctx, q,
		uuid.New(), userID, in.RawText, tags, in.Source, in.TelegramMessageID, in.LocalDate,
	)
	var e model.DiaryEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.RawText, &e.Tags, &e.Source, &e.TelegramMessageID, &e.LocalDate, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the user's diary entries, newest first.
func (r *DiaryRepo) List(ctx context.Context, userID uuid.UUID) ([]model.DiaryEntry, error) {
	const q = `SELECT ` + diaryColumns + ` FROM diary_entries WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DiaryEntry
	for rows.Next() {
		var e model.DiaryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.RawText, &e.Tags, &e.Source, &e.TelegramMessageID, &e.LocalDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
