// Package model contains shared domain structures.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	PwdHash   []byte    `json:"-"`
	SaltAuth  []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Todo is a task item owned by one user.
type Todo struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"userId"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Priority          string     `json:"priority,omitempty"`
	DueDate           string     `json:"dueDate,omitempty"`
	DueTime           string     `json:"dueTime,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	Source            string     `json:"source,omitempty"`
	TelegramMessageID *int64     `json:"telegramMessageId,omitempty"`
	Completed         bool       `json:"completed"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// DiaryEntry is a free-form journal record.
type DiaryEntry struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	RawText           string    `json:"rawText"`
	Tags              []string  `json:"tags,omitempty"`
	Source            string    `json:"source,omitempty"`
	TelegramMessageID *int64    `json:"telegramMessageId,omitempty"`
	LocalDate         string    `json:"localDate,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// MoodLog records a single mood score on a 1-5 scale.
type MoodLog struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	MoodScore         int       `json:"moodScore"`
	Note              string    `json:"note,omitempty"`
	Source            string    `json:"source,omitempty"`
	TelegramMessageID *int64    `json:"telegramMessageId,omitempty"`
	LocalDate         string    `json:"localDate,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewTodo is the payload for creating a todo.
type NewTodo struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Priority          string   `json:"priority,omitempty"`
	DueDate           string   `json:"dueDate,omitempty"`
	DueTime           string   `json:"dueTime,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Source            string   `json:"source,omitempty"`
	TelegramMessageID *int64   `json:"telegramMessageId,omitempty"`
}

// TodoPatch is a partial todo update; nil fields are left unchanged.
type TodoPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
	DueTime     *string   `json:"dueTime,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// CompleteTodo is the optional payload for marking a todo done.
type CompleteTodo struct {
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewDiaryEntry is the payload for creating a diary entry.
type NewDiaryEntry struct {
	RawText           string   `json:"rawText"`
	Tags              []string `json:"tags,omitempty"`
	Source            string   `json:"source,omitempty"`
	TelegramMessageID *int64   `json:"telegramMessageId,omitempty"`
	LocalDate         string   `json:"localDate,omitempty"`
}

// NewMoodLog is the payload for logging a mood.
type NewMoodLog struct {
	MoodScore         int    `json:"moodScore"`
	Note              string `json:"note,omitempty"`
	Source            string `json:"source,omitempty"`
	TelegramMessageID *int64 `json:"telegramMessageId,omitempty"`
	LocalDate         string `json:"localDate,omitempty"`
}

// ScoreInRange reports whether the mood score is on the 1-5 scale.
func (m NewMoodLog) ScoreInRange() bool {
	return m.MoodScore >= 1 && m.MoodScore <= 5
}
