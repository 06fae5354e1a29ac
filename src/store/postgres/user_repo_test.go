package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/daybook-app/server/src/errs"
	"github.com/daybook-app/server/src/model"
)

func TestUserRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	u := &model.User{ID: uuid.New(), Username: "alice", PwdHash: []byte("h"), SaltAuth: []byte("s")}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Username, u.PwdHash, u.SaltAuth).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Create(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	u := &model.User{ID: uuid.New(), Username: "alice", PwdHash: []byte("h"), SaltAuth: []byte("s")}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Username, u.PwdHash, u.SaltAuth).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.ErrorIs(t, r.Create(context.Background(), u), errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "username", "pwd_hash", "salt_auth", "created_at"}).
		AddRow(id, "alice", []byte("h"), []byte("s"), time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username=\$1`).
		WithArgs("alice").
		WillReturnRows(rows)

	u, err := r.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE username=\$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
