package postgres

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/config"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConnString(t *testing.T) {
	got := ConnString(config.Postgres{
		Host:     "db",
		Port:     "5432",
		User:     "dormbiz",
		Password: "p@ss word",
		DBName:   "dormbiz",
		SSLMode:  "disable",
	})
	assert.Equal(t, "postgres://dormbiz:p%40ss%20word@db:5432/dormbiz?sslmode=disable", got)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: codeExclusionViolation})
	assert.True(t, isCode(err, codeExclusionViolation))
	assert.False(t, isCode(err, codeUniqueViolation))
	assert.False(t, isCode(app_errors.ErrSlotTaken, codeExclusionViolation))
	assert.Nil(t, UnwrapPgError(nil))
}

func TestFilter(t *testing.T) {
	f := &filter{}
	assert.Empty(t, f.where())

	f.add("status = ?", "active")
	f.add("(title ILIKE ? OR description ILIKE ?)", likePattern(" 50% off_desk "))
	assert.Equal(t, " WHERE status = $1 AND (title ILIKE $2 OR description ILIKE $2)", f.where())
	assert.Equal(t, []any{"active", `%50\% off\_desk%`}, f.args)
}

func TestDirectKey_IsSymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, directKey(a, b), directKey(b, a))
	assert.NotEqual(t, directKey(a, b), directKey(a, uuid.New()))
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, &now, nullTime(now))
}

func TestCheckJoin(t *testing.T) {
	assert.NoError(t, checkJoin(3, 8, false))
	assert.ErrorIs(t, checkJoin(8, 8, false), app_errors.ErrGroupFull)
	// a repeated join into a full group is still a repeated join
	assert.ErrorIs(t, checkJoin(8, 8, true), app_errors.ErrAlreadyMember)
	assert.ErrorIs(t, checkJoin(2, 8, true), app_errors.ErrAlreadyMember)
}
