package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsaeid/weather-wise-api/internal/models"
)

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u1", Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}
	err := repo.Create(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshTokenCollision(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.RefreshToken{UserID: "u1", Token: "abc"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTokenNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery("SELECT .+ FROM refresh_tokens WHERE token").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeOneShot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3 WHERE id = $1 AND revoked_at IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Revoke(context.Background(), "t1", models.ReasonRevoked, time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAlreadyRevoked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3 WHERE id = $1 AND revoked_at IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), "t1", models.ReasonRevoked, time.Now())
	assert.ErrorIs(t, err, ErrAlreadyRevoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateCommitsBothWrites(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	old := &models.RefreshToken{ID: "t1", UserID: "u1", Token: "old"}
	next := &models.RefreshToken{UserID: "u1", Token: "new", ExpiresAt: time.Now().Add(time.Hour)}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3, replaced_by_token = $4 WHERE id = $1 AND revoked_at IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Rotate(context.Background(), old, next)
	require.NoError(t, err)
	assert.NotEmpty(t, next.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateLosesRevocationRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3, replaced_by_token = $4 WHERE id = $1 AND revoked_at IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), &models.RefreshToken{ID: "t1", UserID: "u1"}, &models.RefreshToken{Token: "new"})
	assert.ErrorIs(t, err, ErrAlreadyRevoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllActiveForUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3 WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.RevokeAllActiveForUser(context.Background(), "u1", models.ReasonLoggedOut, time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Rotation and the logout sweep must take the same per-user lock before
// touching the ledger, so a sweep that starts during a rotation waits
// for the successor row to be committed and revokes it too.
func TestRotationAndSweepSerializeOnUserLock(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	lock := regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")

	mock.ExpectBegin()
	mock.ExpectQuery(lock).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec("UPDATE refresh_tokens SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(lock).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))
	mock.ExpectExec("UPDATE refresh_tokens SET").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	old := &models.RefreshToken{ID: "t1", UserID: "u1", Token: "old"}
	next := &models.RefreshToken{UserID: "u1", Token: "new", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Rotate(context.Background(), old, next))
	require.NoError(t, repo.RevokeAllActiveForUser(context.Background(), "u1", models.ReasonLoggedOut, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
