package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atsaeid/weather-wise-api/internal/models"
)

// ErrAlreadyRevoked is returned when a revocation targets a row that is
// no longer active. Rotation uses it to resolve races deterministically:
// whichever writer revokes the row first wins, the other fails.
var ErrAlreadyRevoked = errors.New("refresh token already revoked")

// TokenRepository is the refresh-token ledger. Rows are inserted on
// issuance, mutated exactly once on revocation, and never deleted.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, user_id, token, created_at, expires_at, revoked_at, reason_revoked, replaced_by_token`

// lockUser takes the user's row lock for the duration of the
// transaction. Rotation and the logout sweep both acquire it before
// writing, so the two cannot interleave: a sweep either runs before a
// rotation (whose active-check then fails) or after it, with the
// successor row visible. Without the lock a READ COMMITTED sweep that
// blocks on a rotating row would skip it on re-evaluation and never see
// the successor inserted outside its snapshot.
func lockUser(ctx context.Context, tx *sqlx.Tx, userID string) error {
	const query = `SELECT id FROM users WHERE id = $1 FOR UPDATE`
	var id string
	if err := tx.GetContext(ctx, &id, query, userID); err != nil {
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

// Create persists a new refresh-token record. ErrDuplicate signals a
// token-string collision against the unique index.
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, revoked_at, reason_revoked, replaced_by_token) VALUES (:id, :user_id, :token, :created_at, :expires_at, :revoked_at, :reason_revoked, :replaced_by_token)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindByToken returns a ledger record by token string.
func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// Revoke marks a single token as revoked with the given reason. The
// revoked_at IS NULL guard makes revocation a one-shot transition;
// ErrAlreadyRevoked reports a lost race.
func (r *TokenRepository) Revoke(ctx context.Context, id, reason string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3 WHERE id = $1 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, revokedAt, reason)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

// Rotate revokes the presented token and inserts its successor in one
// transaction, serialized against the logout sweep by the user's row
// lock. Either both writes commit or neither does; a token that lost a
// concurrent revocation race fails with ErrAlreadyRevoked and the
// successor is never created.
func (r *TokenRepository) Rotate(ctx context.Context, old *models.RefreshToken, next *models.RefreshToken) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockUser(ctx, tx, old.UserID); err != nil {
		return err
	}

	const revokeQuery = `UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3, replaced_by_token = $4 WHERE id = $1 AND revoked_at IS NULL`
	res, err := tx.ExecContext(ctx, revokeQuery, old.ID, time.Now().UTC(), models.ReasonRefreshed, next.Token)
	if err != nil {
		return fmt.Errorf("rotate: revoke predecessor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyRevoked
	}

	if next.ID == "" {
		next.ID = uuid.NewString()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, revoked_at, reason_revoked, replaced_by_token) VALUES (:id, :user_id, :token, :created_at, :expires_at, :revoked_at, :reason_revoked, :replaced_by_token)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, next); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("rotate: insert successor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	return nil
}

// RevokeAllActiveForUser revokes every active token of a user as one
// atomic sweep, serialized against Rotate by the user's row lock so no
// mid-rotation successor can slip past it. Zero affected rows is a
// success: logout of a user with no sessions is not an error.
func (r *TokenRepository) RevokeAllActiveForUser(ctx context.Context, userID, reason string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revoke sweep: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockUser(ctx, tx, userID); err != nil {
		return err
	}

	const query = `UPDATE refresh_tokens SET revoked_at = $2, reason_revoked = $3 WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2`
	if _, err := tx.ExecContext(ctx, query, userID, now, reason); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revoke sweep: %w", err)
	}
	return nil
}
