package models

import "time"

// Revocation reasons recorded on the ledger. A token is revoked with
// exactly one of these, exactly once.
const (
	ReasonLoggedOut = "Logged out"
	ReasonRefreshed = "Refreshed"
	ReasonRevoked   = "Revoked without replacement"
)

// RefreshToken is a row in the refresh-token ledger. Rows are mutated
// once (revocation) and never deleted; they are retained for audit and
// replay detection.
type RefreshToken struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	Token           string     `db:"token" json:"token"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt       *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	ReasonRevoked   *string    `db:"reason_revoked" json:"reason_revoked,omitempty"`
	ReplacedByToken *string    `db:"replaced_by_token" json:"replaced_by_token,omitempty"`
}

// IsExpired reports whether the token lifetime has elapsed.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsRevoked reports whether the token was invalidated.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive reports whether the token may still be presented.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
