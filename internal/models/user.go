package models

import "time"

// UserRole enumerates the roles a user may hold. Claims embed roles as
// a typed list rather than ad hoc strings.
type UserRole string

const (
	RoleUser  UserRole = "User"
	RoleAdmin UserRole = "Admin"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Roles returns the role set carried into access-token claims.
func (u *User) Roles() []UserRole {
	if u == nil || u.Role == "" {
		return nil
	}
	return []UserRole{u.Role}
}
