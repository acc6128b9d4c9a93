package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the fields required to create an account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RevokeRequest invalidates a refresh token without replacement.
type RevokeRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UserInfo describes the authenticated user in responses. Jwt carries a
// freshly minted access token for client convenience.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Jwt      string `json:"jwt"`
}

// TokenPair is the issued access/refresh credential pair. ExpiresIn is
// the refresh-token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthResponse returns the user profile plus issued tokens.
type AuthResponse struct {
	User   UserInfo  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	Tokens TokenPair `json:"tokens"`
}

// RevokeResponse reports whether a token was revoked.
type RevokeResponse struct {
	Revoked bool `json:"revoked"`
}

// AccessClaims is the JWT payload for access tokens. Subject is the
// user's email; UserID carries the durable identifier.
type AccessClaims struct {
	UserID   string     `json:"uid"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Roles    []UserRole `json:"roles"`
	jwt.RegisteredClaims
}
