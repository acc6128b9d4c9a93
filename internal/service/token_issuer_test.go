package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/pkg/config"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

func TestNewTokenIssuerRequiresConfiguration(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.JWTConfig
	}{
		{"missing secret", config.JWTConfig{Issuer: "iss", Audience: "aud"}},
		{"missing issuer", config.JWTConfig{Secret: "secret", Audience: "aud"}},
		{"missing audience", config.JWTConfig{Secret: "secret", Issuer: "iss"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTokenIssuer(tc.cfg)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
		})
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(config.JWTConfig{
		Secret:       "test-secret",
		Issuer:       "weatherwise",
		Audience:     "weatherwise-client",
		AccessExpiry: 30 * time.Minute,
	})
	require.NoError(t, err)

	user := &models.User{ID: "u1", Email: "alice@example.com", Username: "alice", Role: models.RoleUser}
	signed, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, []models.UserRole{models.RoleUser}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer, err := NewTokenIssuer(config.JWTConfig{
		Secret:   "test-secret",
		Issuer:   "weatherwise",
		Audience: "weatherwise-client",
	})
	require.NoError(t, err)
	// Force tokens that are already expired when minted.
	issuer.expiry = -time.Minute

	signed, _, err := issuer.Issue(&models.User{ID: "u1", Email: "a@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	mint, err := NewTokenIssuer(config.JWTConfig{Secret: "key-one", Issuer: "weatherwise", Audience: "aud"})
	require.NoError(t, err)
	verify, err := NewTokenIssuer(config.JWTConfig{Secret: "key-two", Issuer: "weatherwise", Audience: "aud"})
	require.NoError(t, err)

	signed, _, err := mint.Issue(&models.User{ID: "u1", Email: "a@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = verify.Parse(signed)
	assert.Error(t, err)
}
