package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/pkg/config"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

// TokenIssuer mints signed, time-bounded access tokens. It is a pure
// function of (user, clock, signing key); no state is persisted.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
}

// NewTokenIssuer validates the signing configuration up front. A
// missing secret, issuer or audience is a startup-fatal condition; the
// process must not serve requests with an unconfigured issuer.
func NewTokenIssuer(cfg config.JWTConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "JWT signing key is not configured")
	}
	if cfg.Issuer == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "JWT issuer is not configured")
	}
	if cfg.Audience == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "JWT audience is not configured")
	}

	expiry := cfg.AccessExpiry
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}

	return &TokenIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expiry:   expiry,
	}, nil
}

// Issue signs an access token for the user. Subject is the email, jti
// is unique per token for auditability.
func (i *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(i.expiry)
	claims := &models.AccessClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.Email,
			Audience:  jwt.ClaimStrings{i.audience},
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates signature and expiry and returns the claims. Expired
// tokens fail here regardless of signature validity.
func (i *TokenIssuer) Parse(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}
