package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/internal/repository"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// refreshTokenLedger is the persistence contract for refresh tokens.
type refreshTokenLedger interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id, reason string, revokedAt time.Time) error
	Rotate(ctx context.Context, old *models.RefreshToken, next *models.RefreshToken) error
	RevokeAllActiveForUser(ctx context.Context, userID, reason string, now time.Time) error
}

// accessTokenIssuer mints and validates access tokens, satisfied by
// *TokenIssuer.
type accessTokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
	Parse(tokenString string) (*models.AccessClaims, error)
}

// AuthService orchestrates register/login/logout/refresh/revoke flows
// over the credential store, the token issuer and the refresh-token
// ledger.
type AuthService struct {
	users         authUserRepository
	tokens        refreshTokenLedger
	issuer        accessTokenIssuer
	validator     *validator.Validate
	logger        *zap.Logger
	refreshExpiry time.Duration
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, tokens refreshTokenLedger, issuer accessTokenIssuer, validate *validator.Validate, logger *zap.Logger, refreshExpiry time.Duration) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		issuer:        issuer,
		validator:     validate,
		logger:        logger,
		refreshExpiry: refreshExpiry,
	}
}

// Register creates an account with the default User role and issues the
// first token pair.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.issueTokenPair(ctx, user)
}

// Login authenticates a user and issues a fresh token pair. Unknown
// email and wrong password fail with an identical message so the
// endpoint cannot be used for user enumeration.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid email or password")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes every active refresh token of the user, across all
// devices. Revoking zero tokens is still a successful logout.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.tokens.RevokeAllActiveForUser(ctx, userID, models.ReasonLoggedOut, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh tokens")
	}

	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// Refresh rotates a presented refresh token: the old record is revoked
// with reason "Refreshed" and linked to its successor in one
// transaction. Replaying an already-rotated token fails the active
// check deterministically.
func (s *AuthService) Refresh(ctx context.Context, tokenString string) (*models.RefreshResponse, error) {
	stored, err := s.tokens.FindByToken(ctx, tokenString)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "refresh token not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch refresh token")
	}

	if !stored.IsActive(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "refresh token is expired or revoked")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "associated user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	// Mint the access token before persisting the rotation: a signing
	// failure must leave the presented token active, not revoked with
	// no usable successor.
	accessToken, _, err := s.issuer.Issue(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	next, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	if err := s.tokens.Rotate(ctx, stored, next); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Token-string collision. Regenerate once; the random space
			// makes a second collision unrealistic.
			if next, err = s.newRefreshToken(user.ID); err == nil {
				err = s.tokens.Rotate(ctx, stored, next)
			}
		}
		if errors.Is(err, repository.ErrAlreadyRevoked) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "refresh token is expired or revoked")
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate refresh token")
		}
	}

	return &models.RefreshResponse{
		Tokens: models.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: next.Token,
			ExpiresIn:    int64(time.Until(next.ExpiresAt).Seconds()),
		},
	}, nil
}

// Revoke invalidates a refresh token without replacement. The result is
// idempotent to the caller: false for unknown or already-inactive
// tokens, never an error.
func (s *AuthService) Revoke(ctx context.Context, tokenString string) (bool, error) {
	stored, err := s.tokens.FindByToken(ctx, tokenString)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch refresh token")
	}

	if !stored.IsActive(time.Now().UTC()) {
		return false, nil
	}

	if err := s.tokens.Revoke(ctx, stored.ID, models.ReasonRevoked, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrAlreadyRevoked) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
	}

	return true, nil
}

// GetCurrentUser resolves the profile and mints a fresh access token.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	accessToken, _, err := s.issuer.Issue(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Jwt:      accessToken,
	}, nil
}

// ValidateToken parses and validates an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.AccessClaims, error) {
	return s.issuer.Parse(tokenString)
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, _, err := s.issuer.Issue(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refresh, err := s.newRefreshToken(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	if err := s.tokens.Create(ctx, refresh); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if refresh, err = s.newRefreshToken(user.ID); err == nil {
				err = s.tokens.Create(ctx, refresh)
			}
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
		}
	}

	return &models.AuthResponse{
		User: models.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Jwt:      accessToken,
		},
		Tokens: models.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refresh.Token,
			ExpiresIn:    int64(time.Until(refresh.ExpiresAt).Seconds()),
		},
	}, nil
}

// newRefreshToken builds an unsaved ledger record with 64 bytes of
// cryptographically secure randomness as the bearer string.
func (s *AuthService) newRefreshToken(userID string) (*models.RefreshToken, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &models.RefreshToken{
		UserID:    userID,
		Token:     base64.StdEncoding.EncodeToString(buf),
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshExpiry),
	}, nil
}
