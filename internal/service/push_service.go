package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atsaeid/weather-wise-api/internal/models"
	"github.com/atsaeid/weather-wise-api/pkg/config"
	appErrors "github.com/atsaeid/weather-wise-api/pkg/errors"
)

type pushStore interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	FindByUser(ctx context.Context, userID string) (*models.PushSubscription, error)
	Delete(ctx context.Context, userID string) error
}

// PushService manages web-push subscriptions and delivers notifications
// signed with the server's VAPID key pair.
type PushService struct {
	store     pushStore
	subject   string
	publicKey string
	secretKey string
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewPushService constructs a PushService.
func NewPushService(cfg config.PushConfig, store pushStore, validate *validator.Validate, logger *zap.Logger) *PushService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushService{
		store:     store,
		subject:   cfg.Subject,
		publicKey: cfg.PublicKey,
		secretKey: cfg.PrivateKey,
		validate:  validate,
		logger:    logger,
	}
}

// Enabled reports whether a VAPID key pair is configured.
func (s *PushService) Enabled() bool {
	return s.publicKey != "" && s.secretKey != ""
}

// PublicKey exposes the VAPID public key for client-side subscription.
// Not found rather than an internal error when no key pair is
// configured: the feature is simply absent on that deployment.
func (s *PushService) PublicKey() (*models.VapidPublicKeyResponse, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "push notifications are not configured")
	}
	return &models.VapidPublicKeyResponse{PublicKey: s.publicKey}, nil
}

// Subscribe stores or replaces the user's push subscription.
func (s *PushService) Subscribe(ctx context.Context, userID string, req *models.PushSubscriptionRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid push subscription")
	}

	sub := &models.PushSubscription{
		UserID:   userID,
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	return s.store.Upsert(ctx, sub)
}

// Unsubscribe removes the user's subscription. Removing a missing
// subscription is a no-op.
func (s *PushService) Unsubscribe(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}

// Notification is the payload delivered to the service worker.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send delivers a notification to the user's subscribed endpoint. A
// 404/410 from the push gateway means the browser dropped the
// subscription, so the stored row is purged.
func (s *PushService) Send(ctx context.Context, userID string, notification Notification) error {
	if !s.Enabled() {
		return appErrors.Clone(appErrors.ErrConfiguration, "push notifications are not configured")
	}

	sub, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no push subscription for user")
		}
		return err
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.secretKey,
		TTL:             int((6 * time.Hour).Seconds()),
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "push delivery failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusNotFound, http.StatusGone:
		s.logger.Info("push subscription expired, removing", zap.String("user_id", userID))
		if err := s.store.Delete(ctx, userID); err != nil {
			s.logger.Warn("failed to remove expired push subscription", zap.Error(err))
		}
		return appErrors.Clone(appErrors.ErrNotFound, "push subscription expired")
	default:
		return appErrors.Clone(appErrors.ErrUpstream, "push gateway rejected the notification")
	}
}
