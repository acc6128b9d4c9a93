package models

import "time"

// PushSubscription is a persisted web-push subscription, keyed by user.
type PushSubscription struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Endpoint  string    `db:"endpoint" json:"endpoint"`
	P256dh    string    `db:"p256dh" json:"p256dh"`
	Auth      string    `db:"auth" json:"auth"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PushSubscriptionRequest mirrors the browser PushSubscription JSON.
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

// VapidPublicKeyResponse exposes the public VAPID key to clients.
type VapidPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}
