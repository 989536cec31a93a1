package model

import (
	"time"
)

// Recipient is an application end-user as seen by the token resolver. The
// fcm_token column predates the devices table and is still written by old
// client builds, so lookups merge both.
type Recipient struct {
	ID        string     `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	Name      string     `json:"name" db:"name"`
	FCMToken  *string    `json:"fcm_token,omitempty" db:"fcm_token"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Device is one registered push token for a recipient.
type Device struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform,omitempty" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RegisterDeviceRequest registers or refreshes a device token.
type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}
