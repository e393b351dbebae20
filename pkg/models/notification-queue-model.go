package models

import (
	"time"

	"gorm.io/gorm"
)

// TripEvent enum
type TripEvent string

const (
	EventTripSubmitted TripEvent = "trip_submitted"
	EventTripEdited    TripEvent = "trip_edited"
	EventTripApproved  TripEvent = "trip_approved"
	EventTripRejected  TripEvent = "trip_rejected"
)

// Notification is an in-app message addressed to one user
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID  string    `gorm:"type:uuid;not null;index" json:"userId"`
	TripID  string    `gorm:"type:uuid;not null;index" json:"tripId"`
	Event   TripEvent `gorm:"type:varchar(30);not null" json:"event"`
	Message string    `gorm:"type:text;not null" json:"message"`

	IsRead bool       `gorm:"not null;default:false;index" json:"isRead"`
	ReadAt *time.Time `json:"readAt,omitempty"`
}

// QueueStatus enum
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusSent       QueueStatus = "sent"
	QueueStatusFailed     QueueStatus = "failed"
)

// NotificationQueue is an outbox row delivering one trip event to one
// outbound channel
type NotificationQueue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Event   TripEvent `gorm:"type:varchar(30);not null" json:"event"`
	TripID  string    `gorm:"type:uuid;not null;index" json:"tripId"`
	Channel string    `gorm:"type:varchar(30);not null" json:"channel"`
	Payload JSON      `gorm:"type:json" json:"payload"`

	// Queue metadata
	Status       QueueStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ScheduledFor time.Time   `gorm:"index" json:"scheduledFor"`
	ProcessedAt  *time.Time  `json:"processedAt,omitempty"`

	// Retry logic
	Attempts    int        `gorm:"default:0" json:"attempts"`
	MaxAttempts int        `gorm:"default:3" json:"maxAttempts"`
	NextRetryAt *time.Time `gorm:"index" json:"nextRetryAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}
