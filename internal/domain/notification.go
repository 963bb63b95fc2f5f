package domain

import "time"

// NotificationChannel is the delivery channel for a notification message.
// Only "whatsapp" is produced today, but the type survives so a second
// channel can be added without touching the store or dispatcher contracts.
type NotificationChannel string

const ChannelWhatsApp NotificationChannel = "whatsapp"

func (c NotificationChannel) IsValid() bool {
	return c == ChannelWhatsApp
}

// NotificationStatus tracks the lifecycle of a NotificationMessage.
type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "QUEUED"
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// NotificationMessage is a queued delivery attempt for an appointment event.
// Created by the OutboxRelay, mutated by the NotificationDispatcher, and
// resubmitted (without being written) by the StuckRequeuer (see
// internal/repository.NotificationStore).
type NotificationMessage struct {
	ID            int64                `json:"id"`
	Channel       NotificationChannel  `json:"channel"`
	Recipient     string               `json:"recipient"`
	Template      string               `json:"template"`
	Variables     map[string]any       `json:"variables"`
	Status        NotificationStatus   `json:"status"`
	Attempts      int                  `json:"attempts"`
	LastError     *string              `json:"last_error,omitempty"`
	AppointmentID *string              `json:"appointment_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	SentAt        *time.Time           `json:"sent_at,omitempty"`
}
