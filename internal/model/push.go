package model

import "time"

// Sent-log notification types.
const (
	NotifTypeDailyReminder = "daily_reminder"
)

// PushSubscription is a browser push endpoint registered by the service worker.
type PushSubscription struct {
	ID         int64     `json:"id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
