// internal/models/notification.go
package models

import "time"

// Notification variants understood by presenters.
const (
	NotificationVariantInfo        = "info"
	NotificationVariantSuccess     = "success"
	NotificationVariantDestructive = "destructive"
)

// Notification is a fire-and-forget event for a toast/alert presenter.
// No return value is expected from whoever consumes it.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     string    `json:"variant,omitempty"`
	RecipientID string    `json:"recipientId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
