// internal/notify/feed.go
package notify

import (
	"sync"

	"grantflow/internal/models"
)

// Feed collects the outward signals a form session produces so the API
// layer can return them with the response that triggered them. One feed
// belongs to one session.
type Feed struct {
	mu            sync.Mutex
	notifications []models.Notification
	navigations   []string
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Notify(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
}

func (f *Feed) NavigateTo(view string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, view)
}

// Drain returns everything collected since the last call and resets the
// feed. Callers own the returned slices.
func (f *Feed) Drain() ([]models.Notification, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	notifications := f.notifications
	navigations := f.navigations
	f.notifications = nil
	f.navigations = nil
	return notifications, navigations
}
