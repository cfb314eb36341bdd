// internal/models/opportunity.go
package models

import "time"

// Opportunity is a funding listing from the catalog. It is reference data:
// the engine looks it up and never mutates it.
type Opportunity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Agency      string    `json:"agency,omitempty"`
	Amount      float64   `json:"amount"`
	Deadline    time.Time `json:"deadline"`
	Categories  []string  `json:"categories,omitempty"`
}

// IsOpen reports whether the opportunity still accepts applications.
func (o *Opportunity) IsOpen(now time.Time) bool {
	return o.Deadline.IsZero() || now.Before(o.Deadline)
}
