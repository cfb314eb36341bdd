// internal/models/application.go
package models

import "time"

// Submission statuses. The engine only ever writes "pending"; review moves
// a record to approved or rejected afterwards.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
)

// Submission is the lifecycle endpoint of a form session: one record per
// successful final advance, immutable from the engine's perspective.
type Submission struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"userId" db:"user_id"`
	OpportunityID  string    `json:"opportunityId" db:"opportunity_id"`
	Project        string    `json:"project" db:"project"`
	Amount         float64   `json:"amount" db:"amount"`
	StartDate      string    `json:"startDate" db:"start_date"`
	EndDate        string    `json:"endDate" db:"end_date"`
	Status         string    `json:"status" db:"status"`
	SubmissionDate time.Time `json:"submissionDate" db:"submission_date"`
}

// Draft is the persisted snapshot of an in-flight form session, keyed by
// user + opportunity. Field values and completion flags round-trip through
// it; everything else is recomputed on load.
type Draft struct {
	UserID        string                       `json:"userId"`
	OpportunityID string                       `json:"opportunityId"`
	Values        map[string]map[string]string `json:"values"`   // section -> field -> value
	Complete      map[string]bool              `json:"complete"` // section -> isComplete
	Current       string                       `json:"current"`
	SavedAt       time.Time                    `json:"savedAt"`
}
