// internal/catalog/seed.go
package catalog

import (
	"time"

	"grantflow/internal/models"
)

// SeedOpportunities returns the fixed catalog served when no external
// source is wired in.
func SeedOpportunities() []models.Opportunity {
	return []models.Opportunity{
		{
			ID:          "1",
			Title:       "Early Career Research Grant",
			Description: "Seed funding for first-time principal investigators across all disciplines.",
			Agency:      "National Research Council",
			Amount:      75000,
			Deadline:    time.Date(2026, 12, 15, 23, 59, 0, 0, time.UTC),
			Categories:  []string{"early-career", "multidisciplinary"},
		},
		{
			ID:          "2",
			Title:       "Climate Resilience Initiative",
			Description: "Applied research into climate adaptation for coastal communities.",
			Agency:      "Environmental Futures Fund",
			Amount:      250000,
			Deadline:    time.Date(2026, 10, 31, 23, 59, 0, 0, time.UTC),
			Categories:  []string{"climate", "engineering", "policy"},
		},
		{
			ID:          "3",
			Title:       "Undergraduate Research Experience",
			Description: "Support for projects that embed undergraduate students in active research.",
			Agency:      "Higher Education Board",
			Amount:      40000,
			Deadline:    time.Date(2027, 2, 1, 23, 59, 0, 0, time.UTC),
			Categories:  []string{"education", "students"},
		},
		{
			ID:          "4",
			Title:       "Digital Health Innovation Award",
			Description: "Translational research on digital tools for preventative healthcare.",
			Agency:      "Public Health Trust",
			Amount:      180000,
			Deadline:    time.Date(2026, 11, 20, 23, 59, 0, 0, time.UTC),
			Categories:  []string{"health", "software"},
		},
	}
}
