// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SectionsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_sections_validated_total",
			Help: "Total number of section validations by outcome",
		},
		[]string{"section", "outcome"},
	)

	GatingDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_gating_denials_total",
			Help: "Total number of denied jumps to locked sections",
		},
		[]string{"target"},
	)

	DraftSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_draft_saves_total",
			Help: "Total number of draft saves by outcome",
		},
		[]string{"outcome"},
	)

	Submissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Total number of completed application submissions",
		},
	)

	SaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "form_save_duration_seconds",
			Help: "Duration of draft save operations in seconds",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "form_sessions_active",
			Help: "Number of live form sessions",
		},
	)
)
