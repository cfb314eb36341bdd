// internal/form/progress_test.go
package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_PercentRounding(t *testing.T) {
	tests := []struct {
		completed int
		percent   int
	}{
		{completed: 0, percent: 0},
		{completed: 1, percent: 14},  // round(14.28)
		{completed: 2, percent: 29},  // round(28.57)
		{completed: 3, percent: 43},  // round(42.85)
		{completed: 4, percent: 57},  // round(57.14)
		{completed: 5, percent: 71},  // round(71.42)
		{completed: 6, percent: 86},  // round(85.71)
		{completed: 7, percent: 100},
	}

	for _, tt := range tests {
		status := make(map[Section]*SectionStatus, TotalSections)
		for i, sec := range Sections() {
			status[sec] = &SectionStatus{IsComplete: i < tt.completed}
		}
		p := computeProgress(SectionBasic, status)
		assert.Equal(t, tt.percent, p.PercentComplete, "%d of 7 complete", tt.completed)
		assert.Equal(t, tt.completed, p.CompletedSections)
		assert.Equal(t, TotalSections, p.TotalSections)
	}
}

func TestProgress_TracksAdvancement(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	assert.Equal(t, 0, s.Progress().PercentComplete)
	assert.Equal(t, SectionBasic, s.Progress().CurrentSection)

	fillSection(t, s, SectionBasic)
	_, err := s.Advance(context.Background(), SectionBasic)
	require.NoError(t, err)

	p := s.Progress()
	assert.Equal(t, 1, p.CompletedSections)
	assert.Equal(t, 14, p.PercentComplete)
	assert.Equal(t, SectionObjectives, p.CurrentSection)
}

func TestSectionOrder_IsFixed(t *testing.T) {
	want := []Section{"basic", "objectives", "activities", "outcomes", "budget", "students", "references"}
	assert.Equal(t, want, Sections())
	assert.Equal(t, TotalSections, len(Sections()))

	for i, sec := range Sections() {
		assert.Equal(t, i, sec.Index())
		assert.True(t, sec.IsValid())
	}
	assert.Equal(t, -1, Section("bogus").Index())
	assert.True(t, SectionReferences.IsLast())
	assert.False(t, SectionStudents.IsLast())
}

func TestSnapshot_CopiesState(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	require.NoError(t, s.SetFieldValue(SectionBasic, "projectTitle", "Snapshot Test"))
	snap := s.Snapshot()

	assert.Equal(t, "1", snap.OpportunityID)
	assert.Equal(t, SectionBasic, snap.Current)
	assert.Len(t, snap.Sections, TotalSections)
	assert.Equal(t, "Snapshot Test", snap.Sections[0].Fields["projectTitle"].Value)

	// Mutating the snapshot must not reach the session.
	snap.Sections[0].Fields["projectTitle"] = FormField{Value: "mutated"}
	f, _ := s.Field(SectionBasic, "projectTitle")
	assert.Equal(t, "Snapshot Test", f.Value)
}
