// internal/form/snapshot.go
package form

// SectionView is a read-only copy of one section's state.
type SectionView struct {
	Section Section              `json:"section"`
	Fields  map[string]FormField `json:"fields"`
	Status  SectionStatus        `json:"status"`
}

// Snapshot is a consistent read-only copy of the whole session, in section
// order, for presentation layers.
type Snapshot struct {
	OpportunityID string        `json:"opportunityId"`
	UserID        string        `json:"userId"`
	Current       Section       `json:"currentSection"`
	Submitted     bool          `json:"submitted"`
	Saving        bool          `json:"saving"`
	Sections      []SectionView `json:"sections"`
	Progress      Progress      `json:"progress"`
}

// Snapshot copies the session state under the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections := make([]SectionView, 0, TotalSections)
	for _, sec := range sectionOrder {
		fields := make(map[string]FormField, len(s.fields[sec]))
		for name, f := range s.fields[sec] {
			fields[name] = *f
		}
		sections = append(sections, SectionView{
			Section: sec,
			Fields:  fields,
			Status:  *s.status[sec],
		})
	}

	return Snapshot{
		OpportunityID: s.opportunity.ID,
		UserID:        s.user.ID,
		Current:       s.current,
		Submitted:     s.submitted,
		Saving:        s.saving,
		Sections:      sections,
		Progress:      computeProgress(s.current, s.status),
	}
}
