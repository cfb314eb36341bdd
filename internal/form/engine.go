// internal/form/engine.go
package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/common/logger"
	"grantflow/internal/common/metrics"
	"grantflow/internal/models"
)

// DraftWriter is the slice of the draft store the engine needs.
type DraftWriter interface {
	SaveDraft(ctx context.Context, draft *models.Draft) error
	DeleteDraft(ctx context.Context, userID, opportunityID string) error
}

// SubmissionAppender persists the one record a session produces.
type SubmissionAppender interface {
	Append(ctx context.Context, sub *models.Submission) error
}

// EventSink receives the engine's outward signals: toast-style
// notifications and navigation intents. Both are fire-and-forget.
type EventSink interface {
	Notify(n models.Notification)
	NavigateTo(view string)
}

// Dependencies carries everything a Session needs from its environment.
type Dependencies struct {
	Drafts      DraftWriter
	Submissions SubmissionAppender
	Sink        EventSink
	Logger      logger.Logger
	SaveLatency time.Duration
}

// AdvanceResult is the per-call outcome of Advance. Validation failure is a
// recoverable result, never an error.
type AdvanceResult struct {
	Valid              bool              `json:"valid"`
	Section            Section           `json:"section"`
	Current            Section           `json:"current"`
	Submitted          bool              `json:"submitted"`
	Submission         *models.Submission `json:"submission,omitempty"`
	FieldErrors        map[string]string `json:"fieldErrors,omitempty"`
	IncompleteSections []Section         `json:"incompleteSections,omitempty"`
}

// Session owns the mutable field and status state of one user editing one
// application. It is created on mount and discarded on Close; there is no
// shared state across sessions.
type Session struct {
	mu sync.Mutex

	user        models.User
	opportunity models.Opportunity

	fields  map[Section]map[string]*FormField
	status  map[Section]*SectionStatus
	current Section

	submitted bool
	closed    bool
	saving    bool

	createdAt time.Time
	saveWG    sync.WaitGroup

	deps Dependencies
	log  logger.Logger
}

// NewSession builds a fresh session for user applying to opportunity. The
// PI-name field is pre-filled from the user identity.
func NewSession(user models.User, opportunity models.Opportunity, deps Dependencies) *Session {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	s := &Session{
		user:        user,
		opportunity: opportunity,
		fields:      make(map[Section]map[string]*FormField, TotalSections),
		status:      make(map[Section]*SectionStatus, TotalSections),
		current:     SectionBasic,
		createdAt:   time.Now().UTC(),
		deps:        deps,
		log: log.WithFields(map[string]interface{}{
			"userId":        user.ID,
			"opportunityId": opportunity.ID,
		}),
	}

	for _, sec := range sectionOrder {
		fields := make(map[string]*FormField, len(sectionFields[sec]))
		for _, def := range sectionFields[sec] {
			fields[def.Name] = &FormField{IsRequired: def.Required, IsValid: true}
		}
		s.fields[sec] = fields
		s.status[sec] = &SectionStatus{}
	}

	if f, ok := s.fields[SectionBasic]["piName"]; ok {
		f.Value = user.Name
	}

	metrics.ActiveSessions.Inc()
	return s
}

// RestoreDraft replays a previously saved draft into the session. Unknown
// sections or fields in the draft are ignored.
func (s *Session) RestoreDraft(draft *models.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for secName, values := range draft.Values {
		sec := Section(secName)
		fields, ok := s.fields[sec]
		if !ok {
			continue
		}
		for name, value := range values {
			if f, ok := fields[name]; ok {
				f.Value = value
			}
		}
	}
	for secName, complete := range draft.Complete {
		sec := Section(secName)
		if st, ok := s.status[sec]; ok && complete {
			st.IsComplete = true
			st.IsValid = true
			st.ErrorMessage = ""
		}
	}
	if cur := Section(draft.Current); cur.IsValid() {
		s.current = cur
	}
}

// Current returns the section the user is on.
func (s *Session) Current() Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Submitted reports whether the session reached its terminal state.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// IsSaving reports whether a draft save is in flight.
func (s *Session) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// User returns the identity the session was created for.
func (s *Session) User() models.User {
	return s.user
}

// Opportunity returns the listing the session applies to.
func (s *Session) Opportunity() models.Opportunity {
	return s.opportunity
}

// SetFieldValue updates a field unconditionally and clears its error state
// optimistically. Section completion is never recomputed here; only
// Advance does that.
func (s *Session) SetFieldValue(section Section, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return stderrors.NewSessionClosedError()
	}
	if s.submitted {
		return stderrors.NewAlreadySubmittedError(s.opportunity.ID)
	}
	fields, ok := s.fields[section]
	if !ok {
		return fmt.Errorf("unknown section %q", section)
	}
	f, ok := fields[field]
	if !ok {
		return fmt.Errorf("unknown field %q in section %q", field, section)
	}

	f.Value = value
	f.clearError()
	return nil
}

// Field returns a copy of one field's state.
func (s *Session) Field(section Section, field string) (FormField, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.fields[section][field]; ok {
		return *f, true
	}
	return FormField{}, false
}

// Status returns a copy of one section's aggregate status.
func (s *Session) Status(section Section) (SectionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.status[section]; ok {
		return *st, true
	}
	return SectionStatus{}, false
}

// Progress derives the aggregate completion state.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeProgress(s.current, s.status)
}

// CanAccess implements the monotonic forward gate: revisiting the current
// or an earlier section is always allowed; the next section unlocks only
// once the current one is complete. Jumping further ahead is denied.
func (s *Session) CanAccess(target Section) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAccessLocked(target)
}

func (s *Session) canAccessLocked(target Section) bool {
	ti := target.Index()
	if ti < 0 || s.submitted {
		return false
	}
	ci := s.current.Index()
	if ti <= ci {
		return true
	}
	return ti == ci+1 && s.status[s.current].IsComplete
}

// JumpTo moves the user directly to target when the gate allows it. On
// denial the current section is unchanged and a notification is emitted.
func (s *Session) JumpTo(target Section) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return stderrors.NewSessionClosedError()
	}
	if !s.canAccessLocked(target) {
		current := s.current
		s.mu.Unlock()

		metrics.GatingDenials.WithLabelValues(string(target)).Inc()
		s.emit(models.Notification{
			Title:       "Section locked",
			Description: "Complete the current section before moving ahead.",
			Variant:     models.NotificationVariantDestructive,
			RecipientID: s.user.ID,
			CreatedAt:   time.Now().UTC(),
		})
		return stderrors.NewSectionLockedError(string(target), string(current))
	}
	s.current = target
	s.mu.Unlock()
	return nil
}

// Retreat moves back one section with no validation and no status change.
// It is always permitted while the session is not submitted.
func (s *Session) Retreat() Section {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.submitted {
		return s.current
	}
	if prev, ok := s.current.prev(); ok {
		s.current = prev
	}
	return s.current
}

// Advance validates section and, on success, moves forward; validating the
// final section successfully submits the application. Validation failure
// is reported through the result, never as an error; the returned error is
// reserved for persistence failures during submit.
func (s *Session) Advance(ctx context.Context, section Section) (*AdvanceResult, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil, stderrors.NewSessionClosedError()
	}
	if s.submitted {
		s.mu.Unlock()
		return nil, stderrors.NewAlreadySubmittedError(s.opportunity.ID)
	}
	if !section.IsValid() {
		s.mu.Unlock()
		return nil, fmt.Errorf("unknown section %q", section)
	}
	// Advancing is subject to the same forward gate as jumping: only the
	// current section or one already passed may be validated.
	if section.Index() > s.current.Index() {
		current := s.current
		s.mu.Unlock()

		metrics.GatingDenials.WithLabelValues(string(section)).Inc()
		s.emit(models.Notification{
			Title:       "Section locked",
			Description: "Complete the current section before moving ahead.",
			Variant:     models.NotificationVariantDestructive,
			RecipientID: s.user.ID,
			CreatedAt:   time.Now().UTC(),
		})
		return nil, stderrors.NewSectionLockedError(string(section), string(current))
	}

	valid, fieldErrors := s.validateSectionLocked(section)

	st := s.status[section]
	st.IsValid = valid
	st.IsComplete = valid
	if valid {
		st.ErrorMessage = ""
	} else {
		st.ErrorMessage = "Please complete all required fields"
	}

	if !valid {
		current := s.current
		s.mu.Unlock()

		metrics.SectionsValidated.WithLabelValues(string(section), "invalid").Inc()
		s.emit(models.Notification{
			Title:       "Missing information",
			Description: "Please complete all required fields.",
			Variant:     models.NotificationVariantDestructive,
			RecipientID: s.user.ID,
			CreatedAt:   time.Now().UTC(),
		})
		return &AdvanceResult{
			Valid:       false,
			Section:     section,
			Current:     current,
			FieldErrors: fieldErrors,
		}, nil
	}

	metrics.SectionsValidated.WithLabelValues(string(section), "valid").Inc()

	if !section.IsLast() {
		next, _ := section.next()
		s.current = next
		current := s.current
		s.mu.Unlock()

		return &AdvanceResult{
			Valid:   true,
			Section: section,
			Current: current,
		}, nil
	}

	// Final section: every prior section must already be complete.
	var incomplete []Section
	for _, sec := range sectionOrder {
		if !s.status[sec].IsComplete {
			incomplete = append(incomplete, sec)
		}
	}
	if len(incomplete) > 0 {
		current := s.current
		s.mu.Unlock()

		names := make([]string, len(incomplete))
		for i, sec := range incomplete {
			names[i] = string(sec)
		}
		s.emit(models.Notification{
			Title:       "Application incomplete",
			Description: "Some sections still need attention before you can submit.",
			Variant:     models.NotificationVariantDestructive,
			RecipientID: s.user.ID,
			CreatedAt:   time.Now().UTC(),
		})
		s.log.Warn("submission blocked by incomplete sections", map[string]interface{}{
			"incomplete": names,
		})
		return &AdvanceResult{
			Valid:              false,
			Section:            section,
			Current:            current,
			IncompleteSections: incomplete,
		}, nil
	}

	sub := &models.Submission{
		ID:             uuid.NewString(),
		UserID:         s.user.ID,
		OpportunityID:  s.opportunity.ID,
		Project:        s.fields[SectionBasic]["projectTitle"].Value,
		Amount:         s.opportunity.Amount,
		StartDate:      s.fields[SectionBasic]["startDate"].Value,
		EndDate:        s.fields[SectionBasic]["endDate"].Value,
		Status:         models.SubmissionStatusPending,
		SubmissionDate: time.Now().UTC(),
	}
	s.mu.Unlock()

	if s.deps.Submissions != nil {
		if err := s.deps.Submissions.Append(ctx, sub); err != nil {
			s.log.WithError(err).Error("failed to persist submission", nil)
			return nil, stderrors.NewSubmissionStoreFailedError(err)
		}
	}

	s.mu.Lock()
	s.submitted = true
	s.mu.Unlock()

	metrics.Submissions.Inc()
	s.log.Info("application submitted", map[string]interface{}{
		"submissionId": sub.ID,
	})

	// The draft has served its purpose; removal is best effort.
	if s.deps.Drafts != nil {
		_ = s.deps.Drafts.DeleteDraft(ctx, s.user.ID, s.opportunity.ID)
	}

	s.emit(models.Notification{
		Title:       "Application submitted",
		Description: "Your application has been submitted for review.",
		Variant:     models.NotificationVariantSuccess,
		RecipientID: s.user.ID,
		CreatedAt:   time.Now().UTC(),
	})
	s.navigate("my-submissions")

	return &AdvanceResult{
		Valid:      true,
		Section:    section,
		Current:    section,
		Submitted:  true,
		Submission: sub,
	}, nil
}

func (s *Session) validateSectionLocked(section Section) (bool, map[string]string) {
	valid := true
	fieldErrors := make(map[string]string)

	for _, def := range sectionFields[section] {
		f := s.fields[section][def.Name]
		f.validate(def.Label)
		if !f.IsValid {
			valid = false
			fieldErrors[def.Name] = f.ErrorMessage
		}
	}
	if valid {
		return true, nil
	}
	return false, fieldErrors
}

// Save persists the current draft after the configured latency. It runs no
// validation and may be called from any section. A call while a save is in
// flight is rejected rather than racing the first one.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return stderrors.NewSessionClosedError()
	}
	if s.submitted {
		s.mu.Unlock()
		return stderrors.NewAlreadySubmittedError(s.opportunity.ID)
	}
	if s.saving {
		s.mu.Unlock()
		metrics.DraftSaves.WithLabelValues("rejected").Inc()
		return stderrors.NewSaveInProgressError()
	}
	s.saving = true
	draft := s.snapshotDraftLocked()
	s.mu.Unlock()

	s.saveWG.Add(1)
	go s.completeSave(draft)
	return nil
}

// completeSave is the deferred continuation of Save. Once scheduled it
// cannot be aborted, so it must not touch observable state after Close.
func (s *Session) completeSave(draft *models.Draft) {
	defer s.saveWG.Done()

	if s.deps.SaveLatency > 0 {
		time.Sleep(s.deps.SaveLatency)
	}

	started := time.Now()
	var err error
	if s.deps.Drafts != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = s.deps.Drafts.SaveDraft(ctx, draft)
	}
	metrics.SaveDuration.Observe(time.Since(started).Seconds())

	// The closed check and the emission must happen under one hold of the
	// lock; a Close landing between them would otherwise see a notification
	// after teardown. The feed carries its own lock and never calls back in.
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false
	if s.closed {
		return
	}

	if err != nil {
		metrics.DraftSaves.WithLabelValues("error").Inc()
		s.log.WithError(err).Error("draft save failed", nil)
		s.emit(models.Notification{
			Title:       "Save failed",
			Description: "Your progress could not be saved. Please try again.",
			Variant:     models.NotificationVariantDestructive,
			RecipientID: s.user.ID,
			CreatedAt:   time.Now().UTC(),
		})
		return
	}

	metrics.DraftSaves.WithLabelValues("success").Inc()
	s.emit(models.Notification{
		Title:       "Progress saved",
		Description: "Your application draft has been saved.",
		Variant:     models.NotificationVariantSuccess,
		RecipientID: s.user.ID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (s *Session) snapshotDraftLocked() *models.Draft {
	values := make(map[string]map[string]string, TotalSections)
	complete := make(map[string]bool, TotalSections)
	for _, sec := range sectionOrder {
		secValues := make(map[string]string, len(s.fields[sec]))
		for name, f := range s.fields[sec] {
			secValues[name] = f.Value
		}
		values[string(sec)] = secValues
		complete[string(sec)] = s.status[sec].IsComplete
	}
	return &models.Draft{
		UserID:        s.user.ID,
		OpportunityID: s.opportunity.ID,
		Values:        values,
		Complete:      complete,
		Current:       string(s.current),
		SavedAt:       time.Now().UTC(),
	}
}

// LoadTemplate bulk-overwrites every section from a template and forces
// all sections complete. This is a distinct administrative transition that
// bypasses validate-then-advance entirely; it is the only path that can
// mark a section complete without validating it.
func (s *Session) LoadTemplate(values map[string]map[string]string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return stderrors.NewSessionClosedError()
	}
	if s.submitted {
		s.mu.Unlock()
		return stderrors.NewAlreadySubmittedError(s.opportunity.ID)
	}

	for _, sec := range sectionOrder {
		secValues := values[string(sec)]
		for name, f := range s.fields[sec] {
			if v, ok := secValues[name]; ok {
				f.Value = v
			}
			f.clearError()
		}
		st := s.status[sec]
		st.IsComplete = true
		st.IsValid = true
		st.ErrorMessage = ""
	}
	s.mu.Unlock()

	s.emit(models.Notification{
		Title:       "Demo data loaded",
		Description: "All sections have been filled with sample content.",
		Variant:     models.NotificationVariantInfo,
		RecipientID: s.user.ID,
		CreatedAt:   time.Now().UTC(),
	})
	return nil
}

// Close tears the session down. Deferred save completions scheduled before
// Close finish silently without emitting notifications.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	metrics.ActiveSessions.Dec()
}

// CreatedAt returns when the session was constructed.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) emit(n models.Notification) {
	if s.deps.Sink != nil {
		s.deps.Sink.Notify(n)
	}
}

func (s *Session) navigate(view string) {
	if s.deps.Sink != nil {
		s.deps.Sink.NavigateTo(view)
	}
}
