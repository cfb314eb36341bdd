// internal/api/handlers.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/form"
	"grantflow/internal/models"
)

// sessionEnvelope is the response shape for every session operation. The
// feed is drained into it, so notifications and navigation intents ride
// along with the response that produced them.
type sessionEnvelope struct {
	SessionID     string                `json:"sessionId"`
	Snapshot      form.Snapshot         `json:"snapshot"`
	Result        *form.AdvanceResult   `json:"result,omitempty"`
	Notifications []models.Notification `json:"notifications,omitempty"`
	Navigations   []string              `json:"navigations,omitempty"`
}

func (s *Server) envelope(ms *managedSession, result *form.AdvanceResult) sessionEnvelope {
	notifications, navigations := ms.Feed.Drain()
	return sessionEnvelope{
		SessionID:     ms.ID,
		Snapshot:      ms.Session.Snapshot(),
		Result:        result,
		Notifications: notifications,
		Navigations:   navigations,
	}
}

// ownedSession resolves the session and enforces that the caller owns it.
func (s *Server) ownedSession(r *http.Request) (*managedSession, error) {
	user, _ := identityFrom(r.Context())
	ms, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if ms.Session.User().ID != user.ID {
		return nil, stderrors.NewForbiddenError(string(user.Role), "access another user's application")
	}
	return ms, nil
}

func (s *Server) handleListOpportunities(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		results, err := s.catalog.Search(r.Context(), q)
		if err != nil {
			s.errors.WriteHTTP(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, results)
		return
	}
	s.writeJSON(w, http.StatusOK, s.catalog.List(r.Context()))
}

func (s *Server) handleGetOpportunity(w http.ResponseWriter, r *http.Request) {
	opp, err := s.catalog.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, opp)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())

	var req struct {
		OpportunityID string `json:"opportunityId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OpportunityID == "" {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("opportunityId is required"))
		return
	}

	opp, err := s.catalog.FindByID(r.Context(), req.OpportunityID)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	ms := s.sessions.Create(user, *opp)
	if s.drafts != nil {
		draft, err := s.drafts.LoadDraft(r.Context(), user.ID, opp.ID)
		if err != nil {
			s.logger.WithError(err).Warn("draft restore skipped", map[string]interface{}{
				"userId":        user.ID,
				"opportunityId": opp.ID,
			})
		} else if draft != nil {
			ms.Session.RestoreDraft(draft)
		}
	}

	s.writeJSON(w, http.StatusCreated, s.envelope(ms, nil))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.envelope(ms, nil))
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.sessions.Remove(ms.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	var req struct {
		Section string `json:"section"`
		Field   string `json:"field"`
		Value   string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("malformed body"))
		return
	}

	if err := ms.Session.SetFieldValue(form.Section(req.Section), req.Field, req.Value); err != nil {
		if se, ok := err.(*stderrors.StandardError); ok {
			s.errors.WriteHTTP(w, se)
			return
		}
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError(err.Error()))
		return
	}
	s.writeJSON(w, http.StatusOK, s.envelope(ms, nil))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	section := ms.Session.Current()
	if r.Body != nil && r.ContentLength > 0 {
		var req struct {
			Section string `json:"section"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("malformed body"))
			return
		}
		if req.Section != "" {
			section = form.Section(req.Section)
		}
	}

	result, err := ms.Session.Advance(r.Context(), section)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	if result.Submitted {
		if s.obs != nil {
			s.obs.RecordSubmissionDuration(r.Context(),
				time.Since(ms.Session.CreatedAt()), ms.Session.Opportunity().ID)
		}
		s.notifySubmitted(r, ms, result.Submission)
	}

	s.writeJSON(w, http.StatusOK, s.envelope(ms, result))
}

// notifySubmitted delivers the outbound confirmation. Contact details come
// from the user directory, not the forwarded identity; delivery failure is
// logged and never fails the submission.
func (s *Server) notifySubmitted(r *http.Request, ms *managedSession, sub *models.Submission) {
	if s.notifier == nil || s.users == nil || sub == nil {
		return
	}
	recipient, err := s.users.FindByID(r.Context(), ms.Session.User().ID)
	if err != nil {
		s.logger.WithError(err).Warn("submit confirmation skipped", map[string]interface{}{
			"userId": ms.Session.User().ID,
		})
		return
	}
	if err := s.notifier.SubmissionConfirmed(r.Context(), *recipient, sub); err != nil {
		s.logger.WithError(err).Error("submit confirmation failed", map[string]interface{}{
			"submissionId": sub.ID,
		})
	}
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	ms.Session.Retreat()
	s.writeJSON(w, http.StatusOK, s.envelope(ms, nil))
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	var req struct {
		Section string `json:"section"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("malformed body"))
		return
	}

	if err := ms.Session.JumpTo(form.Section(req.Section)); err != nil {
		// The denial notification still reaches the client on the next drain.
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.envelope(ms, nil))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	if err := ms.Session.Save(r.Context()); err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, s.envelope(ms, nil))
}

func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	ms, err := s.ownedSession(r)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	oppID := ms.Session.Opportunity().ID
	if s.templates == nil {
		s.errors.WriteHTTP(w, stderrors.NewTemplateNotFoundError(oppID))
		return
	}
	tpl, ok := s.templates.FindByOpportunity(oppID)
	if !ok {
		s.errors.WriteHTTP(w, stderrors.NewTemplateNotFoundError(oppID))
		return
	}

	if err := ms.Session.LoadTemplate(tpl.Sections); err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.envelope(ms, nil))
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())

	var (
		subs []models.Submission
		err  error
	)
	if user.Role.CanReview() {
		subs, err = s.submissions.ListAll(r.Context())
	} else {
		subs, err = s.submissions.ListByUser(r.Context(), user.ID)
	}
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleUpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	if !user.Role.CanReview() {
		s.errors.WriteHTTP(w, stderrors.NewForbiddenError(string(user.Role), "review submissions"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("malformed body"))
		return
	}
	if req.Status != models.SubmissionStatusApproved && req.Status != models.SubmissionStatusRejected {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("status must be approved or rejected"))
		return
	}

	id := chi.URLParam(r, "id")
	sub, err := s.submissions.FindByID(r.Context(), id)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	if err := s.submissions.UpdateStatus(r.Context(), id, req.Status); err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	sub.Status = req.Status

	if s.notifier != nil && s.users != nil {
		if applicant, err := s.users.FindByID(r.Context(), sub.UserID); err == nil {
			if err := s.notifier.ReviewDecision(r.Context(), *applicant, sub); err != nil {
				s.logger.WithError(err).Error("review notification failed", map[string]interface{}{
					"submissionId": sub.ID,
				})
			}
		}
	}

	s.writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	if user.Role != models.RoleAdmin {
		s.errors.WriteHTTP(w, stderrors.NewForbiddenError(string(user.Role), "list users"))
		return
	}

	users, err := s.users.List(r.Context())
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	if user.Role != models.RoleAdmin {
		s.errors.WriteHTTP(w, stderrors.NewForbiddenError(string(user.Role), "manage user roles"))
		return
	}

	var req struct {
		Role models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("malformed body"))
		return
	}
	if !req.Role.IsValid() {
		s.errors.WriteHTTP(w, stderrors.NewInvalidRequestError("unknown role"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.users.UpdateRole(r.Context(), id, req.Role); err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}

	updated, err := s.users.FindByID(r.Context(), id)
	if err != nil {
		s.errors.WriteHTTP(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}
