// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantflow/internal/catalog"
	"grantflow/internal/common/logger"
	"grantflow/internal/form"
	"grantflow/internal/models"
	"grantflow/internal/store"
	"grantflow/pkg/registry"
)

const demoRegistryJSON = `{
	"version": "1.0",
	"templates": [{
		"opportunityId": "1",
		"displayName": "Early Career demo",
		"sections": {
			"basic": {"projectTitle": "Coral Reef Recovery", "email": "jane@example.edu", "startDate": "2027-01-01", "endDate": "2028-12-31"},
			"objectives": {"mainObjectives": "Quantify reef recovery", "literatureReview": "Prior surveys show decline"},
			"activities": {"methodology": "Transect surveys", "timeline": "24 months"},
			"outcomes": {"expectedOutcomes": "Recovery baseline", "impact": "Policy guidance"},
			"budget": {"personnelCosts": "50000", "justification": "Two divers"},
			"students": {"studentInvolvement": "Two undergraduates"},
			"references": {"bibliography": "Reef studies 2019-2025"}
		}
	}]
}`

var (
	researcher = models.User{ID: "u-1", Name: "Jane Rivera", Email: "jane@example.edu", Role: models.RoleResearcher}
	reviewer   = models.User{ID: "u-2", Name: "Sam Okafor", Role: models.RoleGrantOffice}
	admin      = models.User{ID: "u-3", Name: "Ada Boone", Role: models.RoleAdmin}
)

func newTestServer(t *testing.T) (*Server, *store.MemorySubmissionStore, *store.MemoryDraftStore) {
	t.Helper()
	log := logger.NewTestLogger(t)

	drafts := store.NewMemoryDraftStore()
	submissions := store.NewMemorySubmissionStore()
	users := store.NewMemoryUserStore(researcher, reviewer, admin)

	templates, err := registry.ParseRegistry([]byte(demoRegistryJSON))
	require.NoError(t, err)

	sessions := NewSessionManager(time.Hour, form.Dependencies{
		Drafts:      drafts,
		Submissions: submissions,
		Logger:      log,
	}, log)

	srv := NewServer(ServerDeps{
		Logger:      log,
		Catalog:     catalog.New(catalog.Options{Logger: log}),
		Sessions:    sessions,
		Drafts:      drafts,
		Submissions: submissions,
		Users:       users,
		Templates:   templates,
	})
	return srv, submissions, drafts
}

func doJSON(t *testing.T, srv *Server, user *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(headerUserID, user.ID)
		req.Header.Set(headerUserName, user.Name)
		req.Header.Set(headerUserEmail, user.Email)
		req.Header.Set(headerUserRole, string(user.Role))
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) sessionEnvelope {
	t.Helper()
	var env sessionEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func createSession(t *testing.T, srv *Server, user *models.User, opportunityID string) sessionEnvelope {
	t.Helper()
	rec := doJSON(t, srv, user, http.MethodPost, "/api/applications",
		map[string]string{"opportunityId": opportunityID})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeEnvelope(t, rec)
}

func setField(t *testing.T, srv *Server, user *models.User, sessionID, section, field, value string) {
	t.Helper()
	rec := doJSON(t, srv, user, http.MethodPut, "/api/applications/"+sessionID+"/fields",
		map[string]string{"section": section, "field": field, "value": value})
	require.Equal(t, http.StatusOK, rec.Code)
}

func advance(t *testing.T, srv *Server, user *models.User, sessionID string) sessionEnvelope {
	t.Helper()
	rec := doJSON(t, srv, user, http.MethodPost, "/api/applications/"+sessionID+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeEnvelope(t, rec)
}

// fillAll walks the wizard front to back, filling required fields and
// advancing through every section except the last.
func fillAll(t *testing.T, srv *Server, user *models.User, sessionID string) {
	t.Helper()
	values := map[string][][2]string{
		"basic": {
			{"projectTitle", "Coral Reef Recovery"},
			{"email", "jane@example.edu"},
			{"startDate", "2027-01-01"},
			{"endDate", "2028-12-31"},
		},
		"objectives": {
			{"mainObjectives", "Quantify reef recovery"},
			{"literatureReview", "Prior surveys show decline"},
		},
		"activities": {
			{"methodology", "Transect surveys"},
			{"timeline", "24 months"},
		},
		"outcomes": {
			{"expectedOutcomes", "Recovery baseline"},
		},
		"budget": {
			{"personnelCosts", "50000"},
			{"justification", "Two divers"},
		},
		"students": {
			{"studentInvolvement", "Two undergraduates"},
		},
		"references": {
			{"bibliography", "Reef studies 2019-2025"},
		},
	}
	order := []string{"basic", "objectives", "activities", "outcomes", "budget", "students"}
	for _, section := range order {
		for _, kv := range values[section] {
			setField(t, srv, user, sessionID, section, kv[0], kv[1])
		}
		env := advance(t, srv, user, sessionID)
		require.True(t, env.Result.Valid, "section %s should validate", section)
	}
	for _, kv := range values["references"] {
		setField(t, srv, user, sessionID, "references", kv[0], kv[1])
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingIdentityIsRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, nil, http.MethodGet, "/api/opportunities", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAndSearchOpportunities(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, &researcher, http.MethodGet, "/api/opportunities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Opportunity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 4)

	rec = doJSON(t, srv, &researcher, http.MethodGet, "/api/opportunities?q=climate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hits []models.Opportunity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "2", hits[0].ID)
}

func TestGetOpportunity(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, &researcher, http.MethodGet, "/api/opportunities/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, &researcher, http.MethodGet, "/api/opportunities/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateApplication(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	assert.NotEmpty(t, env.SessionID)
	assert.Equal(t, "basic", string(env.Snapshot.Current))
	require.Len(t, env.Snapshot.Sections, 7)
	assert.Equal(t, "Jane Rivera", env.Snapshot.Sections[0].Fields["piName"].Value)
	assert.Equal(t, 0, env.Snapshot.Progress.PercentComplete)
}

func TestCreateApplicationUnknownOpportunity(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, &researcher, http.MethodPost, "/api/applications",
		map[string]string{"opportunityId": "99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvanceValidationFailureIsAResult(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	got := advance(t, srv, &researcher, env.SessionID)
	require.NotNil(t, got.Result)
	assert.False(t, got.Result.Valid)
	assert.Contains(t, got.Result.FieldErrors, "projectTitle")
	assert.Equal(t, "basic", string(got.Snapshot.Current), "current section unchanged")
}

func TestJumpAheadIsDenied(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	rec := doJSON(t, srv, &researcher, http.MethodPost, "/api/applications/"+env.SessionID+"/jump",
		map[string]string{"section": "budget"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "SECTION_LOCKED")
}

func TestAdvanceAheadIsDenied(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	setField(t, srv, &researcher, env.SessionID, "activities", "methodology", "Transect surveys")
	setField(t, srv, &researcher, env.SessionID, "activities", "timeline", "24 months")

	rec := doJSON(t, srv, &researcher, http.MethodPost, "/api/applications/"+env.SessionID+"/advance",
		map[string]string{"section": "activities"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "SECTION_LOCKED")
}

func TestFullWizardSubmits(t *testing.T) {
	srv, submissions, drafts := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")
	fillAll(t, srv, &researcher, env.SessionID)

	final := advance(t, srv, &researcher, env.SessionID)
	require.NotNil(t, final.Result)
	require.True(t, final.Result.Submitted)
	require.NotNil(t, final.Result.Submission)
	assert.Equal(t, models.SubmissionStatusPending, final.Result.Submission.Status)
	assert.Equal(t, "Coral Reef Recovery", final.Result.Submission.Project)
	assert.Contains(t, final.Navigations, "my-submissions")

	stored, err := submissions.ListByUser(t.Context(), researcher.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	draft, err := drafts.LoadDraft(t.Context(), researcher.ID, "1")
	require.NoError(t, err)
	assert.Nil(t, draft, "draft cleared on submit")
}

func TestPrefillLoadsTemplate(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	rec := doJSON(t, srv, &researcher, http.MethodPost, "/api/applications/"+env.SessionID+"/prefill", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeEnvelope(t, rec)
	assert.Equal(t, 100, got.Snapshot.Progress.PercentComplete)
	require.NotEmpty(t, got.Notifications)
	assert.Equal(t, "Demo data loaded", got.Notifications[0].Title)
}

func TestPrefillWithoutTemplate(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "2")

	rec := doJSON(t, srv, &researcher, http.MethodPost, "/api/applications/"+env.SessionID+"/prefill", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveSurfacesNotificationOnNextDrain(t *testing.T) {
	srv, _, drafts := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")
	setField(t, srv, &researcher, env.SessionID, "basic", "projectTitle", "Coral Reef Recovery")

	rec := doJSON(t, srv, &researcher, http.MethodPost, "/api/applications/"+env.SessionID+"/save", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		get := doJSON(t, srv, &researcher, http.MethodGet, "/api/applications/"+env.SessionID, nil)
		if get.Code != http.StatusOK {
			return false
		}
		got := decodeEnvelope(t, get)
		for _, n := range got.Notifications {
			if n.Title == "Progress saved" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	draft, err := drafts.LoadDraft(t.Context(), researcher.ID, "1")
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "Coral Reef Recovery", draft.Values["basic"]["projectTitle"])
}

func TestSessionOwnership(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	rec := doJSON(t, srv, &reviewer, http.MethodGet, "/api/applications/"+env.SessionID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteApplication(t *testing.T) {
	srv, _, _ := newTestServer(t)
	env := createSession(t, srv, &researcher, "1")

	rec := doJSON(t, srv, &researcher, http.MethodDelete, "/api/applications/"+env.SessionID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, &researcher, http.MethodGet, "/api/applications/"+env.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmissionsVisibilityByRole(t *testing.T) {
	srv, submissions, _ := newTestServer(t)
	require.NoError(t, submissions.Append(t.Context(), &models.Submission{
		ID: "s-1", UserID: researcher.ID, OpportunityID: "1",
		Project: "Mine", Status: models.SubmissionStatusPending,
	}))
	require.NoError(t, submissions.Append(t.Context(), &models.Submission{
		ID: "s-2", UserID: "someone-else", OpportunityID: "2",
		Project: "Theirs", Status: models.SubmissionStatusPending,
	}))

	rec := doJSON(t, srv, &researcher, http.MethodGet, "/api/submissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Submission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "s-1", mine[0].ID)

	rec = doJSON(t, srv, &reviewer, http.MethodGet, "/api/submissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Submission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 2)
}

func TestUpdateSubmissionStatus(t *testing.T) {
	srv, submissions, _ := newTestServer(t)
	require.NoError(t, submissions.Append(t.Context(), &models.Submission{
		ID: "s-1", UserID: researcher.ID, OpportunityID: "1",
		Project: "Mine", Status: models.SubmissionStatusPending,
	}))

	rec := doJSON(t, srv, &researcher, http.MethodPatch, "/api/submissions/s-1/status",
		map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code, "researchers cannot review")

	rec = doJSON(t, srv, &reviewer, http.MethodPatch, "/api/submissions/s-1/status",
		map[string]string{"status": "shredded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, &reviewer, http.MethodPatch, "/api/submissions/s-1/status",
		map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	sub, err := submissions.FindByID(t.Context(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusApproved, sub.Status)
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, &reviewer, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, &admin, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	assert.Len(t, users, 3)

	rec = doJSON(t, srv, &admin, http.MethodPatch, "/api/users/u-1/role",
		map[string]string{"role": "grant_office"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, models.RoleGrantOffice, updated.Role)

	rec = doJSON(t, srv, &admin, http.MethodPatch, "/api/users/u-1/role",
		map[string]string{"role": "overlord"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionManagerSweep(t *testing.T) {
	log := logger.NewTestLogger(t)
	m := NewSessionManager(time.Nanosecond, form.Dependencies{Logger: log}, log)

	opp := catalog.SeedOpportunities()[0]
	ms := m.Create(researcher, opp)
	require.Equal(t, 1, m.Len())

	time.Sleep(time.Millisecond)
	m.sweep()
	assert.Equal(t, 0, m.Len())

	_, err := m.Get(ms.ID)
	assert.Error(t, err)
}
