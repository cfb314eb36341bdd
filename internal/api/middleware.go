// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"grantflow/internal/common/logger"
	"grantflow/internal/common/observability"
	"grantflow/internal/models"
)

// Identity headers. Authentication happens upstream; the service trusts
// the identity the gateway forwards.
const (
	headerUserID    = "X-User-ID"
	headerUserName  = "X-User-Name"
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the authenticated user stored on the context.
func identityFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(identityKey).(models.User)
	return u, ok
}

// requireIdentity rejects requests without a forwarded identity. Requests
// carrying an unknown role are rejected rather than defaulted.
func requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerUserID)
		if id == "" {
			http.Error(w, `{"code":"UNAUTHENTICATED","message":"Missing identity"}`, http.StatusUnauthorized)
			return
		}
		role := models.Role(r.Header.Get(headerUserRole))
		if role == "" {
			role = models.RoleResearcher
		}
		if !role.IsValid() {
			http.Error(w, `{"code":"UNAUTHENTICATED","message":"Unknown role"}`, http.StatusUnauthorized)
			return
		}

		user := models.User{
			ID:    id,
			Name:  r.Header.Get(headerUserName),
			Email: r.Header.Get(headerUserEmail),
			Role:  role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, user)))
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request and feeds the request counter.
func requestLogger(log logger.Logger, obs *observability.Observability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			if obs != nil {
				obs.RecordRequest(r.Context(), strconv.Itoa(rec.status))
			}
			log.Info("request", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(started).String(),
			})
		})
	}
}
