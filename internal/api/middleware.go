package api

import (
	"context"
	"net/http"
	"time"

	"minepanel/internal/models"

	"github.com/sirupsen/logrus"
)

type ContextKey string

const UserContextKey ContextKey = "user"

type access int

const (
	authenticated access = iota
	adminOnly
)

// requireAccess resolves the caller through the gate and stores the user in
// the request context before calling next.
func (a *API) requireAccess(next http.HandlerFunc, level access) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		check := a.gate.RequireAuthenticated
		if level == adminOnly {
			check = a.gate.RequireAdmin
		}
		user, err := check(r)
		if err != nil {
			fields := logrus.Fields{"path": r.URL.Path}
			if user != nil {
				fields["user_id"] = user.ID
			}
			a.log.WithFields(fields).WithError(err).Warn("Request rejected by authorization gate")
			a.respondError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs one line per request once the handler returns.
func logRequests(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			entry := log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"latency_ms": time.Since(start).Milliseconds(),
			})
			switch {
			case rec.status >= 500:
				entry.Error("request")
			case rec.status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}
