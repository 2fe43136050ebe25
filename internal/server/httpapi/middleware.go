package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/server/auth"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type ctxKey struct{}

func withUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// userFrom returns the authenticated user placed by requireAuth.
func userFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}

// requireAuth resolves the session cookie and rejects the request with 401
// when it does not lead to a live session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, ok := auth.SessionCookie(r)
		if !ok {
			h.writeError(w, r, common.ErrorUnauthorized)
			return
		}

		user, err := h.users.ResolveSession(r.Context(), cookie)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}
