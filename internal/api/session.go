package api

import (
	"context"
	"net/http"

	"radsafe-dashboard/internal/state"
)

type ctxKey int

const sessionKey ctxKey = iota

// WithSession attaches the caller's live session, if any. Sessions are only
// created by a successful login, so anonymous traffic stores nothing.
func (h *Handler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok := h.Sessions.Get(c.Value)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func (h *Handler) startSession(w http.ResponseWriter) *state.Session {
	sess := h.Sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.Metrics.SetSessions(h.Sessions.Len())
	return sess
}

// SessionFrom returns the session WithSession attached, or nil
func SessionFrom(ctx context.Context) *state.Session {
	sess, _ := ctx.Value(sessionKey).(*state.Session)
	return sess
}

// RequirePage sends unauthenticated browsers to the login page
func (h *Handler) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		if sess == nil || !sess.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAPI answers 401 for unauthenticated API, image and chart requests
func (h *Handler) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		if sess == nil || !sess.Authenticated() {
			h.writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
