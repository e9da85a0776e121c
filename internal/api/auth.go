package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type loginPage struct {
	Error    string
	Username string
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFrom(r.Context()); sess != nil && sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login.html", loginPage{})
}

// Login checks the submitted credentials. On success the session is
// replaced by a fresh authenticated one; on failure nothing but the
// login form is rendered.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "login.html", loginPage{Error: "Failed to parse form"})
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if !h.checkPassword(username, password) {
		h.Metrics.Login(false)
		h.Log.Warn("login failed", "user", username, "remote", r.RemoteAddr)
		h.render(w, http.StatusUnauthorized, "login.html", loginPage{
			Error:    "Incorrect username or password",
			Username: username,
		})
		return
	}

	if old := SessionFrom(r.Context()); old != nil {
		h.Sessions.Delete(old.ID)
	}
	sess := h.startSession(w)
	sess.Login(username)
	h.Metrics.Login(true)
	h.Log.Info("login succeeded", "user", username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFrom(r.Context()); sess != nil {
		h.Log.Info("logout", "user", sess.User())
		sess.Logout()
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// checkPassword compares in constant time; unknown users are compared
// against an empty secret so both paths do the same work
func (h *Handler) checkPassword(username, password string) bool {
	expected, known := h.Users[username]
	if username == "" || expected == "" {
		known = false
	}
	match := subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
	return known && match
}
