package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mangapost/app/auth"
)

// SessionController handles the admin password and login cookie.
type SessionController struct {
	guard        SessionGuard
	cookieSecure bool
}

func NewSessionController(guard SessionGuard, cookieSecure bool) *SessionController {
	return &SessionController{
		guard:        guard,
		cookieSecure: cookieSecure,
	}
}

type sessionStatus struct {
	HasAdmin  bool       `json:"hasAdmin"`
	LoggedIn  bool       `json:"loggedIn"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type passwordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// Status handles GET /api/session.
func (sc *SessionController) Status(w http.ResponseWriter, r *http.Request) {
	hasAdmin, err := sc.guard.HasAdmin(r.Context())
	if err != nil {
		sendError(w, r, "Failed to read session state: "+err.Error(), http.StatusInternalServerError)
		return
	}

	status := sessionStatus{HasAdmin: hasAdmin}
	if sess, _ := sessionFromCookie(r, sc.guard); sess != nil {
		status.LoggedIn = true
		status.ExpiresAt = &sess.ExpiresAt
	}
	sendJSON(w, http.StatusOK, status)
}

// Setup handles POST /api/session/setup.
func (sc *SessionController) Setup(w http.ResponseWriter, r *http.Request) {
	var body passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, token, err := sc.guard.Setup(r.Context(), body.Password, body.Confirm)
	switch {
	case errors.Is(err, auth.ErrAdminExists),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordMismatch):
		sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		sendError(w, r, "Failed to set up admin: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sc.setCookie(w, token, sess.ExpiresAt)
	sendJSON(w, http.StatusOK, sessionStatus{HasAdmin: true, LoggedIn: true, ExpiresAt: &sess.ExpiresAt})
}

// Login handles POST /api/session/login.
func (sc *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	var body passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, token, err := sc.guard.Login(r.Context(), body.Password)
	switch {
	case errors.Is(err, auth.ErrNoAdmin), errors.Is(err, auth.ErrMissingPassword):
		sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		sendError(w, r, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		sendError(w, r, "Failed to log in: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sc.setCookie(w, token, sess.ExpiresAt)
	sendJSON(w, http.StatusOK, sessionStatus{HasAdmin: true, LoggedIn: true, ExpiresAt: &sess.ExpiresAt})
}

// Logout handles POST /api/session/logout.
func (sc *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := sc.guard.Logout(r.Context(), cookie.Value); err != nil {
			sendError(w, r, "Failed to log out: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	sc.clearCookie(w)
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Reset handles POST /api/session/reset. The route requires a live session.
func (sc *SessionController) Reset(w http.ResponseWriter, r *http.Request) {
	if err := sc.guard.Reset(r.Context()); err != nil {
		sendError(w, r, "Failed to reset admin: "+err.Error(), http.StatusInternalServerError)
		return
	}
	sc.clearCookie(w)
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (sc *SessionController) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   sc.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (sc *SessionController) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
