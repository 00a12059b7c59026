// Package controllers exposes the publish workflow and the admin session over HTTP.
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"mangapost/app/auth"
	"mangapost/app/models"
	"mangapost/app/services"
	"mangapost/pkg/logger"
)

// Publisher is the part of services.PublishService the controllers use.
type Publisher interface {
	Publish(ctx context.Context, req services.PublishRequest, authz services.Authorizer) (*services.Result, error)
	Resend(ctx context.Context, id int64) (*services.Result, error)
	List(ctx context.Context) ([]*models.Post, error)
	Clear(ctx context.Context) error
}

// SessionGuard is the part of auth.Guard the controllers use.
type SessionGuard interface {
	HasAdmin(ctx context.Context) (bool, error)
	Setup(ctx context.Context, password, confirm string) (*auth.Session, string, error)
	Login(ctx context.Context, password string) (*auth.Session, string, error)
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	Reset(ctx context.Context) error
}

// Helper methods for consistent response handling

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "status", status, "error", message)
	}
	accept := r.Header.Get("Accept")
	if accept == "application/json" || strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/admin/") {
		sendJSON(w, status, map[string]string{"error": message})
	} else {
		http.Error(w, message, status)
	}
}

// NotFound answers requests no route matched.
func NotFound(w http.ResponseWriter, r *http.Request) {
	sendError(w, r, "Not found", http.StatusNotFound)
}

// MethodNotAllowed answers requests whose path matched under another method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	sendError(w, r, "Method not allowed", http.StatusMethodNotAllowed)
}

// sessionFromCookie resolves the request's session cookie, if any.
func sessionFromCookie(r *http.Request, guard SessionGuard) (*auth.Session, string) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ""
	}
	sess, err := guard.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		return nil, cookie.Value
	}
	return sess, cookie.Value
}
