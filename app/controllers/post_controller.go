package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"mangapost/app/auth"
	"mangapost/app/models"
	"mangapost/app/repositories"
	"mangapost/app/services"

	"github.com/gorilla/mux"
)

// PostController handles the dashboard page and the post API.
type PostController struct {
	publisher  Publisher
	guard      SessionGuard
	templates  map[string]*template.Template
	channelURL string
}

// NewPostController creates a new PostController
func NewPostController(publisher Publisher, guard SessionGuard, templates map[string]*template.Template, channelURL string) *PostController {
	return &PostController{
		publisher:  publisher,
		guard:      guard,
		templates:  templates,
		channelURL: channelURL,
	}
}

type createPostRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Tags           string `json:"tags"`
	CoverImage     string `json:"coverImage"`
	DestinationURL string `json:"destUrl"`
	IsAdult        bool   `json:"isAdult"`
}

type publishResponse struct {
	Post       *models.Post     `json:"post,omitempty"`
	ChannelURL string           `json:"channelUrl,omitempty"`
	State      services.State   `json:"state"`
	Trace      []services.State `json:"trace"`
	Error      string           `json:"error,omitempty"`
}

// Dashboard renders the post list, or the login form without a session.
func (pc *PostController) Dashboard(w http.ResponseWriter, r *http.Request) {
	if sess, _ := sessionFromCookie(r, pc.guard); sess == nil {
		hasAdmin, err := pc.guard.HasAdmin(r.Context())
		if err != nil {
			sendError(w, r, "Failed to read session state: "+err.Error(), http.StatusInternalServerError)
			return
		}
		pc.render(w, r, "login", struct{ HasAdmin bool }{hasAdmin})
		return
	}

	posts, err := pc.publisher.List(r.Context())
	if err != nil {
		sendError(w, r, "Failed to fetch posts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		Posts      []*models.Post
		ChannelURL string
	}{
		Posts:      posts,
		ChannelURL: pc.channelURL,
	}
	pc.render(w, r, "index", data)
}

func (pc *PostController) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	tmpl, ok := pc.templates[name]
	if !ok {
		sendError(w, r, "Template not found: "+name, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		sendError(w, r, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// Index handles GET /api/posts.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.publisher.List(r.Context())
	if err != nil {
		sendError(w, r, "Failed to fetch posts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Create handles POST /api/posts. The route already requires a session.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var body createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	req := services.PublishRequest{
		Title:          body.Title,
		Description:    body.Description,
		Tags:           models.ParseTags(body.Tags),
		CoverImage:     body.CoverImage,
		DestinationURL: body.DestinationURL,
		IsAdult:        body.IsAdult,
	}

	res, err := pc.publisher.Publish(r.Context(), req, services.AuthorizerFunc(requireSession))
	pc.respond(w, r, res, err)
}

// Resend handles POST /api/posts/{id}/resend.
func (pc *PostController) Resend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}

	res, err := pc.publisher.Resend(r.Context(), id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		sendError(w, r, "Post not found", http.StatusNotFound)
		return
	case errors.Is(err, services.ErrAlreadyNotified):
		sendError(w, r, err.Error(), http.StatusConflict)
		return
	}
	pc.respond(w, r, res, err)
}

// Clear handles DELETE /api/posts.
func (pc *PostController) Clear(w http.ResponseWriter, r *http.Request) {
	if err := pc.publisher.Clear(r.Context()); err != nil {
		sendError(w, r, "Failed to clear posts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (pc *PostController) respond(w http.ResponseWriter, r *http.Request, res *services.Result, err error) {
	if errors.Is(err, services.ErrAuth) {
		sendError(w, r, auth.ErrInvalidSession.Error(), http.StatusUnauthorized)
		return
	}
	if res == nil {
		if err == nil {
			err = errors.New("no result")
		}
		sendError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	out := publishResponse{
		Post:       res.Post,
		ChannelURL: res.Receipt.ChannelURL,
		State:      res.State,
		Trace:      res.Trace,
	}
	if err != nil {
		out.Error = err.Error()
		sendJSON(w, http.StatusInternalServerError, out)
		return
	}
	sendJSON(w, http.StatusOK, out)
}

func requireSession(ctx context.Context) error {
	if _, ok := auth.FromContext(ctx); !ok {
		return auth.ErrInvalidSession
	}
	return nil
}
