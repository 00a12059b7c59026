package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mangapost/app/services"
)

// AdminController serves the shared-secret publish endpoint.
type AdminController struct {
	publisher     Publisher
	adminPassword string
}

func NewAdminController(publisher Publisher, adminPassword string) *AdminController {
	return &AdminController{
		publisher:     publisher,
		adminPassword: adminPassword,
	}
}

type saveRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CoverURL    string   `json:"coverUrl"`
	DestURL     string   `json:"destUrl"`
	AdminPass   string   `json:"adminPass"`
	IsAdult     bool     `json:"isAdult"`
}

// Save handles POST /admin/save. A wrong admin secret is a 401; every other
// failure, validation included, is a 500.
func (ac *AdminController) Save(w http.ResponseWriter, r *http.Request) {
	var body saveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}

	req := services.PublishRequest{
		Title:          body.Name,
		Description:    body.Description,
		Tags:           body.Tags,
		CoverImage:     body.CoverURL,
		DestinationURL: body.DestURL,
		IsAdult:        body.IsAdult,
	}

	_, err := ac.publisher.Publish(r.Context(), req, services.SecretAuthorizer(body.AdminPass, ac.adminPassword))
	if errors.Is(err, services.ErrAuth) {
		sendError(w, r, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		sendError(w, r, err.Error(), http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}
