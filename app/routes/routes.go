package routes

import (
	"html/template"
	"log/slog"
	"net/http"

	"mangapost/app/controllers"
	"mangapost/app/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
)

// Deps carries everything the router wires into controllers.
type Deps struct {
	Publisher     controllers.Publisher
	Guard         controllers.SessionGuard
	Templates     map[string]*template.Template
	Logger        *slog.Logger
	AdminPassword string
	ChannelURL    string
	CookieSecure  bool
}

var methodNotAllowed = http.HandlerFunc(controllers.MethodNotAllowed)

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(deps Deps) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(controllers.NotFound)
	router.MethodNotAllowedHandler = methodNotAllowed

	// Apply global middleware
	router.Use(chimw.RequestID)
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.ContentTypeJSON)

	adminController := controllers.NewAdminController(deps.Publisher, deps.AdminPassword)
	sessionController := controllers.NewSessionController(deps.Guard, deps.CookieSecure)
	postController := controllers.NewPostController(deps.Publisher, deps.Guard, deps.Templates, deps.ChannelURL)
	requireSession := middleware.RequireSession(deps.Guard)

	// Web routes
	router.HandleFunc("/", postController.Dashboard).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}).Methods("GET")

	// Shared-secret publish endpoint
	router.HandleFunc("/admin/save", adminController.Save).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()

	// Session endpoints
	// Sub-paths go before "" so a method mismatch on "" survives to the 405 handler.
	session := api.PathPrefix("/session").Subrouter()
	session.MethodNotAllowedHandler = methodNotAllowed
	session.HandleFunc("/setup", sessionController.Setup).Methods("POST")
	session.HandleFunc("/login", sessionController.Login).Methods("POST")
	session.HandleFunc("/logout", sessionController.Logout).Methods("POST")
	session.Handle("/reset", requireSession(http.HandlerFunc(sessionController.Reset))).Methods("POST")
	session.HandleFunc("", sessionController.Status).Methods("GET")

	// Posts endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	posts.MethodNotAllowedHandler = methodNotAllowed
	posts.Use(requireSession)
	posts.HandleFunc("/{id:[0-9]+}/resend", postController.Resend).Methods("POST")
	posts.HandleFunc("", postController.Index).Methods("GET")
	posts.HandleFunc("", postController.Create).Methods("POST")
	posts.HandleFunc("", postController.Clear).Methods("DELETE")

	return router
}
