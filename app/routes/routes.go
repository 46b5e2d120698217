package routes

import (
	"log/slog"
	"net/http"

	"postsapi/app/controllers"
	"postsapi/app/middleware"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(postController *controllers.PostController, l *slog.Logger) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.Trace)
	router.Use(middleware.Logger(l))
	router.Use(middleware.Recoverer(l))

	withJSONErrors(router)

	router.HandleFunc("/health", health).Methods("GET")

	// API routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	withJSONErrors(api)

	// Posts API endpoints
	posts := api.PathPrefix("/posts").Subrouter()
	withJSONErrors(posts)
	for _, root := range []string{"", "/"} {
		posts.HandleFunc(root, postController.Index).Methods("GET")
		posts.HandleFunc(root, postController.Create).Methods("POST")
	}
	posts.HandleFunc("/{id}", postController.Show).Methods("GET")
	posts.HandleFunc("/{id}", postController.Edit).Methods("PUT")
	posts.HandleFunc("/{id}", postController.Delete).Methods("DELETE")
	posts.HandleFunc("/{id}/comments", postController.Comments).Methods("GET")

	return router
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// withJSONErrors installs the JSON 404 and 405 handlers. Subrouters need
// their own, otherwise a method mismatch below them surfaces as a 404.
func withJSONErrors(r *mux.Router) {
	r.NotFoundHandler = jsonStatus(http.StatusNotFound, "Not found")
	r.MethodNotAllowedHandler = jsonStatus(http.StatusMethodNotAllowed, "Method not allowed")
}

func jsonStatus(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"message": message})
	})
}
