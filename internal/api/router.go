package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the API routes and, when staticFS is non-nil, mounts the
// embedded browser UI at the root.
func NewRouter(apiHandler *APIHandler, staticFS http.FileSystem) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Post("/chat", apiHandler.ChatHandler)

		r.Get("/conversations", apiHandler.ListConversationsHandler)
		r.Post("/conversations", apiHandler.CreateConversationHandler)
		r.Get("/conversations/{slug}", apiHandler.GetConversationHandler)
		r.Put("/conversations/{slug}", apiHandler.RenameConversationHandler)
		r.Delete("/conversations/{slug}", apiHandler.DeleteConversationHandler)
	})

	if staticFS != nil {
		r.Handle("/*", http.FileServer(staticFS))
	}

	return r
}
