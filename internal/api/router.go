package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to RAG Chat API",
			"version": "1.0.0",
		})
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1/chat", func(r chi.Router) {
		// Chat routes
		r.Post("/chats", apiHandler.CreateChatHandler)
		r.Get("/chats", apiHandler.ListChatsHandler)
		r.Get("/chats/{chatID}/messages", apiHandler.GetChatMessagesHandler)
		r.Post("/chats/{chatID}/messages", apiHandler.PostMessageHandler)

		// Document routes
		r.Post("/documents", apiHandler.AddDocumentHandler)
		r.Get("/documents", apiHandler.ListDocumentsHandler)
		r.Get("/documents/search", apiHandler.SearchDocumentsHandler)
		r.Put("/documents/{documentID}", apiHandler.UpdateDocumentHandler)
		r.Delete("/documents/{documentID}", apiHandler.DeleteDocumentHandler)
	})

	return r
}
