package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ragstack/chat-api/internal/core"
	"github.com/ragstack/chat-api/internal/store"
)

const defaultPageLimit = 100

type APIHandler struct {
	chatService     *core.ChatService
	documentService *core.DocumentService
}

func NewAPIHandler(cs *core.ChatService, ds *core.DocumentService) *APIHandler {
	return &APIHandler{chatService: cs, documentService: ds}
}

// Chat handlers

type CreateChatRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), req.Title, req.Description)
	if err != nil {
		log.WithError(err).Error("Error creating chat")
		http.Error(w, "Failed to create chat", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	chats, err := h.chatService.ListChats(r.Context(), limit, offset)
	if err != nil {
		log.WithError(err).Error("Error listing chats")
		http.Error(w, "Failed to list chats", http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []store.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *APIHandler) GetChatMessagesHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	limit, offset := pageParams(r)

	messages, err := h.chatService.GetChatMessages(r.Context(), chatID, limit, offset)
	if err != nil {
		if errors.Is(err, core.ErrChatNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("chat_id", chatID).Error("Error getting chat messages")
		http.Error(w, "Failed to get chat messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

type PostMessageRequest struct {
	Content string `json:"content"`
	Role    string `json:"role,omitempty"`
}

// PostMessageHandler accepts content/role as query parameters (the
// original wire contract) with a JSON body fallback.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	content := r.URL.Query().Get("content")
	role := r.URL.Query().Get("role")
	if content == "" {
		var req PostMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			content = req.Content
			if role == "" {
				role = req.Role
			}
		}
	}

	userMessage, err := h.chatService.AddMessage(r.Context(), chatID, content, role)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrChatNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, core.ErrEmptyContent), errors.Is(err, core.ErrInvalidRole):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.WithError(err).WithField("chat_id", chatID).Error("Error posting message")
			http.Error(w, "Failed to post message", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, userMessage)
}

// Document handlers

type DocumentRequest struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (h *APIHandler) AddDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.documentService.AddDocument(r.Context(), req.Content, req.Metadata)
	if err != nil {
		// The original surfaces every add failure as a client error.
		log.WithError(err).Error("Error adding document")
		http.Error(w, "Failed to add document: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := pageParams(r)
	cursor := r.URL.Query().Get("cursor")

	docs, next, err := h.documentService.ListDocuments(r.Context(), limit, cursor)
	if err != nil {
		log.WithError(err).Error("Error listing documents")
		http.Error(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}
	if next != "" {
		w.Header().Set("X-Next-Cursor", next)
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *APIHandler) SearchDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "Query parameter is required", http.StatusBadRequest)
		return
	}

	docs, err := h.documentService.SearchSimilarDocuments(r.Context(), query)
	if err != nil {
		log.WithError(err).Error("Error searching documents")
		http.Error(w, "Failed to search documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *APIHandler) UpdateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.documentService.UpdateDocument(r.Context(), documentID, req.Content, req.Metadata)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDocumentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, core.ErrEmptyContent):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.WithError(err).WithField("document_id", documentID).Error("Error updating document")
			http.Error(w, "Failed to update document", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *APIHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	err := h.documentService.DeleteDocument(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, core.ErrDocumentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("document_id", documentID).Error("Error deleting document")
		http.Error(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

// helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
