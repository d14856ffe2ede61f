package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragstack/chat-api/internal/core"
	"github.com/ragstack/chat-api/internal/llm"
	"github.com/ragstack/chat-api/internal/store"
	"github.com/ragstack/chat-api/internal/vectorstore/memory"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	vec := make([]float32, 8)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33)) / float32(1<<30)
	}
	return vec, nil
}

type stubGenerator struct {
	reply string
	err   error
}

func (g stubGenerator) Complete(ctx context.Context, systemInstruction string, turns []llm.Turn) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestRouter(t *testing.T, gen llm.Generator) http.Handler {
	t.Helper()

	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	vectors := memory.NewStore()
	rag := core.NewRAGService(vectors, stubEmbedder{}, gen)
	chatService := core.NewChatService(dbStore, rag)
	documentService := core.NewDocumentService(vectors, stubEmbedder{})

	return NewRouter(NewAPIHandler(chatService, documentService))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthAndRoot(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	welcome := decode[map[string]string](t, rec)
	assert.Contains(t, welcome["message"], "RAG")
}

func TestCreateChatAndList(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/chats", map[string]any{
		"title":       "Test Chat",
		"description": "integration",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chat := decode[store.Chat](t, rec)
	assert.NotEmpty(t, chat.ID)
	assert.Equal(t, "Test Chat", chat.Title)
	require.NotNil(t, chat.Description)
	assert.Equal(t, "integration", *chat.Description)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/chats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	chats := decode[[]store.Chat](t, rec)
	require.Len(t, chats, 1)
	assert.Equal(t, chat.ID, chats[0].ID)
}

func TestCreateChatMissingTitle(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/chats", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessagesUnknownChat(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/chat/chats/invalid-id/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostMessageFlow(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "the answer"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/chats", map[string]any{"title": "Conversation"})
	require.Equal(t, http.StatusOK, rec.Code)
	chat := decode[store.Chat](t, rec)

	// Content and role ride as query parameters.
	path := fmt.Sprintf("/api/v1/chat/chats/%s/messages?content=%s&role=user",
		chat.ID, url.QueryEscape("What can you tell me?"))
	rec = doJSON(t, router, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msg := decode[store.Message](t, rec)
	assert.Equal(t, store.RoleUser, msg.Role)
	assert.Equal(t, "What can you tell me?", msg.Content)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/chats/"+chat.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decode[[]store.Message](t, rec)
	require.Len(t, messages, 2)
	assert.Equal(t, store.RoleAssistant, messages[1].Role)
	assert.Equal(t, "the answer", messages[1].Content)
}

func TestPostMessageJSONBody(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "reply"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/chats", map[string]any{"title": "Conversation"})
	chat := decode[store.Chat](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/chat/chats/"+chat.ID+"/messages", map[string]any{
		"content": "body content",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode[store.Message](t, rec)
	assert.Equal(t, "body content", msg.Content)
}

func TestPostMessageErrors(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "reply"})

	// Unknown chat
	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/chats/invalid-id/messages?content=hi", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Empty content
	rec = doJSON(t, router, http.MethodPost, "/api/v1/chat/chats", map[string]any{"title": "C"})
	chat := decode[store.Chat](t, rec)
	rec = doJSON(t, router, http.MethodPost, "/api/v1/chat/chats/"+chat.ID+"/messages", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad role
	rec = doJSON(t, router, http.MethodPost, "/api/v1/chat/chats/"+chat.ID+"/messages?content=hi&role=system", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageGenerationFailureStillSucceeds(t *testing.T) {
	router := newTestRouter(t, stubGenerator{err: errors.New("backend down")})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/chats", map[string]any{"title": "C"})
	chat := decode[store.Chat](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/chat/chats/"+chat.ID+"/messages?content=hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/chats/"+chat.ID+"/messages", nil)
	messages := decode[[]store.Message](t, rec)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "Error:")
}

func TestDocumentCRUD(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	// Create
	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/documents", map[string]any{
		"content":  "chi is a lightweight router for Go.",
		"metadata": map[string]any{"test": "api", "type": "framework"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[store.Document](t, rec)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, map[string]any{"test": "api", "type": "framework"}, doc.Metadata)

	// List
	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]store.Document](t, rec)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
	assert.Equal(t, "chi is a lightweight router for Go.", docs[0].Content)

	// Search
	rec = doJSON(t, router, http.MethodGet,
		"/api/v1/chat/documents/search?query="+url.QueryEscape("chi is a lightweight router for Go."), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[[]store.Document](t, rec)
	require.NotEmpty(t, hits)
	assert.Equal(t, doc.ID, hits[0].ID)

	// Update
	rec = doJSON(t, router, http.MethodPut, "/api/v1/chat/documents/"+doc.ID, map[string]any{
		"content":  "chi is a lightweight, idiomatic router for Go.",
		"metadata": map[string]any{"test": "api", "updated": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[store.Document](t, rec)
	assert.Equal(t, doc.ID, updated.ID)
	assert.True(t, updated.CreatedAt.Equal(doc.CreatedAt))
	assert.Contains(t, updated.Content, "idiomatic")
	assert.Equal(t, true, updated.Metadata["updated"])

	// Delete
	rec = doJSON(t, router, http.MethodDelete, "/api/v1/chat/documents/"+doc.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decode[map[string]string](t, rec)
	assert.Equal(t, "Document deleted successfully", reply["message"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/documents", nil)
	docs = decode[[]store.Document](t, rec)
	assert.Empty(t, docs)
}

func TestDocumentErrors(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	// Add with empty content fails as a client error.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/documents", map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Update/delete of unknown ids.
	rec = doJSON(t, router, http.MethodPut, "/api/v1/chat/documents/invalid-id", map[string]any{
		"content": "this should fail",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/chat/documents/invalid-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Search without a query.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/documents/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDocumentsCursorHeader(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "ok"})

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/chat/documents", map[string]any{
			"content": fmt.Sprintf("document number %d", i),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/chat/documents?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]store.Document](t, rec)
	assert.Len(t, page, 2)
	cursor := rec.Header().Get("X-Next-Cursor")
	require.NotEmpty(t, cursor)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chat/documents?limit=2&cursor="+url.QueryEscape(cursor), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[[]store.Document](t, rec)
	assert.Len(t, page, 1)
	assert.Empty(t, rec.Header().Get("X-Next-Cursor"))
}
