package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ragstack/chat-api/internal/llm"
	"github.com/ragstack/chat-api/internal/store"
	"github.com/ragstack/chat-api/internal/vectorstore"
)

// SearchTopK is the number of hits returned by similarity search.
const SearchTopK = 5

type DocumentService struct {
	vectors  vectorstore.Store
	embedder llm.Embedder
}

func NewDocumentService(vectors vectorstore.Store, embedder llm.Embedder) *DocumentService {
	return &DocumentService{
		vectors:  vectors,
		embedder: embedder,
	}
}

func (s *DocumentService) AddDocument(ctx context.Context, content string, metadata map[string]any) (*store.Document, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document: %w", err)
	}

	doc := store.Document{
		ID:        uuid.NewString(),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.vectors.Upsert(ctx, []vectorstore.Point{pointFromDocument(doc, embedding)}); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	return &doc, nil
}

// ListDocuments pages through stored documents. Pass the returned cursor
// to fetch the next page; an empty cursor means the scan is complete.
func (s *DocumentService) ListDocuments(ctx context.Context, limit int, cursor string) ([]store.Document, string, error) {
	points, next, err := s.vectors.Scroll(ctx, limit, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("failed to scroll documents: %w", err)
	}

	docs := make([]store.Document, 0, len(points))
	for _, p := range points {
		doc, err := documentFromPoint(p)
		if err != nil {
			log.WithError(err).WithField("document_id", p.ID).Warn("Skipping document with malformed payload")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, next, nil
}

func (s *DocumentService) SearchSimilarDocuments(ctx context.Context, query string) ([]store.Document, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.vectors.Search(ctx, queryEmbedding, SearchTopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	docs := make([]store.Document, 0, len(hits))
	for _, hit := range hits {
		doc, err := documentFromPoint(hit.Point)
		if err != nil {
			log.WithError(err).WithField("document_id", hit.ID).Warn("Skipping search hit with malformed payload")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// UpdateDocument replaces content and metadata, recomputing the embedding.
// The document's id and created_at survive the update. Last writer wins.
func (s *DocumentService) UpdateDocument(ctx context.Context, id, content string, metadata map[string]any) (*store.Document, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	existing, err := s.vectors.Retrieve(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve document: %w", err)
	}
	if len(existing) == 0 {
		return nil, ErrDocumentNotFound
	}

	createdAt, err := time.Parse(time.RFC3339Nano, existing[0].Payload.CreatedAt)
	if err != nil {
		// Keep the document usable even if its stored timestamp rotted.
		log.WithError(err).WithField("document_id", id).Warn("Malformed created_at on stored document, resetting")
		createdAt = time.Now().UTC()
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document: %w", err)
	}

	doc := store.Document{
		ID:        id,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}
	if err := s.vectors.Upsert(ctx, []vectorstore.Point{pointFromDocument(doc, embedding)}); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	return &doc, nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	existing, err := s.vectors.Retrieve(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("failed to retrieve document: %w", err)
	}
	if len(existing) == 0 {
		return ErrDocumentNotFound
	}

	if err := s.vectors.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func pointFromDocument(doc store.Document, embedding []float32) vectorstore.Point {
	return vectorstore.Point{
		ID:     doc.ID,
		Vector: embedding,
		Payload: vectorstore.Payload{
			Text:      doc.Content,
			CreatedAt: doc.CreatedAt.Format(time.RFC3339Nano),
			Metadata:  doc.Metadata,
		},
	}
}

func documentFromPoint(p vectorstore.Point) (store.Document, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, p.Payload.CreatedAt)
	if err != nil {
		return store.Document{}, fmt.Errorf("malformed created_at %q: %w", p.Payload.CreatedAt, err)
	}
	metadata := p.Payload.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return store.Document{
		ID:        p.ID,
		Content:   p.Payload.Text,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}, nil
}
