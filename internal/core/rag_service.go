package core

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ragstack/chat-api/internal/llm"
	"github.com/ragstack/chat-api/internal/vectorstore"
)

const (
	// NumRelevantDocuments is the number of documents folded into the
	// generation context for each user message.
	NumRelevantDocuments = 3

	systemInstruction = "You are a helpful assistant. Answer questions based on the provided context documents. " +
		"If the answer is not found in the provided context, clearly state that you don't have the information. " +
		"Keep your answers concise and directly related to the user's question and provided context. " +
		"Do not make up information."
)

type RAGService struct {
	vectors   vectorstore.Store
	embedder  llm.Embedder
	generator llm.Generator
}

func NewRAGService(vectors vectorstore.Store, embedder llm.Embedder, generator llm.Generator) *RAGService {
	return &RAGService{
		vectors:   vectors,
		embedder:  embedder,
		generator: generator,
	}
}

// GetRelevantContext returns the concatenated text of the documents most
// similar to the query, or "" when nothing is stored.
func (s *RAGService) GetRelevantContext(ctx context.Context, query string) (string, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to get query embedding: %w", err)
	}

	hits, err := s.vectors.Search(ctx, queryEmbedding, NumRelevantDocuments)
	if err != nil {
		return "", fmt.Errorf("failed to search vector store: %w", err)
	}
	if len(hits) == 0 {
		log.WithField("query", query).Debug("No relevant documents found for query")
		return "", nil
	}

	var contextBuilder strings.Builder
	for _, hit := range hits {
		contextBuilder.WriteString(hit.Payload.Text)
		contextBuilder.WriteString("\n\n") // Separate documents clearly
	}
	return strings.TrimSpace(contextBuilder.String()), nil
}

// Answer runs retrieval-augmented generation for the user's query, with
// prior turns of the conversation as history.
func (s *RAGService) Answer(ctx context.Context, history []llm.Turn, query string) (string, error) {
	relevantContext, err := s.GetRelevantContext(ctx, query)
	if err != nil {
		// Retrieval failure does not fail the request; the model can
		// still answer from history or general knowledge.
		log.WithError(err).Warn("Failed to get relevant context, proceeding without it")
		relevantContext = ""
	}

	finalUserContent := query
	if relevantContext != "" {
		finalUserContent = fmt.Sprintf(
			"Based on the following potentially relevant context documents:\n\n--- CONTEXT START ---\n%s\n--- CONTEXT END ---\n\nNow, please answer my question: %s",
			relevantContext, query)
	}

	turns := append(append([]llm.Turn{}, history...), llm.Turn{Role: "user", Content: finalUserContent})

	answer, err := s.generator.Complete(ctx, systemInstruction, turns)
	if err != nil {
		return "", fmt.Errorf("failed to get LLM completion: %w", err)
	}
	return answer, nil
}
