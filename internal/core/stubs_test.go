package core

import (
	"context"
	"hash/fnv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragstack/chat-api/internal/llm"
	"github.com/ragstack/chat-api/internal/store"
)

// stubEmbedder derives a deterministic vector from the text, so identical
// content always lands on the same point in vector space.
type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
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

	lastSystem string
	lastTurns  []llm.Turn
}

func (g *stubGenerator) Complete(ctx context.Context, systemInstruction string, turns []llm.Turn) (string, error) {
	g.lastSystem = systemInstruction
	g.lastTurns = turns
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
