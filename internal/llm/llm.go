package llm

import "context"

// Turn is one prior exchange in a conversation, role "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for the given turns, the last of which
// must be the current user turn.
type Generator interface {
	Complete(ctx context.Context, systemInstruction string, turns []Turn) (string, error)
}
