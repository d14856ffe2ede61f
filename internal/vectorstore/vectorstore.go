package vectorstore

import "context"

// Payload is what rides alongside a vector in the store. The text and
// created_at fields are carried explicitly so caller-supplied metadata
// never has to share a namespace with them.
type Payload struct {
	Text      string         `json:"text"`
	CreatedAt string         `json:"created_at"` // RFC3339Nano
	Metadata  map[string]any `json:"metadata"`
}

// Point is a stored vector with its identity and payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	Point
	Score float32
}

// Store persists vectors keyed by id and supports similarity search.
// Scroll pages with an opaque cursor: pass the returned cursor to get
// the next page; an empty returned cursor means the scan is done.
type Store interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Retrieve(ctx context.Context, ids []string) ([]Point, error)
	Scroll(ctx context.Context, limit int, cursor string) ([]Point, string, error)
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
	Delete(ctx context.Context, ids []string) error
}
