// Package memory is an in-process vector store used in tests and for
// running without a Qdrant instance. Points keep insertion order so
// scroll behaves like a stable scan.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ragstack/chat-api/internal/utils"
	"github.com/ragstack/chat-api/internal/vectorstore"
)

type Store struct {
	mu     sync.RWMutex
	points map[string]vectorstore.Point
	order  []string // insertion order of ids
}

func NewStore() *Store {
	return &Store{points: make(map[string]vectorstore.Point)}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	return nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if _, exists := s.points[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.points[p.ID] = p
	}
	return nil
}

func (s *Store) Retrieve(ctx context.Context, ids []string) ([]vectorstore.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []vectorstore.Point
	for _, id := range ids {
		if p, ok := s.points[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

func (s *Store) Scroll(ctx context.Context, limit int, cursor string) ([]vectorstore.Point, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if cursor != "" {
		for i, id := range s.order {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}

	var page []vectorstore.Point
	for _, id := range s.order[min(start, len(s.order)):] {
		if len(page) == limit {
			break
		}
		page = append(page, s.points[id])
	}

	var next string
	if len(page) == limit && start+limit < len(s.order) {
		next = page[len(page)-1].ID
	}
	return page, next, nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []vectorstore.ScoredPoint
	for _, id := range s.order {
		p := s.points[id]
		score, err := utils.CosineSimilarity(vector, p.Vector)
		if err != nil {
			continue // Skip points with mismatched dimensions
		}
		hits = append(hits, vectorstore.ScoredPoint{Point: p, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.points[id]; !ok {
			continue
		}
		delete(s.points, id)
		for i, ordered := range s.order {
			if ordered == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}
