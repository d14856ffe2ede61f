// Package qdrant is a minimal REST client to Qdrant. It assumes cosine
// distance and creates the collection on startup if it is missing.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ragstack/chat-api/internal/vectorstore"
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), req, &rsp); err != nil {
		return err
	}
	if !strings.EqualFold(rsp.Status.State, "ok") && rsp.Status.Error != "" {
		return errors.New(rsp.Status.Error)
	}
	return nil
}

func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	var rsp envelope[json.RawMessage]
	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &rsp)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}
	return strings.EqualFold(rsp.Status.State, "ok"), nil
}

func (s *Store) Upsert(ctx context.Context, points []vectorstore.Point) error {
	wire := make([]wirePoint, len(points))
	for i, p := range points {
		wire[i] = wirePoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	req := map[string]any{"points": wire}

	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), req, &rsp); err != nil {
		return err
	}
	if !strings.EqualFold(rsp.Status.State, "ok") && rsp.Status.Error != "" {
		return errors.New(rsp.Status.Error)
	}
	return nil
}

func (s *Store) Retrieve(ctx context.Context, ids []string) ([]vectorstore.Point, error) {
	req := map[string]any{
		"ids":          ids,
		"with_payload": true,
		"with_vector":  true,
	}

	var rsp envelope[[]wirePoint]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points"), req, &rsp); err != nil {
		return nil, err
	}

	points := make([]vectorstore.Point, 0, len(rsp.Result))
	for _, p := range rsp.Result {
		points = append(points, vectorstore.Point{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}
	return points, nil
}

func (s *Store) Scroll(ctx context.Context, limit int, cursor string) ([]vectorstore.Point, string, error) {
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
	}
	if cursor != "" {
		req["offset"] = cursor
	}

	var rsp envelope[scrollResult]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &rsp); err != nil {
		return nil, "", err
	}

	points := make([]vectorstore.Point, 0, len(rsp.Result.Points))
	for _, p := range rsp.Result.Points {
		points = append(points, vectorstore.Point{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}

	var next string
	if rsp.Result.NextPageOffset != nil {
		next = fmt.Sprintf("%v", rsp.Result.NextPageOffset)
	}
	return points, next, nil
}

func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	if limit < 1 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
	}

	var rsp envelope[[]scoredWirePoint]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &rsp); err != nil {
		return nil, err
	}

	hits := make([]vectorstore.ScoredPoint, 0, len(rsp.Result))
	for _, p := range rsp.Result {
		hits = append(hits, vectorstore.ScoredPoint{
			Point: vectorstore.Point{ID: p.ID, Vector: p.Vector, Payload: p.Payload},
			Score: p.Score,
		})
	}
	return hits, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	req := map[string]any{"points": ids}

	var rsp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), req, &rsp); err != nil {
		return err
	}
	if !strings.EqualFold(rsp.Status.State, "ok") && rsp.Status.Error != "" {
		return errors.New(rsp.Status.Error)
	}
	return nil
}

func (s *Store) collectionPath(suffix string) string {
	return fmt.Sprintf("/collections/%s%s", url.PathEscape(s.collection), suffix)
}

func (s *Store) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.url + path

	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		request.Header.Set("api-key", s.apiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}
	return nil
}
