package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// IngestFromFile bulk-loads a plain-text file into the document store,
// one document per blank-line-separated paragraph. Paragraphs that fail
// to embed or store are skipped, not fatal. Returns the number ingested.
func (s *DocumentService) IngestFromFile(ctx context.Context, filePath string) (int, error) {
	contentBytes, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read data file %s: %w", filePath, err)
	}

	var paragraphs []string
	for _, block := range strings.Split(string(contentBytes), "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	if len(paragraphs) == 0 {
		log.Warnf("No paragraphs found in %s, nothing to ingest", filePath)
		return 0, nil
	}

	log.Infof("Ingesting %d paragraphs from %s (this may take a while)...", len(paragraphs), filePath)

	count := 0

	ticker := time.NewTicker(40 * time.Millisecond) // stay under embedding rate limits
	defer ticker.Stop()

	for i, paragraph := range paragraphs {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case <-ticker.C:
		}

		if _, err := s.AddDocument(ctx, paragraph, map[string]any{"source": filePath}); err != nil {
			log.WithError(err).Warnf("Failed to ingest paragraph %d (%.50s...), skipping", i+1, paragraph)
			continue
		}
		count++
		if count%10 == 0 || count == len(paragraphs) {
			log.Infof("Ingested %d/%d paragraphs...", count, len(paragraphs))
		}
	}
	return count, nil
}
