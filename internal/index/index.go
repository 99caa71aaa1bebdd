// Package index builds a searchable vector index over dataset records.
package index

import (
	"context"
	"fmt"

	"tennisrag/internal/domain"
	"tennisrag/internal/vectorstore"
)

// Index pairs an embedder with the store holding the embedded records.
// It is built once and is read-only afterwards.
type Index struct {
	embedder domain.Embedder
	store    vectorstore.Storage
	size     int
}

// Build embeds every record and loads the store in a single pass. The
// store is cleared first; on failure no index is returned.
func Build(ctx context.Context, embedder domain.Embedder, store vectorstore.Storage, records []domain.Record) (*Index, error) {
	if err := store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("index: clear store: %w", err)
	}
	idx := &Index{embedder: embedder, store: store}
	if len(records) == 0 {
		return idx, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	if err := embedder.Prepare(ctx, texts); err != nil {
		return nil, fmt.Errorf("%w: prepare %s: %w", domain.ErrEmbeddingService, embedder.Name(), err)
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingService, embedder.Name(), err)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d records", domain.ErrEmbeddingService, embedder.Name(), len(vectors), len(records))
	}

	if err := store.Init(ctx, len(vectors[0])); err != nil {
		return nil, fmt.Errorf("index: init store: %w", err)
	}
	if err := store.Upsert(ctx, records, vectors); err != nil {
		return nil, fmt.Errorf("index: upsert: %w", err)
	}
	idx.size = len(records)
	return idx, nil
}

// Len returns the number of indexed records.
func (x *Index) Len() int { return x.size }

// SimilaritySearch embeds query and returns its topK nearest records in
// ascending distance order.
func (x *Index) SimilaritySearch(ctx context.Context, query string, topK int) ([]domain.ScoredMatch, error) {
	if x.size == 0 {
		return nil, nil
	}
	vec, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingService, err)
	}
	matches, err := x.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return matches, nil
}
