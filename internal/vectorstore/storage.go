package vectorstore

import (
	"context"

	"tennisrag/internal/domain"
)

// Storage persists vectors and supports nearest-neighbor search.
// Search results are ordered by ascending distance.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []domain.Record, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error)
	Clear(ctx context.Context) error
}

// DefaultTopK is the neighbor count used when a caller passes topK <= 0.
const DefaultTopK = 4
