package domain

import "context"

// Record is a single row of the match dataset, serialized as text.
type Record struct {
	ID     string
	Source string
	Row    int
	Text   string
}

// ScoredMatch pairs a record with its distance to a query embedding.
// Lower distance means more similar.
type ScoredMatch struct {
	Record   Record
	Distance float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a single prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher runs a similarity search for a free-text query.
type Searcher interface {
	Len() int
	SimilaritySearch(ctx context.Context, query string, topK int) ([]ScoredMatch, error)
}
