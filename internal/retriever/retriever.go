// Package retriever merges nearest-neighbor results across query variants.
package retriever

import (
	"context"
	"log/slog"
	"sort"

	"tennisrag/internal/domain"
	"tennisrag/internal/vectorstore"
)

// Retriever searches an index once per query variant.
type Retriever struct {
	topK   int
	logger *slog.Logger
}

// New creates a Retriever returning up to topK neighbors per variant.
func New(topK int, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{topK: topK, logger: logger}
}

// Retrieve runs a similarity search for every variant, merges the results,
// orders them by ascending distance and drops repeated record texts. The
// first, closest occurrence of each text is kept; equal distances keep the
// order in which results were collected.
func (r *Retriever) Retrieve(ctx context.Context, idx domain.Searcher, variants []string) ([]domain.ScoredMatch, error) {
	if len(variants) == 0 || idx.Len() == 0 {
		return nil, nil
	}

	var all []domain.ScoredMatch
	for _, v := range variants {
		r.logger.InfoContext(ctx, "searching", "query", v)
		matches, err := idx.SimilaritySearch(ctx, v, r.topK)
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return Rank(all), nil
}

// Rank stable-sorts matches by distance and keeps the first match for each
// distinct record text. The input slice is reordered in place.
func Rank(matches []domain.ScoredMatch) []domain.ScoredMatch {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	seen := make(map[string]struct{}, len(matches))
	out := make([]domain.ScoredMatch, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.Record.Text]; dup {
			continue
		}
		seen[m.Record.Text] = struct{}{}
		out = append(out, m)
	}
	return out
}
