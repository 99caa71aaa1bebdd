package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"tennisrag/internal/domain"
	"tennisrag/internal/vectorstore"
)

// Metric selects how distance between two vectors is measured.
type Metric string

const (
	// MetricL2 is squared euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is 1 - cosine similarity.
	MetricCosine Metric = "cosine"
)

// ParseMetric maps a config value to a Metric. Empty selects MetricL2.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// Storage is an in-memory vector store with exhaustive search.
type Storage struct {
	mu        sync.RWMutex
	metric    Metric
	dimension int
	vectors   [][]float32
	records   []domain.Record
}

// NewStorage creates an empty store using the given metric.
func NewStorage(metric Metric) *Storage {
	if metric == "" {
		metric = MetricL2
	}
	return &Storage{metric: metric}
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.records = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, records []domain.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.records = append(s.records, records...)
	for _, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		s.vectors = append(s.vectors, cp)
	}
	return nil
}

// Search returns the topK nearest records. Equal distances keep insertion order.
func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}

	matches := make([]domain.ScoredMatch, len(s.vectors))
	for i, v := range s.vectors {
		matches[i] = domain.ScoredMatch{Record: s.records[i], Distance: s.distance(vector, v)}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.records = nil
	return nil
}

// Len returns the number of stored vectors.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func (s *Storage) distance(a, b []float32) float64 {
	if s.metric == MetricCosine {
		return 1 - cosine(a, b)
	}
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
