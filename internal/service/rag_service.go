// Package service wires the dataset, index, enhancer and retriever into the
// question answering pipeline.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tennisrag/internal/dataset"
	"tennisrag/internal/domain"
	"tennisrag/internal/enhancer"
	"tennisrag/internal/index"
	"tennisrag/internal/retriever"
	"tennisrag/internal/vectorstore"
)

var tracer = otel.Tracer("tennisrag/service")

// ErrNotPrepared is returned by Ask before Prepare has succeeded.
var ErrNotPrepared = errors.New("service: index not built")

// Options configures where the dataset lives.
type Options struct {
	DatasetPath string
	DatasetURL  string
}

// Answer is the outcome of one question.
type Answer struct {
	Query    string
	Variants []string
	Matches  []domain.ScoredMatch
	// Best is nil when no documents were found.
	Best *domain.ScoredMatch
}

// RAGService runs the question answering pipeline. Steps run sequentially.
type RAGService struct {
	httpClient *http.Client
	embedder   domain.Embedder
	store      vectorstore.Storage
	enhancer   *enhancer.Enhancer
	retriever  *retriever.Retriever
	opts       Options
	logger     *slog.Logger

	index *index.Index
}

// NewRAGService assembles the pipeline from already-configured components.
func NewRAGService(httpClient *http.Client, embedder domain.Embedder, store vectorstore.Storage, enh *enhancer.Enhancer, ret *retriever.Retriever, opts Options, logger *slog.Logger) *RAGService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAGService{
		httpClient: httpClient,
		embedder:   embedder,
		store:      store,
		enhancer:   enh,
		retriever:  ret,
		opts:       opts,
		logger:     logger,
	}
}

// EnsureDataset downloads the dataset unless it is already on disk.
func (s *RAGService) EnsureDataset(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "dataset.ensure")
	defer span.End()
	s.logger.InfoContext(ctx, "loading data", "path", s.opts.DatasetPath)
	if err := dataset.Ensure(ctx, s.httpClient, s.opts.DatasetPath, s.opts.DatasetURL); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// BuildIndex parses the dataset and indexes every row.
func (s *RAGService) BuildIndex(ctx context.Context) (*index.Index, error) {
	ctx, span := tracer.Start(ctx, "index.build")
	defer span.End()
	s.logger.InfoContext(ctx, "indexing vector", "embedder", s.embedder.Name())

	records, err := dataset.LoadRecords(s.opts.DatasetPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	idx, err := index.Build(ctx, s.embedder, s.store, records)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", idx.Len()))
	s.logger.InfoContext(ctx, "index built", "records", idx.Len())
	return idx, nil
}

// Prepare ensures the dataset and builds the index used by Ask.
func (s *RAGService) Prepare(ctx context.Context) error {
	if err := s.EnsureDataset(ctx); err != nil {
		return err
	}
	idx, err := s.BuildIndex(ctx)
	if err != nil {
		return err
	}
	s.index = idx
	return nil
}

// Ask answers a question against the index built by Prepare.
func (s *RAGService) Ask(ctx context.Context, userQuery string) (*Answer, error) {
	if s.index == nil {
		return nil, ErrNotPrepared
	}
	return s.query(ctx, s.index, userQuery)
}

// Answer runs the whole pipeline for one question: dataset, index,
// query enhancement and retrieval. The index is rebuilt on every call.
func (s *RAGService) Answer(ctx context.Context, userQuery string) (*Answer, error) {
	if err := s.Prepare(ctx); err != nil {
		return nil, err
	}
	return s.query(ctx, s.index, userQuery)
}

func (s *RAGService) query(ctx context.Context, idx domain.Searcher, userQuery string) (*Answer, error) {
	s.logger.InfoContext(ctx, "querying data", "query", userQuery)

	enhanceCtx, span := tracer.Start(ctx, "query.enhance")
	variants := s.enhancer.Enhance(enhanceCtx, userQuery)
	span.SetAttributes(attribute.Int("variants", len(variants)))
	span.End()

	retrieveCtx, span := tracer.Start(ctx, "query.retrieve")
	matches, err := s.retriever.Retrieve(retrieveCtx, idx, variants)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return nil, err
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))
	span.End()

	ans := &Answer{Query: userQuery, Variants: variants, Matches: matches}
	if len(matches) == 0 {
		s.logger.InfoContext(ctx, "no relevant documents found")
		return ans, nil
	}
	ans.Best = &matches[0]
	s.logger.InfoContext(ctx, "related documents", "count", len(matches))
	s.logger.InfoContext(ctx, "best match document", "distance", ans.Best.Distance, "row", ans.Best.Record.Row, "text", ans.Best.Record.Text)
	return ans, nil
}
