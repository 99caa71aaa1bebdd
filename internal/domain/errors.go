package domain

import "errors"

var (
	// ErrDatasetUnavailable is returned when the dataset cannot be downloaded.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrDatasetParse is returned when the dataset file is missing or malformed.
	ErrDatasetParse = errors.New("dataset parse error")
	// ErrEmbeddingService is returned when the embedder fails.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrQueryEnhancement marks a failed or unusable query rewrite.
	ErrQueryEnhancement = errors.New("query enhancement failed")
)
