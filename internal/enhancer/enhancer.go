// Package enhancer rewrites a user question into several retrieval queries
// using a language model.
package enhancer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tennisrag/internal/domain"
)

const promptTemplate = `Rewrite this search query to be more precise for document retrieval from a vector index of tennis match records: %s
Return all possible optimized queries separated by commas.
No additional text.`

// Enhancer asks a generator for query variants and falls back to the
// original query when that fails.
type Enhancer struct {
	generator domain.Generator
	logger    *slog.Logger
}

// New creates an Enhancer. A nil generator disables rewriting.
func New(generator domain.Generator, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{generator: generator, logger: logger}
}

// Prompt returns the instruction sent to the model for userQuery.
func Prompt(userQuery string) string {
	return fmt.Sprintf(promptTemplate, userQuery)
}

// Enhance returns the model's query variants, or exactly [userQuery] if the
// model call fails or its reply does not parse. The result is never empty.
func (e *Enhancer) Enhance(ctx context.Context, userQuery string) []string {
	if e.generator == nil {
		return []string{userQuery}
	}
	raw, err := e.generator.Generate(ctx, Prompt(userQuery))
	if err != nil {
		e.logger.WarnContext(ctx, "query enhancement failed, using original query",
			"generator", e.generator.Name(), "error", err)
		return []string{userQuery}
	}
	variants, err := ParseVariants(raw)
	if err != nil {
		e.logger.WarnContext(ctx, "query enhancement reply rejected, using original query",
			"generator", e.generator.Name(), "error", err)
		return []string{userQuery}
	}
	e.logger.InfoContext(ctx, "enhanced queries", "count", len(variants), "variants", variants)
	return variants
}

// ParseVariants validates a comma-separated model reply. The reply must be
// a single non-empty line and every segment must contain non-space text.
// Segments are returned with surrounding whitespace removed.
func ParseVariants(raw string) ([]string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrQueryEnhancement)
	}
	if strings.ContainsAny(text, "\r\n") {
		return nil, fmt.Errorf("%w: reply spans multiple lines", domain.ErrQueryEnhancement)
	}
	parts := strings.Split(text, ",")
	variants := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty variant at position %d", domain.ErrQueryEnhancement, i)
		}
		variants = append(variants, p)
	}
	return variants, nil
}
