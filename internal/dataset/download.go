// Package dataset fetches the match CSV and turns its rows into records.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"unicode/utf8"

	"tennisrag/internal/domain"
)

// Ensure makes sure a dataset file exists at path, downloading it from url
// when it does not. An existing file is never re-validated.
func Ensure(ctx context.Context, client *http.Client, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", domain.ErrDatasetUnavailable, path, err)
	}

	slog.InfoContext(ctx, "downloading dataset", "url", url, "path", path)
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: GET %s: %s", domain.ErrDatasetUnavailable, url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", domain.ErrDatasetUnavailable, err)
	}
	if !utf8.Valid(body) {
		return fmt.Errorf("%w: response is not valid UTF-8", domain.ErrDatasetUnavailable)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrDatasetUnavailable, err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrDatasetUnavailable, path, err)
	}
	return nil
}
