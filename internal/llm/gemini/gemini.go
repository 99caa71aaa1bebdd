// Package gemini generates text with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tennisrag/internal/httpclient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
)

// Config configures the Gemini generator.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Temperature       *float64
	Timeout           time.Duration
	RequestsPerMinute int
}

// Generator calls models/{model}:generateContent.
type Generator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	client      *http.Client
	limiter     *rate.Limiter
}

// New creates a Gemini generator.
func New(cfg Config) (*Generator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Generator{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      key,
		model:       strings.TrimPrefix(cfg.Model, "models/"),
		temperature: cfg.Temperature,
		client:      httpclient.New(cfg.Timeout),
		limiter:     httpclient.NewLimiter(cfg.RequestsPerMinute),
	}, nil
}

// Name returns the name of the generator.
func (g *Generator) Name() string { return "gemini" }

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate. The call is made once.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if g.temperature != nil {
		req.GenerationConfig = &generationConfig{Temperature: g.temperature}
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)

	var resp generateResponse
	err := httpclient.Do(ctx, g.limiter, 0, func(ctx context.Context) error {
		return httpclient.PostJSON(ctx, g.client, "gemini generate", url, map[string]string{"x-goog-api-key": g.apiKey}, req, &resp)
	})
	if err != nil {
		return "", err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini generate: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini generate: no candidates returned")
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
