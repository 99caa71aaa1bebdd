// Package openai generates text through an OpenAI-compatible chat
// completions endpoint (OpenAI, Ollama, vLLM, ...).
package openai

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

// Config configures the chat completions generator.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Temperature       *float64
	Timeout           time.Duration
	RequestsPerMinute int
}

// Generator implements domain.Generator with a single chat completion.
type Generator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	client      *http.Client
	limiter     *rate.Limiter
}

// New creates a chat completions generator. A key is optional for local
// servers; when APIKeyEnv is set the variable must be non-empty.
func New(cfg Config) (*Generator, error) {
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &Generator{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      httpclient.New(cfg.Timeout),
		limiter:     httpclient.NewLimiter(cfg.RequestsPerMinute),
	}, nil
}

// Name returns the name of the generator.
func (g *Generator) Name() string { return "openai" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Generate returns the content of the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       g.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
	}
	headers := map[string]string{}
	if g.apiKey != "" {
		headers["Authorization"] = "Bearer " + g.apiKey
	}

	var resp chatResponse
	err := httpclient.Do(ctx, g.limiter, 0, func(ctx context.Context) error {
		return httpclient.PostJSON(ctx, g.client, "openai chat", g.baseURL+"/chat/completions", headers, req, &resp)
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
