package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDatasetPath, cfg.Dataset.Path)
	assert.Equal(t, DefaultDatasetURL, cfg.Dataset.URL)
	assert.Equal(t, "gemini", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.Gemini)
	assert.Equal(t, "GOOGLE_API_KEY", cfg.Embedder.Gemini.APIKeyEnv)
	assert.Equal(t, "models/text-embedding-004", cfg.Embedder.Gemini.Model)
	assert.Equal(t, 100, cfg.Embedder.Gemini.BatchSize)
	assert.Equal(t, "gemini", cfg.LLM.Type)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Gemini.Model)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, "l2", cfg.VectorStore.Memory.Distance)
	assert.Equal(t, 4, cfg.Retriever.TopK)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_AppliesSectionDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
embedder:
  type: openai
llm:
  type: none
vector_store:
  type: qdrant
  qdrant:
    collection: matches
retriever:
  top_k: 8
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)
	assert.Equal(t, "none", cfg.LLM.Type)
	assert.Nil(t, cfg.LLM.Gemini)
	assert.Equal(t, "localhost:6334", cfg.VectorStore.Qdrant.Addr)
	assert.Equal(t, "matches", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, "cosine", cfg.VectorStore.Qdrant.Distance)
	assert.Equal(t, 8, cfg.Retriever.TopK)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_RejectsUnknownTypes(t *testing.T) {
	for _, yml := range []string{
		"embedder:\n  type: word2vec\n",
		"llm:\n  type: claude\n",
		"vector_store:\n  type: faiss\n",
		"log:\n  format: xml\n",
	} {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
		_, err := Load(path)
		assert.Error(t, err, yml)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Retriever.TopK = 6
	want.Embedder.Type = "tfidf"

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Retriever.TopK)
	assert.Equal(t, "tfidf", got.Embedder.Type)
	assert.Equal(t, want.Dataset, got.Dataset)
}
