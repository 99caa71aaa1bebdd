package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tennisrag/internal/config"
	"tennisrag/internal/vectorstore/memory"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "text"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"}, &buf)
	assert.Error(t, err)
}

func TestBuildComponents(t *testing.T) {
	emb, err := buildEmbedder(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	assert.Equal(t, "tfidf", emb.Name())

	t.Setenv("TENNISRAG_TEST_KEY", "")
	_, err = buildEmbedder(config.EmbedderConfig{Type: "gemini", Gemini: &config.RemoteEmbedderConfig{APIKeyEnv: "TENNISRAG_TEST_KEY"}})
	assert.Error(t, err)

	gen, err := buildGenerator(config.LLMConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, gen)

	st, closeStore, err := buildStore(config.VectorStoreConfig{Type: "memory", Memory: &config.MemoryConfig{Distance: "cosine"}})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, st)
	assert.NoError(t, closeStore())

	_, _, err = buildStore(config.VectorStoreConfig{Type: "memory", Memory: &config.MemoryConfig{Distance: "manhattan"}})
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	out, err := run("config", "init", "--config", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Wrote "))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = run("config", "init", "--config", path)
	assert.Error(t, err)
	_, err = run("config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestAskWithOfflineConfig(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "matches.csv")
	csv := "tourney_name,winner_name,loser_name\nBuenos Aires,Fred Stolle,Thomaz Koch\nWimbledon,Rod Laver,Tony Roche\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))

	cfg := config.Default()
	cfg.Dataset.Path = csvPath
	cfg.Embedder.Type = "tfidf"
	cfg.LLM.Type = "none"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgPath, "--log-level", "error"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "winner_name: Fred Stolle")
	assert.Contains(t, out.String(), "Best match (row 0")
}
