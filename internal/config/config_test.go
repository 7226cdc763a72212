package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Client.BackendURL)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
embedder:
  type: openai
generator:
  type: gemini
vector_store:
  type: memory
retrieval:
  top_k: 7
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.Equal(t, 60, cfg.Client.TimeoutSecs)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Generator.APIKeyEnv)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STUDYMATE_ADDR", "127.0.0.1:8080")
	t.Setenv("STUDYMATE_BACKEND_URL", "http://studymate.internal:8080/")
	t.Setenv("STUDYMATE_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "http://studymate.internal:8080", cfg.Client.BackendURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "studymate", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "word", cfg.Chunker.Type)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, again.Server)
}

func TestLoadDefaultPrefersWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("retrieval:\n  top_k: 9\n"), 0o644))

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)
	assert.Equal(t, 9, cfg.Retrieval.TopK)
}

func TestGeneratorKeyResolution(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Generator.Type)
	assert.Equal(t, "env-key", cfg.Generator.Key())

	cfg.Generator.APIKey = "file-key"
	assert.Equal(t, "file-key", cfg.Generator.Key())

	assert.Empty(t, GeneratorConfig{}.Key())
}

func TestEmptyGeneratorTypeBecomesAuto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generator:\n  type: \"\"\n  api_key_env: \"\"\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Generator.Type)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Generator.APIKeyEnv)
}
