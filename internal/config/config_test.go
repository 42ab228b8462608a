package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range providerKeyEnv {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, found, err := Load("", nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.Local)
	assert.Equal(t, "ollama", cfg.Local.Provider)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoadPrecedence(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, `
provider: openai
model: gpt-4o
fallbacks: [groq, ollama]
timeout: 10s
server:
  addr: ":9000"
log:
  level: debug
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, found, err := Load(path, nil)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, []string{"groq", "ollama"}, cfg.Fallbacks)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, "debug", cfg.Log.Level)
		// untouched defaults survive
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("CHARTWISE_SERVER__ADDR", ":7000")
		t.Setenv("CHARTWISE_MODEL", "gpt-4o-mini")
		cfg, _, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("CHARTWISE_PROVIDER", "groq")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("provider", "", "")
		flags.String("log-level", "", "")
		require.NoError(t, flags.Parse([]string{"--provider", "anthropic"}))

		cfg, _, err := Load(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.Provider)
		// unset flags do not clobber lower layers
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestProviderKeyEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GROQ_API_KEY", "q-key")
	path := writeConfig(t, "provider: gemini\nfallbacks: [groq]\n")

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.APIKey)
	assert.Equal(t, "q-key", cfg.APIKeyFor("groq"))
	assert.Equal(t, "g-key", cfg.APIKeyFor("gemini"))
}

func TestChainAndModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.Model = "gpt-4o"
	cfg.Fallbacks = []string{"groq", "openai", "", "gemini"}

	assert.Equal(t, []string{"openai", "groq", "gemini"}, cfg.Chain())
	assert.Equal(t, "gpt-4o", cfg.ModelFor("openai"))
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.ModelFor("groq"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown provider", func(c *Config) { c.Provider = "mystery" }, "unknown provider: mystery"},
		{"unknown fallback", func(c *Config) { c.Fallbacks = []string{"nope"} }, "unknown provider: nope"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearKeyEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Provider = "groq"
	cfg.APIKey = "secret"
	cfg.Timeout = 45 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, found, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "groq", loaded.Provider)
	assert.Equal(t, "secret", loaded.APIKey)
	assert.Equal(t, 45*time.Second, loaded.Timeout)
}
