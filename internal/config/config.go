package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`

	// Fallbacks are tried in order when the preferred provider cannot start
	Fallbacks []string `yaml:"fallbacks,omitempty"`
	// Keys holds API keys for fallback providers, keyed by provider id
	Keys map[string]string `yaml:"keys,omitempty"`

	Timeout       time.Duration `yaml:"timeout"`
	VerifyOnStart bool          `yaml:"verify_on_start"`

	Local *LocalConfig `yaml:"local,omitempty"`

	Database  DatabaseConfig `yaml:"database"`
	Server    ServerConfig   `yaml:"server"`
	Log       LogConfig      `yaml:"log"`
	UploadDir string         `yaml:"upload_dir"`
}

// LocalConfig is the designated default provider substituted when no
// configured provider can start.
type LocalConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	Host     string `yaml:"host"`
	Model    string `yaml:"model"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: "gemini",
		Model:    "gemini-2.5-flash",
		Timeout:  30 * time.Second,
		Local: &LocalConfig{
			Enabled:  true,
			Provider: "ollama",
			Host:     "http://localhost:11434",
			Model:    "llama3.1:8b",
		},
		Database:  DatabaseConfig{Path: defaultDataPath("chartwise.db")},
		Server:    ServerConfig{Addr: ":8000"},
		Log:       LogConfig{Level: "info", Format: "text"},
		UploadDir: defaultDataPath("uploads"),
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chartwise"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultDataPath(name string) string {
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// APIKeyFor returns the key to use for a provider id
func (c *Config) APIKeyFor(id string) string {
	if id == c.Provider && c.APIKey != "" {
		return c.APIKey
	}
	return c.Keys[id]
}

// ModelFor returns the model for a provider id. Fallback providers use the
// catalog default model.
func (c *Config) ModelFor(id string) string {
	if id == c.Provider && c.Model != "" {
		return c.Model
	}
	if p := GetProvider(id); p != nil {
		return p.DefaultModel
	}
	return ""
}

// Chain is the ordered list of providers to try at startup
func (c *Config) Chain() []string {
	seen := map[string]bool{}
	var chain []string
	for _, id := range append([]string{c.Provider}, c.Fallbacks...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		chain = append(chain, id)
	}
	return chain
}

func (c *Config) Validate() error {
	var errs []error
	for _, id := range c.Chain() {
		if GetProvider(id) == nil {
			errs = append(errs, fmt.Errorf("unknown provider: %s", id))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	return errors.Join(errs...)
}

// Save writes the config to path, or to the default location when path is
// empty.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
