package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "CHARTWISE_"

// providerKeyEnv maps provider ids to the conventional key variables
var providerKeyEnv = map[string]string{
	"gemini":     "GEMINI_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"groq":       "GROQ_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// flagKeys maps CLI flag names onto config keys
var flagKeys = map[string]string{
	"provider":  "provider",
	"model":     "model",
	"log-level": "log.level",
	"db":        "database.path",
	"addr":      "server.addr",
}

// Load builds the config from, lowest to highest precedence: defaults, the
// YAML file, CHARTWISE_* env vars, and explicitly set flags. A missing file
// is not an error. The returned bool reports whether a file was read.
func Load(path string, flags *pflag.FlagSet) (*Config, bool, error) {
	k := koanf.New(".")

	def := DefaultConfig()
	if err := k.Load(confmap.Provider(map[string]any{
		"provider":        def.Provider,
		"model":           def.Model,
		"timeout":         def.Timeout.String(),
		"verify_on_start": def.VerifyOnStart,
		"local.enabled":   def.Local.Enabled,
		"local.provider":  def.Local.Provider,
		"local.host":      def.Local.Host,
		"local.model":     def.Local.Model,
		"database.path":   def.Database.Path,
		"server.addr":     def.Server.Addr,
		"log.level":       def.Log.Level,
		"log.format":      def.Log.Format,
		"upload_dir":      def.UploadDir,
	}, "."), nil); err != nil {
		return nil, false, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return nil, false, err
		}
	}

	found := false
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, false, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		found = true
	} else if explicit {
		return nil, false, fmt.Errorf("config file %s: %w", path, err)
	}

	// CHARTWISE_SERVER__ADDR -> server.addr
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, false, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, false, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, false, fmt.Errorf("unable to decode config: %w", err)
	}

	applyKeyEnv(&cfg)
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &cfg, found, nil
}

func applyKeyEnv(cfg *Config) {
	for id, name := range providerKeyEnv {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if id == cfg.Provider && cfg.APIKey == "" {
			cfg.APIKey = v
		}
		if cfg.Keys == nil {
			cfg.Keys = map[string]string{}
		}
		if cfg.Keys[id] == "" {
			cfg.Keys[id] = v
		}
	}
}
