package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/digger/internal/digger"
	"github.com/rohankatakam/digger/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. DIGGER_TAGGER_RELEASE_BRANCH
const EnvPrefix = "DIGGER"

// Config holds all configuration settings
type Config struct {
	// Label names contributions; empty means the repository id
	Label string `mapstructure:"label" yaml:"label"`

	// Commit message conventions
	Digger digger.Config `mapstructure:"digger" yaml:"digger"`

	// Version and tagging policy
	Tagger TaggerConfig `mapstructure:"tagger" yaml:"tagger"`

	// Trunk cache
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Contribution history store
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	Log logging.Config `mapstructure:"log" yaml:"log"`

	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

type TaggerConfig struct {
	ReleaseBranch    string `mapstructure:"release_branch" yaml:"release_branch"`
	ImplicitPatch    bool   `mapstructure:"implicit_patch" yaml:"implicit_patch"`
	ForceSnapshot    bool   `mapstructure:"force_snapshot" yaml:"force_snapshot"`
	WarningsAsErrors bool   `mapstructure:"warnings_as_errors" yaml:"warnings_as_errors"`
	UserName         string `mapstructure:"user_name" yaml:"user_name"`
	UserEmail        string `mapstructure:"user_email" yaml:"user_email"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Path    string        `mapstructure:"path" yaml:"path"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type StorageConfig struct {
	Type        string `mapstructure:"type" yaml:"type"` // "sqlite", "postgres"
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	LocalPath   string `mapstructure:"local_path" yaml:"local_path"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "json", "yaml", "text"
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Digger: digger.DefaultConfig(),
		Tagger: TaggerConfig{
			ReleaseBranch: "main",
			ImplicitPatch: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, ".digger", "cache.db"),
			TTL:     7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(homeDir, ".digger", "history.db"),
		},
		Log: logging.DefaultConfig(),
		Output: OutputConfig{
			Format: "json",
		},
	}
}

// setDefaults flattens cfg into viper keys so that every key is known
// to AutomaticEnv
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("label", cfg.Label)

	v.SetDefault("digger.major_regex", cfg.Digger.MajorRegex)
	v.SetDefault("digger.minor_regex", cfg.Digger.MinorRegex)
	v.SetDefault("digger.patch_regex", cfg.Digger.PatchRegex)
	v.SetDefault("digger.none_regex", cfg.Digger.NoneRegex)
	v.SetDefault("digger.version_regex", cfg.Digger.VersionRegex)
	v.SetDefault("digger.story_id_regex", cfg.Digger.StoryIDRegex)
	v.SetDefault("digger.ease_regex", cfg.Digger.EaseRegex)

	v.SetDefault("tagger.release_branch", cfg.Tagger.ReleaseBranch)
	v.SetDefault("tagger.implicit_patch", cfg.Tagger.ImplicitPatch)
	v.SetDefault("tagger.force_snapshot", cfg.Tagger.ForceSnapshot)
	v.SetDefault("tagger.warnings_as_errors", cfg.Tagger.WarningsAsErrors)
	v.SetDefault("tagger.user_name", cfg.Tagger.UserName)
	v.SetDefault("tagger.user_email", cfg.Tagger.UserEmail)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("storage.local_path", cfg.Storage.LocalPath)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.max_size", cfg.Log.MaxSize)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.json", cfg.Log.JSON)

	v.SetDefault("output.format", cfg.Output.Format)
}

// Load loads configuration from path, or from the standard locations when
// path is empty. Precedence: environment, config file, defaults.
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// .digger.yaml in the working directory, then .digger/config.yaml, then ~/.digger/config.yaml
		v.SetConfigName(".digger")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if path == "" {
			if err := readFallbackConfig(v); err != nil {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	return cfg, nil
}

func readFallbackConfig(v *viper.Viper) error {
	homeDir, _ := os.UserHomeDir()
	for _, dir := range []string{".digger", filepath.Join(homeDir, ".digger")} {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", candidate, err)
		}
		return nil
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Redacted returns a copy of the configuration that is safe to print.
// The password in storage.postgres_dsn is replaced with "xxxxx".
func (c *Config) Redacted() *Config {
	out := *c
	if u, err := url.Parse(c.Storage.PostgresDSN); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			out.Storage.PostgresDSN = u.String()
		}
	}
	return &out
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
