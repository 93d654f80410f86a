// Package config loads doclai settings from defaults, an optional YAML file,
// the environment and command-line overrides, in that order of precedence.
package config

import (
	"github.com/ZaguanLabs/doclai"
	"github.com/ZaguanLabs/doclai/provider"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "doclai.yml"

// Config is the complete doclai configuration.
type Config struct {
	Backend     BackendConfig       `koanf:"backend"`
	Content     ContentConfig       `koanf:"content"`
	Engine      doclai.EngineConfig `koanf:"engine"`
	Cache       CacheConfig         `koanf:"cache"`
	Git         GitConfig           `koanf:"git"`
	Log         LogConfig           `koanf:"log"`
	Concurrency int                 `koanf:"concurrency" validate:"gte=1,lte=64"`
}

// BackendConfig configures the OpenAI-compatible translation backend.
type BackendConfig struct {
	APIKey            string            `koanf:"api_key"`
	BaseURL           string            `koanf:"base_url"            validate:"omitempty,url"`
	Model             string            `koanf:"model"               validate:"required"`
	Temperature       float64           `koanf:"temperature"         validate:"gte=0,lte=2"`
	JSONMode          bool              `koanf:"json_mode"`
	RequestsPerMinute int               `koanf:"requests_per_minute" validate:"gte=0"`
	Burst             int               `koanf:"burst"               validate:"gte=0"`
	MaxRetries        int               `koanf:"max_retries"         validate:"gte=0"`
	Context           string            `koanf:"context"`
	Style             string            `koanf:"style"               validate:"oneof=formal neutral technical"`
	ExcludedTerms     []string          `koanf:"excluded_terms"`
	Glossary          map[string]string `koanf:"glossary"`
}

// ContentConfig describes where sources live and what gets translated.
type ContentConfig struct {
	// Root holds one directory per locale, relative to the repository.
	Root         string `koanf:"root"          validate:"required"`
	SourceLocale string `koanf:"source_locale" validate:"required"`
	// SourceLang is the language code sent to the backend for SourceLocale.
	SourceLang      string   `koanf:"source_lang" validate:"required"`
	Targets         []string `koanf:"targets"     validate:"dive,required"`
	Extensions      []string `koanf:"extensions"  validate:"min=1,dive,startswith=."`
	TreeFiles       []string `koanf:"tree_files"`
	Exclude         []string `koanf:"exclude"`
	FrontmatterKeys []string `koanf:"frontmatter_keys"`
}

// CacheConfig selects the translation cache. RedisURL wins over Path; an
// empty Path with no RedisURL disables caching.
type CacheConfig struct {
	Path      string `koanf:"path"`
	RedisURL  string `koanf:"redis_url"  validate:"omitempty,url"`
	TTL       int    `koanf:"ttl"        validate:"gte=0"`
	KeyPrefix string `koanf:"key_prefix"`
}

// GitConfig selects the revisions compared to find changed files.
type GitConfig struct {
	Repo string `koanf:"repo" validate:"required"`
	Base string `koanf:"base" validate:"required"`
	Head string `koanf:"head" validate:"required"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `koanf:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:     provider.DefaultBaseURL,
			Model:       provider.DefaultModel,
			Temperature: provider.DefaultTemperature,
			MaxRetries:  3,
			Style:       string(doclai.StyleTechnical),
		},
		Content: ContentConfig{
			Root:            "content",
			SourceLocale:    "cn",
			SourceLang:      "zh",
			Targets:         []string{"en"},
			Extensions:      []string{".md"},
			TreeFiles:       []string{"settings.yml"},
			FrontmatterKeys: []string{"title", "description"},
		},
		Engine: doclai.DefaultEngineConfig(),
		Cache: CacheConfig{
			Path:      ".doclai/cache.json",
			KeyPrefix: "doclai:",
		},
		Git: GitConfig{
			Repo: ".",
			Base: "HEAD^",
			Head: "HEAD",
		},
		Log:         LogConfig{Level: "info"},
		Concurrency: 4,
	}
}
