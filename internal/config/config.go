package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lavan1999/agentic-ai/internal/ai"
	"github.com/Lavan1999/agentic-ai/internal/cdm"
)

// Reference source and cache backends.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is loaded once at startup and passed to constructors.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Declaration DeclarationConfig `yaml:"declaration"`
	Reference   ReferenceConfig   `yaml:"reference"`
	LLM         LLMConfig         `yaml:"llm"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Store       StoreConfig       `yaml:"store"`
}

// LogConfig selects the log level, format and optional log file.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DeclarationConfig points at the GraphQL declaration API.
type DeclarationConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ReferenceConfig chooses where tariff and valuation records come from.
type ReferenceConfig struct {
	Source         string        `yaml:"source"`
	TariffURL      string        `yaml:"tariff_url"`
	TariffToken    string        `yaml:"tariff_token"`
	ValuationURL   string        `yaml:"valuation_url"`
	ValuationToken string        `yaml:"valuation_token"`
	Timeout        time.Duration `yaml:"timeout"`
	PostgresDSN    string        `yaml:"postgres_dsn"`
	Cache          CacheConfig   `yaml:"cache"`
}

// CacheConfig controls the reference read-through cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
}

// LLMConfig describes one text-generation provider and its optional fallback.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RPM         int           `yaml:"rpm"`
	Burst       int           `yaml:"burst"`
	Fallback    *LLMConfig    `yaml:"fallback"`
}

// PipelineConfig bounds concurrency and per-call timeouts.
type PipelineConfig struct {
	Workers         int           `yaml:"workers"`
	LookupTimeout   time.Duration `yaml:"lookup_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
}

// StoreConfig locates the run history database.
type StoreConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	return Config{
		Log:         LogConfig{Level: "info", Format: "text"},
		Declaration: DeclarationConfig{Timeout: 10 * time.Second},
		Reference: ReferenceConfig{
			Source:  SourceHTTP,
			Timeout: cdm.DefaultLookupTimeout,
			Cache:   CacheConfig{Backend: CacheMemory, TTL: 12 * time.Hour},
		},
		LLM: LLMConfig{
			Provider:   ai.ProviderOllama,
			BaseURL:    "http://localhost:11434",
			Timeout:    cdm.DefaultGenerateTimeout,
			MaxRetries: 3,
		},
		Pipeline: PipelineConfig{
			Workers:         1,
			LookupTimeout:   cdm.DefaultLookupTimeout,
			GenerateTimeout: cdm.DefaultGenerateTimeout,
		},
		Store: StoreConfig{Path: "data/cdm-history.db"},
	}
}

// Load reads path over the defaults, expands ${ENV} references, applies
// environment overrides and validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		// #nosec G304 -- path is operator-provided config path.
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		expanded := os.ExpandEnv(string(raw))
		expanded = strings.ReplaceAll(expanded, "\r\n", "\n")
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// applyEnv lets deployments inject secrets and endpoints without editing the
// file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("CDM_GRAPHQL_URL", &c.Declaration.URL)
	str("CDM_REFERENCE_SOURCE", &c.Reference.Source)
	str("CDM_TARIFF_URL", &c.Reference.TariffURL)
	str("CDM_TARIFF_TOKEN", &c.Reference.TariffToken)
	str("CDM_VALUATION_URL", &c.Reference.ValuationURL)
	str("CDM_VALUATION_TOKEN", &c.Reference.ValuationToken)
	str("CDM_POSTGRES_DSN", &c.Reference.PostgresDSN)
	str("CDM_REDIS_ADDR", &c.Reference.Cache.RedisAddr)
	str("CDM_LLM_PROVIDER", &c.LLM.Provider)
	str("OLLAMA_URL", &c.LLM.BaseURL)
	str("CDM_LLM_MODEL", &c.LLM.Model)
	str("OPENAI_API_KEY", &c.LLM.APIKey)
	str("CDM_DB_PATH", &c.Store.Path)
	num("CDM_WORKERS", &c.Pipeline.Workers)

	if v, ok := lookup("CDM_DISABLE_HISTORY"); ok && strings.EqualFold(strings.TrimSpace(v), "true") {
		c.Store.Disabled = true
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Declaration.URL) == "" {
		return fmt.Errorf("declaration.url is required")
	}

	switch strings.ToLower(c.Reference.Source) {
	case SourceHTTP:
		if c.Reference.TariffURL == "" || c.Reference.ValuationURL == "" {
			return fmt.Errorf("reference.tariff_url and reference.valuation_url are required when reference.source=http")
		}
	case SourcePostgres:
		if c.Reference.PostgresDSN == "" {
			return fmt.Errorf("reference.postgres_dsn is required when reference.source=postgres")
		}
	default:
		return fmt.Errorf("reference.source must be %q or %q, got %q", SourceHTTP, SourcePostgres, c.Reference.Source)
	}

	switch strings.ToLower(c.Reference.Cache.Backend) {
	case "", CacheNone, CacheMemory:
	case CacheRedis:
		if c.Reference.Cache.RedisAddr == "" {
			return fmt.Errorf("reference.cache.redis_addr is required when reference.cache.backend=redis")
		}
	default:
		return fmt.Errorf("unknown reference.cache.backend %q", c.Reference.Cache.Backend)
	}

	if err := c.LLM.validate("llm"); err != nil {
		return err
	}
	if c.LLM.Fallback != nil {
		if err := c.LLM.Fallback.validate("llm.fallback"); err != nil {
			return err
		}
	}

	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative")
	}
	if !c.Store.Disabled && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required unless store.disabled=true")
	}
	return nil
}

func (l LLMConfig) validate(section string) error {
	switch strings.ToLower(l.Provider) {
	case "", ai.ProviderOllama:
	case ai.ProviderOpenAI:
		if l.APIKey == "" {
			return fmt.Errorf("%s.api_key is required when %s.provider=openai", section, section)
		}
	default:
		return fmt.Errorf("unknown %s.provider %q", section, l.Provider)
	}
	if l.RPM < 0 || l.Burst < 0 || l.MaxRetries < 0 {
		return fmt.Errorf("%s rate and retry settings must not be negative", section)
	}
	return nil
}

// AI converts the section into the generator factory's configuration.
func (l LLMConfig) AI() ai.Config {
	cfg := ai.Config{
		Provider:    strings.ToLower(l.Provider),
		BaseURL:     l.BaseURL,
		Model:       l.Model,
		APIKey:      l.APIKey,
		Temperature: l.Temperature,
		Timeout:     l.Timeout,
		MaxRetries:  l.MaxRetries,
		RPM:         l.RPM,
		Burst:       l.Burst,
	}
	if l.Fallback != nil {
		fallback := l.Fallback.AI()
		cfg.Fallback = &fallback
	}
	return cfg
}

// CDM converts the section into the pipeline configuration.
func (p PipelineConfig) CDM() cdm.Config {
	return cdm.Config{
		Workers:         p.Workers,
		LookupTimeout:   p.LookupTimeout,
		GenerateTimeout: p.GenerateTimeout,
	}
}
