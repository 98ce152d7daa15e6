package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cdm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv("TARIFF_TOKEN", "tariff-secret")

	path := writeConfig(t, `
declaration:
  url: "https://declaration.example/graphql/"
  timeout: 5s
reference:
  source: http
  tariff_url: "https://tariff.example/api/tariffs/"
  tariff_token: "${TARIFF_TOKEN}"
  valuation_url: "https://valuation.example"
  cache:
    backend: memory
    ttl: 1h
llm:
  provider: ollama
  model: llama3
  max_retries: 2
  fallback:
    provider: ollama
    base_url: "http://backup:11434"
pipeline:
  workers: 4
  generate_timeout: 90s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tariff-secret", cfg.Reference.TariffToken)
	assert.Equal(t, 5*time.Second, cfg.Declaration.Timeout)
	assert.Equal(t, time.Hour, cfg.Reference.Cache.TTL)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.GenerateTimeout)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.LookupTimeout, "defaults survive partial files")
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)

	aiCfg := cfg.LLM.AI()
	require.NotNil(t, aiCfg.Fallback)
	assert.Equal(t, "http://backup:11434", aiCfg.Fallback.BaseURL)
	assert.Equal(t, 2, aiCfg.MaxRetries)

	cdmCfg := cfg.Pipeline.CDM()
	assert.Equal(t, 4, cdmCfg.Workers)
}

func TestEnvironmentOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"CDM_GRAPHQL_URL":     "https://graphql.example",
		"CDM_TARIFF_URL":      "https://tariff.example",
		"CDM_VALUATION_URL":   "https://valuation.example",
		"OPENAI_API_KEY":      " sk-test ",
		"CDM_LLM_PROVIDER":    "openai",
		"CDM_WORKERS":         "8",
		"CDM_DISABLE_HISTORY": "TRUE",
		"CDM_DB_PATH":         "",
	}
	cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, "https://graphql.example", cfg.Declaration.URL)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.True(t, cfg.Store.Disabled)
	assert.Equal(t, "data/cdm-history.db", cfg.Store.Path, "blank values do not override")
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Declaration.URL = "https://graphql.example"
		cfg.Reference.TariffURL = "https://tariff.example"
		cfg.Reference.ValuationURL = "https://valuation.example"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing declaration url", func(c *Config) { c.Declaration.URL = "" }},
		{"http source without urls", func(c *Config) { c.Reference.TariffURL = "" }},
		{"postgres without dsn", func(c *Config) { c.Reference.Source = SourcePostgres }},
		{"unknown source", func(c *Config) { c.Reference.Source = "ftp" }},
		{"redis without addr", func(c *Config) { c.Reference.Cache.Backend = CacheRedis }},
		{"unknown cache", func(c *Config) { c.Reference.Cache.Backend = "memcached" }},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"bad fallback", func(c *Config) { c.LLM.Fallback = &LLMConfig{Provider: "openai"} }},
		{"negative workers", func(c *Config) { c.Pipeline.Workers = -1 }},
		{"negative rpm", func(c *Config) { c.LLM.RPM = -5 }},
		{"history without path", func(c *Config) { c.Store.Path = " " }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "declaration: [unterminated"))
	assert.Error(t, err)
}
