package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Lavan1999/agentic-ai/internal/ai"
	"github.com/Lavan1999/agentic-ai/internal/cdm"
	"github.com/Lavan1999/agentic-ai/internal/config"
	"github.com/Lavan1999/agentic-ai/internal/declaration"
	"github.com/Lavan1999/agentic-ai/internal/logger"
	"github.com/Lavan1999/agentic-ai/internal/reference"
	"github.com/Lavan1999/agentic-ai/internal/store"
)

// app holds everything built from one configuration. closers run in reverse.
type app struct {
	cfg     config.Config
	closers []io.Closer
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logFile, err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &app{cfg: cfg, closers: []io.Closer{logFile}}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logrus.WithError(err).Warn("close resource")
		}
	}
}

func (a *app) orchestrator(ctx context.Context) (*cdm.Orchestrator, error) {
	declarations, err := declaration.NewClient(declaration.Config{
		URL:     a.cfg.Declaration.URL,
		Timeout: a.cfg.Declaration.Timeout,
		Headers: a.cfg.Declaration.Headers,
	})
	if err != nil {
		return nil, fmt.Errorf("declaration client: %w", err)
	}

	refs, err := a.referenceSource(ctx)
	if err != nil {
		return nil, err
	}

	gen, err := ai.New(ctx, a.cfg.LLM.AI())
	if err != nil {
		return nil, fmt.Errorf("text generator: %w", err)
	}

	pipelineCfg := a.cfg.Pipeline.CDM()
	return cdm.NewOrchestrator(declarations, cdm.NewPipeline(refs, gen, pipelineCfg), pipelineCfg), nil
}

func (a *app) referenceSource(ctx context.Context) (cdm.ReferenceSource, error) {
	refCfg := a.cfg.Reference

	var source cdm.ReferenceSource
	switch strings.ToLower(refCfg.Source) {
	case config.SourcePostgres:
		pg, err := reference.OpenPostgres(ctx, refCfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("reference database: %w", err)
		}
		a.closers = append(a.closers, pg)
		source = pg
	default:
		httpSource, err := reference.NewHTTPSource(reference.HTTPConfig{
			TariffURL:      refCfg.TariffURL,
			TariffToken:    refCfg.TariffToken,
			ValuationURL:   refCfg.ValuationURL,
			ValuationToken: refCfg.ValuationToken,
			Timeout:        refCfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("reference api: %w", err)
		}
		source = httpSource
	}

	switch strings.ToLower(refCfg.Cache.Backend) {
	case config.CacheNone:
		return source, nil
	case config.CacheRedis:
		redisCache := reference.NewRedisCache(refCfg.Cache.RedisAddr, refCfg.Cache.RedisPassword, refCfg.Cache.RedisDB, refCfg.Cache.Prefix)
		a.closers = append(a.closers, redisCache)
		return reference.NewCached(source, redisCache, refCfg.Cache.TTL), nil
	default:
		return reference.NewCached(source, reference.NewMemoryCache(), refCfg.Cache.TTL), nil
	}
}

// history returns nil when history is disabled.
func (a *app) history() (*store.Database, error) {
	if a.cfg.Store.Disabled {
		return nil, nil
	}
	if dir := filepath.Dir(a.cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := store.Open(a.cfg.Store.Path, true)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	return db, nil
}
