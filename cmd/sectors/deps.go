package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/supertypeai/sectors-kb/internal/config"
	"github.com/supertypeai/sectors-kb/internal/infra"
	"github.com/supertypeai/sectors-kb/internal/llm"
	"github.com/supertypeai/sectors-kb/internal/logger"
	"github.com/supertypeai/sectors-kb/internal/providers/sectors"
)

// newStore builds the memo store named by cfg.Backend. The returned close
// func is never nil; for a memory store with a TTL it stops the cleanup
// janitor.
func newStore(cfg config.CacheConfig) (infra.Store, func(), error) {
	noop := func() {}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		ms := infra.NewMemoryStore(cfg.TTL())
		return ms, ms.StartJanitor(cfg.TTL()), nil
	case "none", "off":
		return nil, noop, nil
	case "redis":
		rs, err := infra.NewRedisStore(infra.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL(),
		})
		if err != nil {
			if errors.Is(err, infra.ErrStoreUnavailable) {
				logger.L().Warn().Err(err).Msg("redis memo store unavailable, using in-memory store")
				ms := infra.NewMemoryStore(cfg.TTL())
				return ms, ms.StartJanitor(cfg.TTL()), nil
			}
			return nil, noop, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q (want memory, redis or none)", cfg.Backend)
	}
}

// newClient builds the Sectors API client with the configured memo store.
func (a *app) newClient() (*sectors.Client, func(), error) {
	store, closeStore, err := newStore(a.cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	var opts []sectors.Option
	if store != nil {
		opts = append(opts, sectors.WithStore(store))
	}
	c, err := sectors.New(sectors.Config{
		BaseURL: a.cfg.API.BaseURL,
		APIKey:  a.cfg.API.Key,
		Timeout: a.cfg.API.Timeout(),
	}, opts...)
	if err != nil {
		closeStore()
		if errors.Is(err, sectors.ErrNoAPIKey) {
			return nil, nil, fmt.Errorf("%w: set %s", err, config.EnvSectorsAPIKey)
		}
		return nil, nil, err
	}
	return c, closeStore, nil
}

// newProvider builds the chat model provider from the llm config section.
func (a *app) newProvider() (*llm.CompatProvider, error) {
	l := a.cfg.LLM
	p, err := llm.NewFromConfig(llm.ProviderConfig{
		APIKey:      l.APIKey,
		BaseURL:     l.BaseURL,
		Model:       l.Model,
		Temperature: l.Temperature,
		MaxTokens:   l.MaxTokens,
		Timeout:     time.Duration(l.TimeoutSec) * time.Second,
	})
	if errors.Is(err, llm.ErrNoAPIKey) {
		return nil, fmt.Errorf("%w: set %s", err, config.EnvGroqAPIKey)
	}
	return p, err
}
