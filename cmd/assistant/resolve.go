package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/afilimonchyk/ai-goals-assistant/anthropic"
	"github.com/afilimonchyk/ai-goals-assistant/ask"
	afs "github.com/afilimonchyk/ai-goals-assistant/fs"
	"github.com/afilimonchyk/ai-goals-assistant/gemini"
	aredis "github.com/afilimonchyk/ai-goals-assistant/redis"
	"github.com/afilimonchyk/ai-goals-assistant/sqlite"
)

// apiKeys holds provider keys from the environment. Env is only read in
// main(); everything else receives the values.
type apiKeys struct {
	flag, anthropic, gemini string
}

// pick returns the key for provider: the -api-key flag overrides the
// config file, which overrides the environment.
func (k apiKeys) pick(provider, configured string) (string, error) {
	key := k.flag
	if key == "" {
		key = configured
	}
	if key == "" {
		switch provider {
		case "anthropic":
			key = k.anthropic
		case "gemini":
			key = k.gemini
		}
	}
	if key == "" {
		return "", fmt.Errorf("%s_API_KEY not set (use -api-key flag, transport.api_key or environment variable)", strings.ToUpper(provider))
	}
	return key, nil
}

// resolveTransport constructs the transport that carries questions to the
// assistant.
func resolveTransport(ctx context.Context, cfg TransportConfig, keys apiKeys) (assistant.Transport, error) {
	switch cfg.Kind {
	case "ask":
		var opts []ask.Option
		if cfg.Endpoint != "" {
			opts = append(opts, ask.WithEndpoint(cfg.Endpoint))
		}
		return ask.New(opts...), nil
	case "anthropic", "gemini":
		return resolveModel(ctx, cfg.Kind, cfg, keys)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Kind)
	}
}

// resolveModel constructs a transport that talks to a model provider
// directly.
func resolveModel(ctx context.Context, provider string, cfg TransportConfig, keys apiKeys) (assistant.Transport, error) {
	key, err := keys.pick(provider, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	switch provider {
	case "anthropic":
		var opts []anthropic.Option
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.SystemPrompt != "" {
			opts = append(opts, anthropic.WithSystemPrompt(cfg.SystemPrompt))
		}
		return anthropic.New(key, opts...), nil
	case "gemini":
		c, err := newGemini(ctx, key, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"anthropic\" or \"gemini\"", provider)
	}
}

func newGemini(ctx context.Context, key string, cfg TransportConfig) (*gemini.Client, error) {
	var opts []gemini.Option
	if cfg.Model != "" {
		opts = append(opts, gemini.WithModel(cfg.Model))
	}
	if cfg.SystemPrompt != "" {
		opts = append(opts, gemini.WithSystemPrompt(cfg.SystemPrompt))
	}
	return gemini.New(ctx, key, opts...)
}

// openStorage opens the configured backend. The returned close function is
// never nil.
func openStorage(ctx context.Context, cfg StorageConfig) (assistant.Storage, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Kind {
	case "file":
		return afs.New(cfg.Dir, afs.WithQuota(cfg.QuotaBytes)), nop, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.Path, sqlite.WithQuota(cfg.QuotaBytes))
		if err != nil {
			return nil, nop, err
		}
		return s, s.Close, nil
	case "redis":
		var opts []aredis.Option
		if cfg.RedisPrefix != "" {
			opts = append(opts, aredis.WithPrefix(cfg.RedisPrefix))
		}
		s, err := aredis.New(ctx, cfg.RedisURL, opts...)
		if err != nil {
			return nil, nop, err
		}
		return s, s.Close, nil
	default:
		return nil, nop, fmt.Errorf("unknown storage %q", cfg.Kind)
	}
}
