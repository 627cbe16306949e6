// Command assistant is a goal-coaching chat assistant with a terminal UI
// and a browser UI.
//
// Usage:
//
//	assistant [flags]                 chat in the terminal
//	assistant -mode serve [flags]     serve the browser UI
//
// Flags:
//
//	-config string      Path to config.yaml (default: ~/.ai-goals-assistant/config.yaml)
//	-mode string        tui or serve
//	-transport string   ask, anthropic or gemini
//	-endpoint string    URL of the ask endpoint
//	-storage string     file, sqlite or redis
//	-addr string        Listen address in serve mode
//	-log-level string   trace, debug, info, warn or error
//	-api-key string     Provider API key (overrides ANTHROPIC_API_KEY or GEMINI_API_KEY)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/afilimonchyk/ai-goals-assistant"
	bt "github.com/afilimonchyk/ai-goals-assistant/bubbletea"
	"github.com/afilimonchyk/ai-goals-assistant/chi"
	ajson "github.com/afilimonchyk/ai-goals-assistant/json"
	"github.com/afilimonchyk/ai-goals-assistant/prometheus"
	zlog "github.com/afilimonchyk/ai-goals-assistant/zerolog"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "assistant: %v\n", err)
		os.Exit(1)
	}
}

// overrides holds flag values that replace config file settings when set.
type overrides struct {
	mode, transport, endpoint, storage, addr, logLevel string
}

func (o overrides) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Mode, o.mode)
	set(&cfg.Transport.Kind, o.transport)
	set(&cfg.Transport.Endpoint, o.endpoint)
	set(&cfg.Storage.Kind, o.storage)
	set(&cfg.Server.Addr, o.addr)
	set(&cfg.Log.Level, o.logLevel)
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	var (
		o          overrides
		configPath = flag.String("config", "", "Path to config.yaml")
		apiKey     = flag.String("api-key", "", "Provider API key (overrides ANTHROPIC_API_KEY or GEMINI_API_KEY)")
	)
	flag.StringVar(&o.mode, "mode", "", "tui or serve")
	flag.StringVar(&o.transport, "transport", "", "ask, anthropic or gemini")
	flag.StringVar(&o.endpoint, "endpoint", "", "URL of the ask endpoint")
	flag.StringVar(&o.storage, "storage", "", "file, sqlite or redis")
	flag.StringVar(&o.addr, "addr", "", "Listen address in serve mode")
	flag.StringVar(&o.logLevel, "log-level", "", "trace, debug, info, warn or error")
	flag.Parse()

	path, explicit := *configPath, *configPath != ""
	if !explicit {
		path = defaultConfigPath(home)
	}
	cfg, err := loadConfig(path, explicit, home)
	if err != nil {
		return err
	}
	o.apply(&cfg)
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The TUI owns the terminal, so its logs go to a file.
	var logOut io.Writer = os.Stderr
	if cfg.Mode == "tui" {
		f, err := openLogFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := zlog.New(cfg.Log.Config, logOut).With().Str("session_id", uuid.NewString()).Logger()

	// Env vars are read here and passed as values.
	keys := apiKeys{
		flag:      *apiKey,
		anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		gemini:    os.Getenv("GEMINI_API_KEY"),
	}
	transport, err := resolveTransport(ctx, cfg.Transport, keys)
	if err != nil {
		return err
	}

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Warn().Err(err).Msg("close storage")
		}
	}()

	history := ajson.NewHistory(storage, historyOptions(cfg.Storage, logger)...)
	goals := ajson.NewGoals(storage)
	metrics := prometheus.New()

	handlers := []func(assistant.Event){zlog.EventLogger(logger), metrics.Handle}
	var events chan assistant.Event
	if cfg.Mode == "tui" {
		events = make(chan assistant.Event, 64)
		handlers = append(handlers, bt.Forward(ctx, events))
	}

	ctrl := assistant.NewController(metrics.Transport(transport), history,
		assistant.WithEventHandler(assistant.FanOut(handlers...)),
		assistant.WithTimeout(cfg.Transport.Timeout),
	)

	logger.Info().
		Str("mode", cfg.Mode).
		Str("transport", cfg.Transport.Kind).
		Str("storage", cfg.Storage.Kind).
		Msg("starting")

	if cfg.Mode == "tui" {
		m := bt.New(ctrl, events, assistant.DefaultTheme(), bt.WithGoals(goals))
		if err := bt.Run(ctx, m); err != nil {
			return fmt.Errorf("TUI: %w", err)
		}
		return nil
	}

	if err := ctrl.Open(ctx); err != nil {
		logger.Warn().Err(err).Msg("stored history discarded")
	}
	opts := []chi.Option{
		chi.WithGoals(goals),
		chi.WithMetrics(metrics.Handler()),
		chi.WithLogger(logger),
	}
	if cfg.Server.Answerer != "" {
		// Model settings only carry over when they were meant for the same
		// provider.
		acfg := TransportConfig{SystemPrompt: cfg.Transport.SystemPrompt}
		if cfg.Server.Answerer == cfg.Transport.Kind {
			acfg = cfg.Transport
		}
		answerer, err := resolveModel(ctx, cfg.Server.Answerer, acfg, keys)
		if err != nil {
			return fmt.Errorf("answerer: %w", err)
		}
		opts = append(opts, chi.WithAnswerer(answerer))
	}
	srv := chi.NewServer(cfg.Server.Addr, ctrl, opts...)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func historyOptions(cfg StorageConfig, logger zerolog.Logger) []ajson.HistoryOption {
	opts := []ajson.HistoryOption{ajson.WithLogger(logger)}
	if cfg.CeilingBytes > 0 {
		opts = append(opts, ajson.WithCeiling(cfg.CeilingBytes))
	}
	if cfg.KeepTurns > 0 {
		opts = append(opts, ajson.WithKeep(cfg.KeepTurns))
	}
	return opts
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
