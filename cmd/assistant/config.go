package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	zlog "github.com/afilimonchyk/ai-goals-assistant/zerolog"
	"gopkg.in/yaml.v3"
)

const appDir = ".ai-goals-assistant"

// Config is the file layout of config.yaml.
type Config struct {
	Mode      string          `yaml:"mode"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// TransportConfig selects how questions reach the assistant.
type TransportConfig struct {
	Kind         string        `yaml:"kind"` // ask | anthropic | gemini
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// StorageConfig selects where history and goals are kept.
type StorageConfig struct {
	Kind         string `yaml:"kind"` // file | sqlite | redis
	Dir          string `yaml:"dir"`
	Path         string `yaml:"path"`
	RedisURL     string `yaml:"redis_url"`
	RedisPrefix  string `yaml:"redis_prefix"`
	QuotaBytes   int64  `yaml:"quota_bytes"`
	CeilingBytes int    `yaml:"ceiling_bytes"`
	KeepTurns    int    `yaml:"keep_turns"`
}

// LogConfig configures the process logger. In TUI mode logs go to File.
type LogConfig struct {
	zlog.Config `yaml:",inline"`
	File        string `yaml:"file"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Answerer mounts POST /ask backed by the named provider, "anthropic"
	// or "gemini". Empty leaves the route off.
	Answerer string `yaml:"answerer"`
}

func defaultConfig(home string) Config {
	base := filepath.Join(home, appDir)
	return Config{
		Mode: "tui",
		Transport: TransportConfig{
			Kind:    "ask",
			Timeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Kind: "file",
			Dir:  filepath.Join(base, "data"),
			Path: filepath.Join(base, "assistant.db"),
		},
		Log: LogConfig{
			Config: zlog.Config{Level: "info", Format: "json"},
			File:   filepath.Join(base, "assistant.log"),
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

func defaultConfigPath(home string) string {
	return filepath.Join(home, appDir, "config.yaml")
}

// loadConfig reads path over the defaults. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool, home string) (Config, error) {
	cfg := defaultConfig(home)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file; defaults apply.
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mode {
	case "tui", "serve":
	default:
		return fmt.Errorf("unknown mode %q: must be \"tui\" or \"serve\"", c.Mode)
	}
	switch c.Transport.Kind {
	case "ask", "anthropic", "gemini":
	default:
		return fmt.Errorf("unknown transport %q: must be \"ask\", \"anthropic\" or \"gemini\"", c.Transport.Kind)
	}
	switch c.Storage.Kind {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown storage %q: must be \"file\", \"sqlite\" or \"redis\"", c.Storage.Kind)
	}
	switch c.Server.Answerer {
	case "", "anthropic", "gemini":
	default:
		return fmt.Errorf("unknown answerer %q: must be \"anthropic\", \"gemini\" or empty", c.Server.Answerer)
	}
	if c.Transport.Timeout < 0 {
		return fmt.Errorf("transport timeout must not be negative")
	}
	return nil
}
