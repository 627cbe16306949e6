// Package fs implements assistant.Storage as one file per key in a
// directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/afilimonchyk/ai-goals-assistant"
	"github.com/bmatcuk/doublestar/v4"
)

var _ assistant.Storage = (*Storage)(nil)

// A key is one or more slash-separated segments. No segment may start with
// a dot, so keys never escape the directory.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*(/[A-Za-z0-9_-][A-Za-z0-9_.-]*)*$`)

const ext = ".json"

// Storage stores each key in <dir>/<key>.json. A key such as "alice/goals"
// lives in a subdirectory. Writes go to a temp file that is renamed into
// place, so a crash never leaves a half-written value.
type Storage struct {
	dir   string
	quota int64
}

// Option configures a Storage.
type Option func(*Storage)

// WithQuota caps the total size in bytes of all stored values. A Set that
// would exceed it fails with assistant.ErrQuotaExceeded. Zero means no cap.
func WithQuota(bytes int64) Option {
	return func(s *Storage) { s.quota = bytes }
}

// New creates a Storage rooted at dir. The directory is created on first
// write.
func New(dir string, opts ...Option) *Storage {
	s := &Storage{dir: dir}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the value stored under key.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, assistant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set writes value under key.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	if s.quota > 0 {
		used, err := s.usage(key)
		if err != nil {
			return err
		}
		if used+int64(len(value)) > s.quota {
			return fmt.Errorf("set %s: %d of %d bytes used: %w", key, used, s.quota, assistant.ErrQuotaExceeded)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: invalid key %q", assistant.ErrValidation, key)
	}
	return filepath.Join(s.dir, key+ext), nil
}

// usage sums the sizes of all stored values at any depth except the one
// under skip, which is about to be replaced.
func (s *Storage) usage(skip string) (int64, error) {
	fsys := os.DirFS(s.dir)
	matches, err := doublestar.Glob(fsys, "**/*"+ext)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	var total int64
	for _, name := range matches {
		if name == skip+ext {
			continue
		}
		info, err := iofs.Stat(fsys, name)
		if errors.Is(err, iofs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", name, err)
		}
		total += info.Size()
	}
	return total, nil
}
