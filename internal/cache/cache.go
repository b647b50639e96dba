// Package cache persists the last endpoint that passed a health check.
// The record is a single TOML key in a file scoped to the installation.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/proyectoj/assistant/internal/endpoint"
)

// Cache is a single-slot, last-write-wins store.
type Cache interface {
	Get() (endpoint.Endpoint, bool)
	Put(endpoint.Endpoint) error
	Clear() error
}

var (
	_ Cache = (*FileCache)(nil)
	_ Cache = (*Memory)(nil)
)

type record struct {
	ServerBaseURL string `toml:"server_base_url"`
}

// FileCache stores the record in a TOML file.
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache returns a cache backed by path. The file and its directory are
// created on first Put.
func NewFileCache(path string) (*FileCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}
	return &FileCache{path: abs}, nil
}

// Path returns the backing file.
func (c *FileCache) Path() string { return c.path }

// Get returns the cached endpoint. A missing, unreadable or malformed file
// reads as absent.
func (c *FileCache) Get() (endpoint.Endpoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := os.Open(c.path)
	if err != nil {
		return "", false
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return "", false
	}
	var rec record
	if err := toml.Unmarshal(bytes, &rec); err != nil {
		return "", false
	}
	e := endpoint.Normalize(rec.ServerBaseURL, "http")
	return e, !e.IsZero()
}

// Put replaces the record atomically.
func (c *FileCache) Put(e endpoint.Endpoint) error {
	if e.IsZero() {
		return c.Clear()
	}
	bytes, err := toml.Marshal(record{ServerBaseURL: e.String()})
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := renameio.WriteFile(c.path, bytes, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Clear removes the record. Clearing an absent record is not an error.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

// Memory keeps the record in process memory only.
type Memory struct {
	mu    sync.Mutex
	value endpoint.Endpoint
}

func (m *Memory) Get() (endpoint.Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, !m.value.IsZero()
}

func (m *Memory) Put(e endpoint.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = e
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	return nil
}
