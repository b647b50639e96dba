package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileCache_MissingFileIsAbsent(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "endpoint.toml"))
	if err != nil {
		t.Fatalf("NewFileCache returned error: %v", err)
	}
	if got, ok := c.Get(); ok {
		t.Fatalf("Get = %q, want absent", got)
	}
}

func TestFileCache_PutCreatesDirsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "endpoint.toml")
	c, err := NewFileCache(path)
	if err != nil {
		t.Fatalf("NewFileCache returned error: %v", err)
	}

	if err := c.Put("http://192.168.1.20:8000"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	got, ok := c.Get()
	if !ok || got != "http://192.168.1.20:8000" {
		t.Fatalf("Get = %q, %v; want http://192.168.1.20:8000", got, ok)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "server_base_url") {
		t.Fatalf("cache file = %q, want server_base_url key", raw)
	}

	// Last write wins.
	if err := c.Put("https://relay.example.com"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if got, _ := c.Get(); got != "https://relay.example.com" {
		t.Fatalf("Get = %q, want https://relay.example.com", got)
	}
}

func TestFileCache_ClearRemovesRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoint.toml")
	c, _ := NewFileCache(path)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear on absent record returned error: %v", err)
	}
	if err := c.Put("http://10.0.2.2:8000"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, ok := c.Get(); ok {
		t.Fatal("Get after Clear reported a record")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("cache file still present: %v", err)
	}
}

func TestFileCache_MalformedFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoint.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	c, _ := NewFileCache(path)
	if got, ok := c.Get(); ok {
		t.Fatalf("Get = %q, want absent for malformed file", got)
	}

	if err := os.WriteFile(path, []byte("server_base_url = \"   \"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got, ok := c.Get(); ok {
		t.Fatalf("Get = %q, want absent for blank value", got)
	}
}

func TestFileCache_PutZeroClears(t *testing.T) {
	c, _ := NewFileCache(filepath.Join(t.TempDir(), "endpoint.toml"))
	_ = c.Put("http://10.0.0.1:8000")
	if err := c.Put(""); err != nil {
		t.Fatalf("Put(\"\") returned error: %v", err)
	}
	if _, ok := c.Get(); ok {
		t.Fatal("Put(\"\") should clear the record")
	}
}

func TestNewFileCache_EmptyPathErrors(t *testing.T) {
	if _, err := NewFileCache("  "); err == nil {
		t.Fatal("NewFileCache returned nil error, want error")
	}
}

func TestMemory(t *testing.T) {
	var m Memory
	if _, ok := m.Get(); ok {
		t.Fatal("zero Memory should be empty")
	}
	_ = m.Put("http://10.0.0.7:8000")
	if got, ok := m.Get(); !ok || got != "http://10.0.0.7:8000" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	_ = m.Clear()
	if _, ok := m.Get(); ok {
		t.Fatal("Get after Clear reported a record")
	}
}
