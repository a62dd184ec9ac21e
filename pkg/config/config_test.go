package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

func TestNewHasCurrentVersion(t *testing.T) {
	cfg := New()
	if cfg.Version != "1.0" {
		t.Errorf("Version = %q, want 1.0", cfg.Version)
	}
	if cfg.Created == "" {
		t.Error("Created should be stamped")
	}
	if cfg.SDLCNamespaces == nil {
		t.Error("SDLCNamespaces should default to an empty slice, not nil")
	}
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qms.config.json")

	cfg := New()
	cfg.SDLCNamespaces = []string{"ACME"}
	if err := Write(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Version != cfg.Version || loaded.Created != cfg.Created {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
	if len(loaded.SDLCNamespaces) != 1 || loaded.SDLCNamespaces[0] != "ACME" {
		t.Errorf("SDLCNamespaces = %v", loaded.SDLCNamespaces)
	}
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qms.config.json")
	if err := os.WriteFile(path, []byte(`{"version": "1.0"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for missing `created`")
	}
}

func TestLoadRejectsAdditionalProperties(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qms.config.json")
	content := `{"version": "1.0", "created": "2026-01-01T00:00:00Z", "unexpected": true}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for an unrecognized field")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	kind, ok := qmserrors.KindOf(err)
	if !ok || kind != qmserrors.UninitializedProject {
		t.Errorf("kind = %v, ok=%v, want UninitializedProject", kind, ok)
	}
}
