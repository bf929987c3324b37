package properties

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultWhenPathEmpty(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cat.Lookup("2b-n1-a-29-shoreditch-heights"); !ok {
		t.Fatal("expected default catalog to contain the Shoreditch listing")
	}
}

func TestLoadRepositoryCatalog(t *testing.T) {
	cat, err := Load(filepath.Join("..", "..", "config", "properties.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := cat.Lookup("1B-NW1-12-Camden-Lock-Lofts")
	if !ok {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if p.Slug != "1b-nw1-12-camden-lock-lofts" {
		t.Fatalf("expected slug filled from key, got %q", p.Slug)
	}
	if p.Capacity.Guests != 2 || p.NightlyRate != 190 {
		t.Fatalf("unexpected property %+v", p)
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("properties: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected read error")
	}
	if len(cat.Properties) == 0 {
		t.Fatal("expected default catalog alongside the error")
	}
}
