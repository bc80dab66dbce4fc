package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.RateLimit.Requests != 40 || s.RateLimit.WindowMS != 10000 {
		t.Errorf("unexpected rate limit defaults: %+v", s.RateLimit)
	}
	if s.Cache.ResponseTTLMinutes != 5 {
		t.Errorf("expected 5 minute response TTL, got %d", s.Cache.ResponseTTLMinutes)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected settings file to be written: %v", err)
	}
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"catalog":{"tmdbApiKey":"abc"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager(path)

	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Catalog.TMDBAPIKey != "abc" {
		t.Errorf("expected api key preserved, got %q", s.Catalog.TMDBAPIKey)
	}
	if s.Catalog.Language != "en-US" {
		t.Errorf("expected language backfilled, got %q", s.Catalog.Language)
	}
	if s.RateLimit.Requests != 40 {
		t.Errorf("expected rate limit backfilled, got %d", s.RateLimit.Requests)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s := DefaultSettings()
	s.Catalog.TMDBAPIKey = "key123"
	s.Server.Port = 9000
	if err := m.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Catalog.TMDBAPIKey != "key123" || got.Server.Port != 9000 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
