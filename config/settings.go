package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server    ServerSettings    `json:"server"`
	Catalog   CatalogSettings   `json:"catalog"`
	Cache     CacheSettings     `json:"cache"`
	RateLimit RateLimitSettings `json:"rateLimit"`
	Recommend RecommendSettings `json:"recommend"`
	Log       LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CatalogSettings configures the external movie catalog provider.
type CatalogSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
	Region     string `json:"region"` // preferred watch-provider region (ISO 3166-1)
}

// CacheSettings controls response memoization.
type CacheSettings struct {
	Directory          string `json:"directory"`
	ResponseTTLMinutes int    `json:"responseTtlMinutes"`
}

// RateLimitSettings bounds outbound catalog calls per rolling window.
type RateLimitSettings struct {
	Requests int `json:"requests"`
	WindowMS int `json:"windowMs"`
}

// RecommendSettings tunes the recommendation assembler.
type RecommendSettings struct {
	DefaultLimit int `json:"defaultLimit"`
	MaxLimit     int `json:"maxLimit"`
	BatchSize    int `json:"batchSize"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first run.
func DefaultSettings() Settings {
	return Settings{
		Server:  ServerSettings{Host: "0.0.0.0", Port: 7788},
		Catalog: CatalogSettings{TMDBAPIKey: "", Language: "en-US", Region: "US"},
		Cache:   CacheSettings{Directory: "cache", ResponseTTLMinutes: 5},
		// Matches the catalog provider's documented quota.
		RateLimit: RateLimitSettings{Requests: 40, WindowMS: 10000},
		Recommend: RecommendSettings{DefaultLimit: 20, MaxLimit: 50, BatchSize: 50},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50, // 50 MB per file
			MaxBackups: 3,  // keep 3 old files
			MaxAge:     7,  // 7 days
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill fields missing from older config files.
	defaults := DefaultSettings()
	if s.Catalog.Language == "" {
		s.Catalog.Language = defaults.Catalog.Language
	}
	if s.Catalog.Region == "" {
		s.Catalog.Region = defaults.Catalog.Region
	}
	if s.Cache.ResponseTTLMinutes <= 0 {
		s.Cache.ResponseTTLMinutes = defaults.Cache.ResponseTTLMinutes
	}
	if s.Cache.Directory == "" {
		s.Cache.Directory = defaults.Cache.Directory
	}
	if s.RateLimit.Requests <= 0 {
		s.RateLimit.Requests = defaults.RateLimit.Requests
	}
	if s.RateLimit.WindowMS <= 0 {
		s.RateLimit.WindowMS = defaults.RateLimit.WindowMS
	}
	if s.Recommend.DefaultLimit <= 0 {
		s.Recommend.DefaultLimit = defaults.Recommend.DefaultLimit
	}
	if s.Recommend.MaxLimit <= 0 {
		s.Recommend.MaxLimit = defaults.Recommend.MaxLimit
	}
	if s.Recommend.BatchSize <= 0 {
		s.Recommend.BatchSize = defaults.Recommend.BatchSize
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
