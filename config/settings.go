package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server    ServerSettings    `json:"server"`
	Indexers  []IndexerConfig   `json:"indexers"`
	RuTorrent RuTorrentSettings `json:"rutorrent"`
	Library   LibrarySettings   `json:"library"`
	Acquire   AcquireSettings   `json:"acquire"`
	Database  DatabaseSettings  `json:"database"`
	Log       LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	StaticDir string `json:"staticDir"` // bundled frontend, empty disables
}

type IndexerConfig struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // iptorrents | torznab
	URL     string `json:"url"`
	APIKey  string `json:"apiKey"`  // torznab only
	Cookie  string `json:"cookie"`  // iptorrents session cookie
	Passkey string `json:"passkey"` // appended to iptorrents download links
	Enabled bool   `json:"enabled"`
}

// RuTorrentSettings points at the ruTorrent web UI used as the download
// target. KidsDirectory and MoviesDirectory are the remote dir_edit values
// passed to addtorrent.php.
type RuTorrentSettings struct {
	URL             string `json:"url"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	MoviesDirectory string `json:"moviesDirectory"`
	KidsDirectory   string `json:"kidsDirectory"`
	Enabled         bool   `json:"enabled"`
}

// LibrarySettings locates the on-disk data the services operate on.
type LibrarySettings struct {
	DataDir     string `json:"dataDir"`     // scraped catalog JSON lists
	ListsDir    string `json:"listsDir"`    // watch list CSV files
	TorrentsDir string `json:"torrentsDir"` // downloaded .torrent payloads
}

// AcquireSettings tunes the acquisition pipeline.
type AcquireSettings struct {
	MaxSizeGB      float64 `json:"maxSizeGb"`
	Workers        int     `json:"workers"`
	DelayMs        int     `json:"delayMs"`    // pause between indexer searches
	MaxResults     int     `json:"maxResults"` // per-indexer result cap
	RequestTimeout int     `json:"requestTimeoutSec"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
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

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 8787, StaticDir: "static"},
		Indexers: []IndexerConfig{},
		RuTorrent: RuTorrentSettings{
			MoviesDirectory: "/rtorrent/movies",
			KidsDirectory:   "/rtorrent/kids-movies",
		},
		Library: LibrarySettings{
			DataDir:     "data",
			ListsDir:    "lists",
			TorrentsDir: "torrents",
		},
		Acquire: AcquireSettings{
			MaxSizeGB:      4,
			Workers:        3,
			DelayMs:        500,
			MaxResults:     50,
			RequestTimeout: 30,
		},
		Database: DatabaseSettings{Path: "cache/history.db"},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
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
// Credentials set in the environment (IPTORRENTS_COOKIE, IPTORRENTS_PASSKEY,
// RUTORRENT_URL, RUTORRENT_USERNAME, RUTORRENT_PASSWORD) override whatever
// the file carries, so secrets can stay out of the config file entirely.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return applyEnv(defaults), nil
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

	// Backfill defaults for newly introduced settings when config predates them
	if strings.TrimSpace(s.Library.DataDir) == "" {
		s.Library.DataDir = "data"
	}
	if strings.TrimSpace(s.Library.ListsDir) == "" {
		s.Library.ListsDir = "lists"
	}
	if strings.TrimSpace(s.Library.TorrentsDir) == "" {
		s.Library.TorrentsDir = "torrents"
	}
	if s.Acquire.MaxSizeGB == 0 {
		s.Acquire.MaxSizeGB = 4
	}
	if s.Acquire.Workers == 0 {
		s.Acquire.Workers = 3
	}
	if s.Acquire.DelayMs == 0 {
		s.Acquire.DelayMs = 500
	}
	if s.Acquire.MaxResults == 0 {
		s.Acquire.MaxResults = 50
	}
	if s.Acquire.RequestTimeout == 0 {
		s.Acquire.RequestTimeout = 30
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = "cache/history.db"
	}
	if strings.TrimSpace(s.RuTorrent.MoviesDirectory) == "" {
		s.RuTorrent.MoviesDirectory = "/rtorrent/movies"
	}
	if strings.TrimSpace(s.RuTorrent.KidsDirectory) == "" {
		s.RuTorrent.KidsDirectory = "/rtorrent/kids-movies"
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "cache/logs/backend.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}

	return applyEnv(s), nil
}

// applyEnv layers environment credentials over the loaded settings.
func applyEnv(s Settings) Settings {
	// Type matching is case-insensitive, same as the scraper builder, so a
	// config spelling "IPTorrents" still receives the credentials.
	if v := os.Getenv("IPTORRENTS_COOKIE"); v != "" {
		for i := range s.Indexers {
			if strings.EqualFold(s.Indexers[i].Type, "iptorrents") {
				s.Indexers[i].Cookie = v
			}
		}
	}
	if v := os.Getenv("IPTORRENTS_PASSKEY"); v != "" {
		for i := range s.Indexers {
			if strings.EqualFold(s.Indexers[i].Type, "iptorrents") {
				s.Indexers[i].Passkey = v
			}
		}
	}
	if v := os.Getenv("RUTORRENT_URL"); v != "" {
		s.RuTorrent.URL = v
	}
	if v := os.Getenv("RUTORRENT_USERNAME"); v != "" {
		s.RuTorrent.Username = v
	}
	if v := os.Getenv("RUTORRENT_PASSWORD"); v != "" {
		s.RuTorrent.Password = v
	}
	return s
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
