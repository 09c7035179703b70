package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, 8787, s.Server.Port)
	assert.Equal(t, float64(4), s.Acquire.MaxSizeGB)
	assert.Equal(t, "torrents", s.Library.TorrentsDir)

	// The defaults were persisted so the next load reads the file.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	// Minimal config written by an older version.
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"host":"0.0.0.0","port":9000}}`), 0o644))

	s, err := NewManager(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, s.Server.Port)
	assert.Equal(t, 3, s.Acquire.Workers)
	assert.Equal(t, "cache/history.db", s.Database.Path)
	assert.Equal(t, "/rtorrent/kids-movies", s.RuTorrent.KidsDirectory)
	assert.Equal(t, 50, s.Log.MaxSize)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s := DefaultSettings()
	s.Indexers = []IndexerConfig{{Name: "IPT", Type: "iptorrents", URL: "https://example.net", Enabled: true}}
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Indexers, 1)
	assert.Equal(t, "IPT", loaded.Indexers[0].Name)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RUTORRENT_URL", "https://seedbox.example.com/rutorrent")
	t.Setenv("IPTORRENTS_COOKIE", "uid=1; pass=abc")

	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)
	s := DefaultSettings()
	s.Indexers = []IndexerConfig{{Name: "IPT", Type: "iptorrents", Enabled: true}}
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://seedbox.example.com/rutorrent", loaded.RuTorrent.URL)
	assert.Equal(t, "uid=1; pass=abc", loaded.Indexers[0].Cookie)
}

func TestEnvOverridesIgnoreTypeCase(t *testing.T) {
	t.Setenv("IPTORRENTS_COOKIE", "uid=2; pass=def")
	t.Setenv("IPTORRENTS_PASSKEY", "pk123")

	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)
	s := DefaultSettings()
	s.Indexers = []IndexerConfig{{Name: "IPT", Type: "IPTorrents", Enabled: true}}
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "uid=2; pass=def", loaded.Indexers[0].Cookie)
	assert.Equal(t, "pk123", loaded.Indexers[0].Passkey)
}
