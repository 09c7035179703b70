package torrents

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgrab/models"
)

// miniTorrent is a minimal single-file torrent describing a 1024-byte file;
// bigTorrent describes a 4096-byte one.
const (
	miniTorrent = "d4:infod6:lengthi1024e4:name8:test.mkv12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee"
	bigTorrent  = "d4:infod6:lengthi4096e4:name8:test.mkv12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(afero.NewMemMapFs(), "torrents")
	require.NoError(t, err)
	return store
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]byte(miniTorrent)))

	err := Validate([]byte("<html><body>session expired</body></html>"))
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	assert.True(t, errors.Is(Validate(nil), ErrInvalidPayload))
}

func TestPayloadSize(t *testing.T) {
	size, err := PayloadSize([]byte(miniTorrent))
	require.NoError(t, err)
	assert.Equal(t, int64(1024), size)

	_, err = PayloadSize([]byte("not a torrent"))
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "The.Matrix.1999.1080p.BluRay.x264-SPARKS",
		SafeName("The.Matrix.1999.1080p.BluRay.x264-SPARKS"))
	assert.Equal(t, "Movie (2020) rip", SafeName("Movie: (2020) [rip]?!"))
}

func TestSaveRejectsInvalidPayload(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("Bad.Download.2020.1080p", []byte("<html>error</html>"))
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSaveAndList(t *testing.T) {
	store := newTestStore(t)

	filename, err := store.Save("The.Matrix.1999.1080p.x265", []byte(miniTorrent))
	require.NoError(t, err)
	assert.Equal(t, "The.Matrix.1999.1080p.x265.torrent", filename)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{filename}, names)

	data, err := store.Read(filename)
	require.NoError(t, err)
	assert.Equal(t, []byte(miniTorrent), data)
}

func TestFindMatchingPrefersExactYear(t *testing.T) {
	store := newTestStore(t)

	// Fuzzy-year copy stored first: a later exact-year file must still win.
	_, err := store.Save("The.Matrix.1998.720p.WEB", []byte(miniTorrent))
	require.NoError(t, err)
	_, err = store.Save("The.Matrix.1999.1080p.x265", []byte(miniTorrent))
	require.NoError(t, err)

	name, err := store.FindMatching("The Matrix", 1999)
	require.NoError(t, err)
	assert.Equal(t, "The.Matrix.1999.1080p.x265.torrent", name)
}

func TestFindMatchingFuzzyFallback(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("Heat.1996.1080p.BluRay.x264", []byte(miniTorrent))
	require.NoError(t, err)

	name, err := store.FindMatching("Heat", 1995)
	require.NoError(t, err)
	assert.Equal(t, "Heat.1996.1080p.BluRay.x264.torrent", name)

	ok, err := store.Has("Heat", 1995)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Has("Collateral", 2004)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListSizesLargestFirst(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("Small.Movie.2020.720p", []byte(miniTorrent))
	require.NoError(t, err)
	_, err = store.Save("Big.Movie.2021.1080p", []byte(bigTorrent))
	require.NoError(t, err)
	// A file corrupted after download: written behind Save's validation.
	require.NoError(t, afero.WriteFile(store.fs, "torrents/Broken.2019.torrent", []byte("dgarbage"), 0o644))

	infos, err := store.ListSizes()
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "Big.Movie.2021.1080p.torrent", infos[0].Filename)
	assert.Equal(t, int64(4096), infos[0].SizeBytes)
	assert.Equal(t, "Small.Movie.2020.720p.torrent", infos[1].Filename)
	assert.Equal(t, int64(1024), infos[1].SizeBytes)

	// The unparseable file sorts last and is flagged.
	assert.Equal(t, "Broken.2019.torrent", infos[2].Filename)
	assert.False(t, infos[2].Valid)
}

func TestCopyMatching(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("The.Matrix.1999.1080p.x265", []byte(miniTorrent))
	require.NoError(t, err)
	_, err = store.Save("Heat.1996.1080p.BluRay.x264", []byte(miniTorrent))
	require.NoError(t, err)

	entries := []models.WatchlistEntry{
		{Title: "The Matrix", Year: 1999},
		{Title: "Heat", Year: 1995}, // fuzzy year against the stored 1996 copy
		{Title: "Collateral", Year: 2004},
	}

	report, err := store.CopyMatching(entries, "want_to_watch")
	require.NoError(t, err)

	require.Len(t, report.Matched, 2)
	assert.Equal(t, "The.Matrix.1999.1080p.x265.torrent", report.Matched[0].Filename)
	assert.Equal(t, "Heat.1996.1080p.BluRay.x264.torrent", report.Matched[1].Filename)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "Collateral", report.Unmatched[0].Title)

	// Copies land in the subdirectory; the flat listing is unchanged.
	data, err := afero.ReadFile(store.fs, "torrents/want_to_watch/The.Matrix.1999.1080p.x265.torrent")
	require.NoError(t, err)
	assert.Equal(t, []byte(miniTorrent), data)

	names, err := store.List()
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestCopyMatchingRejectsBadDestination(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CopyMatching(nil, "..")
	assert.Error(t, err)
	_, err = store.CopyMatching(nil, "  ")
	assert.Error(t, err)
}
