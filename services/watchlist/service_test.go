package watchlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgrab/models"
)

func TestLoadSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	csv := "The Matrix,1999\nBroken Row\nInception,not-a-year\n,2010\nHeat,1995\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movies.csv"), []byte(csv), 0o644))

	svc, err := NewService(dir)
	require.NoError(t, err)

	entries, err := svc.Load("movies")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.WatchlistEntry{Title: "The Matrix", Year: 1999}, entries[0])
	assert.Equal(t, models.WatchlistEntry{Title: "Heat", Year: 1995}, entries[1])
}

func TestLoadSkipsHeaderRow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movies.csv"), []byte("Title,Year\nAlien,1979\n"), 0o644))

	svc, err := NewService(dir)
	require.NoError(t, err)

	entries, err := svc.Load("movies")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alien", entries[0].Title)
}

func TestLoadMissingList(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)

	_, err = svc.Load("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSaveRoundTripAndListNames(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)

	entries := []models.WatchlistEntry{
		{Title: "Spirited Away", Year: 2001},
		{Title: "Fast & Furious", Year: 2009},
	}
	require.NoError(t, svc.Save("kids", entries))

	loaded, err := svc.Load("kids")
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)

	names, err := svc.ListNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"kids"}, names)
}

func TestSavePathTraversalConfined(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir)
	require.NoError(t, err)

	require.NoError(t, svc.Save("../escape", []models.WatchlistEntry{{Title: "X", Year: 2000}}))

	// The list lands inside the lists directory, not a parent.
	_, err = os.Stat(filepath.Join(dir, "escape.csv"))
	assert.NoError(t, err)
}
