package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgrab/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, svc.Save("top-2024", models.MovieList{
		Source: "imdb",
		Year:   2024,
		Movies: []models.Movie{
			{Rank: 1, Title: "Inside Out 2", Year: 2024, Certificate: "PG", Genres: []string{"Animation", "Adventure"}},
			{Rank: 2, Title: "Dune Part Two", Year: 2024, Certificate: "PG-13", Genres: []string{"Sci-Fi"}},
		},
	}))
	require.NoError(t, svc.Save("top-1999", models.MovieList{
		Source: "imdb",
		Year:   1999,
		Movies: []models.Movie{
			{Rank: 1, Title: "The Matrix", Year: 1999, Certificate: "R", Genres: []string{"Action"}},
		},
	}))
	return svc
}

func TestListNames(t *testing.T) {
	svc := newTestService(t)

	names, err := svc.ListNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"top-1999", "top-2024"}, names)
}

func TestLoadMissing(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Load("nope")
	assert.True(t, errors.Is(err, ErrListNotFound))
}

func TestSearch(t *testing.T) {
	svc := newTestService(t)

	movies, err := svc.Search("matrix")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "The Matrix", movies[0].Title)

	empty, err := svc.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMatchFilenamePrefersExactYear(t *testing.T) {
	svc := newTestService(t)

	m, ok, err := svc.MatchFilename("The.Matrix.1999.1080p.BluRay.x264-SPARKS.torrent")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "The Matrix", m.Title)

	_, ok, err = svc.MatchFilename("Totally.Unknown.Movie.2015.720p.torrent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsKids(t *testing.T) {
	cases := []struct {
		name string
		m    models.Movie
		want bool
	}{
		{"animated PG", models.Movie{Certificate: "PG", Genres: []string{"Animation"}}, true},
		{"family G", models.Movie{Certificate: "G", Genres: []string{"Family", "Drama"}}, true},
		{"comedy PG-13", models.Movie{Certificate: "PG-13", Genres: []string{"Comedy"}}, false},
		{"action PG", models.Movie{Certificate: "PG", Genres: []string{"Action"}}, false},
		{"animated R", models.Movie{Certificate: "R", Genres: []string{"Animation"}}, false},
		{"no metadata", models.Movie{}, false},
	}

	for _, tc := range cases {
		if got := IsKids(tc.m); got != tc.want {
			t.Errorf("%s: IsKids = %v, want %v", tc.name, got, tc.want)
		}
	}
}
