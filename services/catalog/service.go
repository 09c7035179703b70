// Package catalog serves the scraped movie lists stored as JSON under the
// data directory and answers title/year lookups against them.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"reelgrab/models"
	"reelgrab/utils/titlematch"
)

// ErrListNotFound is returned when a named catalog list does not exist.
var ErrListNotFound = errors.New("catalog list not found")

var kidsGenres = map[string]bool{
	"animation": true,
	"family":    true,
	"comedy":    true,
}

// Service loads movie list JSON files and caches them in memory. On-disk
// changes are not watched; Invalidate drops the cache after a new scrape
// lands.
type Service struct {
	dir string

	mu    sync.RWMutex
	cache map[string]models.MovieList
}

func NewService(dataDir string) (*Service, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Service{dir: dataDir, cache: make(map[string]models.MovieList)}, nil
}

// ListNames returns the available catalog list names, sorted.
func (s *Service) ListNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load returns the named movie list, reading it from disk on first use.
func (s *Service) Load(name string) (models.MovieList, error) {
	s.mu.RLock()
	if list, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return list, nil
	}
	s.mu.RUnlock()

	path := filepath.Join(s.dir, filepath.Base(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.MovieList{}, fmt.Errorf("%w: %s", ErrListNotFound, name)
		}
		return models.MovieList{}, err
	}

	var list models.MovieList
	if err := json.Unmarshal(data, &list); err != nil {
		return models.MovieList{}, fmt.Errorf("parse %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = list
	s.mu.Unlock()
	return list, nil
}

// Save persists a movie list and replaces any cached copy.
func (s *Service) Save(name string, list models.MovieList) error {
	path := filepath.Join(s.dir, filepath.Base(name)+".json")
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	s.mu.Lock()
	s.cache[name] = list
	s.mu.Unlock()
	return nil
}

// Invalidate drops all cached lists.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]models.MovieList)
	s.mu.Unlock()
}

// Search returns movies across all lists whose title contains the query,
// case-insensitive on normalized tokens.
func (s *Service) Search(query string) ([]models.Movie, error) {
	want := titlematch.Compact(titlematch.Normalize(query))
	if want == "" {
		return nil, nil
	}

	names, err := s.ListNames()
	if err != nil {
		return nil, err
	}

	var out []models.Movie
	seen := make(map[string]bool)
	for _, name := range names {
		list, err := s.Load(name)
		if err != nil {
			log.Printf("[catalog] skipping unreadable list %s: %v", name, err)
			continue
		}
		for _, m := range list.Movies {
			key := fmt.Sprintf("%s|%d", m.Title, m.Year)
			if seen[key] {
				continue
			}
			if strings.Contains(titlematch.Compact(titlematch.Normalize(m.Title)), want) {
				seen[key] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// MatchFilename finds the catalog movie a release or torrent file name
// refers to, preferring exact-year matches over fuzzy ones. The boolean
// reports whether anything matched.
func (s *Service) MatchFilename(filename string) (models.Movie, bool, error) {
	names, err := s.ListNames()
	if err != nil {
		return models.Movie{}, false, err
	}

	var fuzzyHit *models.Movie
	for _, name := range names {
		list, err := s.Load(name)
		if err != nil {
			log.Printf("[catalog] skipping unreadable list %s: %v", name, err)
			continue
		}
		for i := range list.Movies {
			m := list.Movies[i]
			d := titlematch.Match(m.Title, m.Year, filename)
			if !d.Match {
				continue
			}
			if d.YearExact {
				return m, true, nil
			}
			if fuzzyHit == nil {
				fuzzyHit = &m
			}
		}
	}
	if fuzzyHit != nil {
		return *fuzzyHit, true, nil
	}
	return models.Movie{}, false, nil
}

// IsKids reports whether a movie belongs in the kids library: it must carry
// a G or PG certificate and at least one of the Animation, Family or Comedy
// genres.
func IsKids(m models.Movie) bool {
	cert := strings.ToUpper(strings.TrimSpace(m.Certificate))
	if cert != "G" && cert != "PG" {
		return false
	}
	for _, g := range m.Genres {
		if kidsGenres[strings.ToLower(strings.TrimSpace(g))] {
			return true
		}
	}
	return false
}
