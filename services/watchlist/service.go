// Package watchlist manages the CSV watch lists that drive acquisition.
// Each list is a file under the lists directory with `title,year` rows.
package watchlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"reelgrab/models"
)

// ErrNotFound is returned when a named watch list does not exist.
var ErrNotFound = errors.New("watch list not found")

// Service reads and writes watch list CSV files.
type Service struct {
	dir string
}

func NewService(listsDir string) (*Service, error) {
	if err := os.MkdirAll(listsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lists dir: %w", err)
	}
	return &Service{dir: listsDir}, nil
}

// ListNames returns the available watch list names (file base names without
// the .csv extension), sorted.
func (s *Service) ListNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(names)
	return names, nil
}

// Load parses a watch list. Malformed rows (missing year, non-numeric year)
// are skipped with a log line rather than failing the whole list, so one bad
// row cannot block an acquisition run.
func (s *Service) Load(name string) ([]models.WatchlistEntry, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // validated per row below

	var entries []models.WatchlistEntry
	line := 0
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		line++

		if len(record) < 2 {
			log.Printf("[watchlist] %s line %d: expected title,year, got %d fields, skipping", name, line, len(record))
			continue
		}
		title := strings.TrimSpace(record[0])
		yearStr := strings.TrimSpace(record[1])
		if title == "" {
			log.Printf("[watchlist] %s line %d: empty title, skipping", name, line)
			continue
		}
		// Skip a header row if present.
		if line == 1 && strings.EqualFold(title, "title") {
			continue
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil || year < 1880 || year > 2200 {
			log.Printf("[watchlist] %s line %d: bad year %q, skipping", name, line, yearStr)
			continue
		}
		entries = append(entries, models.WatchlistEntry{Title: title, Year: year})
	}
	return entries, nil
}

// Save writes the entries atomically: a temp file in the same directory is
// renamed over the target so readers never observe a partial list.
func (s *Service) Save(name string, entries []models.WatchlistEntry) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("watch list name required")
	}
	tmp := s.path(name) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	for _, e := range entries {
		if err := w.Write([]string{e.Title, strconv.Itoa(e.Year)}); err != nil {
			f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
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
	return os.Rename(tmp, s.path(name))
}

func (s *Service) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name)+".csv")
}
