// Package torrents stores downloaded .torrent payloads and answers
// queries against them. The store runs on an afero filesystem so tests use
// an in-memory backend.
package torrents

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"reelgrab/models"
	"reelgrab/utils/titlematch"
)

// ErrInvalidPayload is returned when fetched data is not a bencoded
// torrent, typically a tracker error page served with status 200.
var ErrInvalidPayload = errors.New("payload is not a valid torrent")

var unsafeNamePattern = regexp.MustCompile(`[^\w\s\-.()]`)

// Store keeps .torrent files in a single directory.
type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create torrents dir: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Validate checks that data is a bencoded torrent payload. Trackers answer
// expired sessions with an HTML login page and status 200, so the check
// sniffs the content type before trusting the leading byte.
func Validate(data []byte) error {
	if len(data) == 0 || data[0] != 'd' {
		kind := mimetype.Detect(data)
		return fmt.Errorf("%w: got %s", ErrInvalidPayload, kind.String())
	}
	if kind := mimetype.Detect(data); kind.Is("text/html") {
		return fmt.Errorf("%w: got HTML page", ErrInvalidPayload)
	}
	return nil
}

// PayloadSize parses the torrent and returns the total size in bytes of the
// files it describes.
func PayloadSize(data []byte) (int64, error) {
	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("parse torrent: %w", err)
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return 0, fmt.Errorf("parse torrent info: %w", err)
	}
	return info.TotalLength(), nil
}

// SafeName sanitizes a release name into a torrent file base name.
func SafeName(rawName string) string {
	name := unsafeNamePattern.ReplaceAllString(rawName, "")
	if len(name) > 200 {
		name = name[:200]
	}
	return strings.TrimSpace(name)
}

// Save validates and writes a torrent payload, returning the stored file
// name.
func (s *Store) Save(rawName string, data []byte) (string, error) {
	if err := Validate(data); err != nil {
		return "", err
	}
	name := SafeName(rawName)
	if name == "" {
		return "", errors.New("torrent name sanitized to nothing")
	}
	filename := name + ".torrent"
	if err := afero.WriteFile(s.fs, s.join(filename), data, 0o644); err != nil {
		return "", err
	}
	return filename, nil
}

// List returns the stored torrent file names, sorted.
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".torrent") {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read returns a stored torrent payload.
func (s *Store) Read(filename string) ([]byte, error) {
	return afero.ReadFile(s.fs, s.join(filename))
}

// Has reports whether a torrent for the movie is already stored, so an
// acquisition run can skip movies it has handled before. Exact-year matches
// are checked across all files before fuzzy ones are considered.
func (s *Store) Has(title string, year int) (bool, error) {
	name, err := s.FindMatching(title, year)
	if err != nil {
		return false, err
	}
	return name != "", nil
}

// FindMatching returns the stored torrent file for a movie, or "" when none
// matches. All files are tried for an exact-year match first; only when no
// file matches exactly is a ±1 fuzzy year accepted.
func (s *Store) FindMatching(title string, year int) (string, error) {
	names, err := s.List()
	if err != nil {
		return "", err
	}

	fuzzy := ""
	for _, name := range names {
		d := titlematch.Match(title, year, name)
		if !d.Match {
			continue
		}
		if d.YearExact {
			return name, nil
		}
		if fuzzy == "" {
			fuzzy = name
		}
	}
	return fuzzy, nil
}

// TorrentInfo pairs a stored torrent file with the total payload size its
// metadata describes.
type TorrentInfo struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
	Valid     bool   `json:"valid"`
}

// ListSizes parses every stored torrent and reports payload sizes, largest
// first. Files whose metadata fails to parse sort last with Valid=false, so
// a corrupt download is visible instead of silently dropped.
func (s *Store) ListSizes() ([]TorrentInfo, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	infos := make([]TorrentInfo, 0, len(names))
	for _, name := range names {
		data, err := s.Read(name)
		if err != nil {
			return nil, err
		}
		info := TorrentInfo{Filename: name}
		if size, err := PayloadSize(data); err == nil {
			info.SizeBytes = size
			info.Valid = true
		}
		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(a, b int) bool {
		if infos[a].Valid != infos[b].Valid {
			return infos[a].Valid
		}
		return infos[a].SizeBytes > infos[b].SizeBytes
	})
	return infos, nil
}

// CopiedTorrent records which stored file satisfied a watch-list entry.
type CopiedTorrent struct {
	Title    string `json:"title"`
	Year     int    `json:"year"`
	Filename string `json:"filename"`
}

// CopyReport summarizes a CopyMatching run over one watch list.
type CopyReport struct {
	Matched   []CopiedTorrent         `json:"matched"`
	Unmatched []models.WatchlistEntry `json:"unmatched"`
}

// CopyMatching copies the stored torrent matching each watch-list entry
// into a subdirectory of the store, so a curated set can be handed off as
// one directory. Entries with no stored match are reported, not failed.
func (s *Store) CopyMatching(entries []models.WatchlistEntry, subdir string) (CopyReport, error) {
	subdir = filepath.Base(strings.TrimSpace(subdir))
	if subdir == "" || subdir == "." || subdir == ".." {
		return CopyReport{}, errors.New("destination name is required")
	}
	destDir := s.join(subdir)
	if err := s.fs.MkdirAll(destDir, 0o755); err != nil {
		return CopyReport{}, err
	}

	report := CopyReport{Matched: []CopiedTorrent{}, Unmatched: []models.WatchlistEntry{}}
	for _, entry := range entries {
		name, err := s.FindMatching(entry.Title, entry.Year)
		if err != nil {
			return CopyReport{}, err
		}
		if name == "" {
			report.Unmatched = append(report.Unmatched, entry)
			continue
		}
		data, err := s.Read(name)
		if err != nil {
			return CopyReport{}, err
		}
		if err := afero.WriteFile(s.fs, destDir+"/"+name, data, 0o644); err != nil {
			return CopyReport{}, err
		}
		report.Matched = append(report.Matched, CopiedTorrent{Title: entry.Title, Year: entry.Year, Filename: name})
	}
	return report, nil
}

func (s *Store) join(filename string) string {
	return strings.TrimRight(s.dir, "/") + "/" + filename
}
