// Package uploader pushes stored .torrent files to a ruTorrent instance via
// its addtorrent.php endpoint, routing kids titles to a separate download
// directory. A marker file in the torrents directory tracks what was
// already uploaded so reruns are idempotent.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"reelgrab/config"
	"reelgrab/models"
	"reelgrab/services/catalog"
)

// markerFile lists the file names already uploaded, one per line.
const markerFile = ".uploaded"

// ErrNotConfigured is returned when the ruTorrent target is missing or
// disabled.
var ErrNotConfigured = errors.New("rutorrent target not configured")

// torrentReader is the slice of the torrents store the uploader needs.
type torrentReader interface {
	List() ([]string, error)
	Read(filename string) ([]byte, error)
}

// movieMatcher resolves a torrent file name to catalog metadata for
// kids/movies routing.
type movieMatcher interface {
	MatchFilename(filename string) (models.Movie, bool, error)
}

// Outcome describes what happened to one torrent file during an upload run.
type Outcome struct {
	Filename string `json:"filename"`
	Status   string `json:"status"` // uploaded | skipped | failed
	Target   string `json:"target,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Service uploads torrents to ruTorrent.
type Service struct {
	cfg        config.RuTorrentSettings
	store      torrentReader
	matcher    movieMatcher
	fs         afero.Fs
	markerPath string
	httpClient *http.Client
}

func NewService(cfg config.RuTorrentSettings, store torrentReader, matcher movieMatcher, fs afero.Fs, torrentsDir string) *Service {
	return &Service{
		cfg:        cfg,
		store:      store,
		matcher:    matcher,
		fs:         fs,
		markerPath: strings.TrimRight(torrentsDir, "/") + "/" + markerFile,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// UploadPending uploads every stored torrent that is not yet marked as
// uploaded. Failures are reported per file; the run continues past them.
func (s *Service) UploadPending(ctx context.Context) ([]Outcome, error) {
	if !s.cfg.Enabled || strings.TrimSpace(s.cfg.URL) == "" {
		return nil, ErrNotConfigured
	}

	files, err := s.store.List()
	if err != nil {
		return nil, err
	}
	uploaded, err := s.loadMarkers()
	if err != nil {
		return nil, err
	}

	var outcomes []Outcome
	for _, filename := range files {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if uploaded[filename] {
			outcomes = append(outcomes, Outcome{Filename: filename, Status: "skipped"})
			continue
		}

		target := s.targetDir(filename)
		if err := s.uploadOne(ctx, filename, target); err != nil {
			log.Printf("[uploader] %s failed: %v", filename, err)
			outcomes = append(outcomes, Outcome{Filename: filename, Status: "failed", Target: target, Error: err.Error()})
			continue
		}
		if err := s.markUploaded(filename); err != nil {
			return outcomes, fmt.Errorf("mark uploaded: %w", err)
		}
		uploaded[filename] = true
		outcomes = append(outcomes, Outcome{Filename: filename, Status: "uploaded", Target: target})
	}
	return outcomes, nil
}

// targetDir picks the remote download directory for a torrent file: the
// kids directory when the catalog identifies the movie as a kids title,
// otherwise the movies directory. Unmatched files default to movies.
func (s *Service) targetDir(filename string) string {
	movie, ok, err := s.matcher.MatchFilename(filename)
	if err != nil || !ok {
		if err != nil {
			log.Printf("[uploader] catalog lookup for %s: %v", filename, err)
		}
		return s.cfg.MoviesDirectory
	}
	if catalog.IsKids(movie) {
		return s.cfg.KidsDirectory
	}
	return s.cfg.MoviesDirectory
}

func (s *Service) uploadOne(ctx context.Context, filename, downloadDir string) error {
	data, err := s.store.Read(filename)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.SetBoundary(strings.ReplaceAll(uuid.NewString(), "-", "")); err != nil {
		return err
	}
	part, err := w.CreateFormFile("torrent_file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if downloadDir != "" {
		if err := w.WriteField("dir_edit", downloadDir); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	endpoint := strings.TrimRight(s.cfg.URL, "/") + "/php/addtorrent.php"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.SetBasicAuth(s.cfg.Username, s.cfg.Password)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("rutorrent returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) loadMarkers() (map[string]bool, error) {
	uploaded := make(map[string]bool)
	data, err := afero.ReadFile(s.fs, s.markerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return uploaded, nil
		}
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			uploaded[line] = true
		}
	}
	return uploaded, nil
}

func (s *Service) markUploaded(filename string) error {
	f, err := s.fs.OpenFile(s.markerPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(filename + "\n")
	return err
}
