// Package search queries torrent indexers for movie releases.
package search

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reelgrab/config"
)

// Result is one release row returned by an indexer search.
type Result struct {
	RawName     string
	DownloadURL string
	SizeBytes   int64
	Indexer     string
}

// Request describes one movie lookup.
type Request struct {
	Title      string
	Year       int
	MaxResults int
}

// Scraper is implemented by each indexer backend.
type Scraper interface {
	Name() string
	// Search returns release candidates for the request.
	Search(ctx context.Context, req Request) ([]Result, error)
	// Fetch downloads the raw .torrent payload behind a result.
	Fetch(ctx context.Context, downloadURL string) ([]byte, error)
}

var nonWordPattern = regexp.MustCompile(`[^\w\s]`)
var multiSpacePattern = regexp.MustCompile(`\s+`)

// CleanQuery builds the indexer search string for a movie: punctuation is
// replaced with spaces (indexers tokenize on whitespace and choke on
// apostrophes) and the year is appended.
func CleanQuery(title string, year int) string {
	clean := nonWordPattern.ReplaceAllString(title, " ")
	clean = strings.TrimSpace(multiSpacePattern.ReplaceAllString(clean, " "))
	if year > 0 {
		return strings.TrimSpace(clean + " " + strconv.Itoa(year))
	}
	return clean
}

// BuildScrapers constructs one scraper per enabled indexer config. Unknown
// indexer types are logged and skipped so a typo in the config does not take
// the whole search path down.
func BuildScrapers(indexers []config.IndexerConfig, timeout time.Duration) []Scraper {
	client := &http.Client{Timeout: timeout}

	var scrapers []Scraper
	for _, idx := range indexers {
		if !idx.Enabled {
			continue
		}
		switch strings.ToLower(idx.Type) {
		case "iptorrents":
			scrapers = append(scrapers, NewIPTorrentsScraper(idx.Name, idx.URL, idx.Cookie, idx.Passkey, client))
		case "torznab":
			scrapers = append(scrapers, NewTorznabScraper(idx.Name, idx.URL, idx.APIKey, client))
		default:
			log.Printf("[search] unknown indexer type %q for %s, skipping", idx.Type, idx.Name)
		}
	}
	return scrapers
}
