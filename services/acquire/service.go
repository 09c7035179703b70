// Package acquire runs the watch-list acquisition pipeline: search the
// configured indexers for each movie, match and rank the releases, download
// the chosen .torrent and record the outcome.
package acquire

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"

	"reelgrab/models"
	"reelgrab/services/search"
	"reelgrab/utils/rank"
	"reelgrab/utils/relparse"
	"reelgrab/utils/titlematch"
)

// Acquisition statuses recorded for each movie.
const (
	StatusDownloaded  = "downloaded"
	StatusAlreadyHave = "already_have"
	StatusNoResults   = "no_results"
	StatusNoMatch     = "no_match"
	StatusFailed      = "failed"
)

// torrentStore is the slice of the torrents store the pipeline needs.
type torrentStore interface {
	Has(title string, year int) (bool, error)
	Save(rawName string, data []byte) (string, error)
}

// historyRecorder persists acquisition outcomes.
type historyRecorder interface {
	Record(ctx context.Context, a models.Acquisition) (models.Acquisition, error)
}

// Service drives acquisition for single movies and whole watch lists.
type Service struct {
	scrapers   []search.Scraper
	store      torrentStore
	history    historyRecorder
	maxResults int
	workers    int
	delay      time.Duration
}

func NewService(scrapers []search.Scraper, store torrentStore, history historyRecorder, maxResults, workers int, delay time.Duration) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		scrapers:   scrapers,
		store:      store,
		history:    history,
		maxResults: maxResults,
		workers:    workers,
		delay:      delay,
	}
}

// AcquireOne runs the pipeline for a single movie. Every outcome, success
// or not, is recorded in history; the returned Acquisition carries the
// recorded status and detail.
func (s *Service) AcquireOne(ctx context.Context, entry models.WatchlistEntry) models.Acquisition {
	a := models.Acquisition{Title: entry.Title, Year: entry.Year}

	have, err := s.store.Has(entry.Title, entry.Year)
	if err != nil {
		a.Status = StatusFailed
		a.Detail = fmt.Sprintf("check store: %v", err)
		return s.record(ctx, a)
	}
	if have {
		a.Status = StatusAlreadyHave
		a.Detail = "torrent already stored"
		return s.record(ctx, a)
	}

	results, owners := s.searchAll(ctx, entry)
	if len(results) == 0 {
		a.Status = StatusNoResults
		a.Detail = fmt.Sprintf("0 results across %d indexers", len(s.scrapers))
		return s.record(ctx, a)
	}

	// Keep only results the matcher accepts, remembering which scraper each
	// came from so the winner can be fetched with the right credentials.
	var candidates []models.Release
	var candidateOwners []search.Scraper
	for i, r := range results {
		d := titlematch.Match(entry.Title, entry.Year, r.RawName)
		if !d.Match {
			continue
		}
		rel := relparse.Parse(r.RawName, r.SizeBytes)
		rel.DownloadURL = r.DownloadURL
		rel.Indexer = r.Indexer
		rel.YearExact = d.YearExact
		candidates = append(candidates, rel)
		candidateOwners = append(candidateOwners, owners[i])
	}
	if len(candidates) == 0 {
		a.Status = StatusNoMatch
		a.Detail = fmt.Sprintf("no title/year match among %d results", len(results))
		return s.record(ctx, a)
	}

	best, reason := rank.SelectBest(candidates)
	chosen := candidates[best]
	log.Printf("[acquire] %s (%d): selected %q from %s (%s)",
		entry.Title, entry.Year, chosen.RawName, chosen.Indexer, reason)

	data, err := candidateOwners[best].Fetch(ctx, chosen.DownloadURL)
	if err != nil {
		a.Status = StatusFailed
		a.Detail = fmt.Sprintf("fetch torrent: %v", err)
		return s.record(ctx, a)
	}
	if _, err := s.store.Save(chosen.RawName, data); err != nil {
		a.Status = StatusFailed
		a.Detail = fmt.Sprintf("store torrent: %v", err)
		return s.record(ctx, a)
	}

	a.Status = StatusDownloaded
	a.Detail = reason
	a.TorrentName = chosen.RawName
	a.SizeBytes = chosen.SizeBytes
	a.Resolution = string(chosen.Resolution)
	a.Codec = string(chosen.Codec)
	return s.record(ctx, a)
}

// searchAll queries every scraper, pausing between indexers. A failing
// indexer is logged and skipped; its results are simply absent.
func (s *Service) searchAll(ctx context.Context, entry models.WatchlistEntry) ([]search.Result, []search.Scraper) {
	var results []search.Result
	var owners []search.Scraper
	for i, scraper := range s.scrapers {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return results, owners
			case <-time.After(s.delay):
			}
		}

		req := search.Request{Title: entry.Title, Year: entry.Year, MaxResults: s.maxResults}
		found, err := scraper.Search(ctx, req)
		if err != nil {
			log.Printf("[acquire] %s search failed for %q: %v", scraper.Name(), entry.Title, err)
			continue
		}
		for _, r := range found {
			results = append(results, r)
			owners = append(owners, scraper)
		}
	}
	return results, owners
}

// Run acquires every watch list entry using a bounded worker pool. Results
// come back in entry order.
func (s *Service) Run(ctx context.Context, entries []models.WatchlistEntry) []models.Acquisition {
	p := pool.NewWithResults[models.Acquisition]().WithMaxGoroutines(s.workers)
	for _, entry := range entries {
		entry := entry
		p.Go(func() models.Acquisition {
			return s.AcquireOne(ctx, entry)
		})
	}
	return p.Wait()
}

func (s *Service) record(ctx context.Context, a models.Acquisition) models.Acquisition {
	if s.history == nil {
		return a
	}
	recorded, err := s.history.Record(ctx, a)
	if err != nil {
		log.Printf("[acquire] record history for %s (%d): %v", a.Title, a.Year, err)
		return a
	}
	return recorded
}
