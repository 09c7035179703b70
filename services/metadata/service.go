// Package metadata scrapes yearly top-movie lists from IMDB's search pages
// and stores them as catalog lists. IMDB embeds the search results as JSON
// in a __NEXT_DATA__ script tag, so no HTML parsing beyond locating that
// tag is needed.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"reelgrab/models"
)

const defaultBaseURL = "https://www.imdb.com"

// userAgent mimics a desktop browser; IMDB serves a stripped page to
// unknown clients.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNoEmbeddedData is returned when the page carries no __NEXT_DATA__ tag,
// typically because IMDB served an error or consent page.
var ErrNoEmbeddedData = errors.New("no embedded search data in page")

var nextDataPattern = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__"[^>]*>(.*?)</script>`)

// listStore is the slice of the catalog service the scraper needs.
type listStore interface {
	Save(name string, list models.MovieList) error
	ListNames() ([]string, error)
}

// Service fetches and persists IMDB yearly lists.
type Service struct {
	client     *http.Client
	baseURL    string
	store      listStore
	perYear    int
	retryDelay time.Duration
}

func NewService(store listStore, timeout time.Duration) *Service {
	return &Service{
		client:     &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		store:      store,
		perYear:    50,
		retryDelay: 2 * time.Second,
	}
}

// nextData mirrors just the slice of IMDB's embedded JSON we consume.
type nextData struct {
	Props struct {
		PageProps struct {
			SearchResults struct {
				TitleResults struct {
					TitleListItems []titleItem `json:"titleListItems"`
				} `json:"titleResults"`
			} `json:"searchResults"`
		} `json:"pageProps"`
	} `json:"props"`
}

type titleItem struct {
	TitleID           string   `json:"titleId"`
	TitleText         string   `json:"titleText"`
	OriginalTitleText string   `json:"originalTitleText"`
	ReleaseYear       int      `json:"releaseYear"`
	Plot              string   `json:"plot"`
	Certificate       string   `json:"certificate"`
	Genres            []string `json:"genres"`
	RuntimeSeconds    int      `json:"runtime"`
	PrimaryImage      struct {
		URL string `json:"url"`
	} `json:"primaryImage"`
	RatingSummary struct {
		AggregateRating float64 `json:"aggregateRating"`
		VoteCount       int     `json:"voteCount"`
	} `json:"ratingSummary"`
}

// FetchYear retrieves the top movies for one year, sorted by vote count.
func (s *Service) FetchYear(ctx context.Context, year int) (models.MovieList, error) {
	url := fmt.Sprintf(
		"%s/search/title/?title_type=feature,tv_movie&release_date=%d-01-01,%d-12-31&sort=num_votes,desc&count=%d",
		s.baseURL, year, year, s.perYear,
	)

	body, err := retry.DoWithData(
		func() ([]byte, error) { return s.get(ctx, url) },
		retry.Attempts(3),
		retry.Delay(s.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return models.MovieList{}, fmt.Errorf("fetch year %d: %w", year, err)
	}

	m := nextDataPattern.FindSubmatch(body)
	if m == nil {
		return models.MovieList{}, fmt.Errorf("year %d: %w", year, ErrNoEmbeddedData)
	}

	var data nextData
	if err := json.Unmarshal(m[1], &data); err != nil {
		return models.MovieList{}, fmt.Errorf("year %d: decode embedded data: %w", year, err)
	}

	items := data.Props.PageProps.SearchResults.TitleResults.TitleListItems
	list := models.MovieList{Source: "imdb", Year: year, Movies: make([]models.Movie, 0, len(items))}
	for i, item := range items {
		yr := item.ReleaseYear
		if yr == 0 {
			yr = year
		}
		list.Movies = append(list.Movies, models.Movie{
			Rank:           i + 1,
			TitleID:        item.TitleID,
			Title:          item.TitleText,
			OriginalTitle:  item.OriginalTitleText,
			Year:           yr,
			Plot:           item.Plot,
			PosterURL:      item.PrimaryImage.URL,
			Rating:         item.RatingSummary.AggregateRating,
			Votes:          item.RatingSummary.VoteCount,
			Certificate:    item.Certificate,
			Genres:         item.Genres,
			RuntimeMinutes: item.RuntimeSeconds / 60,
		})
	}
	return list, nil
}

// SaveYear fetches one year and persists it as a catalog list named after
// the year.
func (s *Service) SaveYear(ctx context.Context, year int) (models.MovieList, error) {
	list, err := s.FetchYear(ctx, year)
	if err != nil {
		return models.MovieList{}, err
	}
	if err := s.store.Save(strconv.Itoa(year), list); err != nil {
		return models.MovieList{}, fmt.Errorf("save year %d: %w", year, err)
	}
	return list, nil
}

// ScrapeRange fetches every year in [start, end] that is not already stored,
// pausing between requests. Years that fail are logged and skipped so one
// bad year does not abort the run.
func (s *Service) ScrapeRange(ctx context.Context, start, end int, delay time.Duration) error {
	existing, err := s.store.ListNames()
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	for year := start; year <= end; year++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if have[strconv.Itoa(year)] {
			continue
		}

		list, err := s.SaveYear(ctx, year)
		if err != nil {
			log.Printf("[metadata] year %d failed: %v", year, err)
			continue
		}
		log.Printf("[metadata] scraped %d movies for %d", len(list.Movies), year)

		if year < end && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func (s *Service) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
