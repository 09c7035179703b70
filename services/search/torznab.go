package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// TorznabScraper queries a Torznab endpoint (Jackett, Prowlarr or a native
// tracker API) for movie releases.
type TorznabScraper struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryDelay time.Duration
}

func NewTorznabScraper(name, baseURL, apiKey string, client *http.Client) *TorznabScraper {
	return &TorznabScraper{
		name:       strings.TrimSpace(name),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
		retryDelay: time.Second,
	}
}

func (t *TorznabScraper) Name() string {
	if t.name != "" {
		return t.name
	}
	return "Torznab"
}

// torznabRSS represents the Torznab RSS response structure.
type torznabRSS struct {
	XMLName xml.Name       `xml:"rss"`
	Channel torznabChannel `xml:"channel"`
}

type torznabChannel struct {
	Items []torznabItem `xml:"item"`
}

type torznabItem struct {
	Title     string           `xml:"title"`
	Link      string           `xml:"link"`
	Size      int64            `xml:"size"`
	Enclosure torznabEnclosure `xml:"enclosure"`
	Attrs     []torznabAttr    `xml:"attr"`
}

type torznabEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (t *TorznabScraper) Search(ctx context.Context, req Request) ([]Result, error) {
	params := url.Values{}
	params.Set("apikey", t.apiKey)
	params.Set("t", "movie")
	params.Set("q", CleanQuery(req.Title, req.Year))

	apiURL := fmt.Sprintf("%s/api?%s", t.baseURL, params.Encode())

	body, err := t.get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("torznab search: %w", err)
	}

	results, err := t.parseResponse(body)
	if err != nil {
		return nil, err
	}
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	log.Printf("[search] %s returned %d results for %q", t.Name(), len(results), req.Title)
	return results, nil
}

// parseResponse converts the Torznab XML into Results. Items without any
// download URL are skipped; magnet-only items are skipped too since the
// pipeline needs a .torrent payload to hand to ruTorrent.
func (t *TorznabScraper) parseResponse(body []byte) ([]Result, error) {
	var rss torznabRSS
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}

	var results []Result
	seen := make(map[string]struct{})
	for _, item := range rss.Channel.Items {
		downloadURL := item.Link
		if downloadURL == "" {
			downloadURL = item.Enclosure.URL
		}
		if downloadURL == "" || strings.HasPrefix(downloadURL, "magnet:") {
			continue
		}
		if _, dup := seen[downloadURL]; dup {
			continue
		}
		seen[downloadURL] = struct{}{}

		size := item.Size
		if size == 0 && item.Enclosure.Length > 0 {
			size = item.Enclosure.Length
		}
		if size == 0 {
			for _, attr := range item.Attrs {
				if attr.Name == "size" {
					size, _ = strconv.ParseInt(attr.Value, 10, 64)
					break
				}
			}
		}

		results = append(results, Result{
			RawName:     item.Title,
			DownloadURL: downloadURL,
			SizeBytes:   size,
			Indexer:     t.Name(),
		})
	}
	return results, nil
}

// Fetch downloads the .torrent payload behind a Torznab result link.
func (t *TorznabScraper) Fetch(ctx context.Context, downloadURL string) ([]byte, error) {
	return t.get(ctx, downloadURL)
}

// get fetches a URL, retrying transient failures.
func (t *TorznabScraper) get(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) { return t.getOnce(ctx, rawURL) },
		retry.Attempts(3),
		retry.Delay(t.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func (t *TorznabScraper) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, t.Name())
	}
	return io.ReadAll(resp.Body)
}
