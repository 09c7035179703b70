package search

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"reelgrab/utils/relparse"
)

// movieCategories is the category filter segment of an IPTorrents movie
// search URL (all movie sub-categories).
const movieCategories = "7;100;87;48;77;90;101;62;89;38;96;6;54;68;20"

var (
	torrentsTablePattern = regexp.MustCompile(`(?s)<table[^>]*id="torrents"[^>]*>(.*?)</table>`)
	rowPattern           = regexp.MustCompile(`(?s)<tr[^>]*>\s*<td[^>]*>.*?</tr>`)
	namePattern          = regexp.MustCompile(`(?s)<a[^>]*class="[^"]*hv[^"]*"[^>]*>(.*?)</a>`)
	downloadPattern      = regexp.MustCompile(`href="(/download\.php/[^"]+)"`)
	sizeCellPattern      = regexp.MustCompile(`(?i)([\d.]+)\s*(TB|GB|MB|KB)`)
	tagPattern           = regexp.MustCompile(`<[^>]+>`)
)

// IPTorrentsScraper scrapes the IPTorrents search page. The site has no
// API; results are parsed straight out of the torrents table HTML using a
// logged-in session cookie.
type IPTorrentsScraper struct {
	name       string
	baseURL    string
	cookie     string
	passkey    string
	httpClient *http.Client
	retryDelay time.Duration
}

func NewIPTorrentsScraper(name, baseURL, cookie, passkey string, client *http.Client) *IPTorrentsScraper {
	if baseURL == "" {
		baseURL = "https://iptorrents.com"
	}
	return &IPTorrentsScraper{
		name:       strings.TrimSpace(name),
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookie:     cookie,
		passkey:    passkey,
		httpClient: client,
		retryDelay: time.Second,
	}
}

func (s *IPTorrentsScraper) Name() string {
	if s.name != "" {
		return s.name
	}
	return "IPTorrents"
}

func (s *IPTorrentsScraper) Search(ctx context.Context, req Request) ([]Result, error) {
	query := CleanQuery(req.Title, req.Year)
	searchURL := fmt.Sprintf("%s/t?%s;q=%s;o=completed", s.baseURL, movieCategories, url.QueryEscape(query))

	body, err := s.get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("iptorrents search: %w", err)
	}

	results := s.parsePage(string(body))
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	log.Printf("[search] %s returned %d results for %q", s.Name(), len(results), query)
	return results, nil
}

// parsePage extracts release rows from the torrents table. Rows missing a
// name link or a download link are ignored; they are header, ad or spacer
// rows.
func (s *IPTorrentsScraper) parsePage(page string) []Result {
	table := torrentsTablePattern.FindStringSubmatch(page)
	if table == nil {
		log.Printf("[search] %s: no torrents table in response page", s.Name())
		return nil
	}

	var results []Result
	for _, row := range rowPattern.FindAllString(table[1], -1) {
		nameMatch := namePattern.FindStringSubmatch(row)
		if nameMatch == nil {
			continue
		}
		name := html.UnescapeString(strings.TrimSpace(tagPattern.ReplaceAllString(nameMatch[1], "")))

		dlMatch := downloadPattern.FindStringSubmatch(row)
		if dlMatch == nil {
			continue
		}

		var size int64
		if sizeMatch := sizeCellPattern.FindString(row); sizeMatch != "" {
			size = relparse.ParseSize(sizeMatch)
		}

		results = append(results, Result{
			RawName:     name,
			DownloadURL: s.baseURL + dlMatch[1],
			SizeBytes:   size,
			Indexer:     s.Name(),
		})
	}
	return results
}

// Fetch downloads the .torrent payload for a result. The caller validates
// the payload; the tracker answers auth failures with an HTML page and
// status 200.
func (s *IPTorrentsScraper) Fetch(ctx context.Context, downloadURL string) ([]byte, error) {
	if s.passkey != "" && !strings.Contains(downloadURL, "passkey=") {
		sep := "?"
		if strings.Contains(downloadURL, "?") {
			sep = "&"
		}
		downloadURL += sep + "passkey=" + url.QueryEscape(s.passkey)
	}
	return s.get(ctx, downloadURL)
}

// get fetches a URL with the session cookie, retrying transient failures.
func (s *IPTorrentsScraper) get(ctx context.Context, rawURL string) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) { return s.getOnce(ctx, rawURL) },
		retry.Attempts(3),
		retry.Delay(s.retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

func (s *IPTorrentsScraper) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Cookie", s.cookie)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, s.Name())
	}
	return io.ReadAll(resp.Body)
}
