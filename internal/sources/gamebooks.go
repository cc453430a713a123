package sources

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtwire/courtwire/internal/net/httpx"
)

// GamebooksName is the logical source name for official NBA gamebook PDFs.
const GamebooksName = "gamebooks"

const defaultGamebooksIndex = "https://official.nba.com/referee-assignments/"

// URLLister discovers the gamebook PDF URLs published for a date. The
// default scrapes the assignments index page; tests substitute a fixed list.
type URLLister interface {
	ListURLs(ctx context.Context, date time.Time) ([]string, error)
}

// IndexLister scrapes PDF links out of the assignments index page.
type IndexLister struct {
	fetcher  *httpx.Fetcher
	indexURL string
}

// NewIndexLister builds the default lister against the public index.
func NewIndexLister(fetcher *httpx.Fetcher) *IndexLister {
	return &IndexLister{fetcher: fetcher, indexURL: defaultGamebooksIndex}
}

var pdfHrefRe = regexp.MustCompile(`href="([^"]+\.pdf)"`)

// ListURLs fetches the index and returns the PDF links mentioning the date
// in either compact (20240115) or dashed (2024-01-15) form.
func (l *IndexLister) ListURLs(ctx context.Context, date time.Time) ([]string, error) {
	body, err := l.fetcher.Get(ctx, GamebooksName, l.indexURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gamebook index: %w", err)
	}
	compact := date.Format("20060102")
	dashed := date.Format("2006-01-02")

	var urls []string
	for _, m := range pdfHrefRe.FindAllStringSubmatch(string(body), -1) {
		href := m[1]
		if strings.Contains(href, compact) || strings.Contains(href, dashed) {
			urls = append(urls, href)
		}
	}
	return urls, nil
}

// GamebooksClient downloads official gamebook PDFs and parses referee
// assignments out of them. It implements only the refs operation; the facade
// reports everything else as unsupported.
type GamebooksClient struct {
	fetcher *httpx.Fetcher
	lister  URLLister
	dir     string // PDF cache, keyed by URL filename
}

// NewGamebooks builds the client; dir is created lazily on first download.
func NewGamebooks(fetcher *httpx.Fetcher, lister URLLister, dir string) *GamebooksClient {
	return &GamebooksClient{fetcher: fetcher, lister: lister, dir: dir}
}

func (c *GamebooksClient) Name() string { return GamebooksName }

// Refs downloads (or reuses) each gamebook PDF for the date and parses it.
// Low-confidence parses are logged and kept; a failed download or extraction
// skips the one book rather than failing the date.
func (c *GamebooksClient) Refs(ctx context.Context, date time.Time) ([]GamebookResult, error) {
	urls, err := c.lister.ListURLs(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list gamebooks: %w", err)
	}

	var results []GamebookResult
	for _, u := range urls {
		local := filepath.Join(c.dir, path.Base(u))
		if _, err := os.Stat(local); err != nil {
			if err := c.fetcher.Download(ctx, GamebooksName, u, local); err != nil {
				log.Warn().Err(err).Str("url", u).Msg("gamebook download failed")
				continue
			}
		}
		text, err := ExtractPDFText(local)
		if err != nil {
			log.Warn().Err(err).Str("path", local).Msg("gamebook text extraction failed")
			continue
		}
		res := ParseGamebook(text)
		res.SourceURL = u
		if res.Confidence < 0.5 {
			log.Warn().
				Str("url", u).
				Float64("confidence", res.Confidence).
				Msg("low-confidence gamebook parse")
		}
		results = append(results, *res)
	}
	return results, nil
}
