// Package filesource serves review pages from a JSON file on disk.
//
// The file holds a single page payload with every review. Pages are slices
// of it by offset and limit, reported with the file's total count. An
// optional latency range simulates a slow network.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/reviews/internal/core/review"
)

// Config configures a Source.
type Config struct {
	// File is the JSON payload with every review.
	File string
	// AssetsDir resolves relative asset paths. Defaults to the directory
	// of File.
	AssetsDir string

	LatencyMin time.Duration
	LatencyMax time.Duration

	// Fallback serves http and https asset URLs.
	Fallback review.Fetcher
}

// Source is a review.Fetcher reading from disk. It is safe for concurrent
// use.
type Source struct {
	cfg    Config
	page   review.Page
	logger zerolog.Logger
}

var _ review.Fetcher = (*Source)(nil)

// New loads cfg.File. A malformed file is reported here rather than on
// every page request.
func New(cfg Config, logger zerolog.Logger) (*Source, error) {
	if cfg.File == "" {
		return nil, errors.New("fixture file is required")
	}
	if cfg.LatencyMax < cfg.LatencyMin {
		return nil, fmt.Errorf("latency max %s is below min %s", cfg.LatencyMax, cfg.LatencyMin)
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = filepath.Dir(cfg.File)
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	page, err := review.DecodePage(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", cfg.File, err)
	}

	logger.Debug().Str("file", cfg.File).Int("reviews", len(page.Items)).Msg("fixture loaded")
	return &Source{cfg: cfg, page: page, logger: logger}, nil
}

// Total returns the number of reviews in the file.
func (s *Source) Total() int {
	return len(s.page.Items)
}

// Page returns the records in [offset, offset+limit). A non-positive limit
// returns everything from offset on.
func (s *Source) Page(offset, limit int) review.Page {
	total := len(s.page.Items)
	start := min(max(offset, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}

	items := make([]review.Record, end-start)
	copy(items, s.page.Items[start:end])
	return review.Page{Count: total, Items: items}
}

// FetchPage implements review.Fetcher.
func (s *Source) FetchPage(ctx context.Context, offset, limit int) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return review.EncodePage(s.Page(offset, limit))
}

// FetchAsset implements review.Fetcher. file:// URLs and relative paths
// read from disk; http(s) URLs go to the fallback fetcher.
func (s *Source) FetchAsset(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", rawURL, review.ErrNotFound)
	}

	switch u.Scheme {
	case "http", "https":
		if s.cfg.Fallback == nil {
			return nil, fmt.Errorf("asset %s: no remote fetcher: %w", rawURL, review.ErrNotFound)
		}
		return s.cfg.Fallback.FetchAsset(ctx, rawURL)
	case "file":
		return s.read(u.Path)
	case "":
		if !filepath.IsLocal(filepath.FromSlash(u.Path)) {
			return nil, fmt.Errorf("asset %s: outside assets dir: %w", rawURL, review.ErrNotFound)
		}
		return s.read(filepath.Join(s.cfg.AssetsDir, filepath.FromSlash(u.Path)))
	default:
		return nil, fmt.Errorf("asset %s: unsupported scheme: %w", rawURL, review.ErrNotFound)
	}
}

func (s *Source) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%s: %w", path, review.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", review.ErrTransport, err)
	}
	return data, nil
}

// wait sleeps for a random duration in the latency range.
func (s *Source) wait(ctx context.Context) error {
	d := s.cfg.LatencyMin
	if spread := s.cfg.LatencyMax - s.cfg.LatencyMin; spread > 0 {
		d += rand.N(spread + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
