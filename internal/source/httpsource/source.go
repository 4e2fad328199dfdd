// Package httpsource fetches review pages and images from an HTTP API.
//
// Requests are rate limited on the client, retried with jittered
// exponential backoff on 429 and transient 5xx (honoring Retry-After) and
// run through a circuit breaker.
package httpsource

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/observability"
)

const (
	DefaultTimeout     = 20 * time.Second
	DefaultRateLimit   = 10
	DefaultMaxAttempts = 4

	// maxBody bounds how much of a response is read.
	maxBody = 32 << 20
)

// Config configures a Source.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RateLimit   int // requests per second
	MaxAttempts int
	Breaker     BreakerConfig

	// Client replaces the default http.Client.
	Client *http.Client
	// Backoff replaces the default retry delay.
	Backoff func(attempt int) time.Duration
}

// Source is a review.Fetcher backed by an HTTP API. It is safe for
// concurrent use.
type Source struct {
	base     *url.URL
	hc       *http.Client
	rl       *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	attempts int
	backoff  func(int) time.Duration
	logger   zerolog.Logger
}

var _ review.Fetcher = (*Source)(nil)

// New creates a source for the API at cfg.BaseURL.
func New(cfg Config, logger zerolog.Logger) (*Source, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Breaker == (BreakerConfig{}) {
		cfg.Breaker = DefaultBreakerConfig()
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: instrumented{next: http.DefaultTransport},
		}
	}

	return &Source{
		base:     base,
		hc:       hc,
		rl:       rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
		breaker:  newBreaker("reviews-"+base.Host, cfg.Breaker, logger),
		attempts: cfg.MaxAttempts,
		backoff:  cfg.Backoff,
		logger:   logger,
	}, nil
}

// FetchPage requests GET {base}/reviews?offset=N&limit=M.
func (s *Source) FetchPage(ctx context.Context, offset, limit int) ([]byte, error) {
	u := s.base.JoinPath("reviews")
	q := u.Query()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	return s.get(ctx, u.String())
}

// FetchAsset requests an image. Relative URLs resolve against the base URL.
func (s *Source) FetchAsset(ctx context.Context, rawURL string) ([]byte, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("asset url %q: %w", rawURL, review.ErrNotFound)
	}
	return s.get(ctx, s.base.ResolveReference(ref).String())
}

// State returns the circuit breaker state.
func (s *Source) State() gobreaker.State {
	return s.breaker.State()
}

func (s *Source) get(ctx context.Context, u string) ([]byte, error) {
	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.do(ctx, u)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %w", review.ErrTransport, u, err)
	}
	return body, err
}

// do performs a GET with client-side rate limiting and retries.
func (s *Source) do(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for i := range s.attempts {
		if err := s.rl.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", "reviews/1.0")

		resp, err := s.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if s.retry(ctx, i, s.backoff(i)) {
				continue
			}
			break
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: read %s: %w", review.ErrTransport, u, err)
			}
			return body, nil

		case resp.StatusCode == http.StatusNotFound:
			drain(resp)
			return nil, fmt.Errorf("%s: %w", u, review.ErrNotFound)

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented:
			wait := retryAfter(resp)
			drain(resp)
			if wait == 0 {
				wait = s.backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			s.logger.Debug().Str("url", u).Int("status", resp.StatusCode).Int("attempt", i+1).Msg("retryable response")
			if s.retry(ctx, i, wait) {
				continue
			}

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%w: bad status %d: %s", review.ErrTransport, resp.StatusCode, strings.TrimSpace(string(b)))
		}
		break
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %w", review.ErrTransport, u, s.attempts, lastErr)
}

// retry sleeps before attempt i+1 and reports whether to continue.
func (s *Source) retry(ctx context.Context, i int, wait time.Duration) bool {
	return i < s.attempts-1 && sleepCtx(ctx, wait)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After in seconds or HTTP-date form. Returns 0 if
// absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// instrumented observes every round trip, retries included.
type instrumented struct {
	next http.RoundTripper
}

func (t instrumented) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	observability.ObserveFetch("http", err, time.Since(start))
	return resp, err
}
