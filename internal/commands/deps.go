package commands

import (
	"fmt"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/config"
	"github.com/colonyops/reviews/internal/core/logging"
	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/source/filesource"
	"github.com/colonyops/reviews/internal/source/httpsource"
)

// newFetcher builds the review source selected by cfg.Source.Kind. The file
// source delegates remote asset URLs to an HTTP source when a base url is set.
func newFetcher(cfg *config.Config) (review.Fetcher, error) {
	src := cfg.Source

	switch src.Kind {
	case config.SourceHTTP:
		return newHTTPSource(src)
	case config.SourceFile:
		fcfg := filesource.Config{
			File:       src.File,
			AssetsDir:  src.AssetsDir,
			LatencyMin: src.LatencyMin,
			LatencyMax: src.LatencyMax,
		}
		if src.BaseURL != "" {
			remote, err := newHTTPSource(src)
			if err != nil {
				return nil, err
			}
			fcfg.Fallback = remote
		}
		return filesource.New(fcfg, logging.Component("filesource"))
	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

func newHTTPSource(src config.SourceConfig) (*httpsource.Source, error) {
	return httpsource.New(httpsource.Config{
		BaseURL:   src.BaseURL,
		Timeout:   src.Timeout,
		RateLimit: src.RateLimit,
		Breaker: httpsource.BreakerConfig{
			MaxRequests:  src.Breaker.MaxRequests,
			Interval:     src.Breaker.Interval,
			Timeout:      src.Breaker.Timeout,
			FailureRatio: src.Breaker.FailureRatio,
			MinRequests:  src.Breaker.MinRequests,
		},
	}, logging.Component("httpsource"))
}

func newLoader(cfg *config.Config, fetcher review.Fetcher) (*assets.Loader, error) {
	cache, err := assets.NewCache(cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("create asset cache: %w", err)
	}
	return assets.NewLoader(fetcher, cache, cfg.Cache.Workers, logging.Component("assets")), nil
}
