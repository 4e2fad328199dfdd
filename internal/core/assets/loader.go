package assets

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/observability"
)

// DefaultWorkers bounds concurrent asset fetches across all items.
const DefaultWorkers = 8

// Loader fetches images through a shared Cache. Concurrent loads of the same
// URL share a single fetch.
type Loader struct {
	fetcher review.Fetcher
	cache   *Cache
	sem     *semaphore.Weighted
	flight  singleflight.Group
	logger  zerolog.Logger
}

// NewLoader creates a loader allowing at most workers fetches in flight.
func NewLoader(fetcher review.Fetcher, cache *Cache, workers int, logger zerolog.Logger) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Loader{
		fetcher: fetcher,
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(workers)),
		logger:  logger,
	}
}

// Cache returns the cache backing the loader.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load returns the image for url from the cache, or fetches, decodes and
// caches it. Failures are returned as *review.AssetError.
func (l *Loader) Load(ctx context.Context, url string) (Image, error) {
	if img, ok := l.cache.Get(url); ok {
		return img, nil
	}

	v, err, shared := l.flight.Do(url, func() (any, error) {
		// another flight may have filled the cache while we queued
		if img, ok := l.cache.Get(url); ok {
			return img, nil
		}

		if err := l.sem.Acquire(ctx, 1); err != nil {
			return Image{}, err
		}
		defer l.sem.Release(1)

		start := time.Now()
		data, err := l.fetcher.FetchAsset(ctx, url)
		observability.ObserveFetch("asset", err, time.Since(start))
		if err != nil {
			return Image{}, err
		}

		img, err := Decode(url, data)
		if err != nil {
			return Image{}, err
		}

		l.cache.Put(url, img)
		return img, nil
	})
	if err != nil {
		return Image{}, &review.AssetError{URL: url, Err: err}
	}

	if shared {
		l.logger.Debug().Ctx(ctx).Str("url", url).Msg("joined in-flight asset fetch")
	}
	return v.(Image), nil
}

// LoadAll loads every url concurrently and returns once all have resolved.
// Cache hits resolve immediately; failed loads are replaced with a
// Placeholder so the result always has len(urls) images in input order.
func (l *Loader) LoadAll(ctx context.Context, urls []string) []Image {
	images := make([]Image, len(urls))

	var g errgroup.Group
	for i, url := range urls {
		if img, ok := l.cache.Get(url); ok {
			images[i] = img
			continue
		}

		g.Go(func() error {
			img, err := l.Load(ctx, url)
			if err != nil {
				l.logger.Debug().Ctx(ctx).Err(err).Str("url", url).Msg("asset failed, using placeholder")
				img = Placeholder(url)
			}
			images[i] = img
			return nil
		})
	}

	_ = g.Wait()
	return images
}

// LoadOne loads a single url, returning fallback on failure.
func (l *Loader) LoadOne(ctx context.Context, url string, fallback Image) Image {
	img, err := l.Load(ctx, url)
	if err != nil {
		l.logger.Debug().Ctx(ctx).Err(err).Str("url", url).Msg("asset failed, using fallback")
		return fallback
	}
	return img
}
