package review

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for fetch operations.
var (
	// ErrTransport means the source could not be reached or answered with a
	// failure that is not "not found".
	ErrTransport = errors.New("transport error")
	// ErrNotFound means the source has no such page or asset.
	ErrNotFound = errors.New("not found")
	// ErrDecode means a payload could not be parsed.
	ErrDecode = errors.New("malformed payload")
)

// AssetError reports a failed photo or avatar fetch. It never reaches the
// list state; loaders substitute a placeholder.
type AssetError struct {
	URL string
	Err error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.URL, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// Fetcher is the transport boundary for reviews and their images.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	// FetchPage returns the raw page payload starting at offset.
	FetchPage(ctx context.Context, offset, limit int) ([]byte, error)

	// FetchAsset returns the raw bytes of an image.
	FetchAsset(ctx context.Context, url string) ([]byte, error)
}

// FetcherFuncs adapts plain functions to a Fetcher. Nil functions report
// ErrNotFound.
type FetcherFuncs struct {
	Page  func(ctx context.Context, offset, limit int) ([]byte, error)
	Asset func(ctx context.Context, url string) ([]byte, error)
}

// FetchPage implements Fetcher.
func (f FetcherFuncs) FetchPage(ctx context.Context, offset, limit int) ([]byte, error) {
	if f.Page == nil {
		return nil, fmt.Errorf("page %d: %w", offset, ErrNotFound)
	}
	return f.Page(ctx, offset, limit)
}

// FetchAsset implements Fetcher.
func (f FetcherFuncs) FetchAsset(ctx context.Context, url string) ([]byte, error) {
	if f.Asset == nil {
		return nil, fmt.Errorf("asset %s: %w", url, ErrNotFound)
	}
	return f.Asset(ctx, url)
}
