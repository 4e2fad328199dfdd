// Package feed implements the review list state machine.
//
// A Controller owns the State and is driven from a single goroutine: views
// call its operations and hand back the Results of the Tasks it returns.
// Fetching, decoding and asset loading happen inside Tasks on other
// goroutines. Every mutation replaces the item slice and fires one
// OnStateChange with a snapshot.
package feed

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/logging"
	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/observability"
)

// Options configures a Controller.
type Options struct {
	PageLimit int
	MaxLines  int

	// OnStateChange receives a snapshot after every mutation.
	OnStateChange func(State)
	// OnPhotoTap receives photo and avatar taps.
	OnPhotoTap func(PhotoTap)

	// Logger defaults to the "feed" component logger.
	Logger *zerolog.Logger
}

// Controller is the review list state machine. It is not safe for
// concurrent use.
type Controller struct {
	fetcher review.Fetcher
	loader  *assets.Loader
	builder Builder
	opts    Options
	logger  zerolog.Logger

	state State
	gen   uint64
}

// NewController creates a controller in the initial idle state. Nothing is
// fetched until RequestNextPage or Refresh is called.
func NewController(fetcher review.Fetcher, loader *assets.Loader, opts Options) *Controller {
	if opts.MaxLines < 0 {
		opts.MaxLines = layout.Unlimited
	}

	logger := logging.Component("feed")
	if opts.Logger != nil {
		logger = logging.Sub(*opts.Logger, "feed")
	}

	return &Controller{
		fetcher: fetcher,
		loader:  loader,
		builder: NewBuilder(opts.MaxLines),
		opts:    opts,
		logger:  logger,
		state:   NewState(opts.PageLimit),
	}
}

// SetBuilder replaces the item builder. Used to make ids deterministic.
func (c *Controller) SetBuilder(b Builder) {
	c.builder = b
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return c.state.Clone()
}

// Generation returns the current generation; it increments on Refresh.
func (c *Controller) Generation() uint64 {
	return c.gen
}

func (c *Controller) notify() {
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(c.state.Clone())
	}
}

// RequestNextPage starts loading the next page. It returns no tasks while a
// page load is in flight or once every page has been loaded.
func (c *Controller) RequestNextPage() []Task {
	if !c.state.ShouldLoadMore {
		return nil
	}

	c.state.ShouldLoadMore = false
	c.state.Loading = true
	c.state.HasError = false
	c.notify()

	c.logger.Debug().
		Int("offset", c.state.Offset).
		Int("limit", c.state.PageLimit).
		Uint64("generation", c.gen).
		Msg("requesting page")

	return []Task{c.pageTask(c.gen, c.state.Offset, c.state.PageLimit)}
}

// Refresh resets the feed and requests the first page. Fetches already in
// flight are not cancelled; their results are discarded when they arrive.
func (c *Controller) Refresh() []Task {
	c.gen++
	c.state = NewState(c.state.PageLimit)
	c.notify()

	c.logger.Debug().Uint64("generation", c.gen).Msg("feed refreshed")
	return c.RequestNextPage()
}

// Expand removes the line clamp of a review. Unknown ids and count items
// are ignored.
func (c *Controller) Expand(id string) {
	c.patch(id, func(r ReviewItem) ReviewItem {
		r.MaxLines = layout.Unlimited
		return r
	})
}

// TapPhoto emits a PhotoTap for photo index of a review whose photos have
// loaded.
func (c *Controller) TapPhoto(id string, index int) {
	r, ok := c.state.Review(id)
	if !ok || index < 0 || index >= len(r.Photos) {
		return
	}
	c.emitTap(PhotoTap{ItemID: id, Index: index, Images: slices.Clone(r.Photos)})
}

// TapAvatar emits a PhotoTap showing a review's loaded avatar.
func (c *Controller) TapAvatar(id string) {
	r, ok := c.state.Review(id)
	if !ok || r.Avatar == nil {
		return
	}
	c.emitTap(PhotoTap{ItemID: id, Index: 0, Images: []assets.Image{*r.Avatar}})
}

func (c *Controller) emitTap(tap PhotoTap) {
	if c.opts.OnPhotoTap != nil {
		c.opts.OnPhotoTap(tap)
	}
}

// Dispatch routes a view command to the matching operation.
func (c *Controller) Dispatch(cmd Command) []Task {
	switch cmd := cmd.(type) {
	case ShowMore:
		c.Expand(cmd.ItemID)
	case OpenPhoto:
		c.TapPhoto(cmd.ItemID, cmd.Index)
	case OpenAvatar:
		c.TapAvatar(cmd.ItemID)
	case LoadMore:
		return c.RequestNextPage()
	case Reload:
		return c.Refresh()
	default:
		c.logger.Warn().Str("command", fmt.Sprintf("%T", cmd)).Msg("unknown command")
	}
	return nil
}

// Apply folds a task result into the state and returns follow-up tasks.
func (c *Controller) Apply(res Result) []Task {
	switch res := res.(type) {
	case PageResult:
		return c.applyPage(res)
	case PhotosResult:
		c.patch(res.ItemID, func(r ReviewItem) ReviewItem {
			r.Photos = res.Images
			return r
		})
	case AvatarResult:
		img := res.Image
		c.patch(res.ItemID, func(r ReviewItem) ReviewItem {
			r.Avatar = &img
			return r
		})
	}
	return nil
}

func (c *Controller) applyPage(res PageResult) []Task {
	if res.Gen != c.gen {
		c.logger.Debug().
			Uint64("generation", res.Gen).
			Uint64("current", c.gen).
			Msg("dropping page from superseded generation")
		return nil
	}

	c.state.Loading = false

	if res.Err != nil {
		c.logger.Warn().Err(res.Err).Int("offset", res.Offset).Msg("page load failed")
		c.state.HasError = true
		c.state.ShouldLoadMore = true
		c.notify()
		return nil
	}

	items := make([]Item, 0, len(c.state.Items)+len(res.Items)+1)
	for _, it := range c.state.Items {
		if _, ok := it.(CountItem); ok {
			continue
		}
		items = append(items, it)
	}
	for _, it := range res.Items {
		items = append(items, it)
	}
	items = append(items, c.builder.Count(res.Count))

	c.state.Items = items
	c.state.Offset += c.state.PageLimit
	c.state.ShouldLoadMore = c.state.Offset < res.Count
	c.notify()

	c.logger.Debug().
		Int("items", len(res.Items)).
		Int("offset", c.state.Offset).
		Int("count", res.Count).
		Bool("more", c.state.ShouldLoadMore).
		Msg("page ingested")

	var tasks []Task
	for _, it := range res.Items {
		tasks = append(tasks, c.assetTasks(it)...)
	}
	return tasks
}

// patch replaces the review with id by fn(review) and notifies. Missing ids
// are dropped; the item may belong to a generation discarded by Refresh.
func (c *Controller) patch(id string, fn func(ReviewItem) ReviewItem) {
	i := c.state.Index(id)
	if i < 0 {
		c.logger.Debug().Str("item_id", id).Msg("dropping patch for unknown item")
		return
	}
	r, ok := c.state.Items[i].(ReviewItem)
	if !ok {
		return
	}

	items := slices.Clone(c.state.Items)
	items[i] = fn(r)
	c.state.Items = items
	c.notify()
}

func (c *Controller) pageTask(gen uint64, offset, limit int) Task {
	fetcher, builder, logger := c.fetcher, c.builder, c.logger

	return func(ctx context.Context) Result {
		ctx = logging.WithGeneration(ctx, gen)
		res := PageResult{Gen: gen, Offset: offset}

		start := time.Now()
		data, err := fetcher.FetchPage(ctx, offset, limit)
		observability.ObserveFetch("page", err, time.Since(start))
		if err != nil {
			res.Err = fmt.Errorf("fetch page at %d: %w", offset, err)
			return res
		}

		page, err := review.DecodePage(data)
		if err != nil {
			logger.Debug().Ctx(ctx).Err(err).Int("bytes", len(data)).Msg("page decode failed")
			res.Err = fmt.Errorf("page at %d: %w", offset, err)
			return res
		}

		res.Count = page.Count
		res.Items = make([]ReviewItem, len(page.Items))
		for i, rec := range page.Items {
			res.Items[i] = builder.Review(rec)
		}
		return res
	}
}

// assetTasks returns one task joining all photos of r and one for its
// avatar. Failed loads resolve to placeholders so each task always yields
// exactly one patch.
func (c *Controller) assetTasks(r ReviewItem) []Task {
	loader, id := c.loader, r.ID()
	if loader == nil {
		return nil
	}

	var tasks []Task
	if len(r.PhotoURLs) > 0 {
		urls := slices.Clone(r.PhotoURLs)
		tasks = append(tasks, func(ctx context.Context) Result {
			ctx = logging.WithItemID(ctx, id)
			return PhotosResult{ItemID: id, Images: loader.LoadAll(ctx, urls)}
		})
	}

	if r.AvatarURL != "" {
		url := r.AvatarURL
		tasks = append(tasks, func(ctx context.Context) Result {
			ctx = logging.WithItemID(ctx, id)
			return AvatarResult{ItemID: id, Image: loader.LoadOne(ctx, url, assets.DefaultAvatar())}
		})
	}
	return tasks
}
