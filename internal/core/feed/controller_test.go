package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/review"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeSource serves total generated reviews and a fixed asset set.
type fakeSource struct {
	mu        sync.Mutex
	total     int
	photos    map[int][]string
	avatars   map[int]string
	assets    map[string][]byte
	pageErr   error
	pageBody  []byte
	pageCalls int
}

func (f *fakeSource) FetchPage(_ context.Context, offset, limit int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageCalls++
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if f.pageBody != nil {
		return f.pageBody, nil
	}

	page := review.Page{Count: f.total, Items: []review.Record{}}
	for i := offset; i < min(offset+limit, f.total); i++ {
		rec := review.Record{
			FirstName: fmt.Sprintf("User%d", i),
			LastName:  "Test",
			Rating:    1 + i%5,
			Text:      fmt.Sprintf("review %d", i),
			Created:   "1 января",
			PhotoURLs: f.photos[i],
		}
		if url, ok := f.avatars[i]; ok {
			rec.AvatarURL = &url
		}
		page.Items = append(page.Items, rec)
	}
	return review.EncodePage(page)
}

func (f *fakeSource) FetchAsset(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.assets[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, review.ErrNotFound)
	}
	return data, nil
}

func (f *fakeSource) set(fn func(f *fakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type harness struct {
	c      *Controller
	src    *fakeSource
	cache  *assets.Cache
	states []State
	taps   []PhotoTap
}

func newHarness(t *testing.T, src *fakeSource, limit int) *harness {
	t.Helper()

	cache, err := assets.NewCache(16)
	require.NoError(t, err)

	h := &harness{src: src, cache: cache}
	nop := zerolog.Nop()
	h.c = NewController(src, assets.NewLoader(src, cache, 4, nop), Options{
		PageLimit:     limit,
		MaxLines:      layout.DefaultMaxLines,
		OnStateChange: func(s State) { h.states = append(h.states, s) },
		OnPhotoTap:    func(p PhotoTap) { h.taps = append(h.taps, p) },
		Logger:        &nop,
	})

	n := 0
	h.c.SetBuilder(Builder{
		NewID:    func() string { n++; return fmt.Sprintf("id-%d", n) },
		MaxLines: layout.DefaultMaxLines,
	})
	return h
}

// drain runs tasks and their follow-ups synchronously, in order.
func (h *harness) drain(tasks []Task) {
	for len(tasks) > 0 {
		task := tasks[0]
		tasks = append(tasks[1:], h.c.Apply(task(context.Background()))...)
	}
}

// pageOnly runs tasks and discards asset follow-ups.
func (h *harness) pageOnly(tasks []Task) []Task {
	var follow []Task
	for _, task := range tasks {
		follow = append(follow, h.c.Apply(task(context.Background()))...)
	}
	return follow
}

func (h *harness) last() State {
	return h.states[len(h.states)-1]
}

func assertCountInvariant(t *testing.T, s State) {
	t.Helper()
	counts := 0
	for i, it := range s.Items {
		if _, ok := it.(CountItem); ok {
			counts++
			assert.Equal(t, len(s.Items)-1, i, "count item must be last")
		}
	}
	assert.LessOrEqual(t, counts, 1)
}

func TestController_InitialState(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 3}, 2)

	s := h.c.State()
	assert.Empty(t, s.Items)
	assert.Equal(t, 0, s.Offset)
	assert.Equal(t, 2, s.PageLimit)
	assert.True(t, s.ShouldLoadMore)
	assert.False(t, s.HasError)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Empty(t, h.states)
}

func TestController_RequestNextPage(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 5}, 2)

	tasks := h.c.RequestNextPage()
	require.Len(t, tasks, 1)

	loading := h.last()
	assert.False(t, loading.ShouldLoadMore)
	assert.Equal(t, PhaseLoading, loading.Phase())

	assert.Nil(t, h.c.RequestNextPage(), "only one page load may be in flight")

	h.pageOnly(tasks)
	s := h.last()

	assert.Equal(t, 2, s.Offset)
	assert.True(t, s.ShouldLoadMore)
	assert.False(t, s.Loading)
	assert.Equal(t, 2, s.Reviews())
	require.Len(t, s.Items, 3)
	count, ok := s.Count()
	require.True(t, ok)
	assert.Equal(t, 5, count.Count)
	assert.Equal(t, "5 отзывов", count.Text.Text)
	assertCountInvariant(t, s)
	assert.Len(t, h.states, 2)
	assert.Equal(t, 1, h.src.pageCalls)
}

func TestController_PagesUntilExhausted(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 5}, 2)

	for page := 1; page <= 3; page++ {
		before := h.c.State().Offset
		h.pageOnly(h.c.RequestNextPage())

		s := h.c.State()
		assert.Equal(t, before+2, s.Offset)
		assert.Equal(t, s.Offset < 5, s.ShouldLoadMore)
		assertCountInvariant(t, s)
	}

	s := h.c.State()
	assert.Equal(t, 5, s.Reviews())
	assert.Len(t, s.Items, 6)
	assert.Equal(t, PhaseExhausted, s.Phase())
	assert.Nil(t, h.c.RequestNextPage())
	assert.Equal(t, 3, h.src.pageCalls)
}

func TestController_ItemIDsStableAcrossPages(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 4}, 2)

	h.pageOnly(h.c.RequestNextPage())
	first := h.c.State().Items[0].ID()

	h.pageOnly(h.c.RequestNextPage())
	assert.Equal(t, first, h.c.State().Items[0].ID())
}

func TestController_FetchFailure(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 5}, 2)
	h.pageOnly(h.c.RequestNextPage())
	before := h.c.State()

	h.src.set(func(f *fakeSource) { f.pageErr = fmt.Errorf("dial: %w", review.ErrTransport) })
	h.pageOnly(h.c.RequestNextPage())

	s := h.last()
	assert.True(t, s.HasError)
	assert.True(t, s.ShouldLoadMore)
	assert.False(t, s.Loading)
	assert.Equal(t, PhaseError, s.Phase())
	assert.Equal(t, before.Offset, s.Offset)
	assert.Equal(t, before.Items, s.Items)

	// retry clears the error and succeeds
	h.src.set(func(f *fakeSource) { f.pageErr = nil })
	tasks := h.c.RequestNextPage()
	require.Len(t, tasks, 1)
	assert.False(t, h.last().HasError)

	h.pageOnly(tasks)
	s = h.c.State()
	assert.False(t, s.HasError)
	assert.Equal(t, 4, s.Offset)
	assert.Equal(t, 4, s.Reviews())
	assertCountInvariant(t, s)
}

func TestController_DecodeFailure(t *testing.T) {
	src := &fakeSource{total: 5, pageBody: []byte(`{"items": "nope"}`)}
	h := newHarness(t, src, 2)

	tasks := h.c.RequestNextPage()
	require.Len(t, tasks, 1)

	res, ok := tasks[0](context.Background()).(PageResult)
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, review.ErrDecode)

	assert.Nil(t, h.c.Apply(res))
	s := h.last()
	assert.True(t, s.HasError)
	assert.True(t, s.ShouldLoadMore)
	assert.Empty(t, s.Items)
	assert.Equal(t, 0, s.Offset)
}

func TestController_RefreshDuringInFlightLoad(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 5}, 2)
	h.pageOnly(h.c.RequestNextPage())

	stale := h.c.RequestNextPage()
	require.Len(t, stale, 1)
	staleResult := stale[0](context.Background())

	notified := len(h.states)
	fresh := h.c.Refresh()
	require.Len(t, fresh, 1)

	reset := h.states[notified]
	assert.Empty(t, reset.Items)
	assert.Equal(t, 0, reset.Offset)
	assert.True(t, reset.ShouldLoadMore)
	assert.False(t, reset.HasError)

	// the superseded response arrives late and is ignored
	beforeStale := len(h.states)
	assert.Nil(t, h.c.Apply(staleResult))
	assert.Len(t, h.states, beforeStale)
	assert.Empty(t, h.c.State().Items)
	assert.Equal(t, 0, h.c.State().Offset)

	h.pageOnly(fresh)
	s := h.c.State()
	assert.Equal(t, 2, s.Offset)
	assert.Equal(t, 2, s.Reviews())
	assertCountInvariant(t, s)
}

func TestController_Expand(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 2}, 2)
	h.pageOnly(h.c.RequestNextPage())

	id := h.c.State().Items[0].ID()
	before := len(h.states)

	h.c.Expand(id)
	once := h.c.State()
	r, ok := once.Review(id)
	require.True(t, ok)
	assert.True(t, r.Expanded())
	assert.Len(t, h.states, before+1)

	h.c.Expand(id)
	assert.Equal(t, once, h.c.State(), "expand is idempotent")

	t.Run("unknown id", func(t *testing.T) {
		notified := len(h.states)
		h.c.Expand("missing")
		assert.Len(t, h.states, notified)
	})

	t.Run("count item", func(t *testing.T) {
		count, ok := h.c.State().Count()
		require.True(t, ok)

		notified := len(h.states)
		h.c.Expand(count.ID())
		assert.Len(t, h.states, notified)
	})
}

func TestController_Expand_SnapshotsAreNotMutated(t *testing.T) {
	h := newHarness(t, &fakeSource{total: 1}, 1)
	h.pageOnly(h.c.RequestNextPage())

	snapshot := h.last()
	id := snapshot.Items[0].ID()
	h.c.Expand(id)

	r, ok := snapshot.Review(id)
	require.True(t, ok)
	assert.False(t, r.Expanded(), "earlier snapshot must not observe later mutation")
}

func TestController_PhotoJoin(t *testing.T) {
	src := &fakeSource{
		total:  1,
		photos: map[int][]string{0: {"hit", "miss", "broken", "miss2"}},
		assets: map[string][]byte{},
	}
	src.assets["miss"] = pngBytes(t, color.White)
	src.assets["miss2"] = pngBytes(t, color.Black)

	h := newHarness(t, src, 1)
	cached := assets.Image{Source: "hit", Width: 42}
	h.cache.Put("hit", cached)

	follow := h.pageOnly(h.c.RequestNextPage())
	require.Len(t, follow, 1, "one joined task for all photos, no avatar")

	id := h.c.State().Items[0].ID()
	before := len(h.states)

	h.drain(follow)

	require.Len(t, h.states, before+1, "exactly one notification for the photo join")
	r, ok := h.last().Review(id)
	require.True(t, ok)
	require.Len(t, r.Photos, 4)
	assert.Equal(t, cached, r.Photos[0])
	assert.Equal(t, "miss", r.Photos[1].Source)
	assert.False(t, r.Photos[1].Placeholder)
	assert.True(t, r.Photos[2].Placeholder)
	assert.Equal(t, "miss2", r.Photos[3].Source)
	assert.False(t, h.last().HasError, "asset errors never surface")
}

func TestController_Avatar(t *testing.T) {
	src := &fakeSource{
		total:   2,
		avatars: map[int]string{0: "face", 1: "gone"},
		assets:  map[string][]byte{},
	}
	src.assets["face"] = pngBytes(t, color.White)
	h := newHarness(t, src, 2)

	follow := h.pageOnly(h.c.RequestNextPage())
	require.Len(t, follow, 2)
	h.drain(follow)

	s := h.c.State()
	first, _ := s.Review(s.Items[0].ID())
	second, _ := s.Review(s.Items[1].ID())

	require.NotNil(t, first.Avatar)
	assert.Equal(t, "face", first.Avatar.Source)
	require.NotNil(t, second.Avatar)
	assert.Equal(t, assets.DefaultAvatar(), *second.Avatar)
	assert.False(t, s.HasError)
}

func TestController_LatePatchAfterRefreshIsDropped(t *testing.T) {
	src := &fakeSource{
		total:  1,
		photos: map[int][]string{0: {"p"}},
		assets: map[string][]byte{},
	}
	src.assets["p"] = pngBytes(t, color.White)
	h := newHarness(t, src, 1)

	follow := h.pageOnly(h.c.RequestNextPage())
	require.Len(t, follow, 1)
	late := follow[0](context.Background())

	h.pageOnly(h.c.Refresh())
	notified := len(h.states)
	refreshed := h.c.State()

	assert.Empty(t, h.c.Apply(late))
	assert.Len(t, h.states, notified)
	assert.Equal(t, refreshed, h.c.State())
}

func TestController_TapPhoto(t *testing.T) {
	src := &fakeSource{
		total:   1,
		photos:  map[int][]string{0: {"a", "b"}},
		avatars: map[int]string{0: "a"},
		assets:  map[string][]byte{},
	}
	src.assets["a"] = pngBytes(t, color.White)
	src.assets["b"] = pngBytes(t, color.Black)
	h := newHarness(t, src, 1)

	follow := h.pageOnly(h.c.RequestNextPage())
	id := h.c.State().Items[0].ID()

	h.c.TapPhoto(id, 0)
	h.c.TapAvatar(id)
	assert.Empty(t, h.taps, "nothing to show before assets load")

	h.drain(follow)

	h.c.TapPhoto(id, 1)
	require.Len(t, h.taps, 1)
	assert.Equal(t, id, h.taps[0].ItemID)
	assert.Equal(t, 1, h.taps[0].Index)
	assert.Len(t, h.taps[0].Images, 2)

	h.c.TapPhoto(id, 2)
	h.c.TapPhoto(id, -1)
	h.c.TapPhoto("missing", 0)
	assert.Len(t, h.taps, 1)

	h.c.TapAvatar(id)
	require.Len(t, h.taps, 2)
	assert.Equal(t, 0, h.taps[1].Index)
	require.Len(t, h.taps[1].Images, 1)
	assert.Equal(t, "a", h.taps[1].Images[0].Source)
}

func TestController_Dispatch(t *testing.T) {
	src := &fakeSource{total: 3}
	h := newHarness(t, src, 2)

	tasks := h.c.Dispatch(LoadMore{})
	require.Len(t, tasks, 1)
	h.pageOnly(tasks)

	id := h.c.State().Items[0].ID()
	assert.Nil(t, h.c.Dispatch(ShowMore{ItemID: id}))
	r, _ := h.c.State().Review(id)
	assert.True(t, r.Expanded())

	assert.Nil(t, h.c.Dispatch(OpenPhoto{ItemID: id, Index: 0}))
	assert.Nil(t, h.c.Dispatch(OpenAvatar{ItemID: id}))
	assert.Empty(t, h.taps)

	gen := h.c.Generation()
	tasks = h.c.Dispatch(Reload{})
	require.Len(t, tasks, 1)
	assert.Equal(t, gen+1, h.c.Generation())
	assert.Empty(t, h.c.State().Items)
}

func TestController_NilLoaderSkipsAssets(t *testing.T) {
	src := &fakeSource{total: 1, photos: map[int][]string{0: {"p"}}}
	c := NewController(src, nil, Options{PageLimit: 1})

	var follow []Task
	for _, task := range c.RequestNextPage() {
		follow = append(follow, c.Apply(task(context.Background()))...)
	}
	assert.Empty(t, follow)
	assert.Equal(t, 1, c.State().Reviews())
}

func TestPageResult_ErrorWrapsSentinel(t *testing.T) {
	src := &fakeSource{pageErr: fmt.Errorf("boom: %w", review.ErrNotFound)}
	h := newHarness(t, src, 1)

	res := h.c.RequestNextPage()[0](context.Background()).(PageResult)
	assert.True(t, errors.Is(res.Err, review.ErrNotFound))
	assert.Equal(t, uint64(0), res.Gen)
}
