package feed

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_SettlesFullLoad(t *testing.T) {
	src := &fakeSource{
		total:   3,
		photos:  map[int][]string{0: {"a", "b"}, 2: {"a"}},
		avatars: map[int]string{1: "b"},
		assets:  map[string][]byte{},
	}
	src.assets["a"] = pngBytes(t, color.White)
	src.assets["b"] = pngBytes(t, color.Black)
	h := newHarness(t, src, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := NewRunner(ctx, h.c.Apply)
	r.Exec(h.c.RequestNextPage()...)
	assert.Equal(t, 1, r.Pending())

	require.NoError(t, r.Settle())
	assert.Equal(t, 0, r.Pending())

	s := h.c.State()
	assert.Equal(t, 3, s.Reviews())
	assert.False(t, s.ShouldLoadMore)

	first, _ := s.Review(s.Items[0].ID())
	assert.Len(t, first.Photos, 2)
	second, _ := s.Review(s.Items[1].ID())
	require.NotNil(t, second.Avatar)
	assert.Equal(t, "b", second.Avatar.Source)
	third, _ := s.Review(s.Items[2].ID())
	assert.Len(t, third.Photos, 1)
}

func TestRunner_StepIdle(t *testing.T) {
	r := NewRunner(context.Background(), func(Result) []Task { return nil })
	assert.False(t, r.Step())
	assert.NoError(t, r.Settle())
}

func TestRunner_SkipsNilTasks(t *testing.T) {
	r := NewRunner(context.Background(), func(Result) []Task { return nil })
	r.Exec(nil, nil)
	assert.Equal(t, 0, r.Pending())
}

func TestRunner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(ctx, func(Result) []Task { return nil })

	block := make(chan struct{})
	defer close(block)
	r.Exec(func(context.Context) Result {
		<-block
		return PhotosResult{}
	})

	cancel()
	assert.ErrorIs(t, r.Settle(), context.Canceled)
	assert.Equal(t, 1, r.Pending())
}

func TestRunner_AppliesFollowUps(t *testing.T) {
	var applied []Result
	r := NewRunner(context.Background(), func(res Result) []Task {
		applied = append(applied, res)
		if _, ok := res.(AvatarResult); ok {
			return []Task{func(context.Context) Result { return PhotosResult{ItemID: "next"} }}
		}
		return nil
	})

	r.Exec(func(context.Context) Result { return AvatarResult{ItemID: "first"} })
	require.NoError(t, r.Settle())

	require.Len(t, applied, 2)
	assert.Equal(t, AvatarResult{ItemID: "first"}, applied[0])
	assert.Equal(t, PhotosResult{ItemID: "next"}, applied[1])
}
