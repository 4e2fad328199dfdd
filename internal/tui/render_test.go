package tui

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/feed"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/core/styles"
	"github.com/colonyops/reviews/pkg/tuitest"
)

func testReview(text string, photos int) feed.ReviewItem {
	r := feed.NewReviewItem(review.Record{
		FirstName: "Мария",
		LastName:  "Петрова",
		Rating:    4,
		Text:      text,
		Created:   "12 мая",
	})
	for range photos {
		r.Photos = append(r.Photos, assets.Image{Source: "p.png", Width: 8, Height: 8, Average: color.RGBA{G: 200, A: 255}})
	}
	return r
}

func TestRenderItem_HeightMatchesLayout(t *testing.T) {
	e := layout.Default()
	items := []feed.Item{
		testReview("коротко", 0),
		testReview(strings.Repeat("длинный текст ", 30), 2),
		feed.NewCountItem(23),
	}

	for _, width := range []int{30, 60, 100} {
		for _, it := range items {
			out := renderItem(it, e, width, false)
			assert.Len(t, strings.Split(out, "\n"), it.Height(e, width), "item %T at width %d", it, width)
		}
	}
}

func TestRenderReview_Content(t *testing.T) {
	e := layout.Default()
	r := testReview(strings.Repeat("длинный текст ", 30), 3)

	out := tuitest.StripANSI(renderReview(r, e, 60, false))

	assert.Contains(t, out, "Мария Петрова")
	assert.Contains(t, out, strings.Repeat(styles.IconStarFull, 4)+styles.IconStarEmpty)
	assert.Contains(t, out, layout.ShowMoreLabel)
	assert.Contains(t, out, "12 мая")
	assert.Contains(t, out, "М", "avatar initial")
	for _, n := range []string{"1", "2", "3"} {
		assert.Contains(t, out, n, "photo label")
	}
	assert.NotContains(t, out, selectedBar)
}

func TestRenderReview_Selected(t *testing.T) {
	e := layout.Default()
	r := testReview("text", 0)

	lines := strings.Split(tuitest.StripANSI(renderReview(r, e, 40, true)), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, selectedBar), "line %q", line)
	}
}

func TestRenderCount_Centered(t *testing.T) {
	e := layout.Default()
	c := feed.NewCountItem(5)

	out := tuitest.StripANSI(renderCount(c, e, 40))
	l := c.Layout(e, 40)

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), l.Label.Y)
	assert.Equal(t, strings.Repeat(" ", l.Label.X)+"5 отзывов", lines[l.Label.Y])
}

func TestInitial(t *testing.T) {
	assert.Equal(t, "М", initial("мария"))
	assert.Equal(t, "A", initial("  42 ann"))
	assert.Empty(t, initial("123"))
}
