package feed

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/review"
)

func TestReviewWord(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{count: 0, want: "отзывов"},
		{count: 1, want: "отзыв"},
		{count: 2, want: "отзыва"},
		{count: 3, want: "отзыва"},
		{count: 4, want: "отзыва"},
		{count: 5, want: "отзывов"},
		{count: 9, want: "отзывов"},
		{count: 10, want: "отзывов"},
		// the rule only looks at the last digit
		{count: 11, want: "отзыв"},
		{count: 12, want: "отзыва"},
		{count: 14, want: "отзыва"},
		{count: 15, want: "отзывов"},
		{count: 21, want: "отзыв"},
		{count: 22, want: "отзыва"},
		{count: 25, want: "отзывов"},
		{count: 101, want: "отзыв"},
		{count: 111, want: "отзыв"},
		{count: -1, want: "отзывов"},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, ReviewWord(tt.count))
		})
	}
}

func TestBuilder_Review(t *testing.T) {
	avatar := "https://example.com/a.png"
	rec := review.Record{
		AvatarURL: &avatar,
		FirstName: "Анна",
		LastName:  "Смирнова",
		Rating:    4,
		PhotoURLs: []string{"p1", "p2"},
		Text:      "Хорошо",
		Created:   "3 марта",
	}

	b := Builder{NewID: func() string { return "fixed" }, MaxLines: 2}
	item := b.Review(rec)

	assert.Equal(t, "fixed", item.ID())
	assert.Equal(t, Fragment{Text: "Анна Смирнова", Style: StyleName}, item.Name)
	assert.Equal(t, Fragment{Text: "Хорошо", Style: StyleBody}, item.Text)
	assert.Equal(t, Fragment{Text: "3 марта", Style: StyleCaption}, item.Created)
	assert.Equal(t, 4, item.Rating)
	assert.Equal(t, avatar, item.AvatarURL)
	assert.Equal(t, []string{"p1", "p2"}, item.PhotoURLs)
	assert.Nil(t, item.Avatar)
	assert.Nil(t, item.Photos)
	assert.Equal(t, 2, item.MaxLines)
	assert.False(t, item.Expanded())

	// the item must not alias the record
	rec.PhotoURLs[0] = "changed"
	assert.Equal(t, "p1", item.PhotoURLs[0])
}

func TestBuilder_Review_MissingParts(t *testing.T) {
	empty := ""
	item := NewReviewItem(review.Record{AvatarURL: &empty, FirstName: "Solo"})

	assert.Equal(t, "Solo", item.Name.Text)
	assert.Empty(t, item.AvatarURL)
	assert.Nil(t, item.PhotoURLs)
	assert.Equal(t, layout.DefaultMaxLines, item.MaxLines)
	assert.NotEmpty(t, item.ID())
}

func TestBuilder_UniqueIDs(t *testing.T) {
	a := NewReviewItem(review.Record{})
	b := NewReviewItem(review.Record{})
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNewCountItem(t *testing.T) {
	c := NewCountItem(21)
	assert.Equal(t, 21, c.Count)
	assert.Equal(t, Fragment{Text: "21 отзыв", Style: StyleCount}, c.Text)
	assert.NotEmpty(t, c.ID())
}

func TestItems_Height(t *testing.T) {
	e := layout.Default()
	r := NewReviewItem(review.Record{FirstName: "A", Text: "text", Created: "today"})

	assert.Equal(t, e.Review(r.Content(), 40).Height, r.Height(e, 40))

	withPhotos := r
	withPhotos.Photos = make([]assets.Image, 2)
	assert.Greater(t, withPhotos.Height(e, 40), r.Height(e, 40))

	c := NewCountItem(3)
	assert.Equal(t, e.Count("3 отзыва", 40).Height, c.Height(e, 40))
}

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func recordNamed(name string) review.Record {
	return review.Record{FirstName: name, Text: "text", Created: "today"}
}
