package feed

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/review"
)

// Builder converts decoded records into display items. It has no side
// effects beyond generating ids and is safe for concurrent use.
type Builder struct {
	// NewID generates item ids. Defaults to random UUIDs.
	NewID func() string
	// MaxLines is the text clamp for new review items.
	MaxLines int
}

// NewBuilder returns a builder clamping text at maxLines.
func NewBuilder(maxLines int) Builder {
	return Builder{NewID: uuid.NewString, MaxLines: maxLines}
}

func (b Builder) id() string {
	if b.NewID == nil {
		return uuid.NewString()
	}
	return b.NewID()
}

// Review builds a review item with its assets left unloaded.
func (b Builder) Review(rec review.Record) ReviewItem {
	name := strings.TrimSpace(rec.FirstName + " " + rec.LastName)

	var avatarURL string
	if rec.HasAvatar() {
		avatarURL = rec.Avatar()
	}

	var photos []string
	if len(rec.PhotoURLs) > 0 {
		photos = make([]string, len(rec.PhotoURLs))
		copy(photos, rec.PhotoURLs)
	}

	return ReviewItem{
		id:        b.id(),
		Name:      Fragment{Text: name, Style: StyleName},
		Text:      Fragment{Text: rec.Text, Style: StyleBody},
		Created:   Fragment{Text: rec.Created, Style: StyleCaption},
		Rating:    rec.Rating,
		AvatarURL: avatarURL,
		PhotoURLs: photos,
		MaxLines:  b.MaxLines,
	}
}

// Count builds the summary item for count reviews.
func (b Builder) Count(count int) CountItem {
	return CountItem{
		id:    b.id(),
		Count: count,
		Text:  Fragment{Text: strconv.Itoa(count) + " " + ReviewWord(count), Style: StyleCount},
	}
}

// NewReviewItem builds a review item with the default clamp.
func NewReviewItem(rec review.Record) ReviewItem {
	return NewBuilder(layout.DefaultMaxLines).Review(rec)
}

// NewCountItem builds a count item.
func NewCountItem(count int) CountItem {
	return NewBuilder(layout.DefaultMaxLines).Count(count)
}

// ReviewWord returns the form of "review" agreeing with count. The choice
// looks only at the last decimal digit, so 11 takes the singular form like 1.
// Negative counts follow Go's remainder sign and take the plural form.
func ReviewWord(count int) string {
	switch count % 10 {
	case 1:
		return "отзыв"
	case 2, 3, 4:
		return "отзыва"
	default:
		return "отзывов"
	}
}
