package feed

import (
	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/layout"
)

// TextStyle tags a text fragment with its presentation role. Views map
// styles onto concrete colors and weights.
type TextStyle int

const (
	StyleBody TextStyle = iota
	StyleName
	StyleCaption
	StyleCount
)

// Fragment is a piece of display text with its style.
type Fragment struct {
	Text  string
	Style TextStyle
}

// Item is a row of the feed. The set of implementations is closed:
// ReviewItem and CountItem.
type Item interface {
	ID() string
	Height(e layout.Engine, width int) int
	item()
}

// ReviewItem is a displayable review. It is a value type; the controller
// replaces items rather than mutating them, so snapshots stay consistent.
type ReviewItem struct {
	id string

	Name    Fragment
	Text    Fragment
	Created Fragment
	Rating  int

	AvatarURL string
	PhotoURLs []string

	// Avatar is nil until the avatar load resolves.
	Avatar *assets.Image
	// Photos is nil until every photo load for the item has resolved.
	Photos []assets.Image

	MaxLines int
}

func (ReviewItem) item() {}

// ID returns the item's stable identity.
func (r ReviewItem) ID() string { return r.id }

// Expanded reports whether the text is shown without a line clamp.
func (r ReviewItem) Expanded() bool { return r.MaxLines == layout.Unlimited }

// Content returns the geometry-relevant part of the item.
func (r ReviewItem) Content() layout.ReviewContent {
	return layout.ReviewContent{
		Name:     r.Name.Text,
		Text:     r.Text.Text,
		Created:  r.Created.Text,
		Photos:   len(r.Photos),
		MaxLines: r.MaxLines,
	}
}

// Layout computes the row geometry at width.
func (r ReviewItem) Layout(e layout.Engine, width int) layout.ReviewLayout {
	return e.Review(r.Content(), width)
}

// Height returns the row height at width.
func (r ReviewItem) Height(e layout.Engine, width int) int {
	return r.Layout(e, width).Height
}

// CountItem summarizes the total number of reviews. At most one exists in a
// State and it is always the last item.
type CountItem struct {
	id    string
	Count int
	Text  Fragment
}

func (CountItem) item() {}

// ID returns the item's identity.
func (c CountItem) ID() string { return c.id }

// Layout computes the row geometry at width.
func (c CountItem) Layout(e layout.Engine, width int) layout.CountLayout {
	return e.Count(c.Text.Text, width)
}

// Height returns the row height at width.
func (c CountItem) Height(e layout.Engine, width int) int {
	return c.Layout(e, width).Height
}
