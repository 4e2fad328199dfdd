package feed

import "github.com/colonyops/reviews/internal/core/assets"

// Command is an intent emitted by a view and routed through
// Controller.Dispatch.
type Command interface {
	command()
}

type (
	// ShowMore expands the text of a review.
	ShowMore struct{ ItemID string }
	// OpenPhoto asks for the photo viewer at Index of a review's photos.
	OpenPhoto struct {
		ItemID string
		Index  int
	}
	// OpenAvatar asks for the photo viewer showing a review's avatar.
	OpenAvatar struct{ ItemID string }
	// LoadMore requests the next page.
	LoadMore struct{}
	// Reload resets the feed and loads the first page.
	Reload struct{}
)

func (ShowMore) command()   {}
func (OpenPhoto) command()  {}
func (OpenAvatar) command() {}
func (LoadMore) command()   {}
func (Reload) command()     {}

// PhotoTap is emitted when a photo or avatar is tapped. The viewer itself
// lives outside the feed.
type PhotoTap struct {
	ItemID string
	Index  int
	Images []assets.Image
}
