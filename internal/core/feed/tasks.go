package feed

import (
	"context"

	"github.com/colonyops/reviews/internal/core/assets"
)

// Task is background work issued by the Controller. It must not touch the
// controller; its Result is handed back through Controller.Apply.
type Task func(ctx context.Context) Result

// Result is the outcome of a Task.
type Result interface {
	result()
}

// PageResult carries a fetched and built page, or the error that stopped it.
type PageResult struct {
	Gen    uint64
	Offset int
	Items  []ReviewItem
	Count  int
	Err    error
}

// PhotosResult carries every photo of one item once all loads resolved.
type PhotosResult struct {
	ItemID string
	Images []assets.Image
}

// AvatarResult carries the resolved avatar of one item.
type AvatarResult struct {
	ItemID string
	Image  assets.Image
}

func (PageResult) result()   {}
func (PhotosResult) result() {}
func (AvatarResult) result() {}
