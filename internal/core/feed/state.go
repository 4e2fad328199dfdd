package feed

import "slices"

// DefaultPageLimit is the number of reviews requested per page.
const DefaultPageLimit = 20

// Phase summarizes a State for views.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseError
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// State is a snapshot of the feed.
type State struct {
	Items          []Item
	Offset         int
	PageLimit      int
	ShouldLoadMore bool
	HasError       bool
	// Loading is true while the single page load is in flight.
	Loading bool
}

// NewState returns an empty, loadable state.
func NewState(pageLimit int) State {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return State{PageLimit: pageLimit, ShouldLoadMore: true}
}

// Phase reports where the state machine is.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.HasError:
		return PhaseError
	case !s.ShouldLoadMore:
		return PhaseExhausted
	default:
		return PhaseIdle
	}
}

// Index returns the position of the item with id, or -1.
func (s State) Index(id string) int {
	return slices.IndexFunc(s.Items, func(it Item) bool { return it.ID() == id })
}

// Review returns the review item with id.
func (s State) Review(id string) (ReviewItem, bool) {
	i := s.Index(id)
	if i < 0 {
		return ReviewItem{}, false
	}
	r, ok := s.Items[i].(ReviewItem)
	return r, ok
}

// Reviews returns the number of review items.
func (s State) Reviews() int {
	n := 0
	for _, it := range s.Items {
		if _, ok := it.(ReviewItem); ok {
			n++
		}
	}
	return n
}

// Count returns the trailing count item if present.
func (s State) Count() (CountItem, bool) {
	if len(s.Items) == 0 {
		return CountItem{}, false
	}
	c, ok := s.Items[len(s.Items)-1].(CountItem)
	return c, ok
}

// Clone returns a copy whose item slice is not shared with s.
func (s State) Clone() State {
	s.Items = slices.Clone(s.Items)
	return s
}
