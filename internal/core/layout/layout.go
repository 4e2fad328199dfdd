// Package layout computes the geometry of feed rows in terminal cells.
//
// The engine is a pure function of its inputs: the same content and width
// always produce the same rectangles and height. A review row is a vertical
// stack: avatar beside the wrapped name, rating row, optional photo strip,
// body text clamped to a line count with an optional "show more" label,
// and the created date.
package layout

import "github.com/charmbracelet/x/ansi"

// Unlimited disables clamping of the review text.
const Unlimited = 0

// DefaultMaxLines is the clamp applied to new review rows.
const DefaultMaxLines = 3

// ShowMoreLabel is the affordance shown under clamped text.
const ShowMoreLabel = "Показать полностью..."

// Size is a width and height in cells.
type Size struct {
	W int
	H int
}

// Insets are the distances from a row's edges to its content.
type Insets struct {
	Top    int
	Left   int
	Bottom int
	Right  int
}

// Rect is a positioned region of a row. The zero Rect means "not present".
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Bottom returns the first row below r.
func (r Rect) Bottom() int { return r.Y + r.H }

// Right returns the first column right of r.
func (r Rect) Right() int { return r.X + r.W }

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Metrics holds every size and spacing the engine uses.
type Metrics struct {
	Insets Insets

	AvatarSize       Size
	AvatarToUsername int // horizontal
	UsernameToRating int

	RatingSize     Size
	RatingToText   int // used when there are no photos
	RatingToPhotos int

	PhotoSize     Size
	PhotosSpacing int // horizontal
	PhotosToText  int

	LineHeight        int
	TextToCreated     int // text to created date or to the show-more label
	ShowMoreToCreated int
	ShowMoreLabel     string
}

// DefaultMetrics returns the metrics used by the terminal view.
func DefaultMetrics() Metrics {
	return Metrics{
		Insets:            Insets{Top: 1, Left: 2, Bottom: 1, Right: 2},
		AvatarSize:        Size{W: 4, H: 2},
		AvatarToUsername:  2,
		UsernameToRating:  0,
		RatingSize:        Size{W: 5, H: 1},
		RatingToText:      1,
		RatingToPhotos:    1,
		PhotoSize:         Size{W: 6, H: 3},
		PhotosSpacing:     1,
		PhotosToText:      1,
		LineHeight:        1,
		TextToCreated:     1,
		ShowMoreToCreated: 0,
		ShowMoreLabel:     ShowMoreLabel,
	}
}

// ReviewContent is the part of a review row that affects its geometry.
type ReviewContent struct {
	Name     string
	Text     string
	Created  string
	Photos   int
	MaxLines int
}

// ReviewLayout is the computed geometry of a review row.
type ReviewLayout struct {
	Avatar   Rect
	Username Rect
	Rating   Rect
	Photos   []Rect
	Text     Rect
	ShowMore Rect
	Created  Rect

	// ContentWidth is the width the name and text were wrapped to.
	ContentWidth int
	// TextLines is the number of text lines visible after clamping.
	TextLines    int
	HasShowMore  bool
	Height       int
}

// CountLayout is the computed geometry of the review count row.
type CountLayout struct {
	Label  Rect
	Height int
}

// Engine lays out rows with a fixed set of Metrics.
type Engine struct {
	m Metrics
}

// New creates an engine with the given metrics.
func New(m Metrics) Engine {
	if m.LineHeight <= 0 {
		m.LineHeight = 1
	}
	return Engine{m: m}
}

// Default returns an engine using DefaultMetrics.
func Default() Engine {
	return New(DefaultMetrics())
}

// Metrics returns the engine's metrics.
func (e Engine) Metrics() Metrics {
	return e.m
}

// Review lays out a review row for the given total row width.
func (e Engine) Review(c ReviewContent, maxWidth int) ReviewLayout {
	m := e.m
	left := m.Insets.Left + m.AvatarSize.W + m.AvatarToUsername
	width := max(maxWidth-left-m.Insets.Right, 1)

	l := ReviewLayout{ContentWidth: width}
	y := m.Insets.Top

	l.Avatar = Rect{X: m.Insets.Left, Y: y, W: m.AvatarSize.W, H: m.AvatarSize.H}

	name := Measure(c.Name, width)
	l.Username = Rect{X: left, Y: y, W: name.W, H: name.H * m.LineHeight}
	y = l.Username.Bottom() + m.UsernameToRating

	l.Rating = Rect{X: left, Y: y, W: m.RatingSize.W, H: m.RatingSize.H}
	y = l.Rating.Bottom() + m.RatingToText

	if c.Photos > 0 {
		y = l.Rating.Bottom() + m.RatingToPhotos
		l.Photos = make([]Rect, c.Photos)
		x := left
		for i := range l.Photos {
			if i > 0 {
				x += m.PhotoSize.W + m.PhotosSpacing
			}
			l.Photos[i] = Rect{X: x, Y: y, W: m.PhotoSize.W, H: m.PhotoSize.H}
		}
		y = l.Photos[0].Bottom() + m.PhotosToText
	}

	if c.Text != "" {
		lines := Wrap(c.Text, width)
		actual := len(lines) * m.LineHeight

		visible := len(lines)
		if c.MaxLines > Unlimited {
			clamp := c.MaxLines * m.LineHeight
			l.HasShowMore = actual > clamp
			visible = min(visible, c.MaxLines)
		}

		textWidth := 0
		for _, line := range lines[:visible] {
			textWidth = max(textWidth, ansi.StringWidth(line))
		}

		l.TextLines = visible
		l.Text = Rect{X: left, Y: y, W: textWidth, H: visible * m.LineHeight}
		y = l.Text.Bottom() + m.TextToCreated
	}

	if l.HasShowMore {
		l.ShowMore = Rect{X: left, Y: y, W: ansi.StringWidth(m.ShowMoreLabel), H: m.LineHeight}
		y = l.ShowMore.Bottom() + m.ShowMoreToCreated
	}

	created := Measure(c.Created, width)
	l.Created = Rect{X: left, Y: y, W: created.W, H: created.H * m.LineHeight}

	l.Height = l.Created.Bottom() + m.Insets.Bottom
	return l
}

// Count lays out the review count row: one label centered horizontally.
func (e Engine) Count(text string, maxWidth int) CountLayout {
	m := e.m
	width := max(maxWidth-m.Insets.Left-m.Insets.Right, 1)
	size := Measure(text, width)

	label := Rect{
		X: m.Insets.Left + (width-size.W)/2,
		Y: m.Insets.Top,
		W: size.W,
		H: size.H * m.LineHeight,
	}
	return CountLayout{Label: label, Height: label.Bottom() + m.Insets.Bottom}
}
