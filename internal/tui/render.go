package tui

import (
	"strconv"
	"strings"
	"unicode"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/feed"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/styles"
)

const selectedBar = "▌"

// renderItem draws one row. The result has exactly Height(e, width) lines.
func renderItem(it feed.Item, e layout.Engine, width int, selected bool) string {
	switch it := it.(type) {
	case feed.ReviewItem:
		return renderReview(it, e, width, selected)
	case feed.CountItem:
		return renderCount(it, e, width)
	default:
		return ""
	}
}

func renderReview(r feed.ReviewItem, e layout.Engine, width int, selected bool) string {
	l := r.Layout(e, width)
	canvas := lipgloss.NewCanvas(width, l.Height)

	avatar := assets.DefaultAvatar()
	if r.Avatar != nil {
		avatar = *r.Avatar
	}
	canvas.Compose(tile(l.Avatar, avatar, initial(r.Name.Text)))

	canvas.Compose(text(l.Username, styles.NameStyle, layout.Wrap(r.Name.Text, l.ContentWidth)))
	canvas.Compose(lipgloss.NewLayer(styles.Stars(r.Rating)).X(l.Rating.X).Y(l.Rating.Y))

	for i, rect := range l.Photos {
		label := ""
		if i < 9 {
			label = strconv.Itoa(i + 1)
		}
		canvas.Compose(tile(rect, r.Photos[i], label))
	}

	if l.TextLines > 0 {
		lines := layout.Wrap(r.Text.Text, l.ContentWidth)
		canvas.Compose(text(l.Text, styles.BodyStyle, lines[:l.TextLines]))
	}
	if l.HasShowMore {
		canvas.Compose(text(l.ShowMore, styles.ShowMoreStyle, []string{e.Metrics().ShowMoreLabel}))
	}
	canvas.Compose(text(l.Created, styles.CaptionStyle, layout.Wrap(r.Created.Text, l.ContentWidth)))

	if selected {
		bar := strings.TrimSuffix(strings.Repeat(selectedBar+"\n", l.Height), "\n")
		canvas.Compose(lipgloss.NewLayer(styles.SelectedBarStyle.Render(bar)))
	}

	return canvas.Render()
}

func renderCount(c feed.CountItem, e layout.Engine, width int) string {
	l := c.Layout(e, width)
	canvas := lipgloss.NewCanvas(width, l.Height)
	canvas.Compose(text(l.Label, styles.CountStyle, layout.Wrap(c.Text.Text, l.Label.W)))
	return canvas.Render()
}

// text places lines at the top left corner of rect.
func text(rect layout.Rect, style lipgloss.Style, lines []string) *lipgloss.Layer {
	return lipgloss.NewLayer(style.Render(strings.Join(lines, "\n"))).X(rect.X).Y(rect.Y)
}

// tile fills rect with the image's average color and centers label on it.
func tile(rect layout.Rect, img assets.Image, label string) *lipgloss.Layer {
	block := styles.Tile(img.Average).
		Foreground(styles.ColorForeground).
		Width(rect.W).
		Height(rect.H).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(label)
	return lipgloss.NewLayer(block).X(rect.X).Y(rect.Y)
}

func initial(name string) string {
	for _, r := range name {
		if unicode.IsLetter(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}
