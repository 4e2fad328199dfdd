// Package styles provides shared lipgloss v2 styles for CLI and TUI components.
package styles

import (
	"image/color"
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/lucasb-eyer/go-colorful"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Exported color aliases for convenience.
var (
	ColorPrimary    color.Color
	ColorSecondary  color.Color
	ColorForeground color.Color
	ColorMuted      color.Color
	ColorBackground color.Color
	ColorSurface    color.Color
	ColorSuccess    color.Color
	ColorWarning    color.Color
	ColorError      color.Color
	ColorRating     color.Color
)

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style

	// Feed row styles.
	NameStyle      lipgloss.Style
	BodyStyle      lipgloss.Style
	CaptionStyle   lipgloss.Style
	CountStyle     lipgloss.Style
	ShowMoreStyle  lipgloss.Style
	StarStyle      lipgloss.Style
	StarEmptyStyle lipgloss.Style

	SelectedBarStyle lipgloss.Style
	TitleStyle       lipgloss.Style

	// Status line styles.
	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	HelpStyle        lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorForeground = p.Foreground
	ColorMuted = p.Muted
	ColorBackground = p.Background
	ColorSurface = p.Surface
	ColorSuccess = p.Success
	ColorWarning = p.Warning
	ColorError = p.Error
	ColorRating = p.Rating
	if ColorRating == nil {
		ColorRating = p.Warning
	}

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	NameStyle = lipgloss.NewStyle().
		Foreground(ColorForeground).
		Bold(true)
	BodyStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	CaptionStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	CountStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	ShowMoreStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Underline(true)
	StarStyle = lipgloss.NewStyle().
		Foreground(ColorRating)
	StarEmptyStyle = lipgloss.NewStyle().
		Foreground(ColorSurface)

	SelectedBarStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary)
	TitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 2)

	StatusStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)
	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
}

// Stars renders a five star rating. Out of range ratings are clamped.
func Stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return StarStyle.Render(strings.Repeat(IconStarFull, rating)) +
		StarEmptyStyle.Render(strings.Repeat(IconStarEmpty, 5-rating))
}

// Tile returns a style that paints cells in c, the average color of an
// image. Translucent colors are blended over the theme background.
func Tile(c color.RGBA) lipgloss.Style {
	fill, ok := colorful.MakeColor(c)
	if !ok {
		return lipgloss.NewStyle().Background(ColorSurface)
	}
	if c.A < 0xff {
		if bg, ok := colorful.MakeColor(ColorBackground); ok {
			fill = bg.BlendRgb(fill, float64(c.A)/0xff)
		}
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(fill.Clamped().Hex()))
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func colorHexPtr(c color.Color) *string {
	if c == nil {
		return nil
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return nil
	}
	hex := cc.Hex()
	return &hex
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := colorHexPtr(ColorForeground)
	primary := colorHexPtr(ColorPrimary)
	muted := colorHexPtr(ColorMuted)
	rating := colorHexPtr(ColorRating)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = primary
	cfg.H2.Color = fg
	cfg.H3.Color = fg

	cfg.BlockQuote.Color = fg
	cfg.HorizontalRule.Color = muted
	cfg.Emph.Color = muted
	cfg.Strong.Color = rating

	cfg.Link.Color = primary
	cfg.LinkText.Color = primary
	cfg.Image.Color = muted
	cfg.ImageText.Color = muted

	return cfg
}
