package styles

// Rating and media glyphs. Kept to plain unicode so they render without a
// patched font.
var (
	IconStarFull  = "★"
	IconStarEmpty = "☆"
	IconPhoto     = "▣"
	IconSpinner   = "◌"
	IconError     = "✗"
	IconDone      = "✓"
)
