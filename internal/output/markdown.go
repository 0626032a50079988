package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

const defaultWrap = 80

// Markdown renders md for the terminal. Width <= 0 wraps at 80 columns.
// Rendering failures fall back to the raw text.
func Markdown(md string, width int) string {
	if width <= 0 {
		width = defaultWrap
	}
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle(styles.NoTTYStyle)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return ensureNewline(md)
	}
	out, err := r.Render(md)
	if err != nil {
		return ensureNewline(md)
	}
	return out
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
