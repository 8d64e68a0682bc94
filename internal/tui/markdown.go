package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns persona answers into terminal markdown.
type Renderer struct {
	r *glamour.TermRenderer
}

// NewRenderer returns a markdown renderer. When styled is false, or
// glamour cannot be initialised, Render passes text through unchanged.
func NewRenderer(styled bool, width int) *Renderer {
	if !styled {
		return &Renderer{}
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{r: r}
}

// Render renders markdown, falling back to the raw text on error.
func (r *Renderer) Render(markdown string) string {
	if r == nil || r.r == nil {
		return markdown
	}
	out, err := r.r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}
