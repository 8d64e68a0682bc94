package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"   __ _  __ _| |_ ___| | _____  ___ _ __  ",
	"  / _` |/ _` | __/ _ \\ |/ / _ \\/ _ \\ '_ \\ ",
	" | (_| | (_| | ||  __/   <  __/  __/ |_) |",
	"  \\__, |\\__,_|\\__\\___|_|\\_\\___|\\___| .__/ ",
	"  |___/                            |_|    ",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the gatekeep banner to w with a vertical gradient.
// Colors are dropped when w is not a terminal.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).Profile

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		s := p.String(line).Foreground(p.Color(bannerColors[i%len(bannerColors)]))
		fmt.Fprintln(w, s)
	}
	fmt.Fprintln(w, p.String("  AI governance with specialized personas").Faint())
	fmt.Fprintln(w)
}
