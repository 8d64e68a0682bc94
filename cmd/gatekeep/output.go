package main

import (
	"fmt"
	"io"

	"github.com/gatekeep-ai/gatekeep/internal/scaffold"
)

// printStep prints one init step, dimming skipped paths.
func printStep(w io.Writer, s scaffold.Step) {
	if s.Action == scaffold.Skipped {
		fmt.Fprintln(w, faint.Sprint(s.Message()))
		return
	}
	fmt.Fprintln(w, green.Sprint(s.Message()))
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
