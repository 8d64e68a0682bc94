// Package tui holds the terminal presentation layer: lipgloss tables and
// panels for the one-shot commands, glamour markdown rendering, the
// spinner shown while a model call is in flight, and the interactive
// chat program.
package tui
