// Package ui renders CLI output with lipgloss: a small [Palette] for headings and status lines, and
// tables for songs and playlists.
//
// Colors degrade to plain text when the output is not a terminal, so rendered strings are safe to
// compare in tests once styling is stripped.
package ui
