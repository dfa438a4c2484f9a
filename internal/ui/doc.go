// Package ui styles CLI output with lipgloss.
//
// [Palette] holds the named styles; [Styles] is the shared default. Listings are drawn with
// [Palette.Table] and single records with [Palette.KeyValue]. Machine-readable output (--json)
// bypasses this package entirely.
package ui
