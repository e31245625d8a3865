// Package ui is the terminal rendering host of the dashboard.
//
// It provides the concrete widgets the settings and progress packages
// render into:
//
//   - SelectorList implements settings.Container, one line per subsystem
//   - ProgressView implements progress.Bar on top of bubbles/progress
//   - Model is the Bubble Tea program tying both to the live channel
//
// Transport callbacks run on their own goroutines. They are forwarded
// through Events into the Bubble Tea update loop, which is the only place
// panel and renderer state change.
//
// Printer, Header and Result are used by the one-shot commands (levels,
// discover) to print styled output without starting a program.
package ui
