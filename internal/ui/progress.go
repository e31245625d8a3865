package ui

import (
	"fmt"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/minerdash/minerdash/internal/progress"
)

const (
	minBarWidth = 20
	maxBarWidth = 50
)

// ProgressView is a terminal progress bar. It implements progress.Bar so a
// progress.Renderer can drive it.
type ProgressView struct {
	Title string // Name shown left of the bar, e.g. "Generation"

	state   progress.State
	updated bool
	bar     pbar.Model
}

// NewProgressView creates an idle bar
func NewProgressView(title string) *ProgressView {
	v := &ProgressView{Title: title}
	v.SetWidth(GetTerminalWidth())
	return v
}

// SetProgress implements progress.Bar
func (v *ProgressView) SetProgress(s progress.State) {
	v.state = s
	v.updated = true
}

// State returns what the bar currently shows
func (v *ProgressView) State() progress.State {
	return v.state
}

// Updated reports whether any progress has been shown yet
func (v *ProgressView) Updated() bool {
	return v.updated
}

// SetWidth sizes the bar for a terminal of the given width
func (v *ProgressView) SetWidth(width int) {
	barWidth := width - 40 // Leave room for title, percentage and label
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	if barWidth > maxBarWidth {
		barWidth = maxBarWidth
	}
	v.bar = pbar.New(
		pbar.WithDefaultGradient(),
		pbar.WithWidth(barWidth),
		pbar.WithoutPercentage(),
	)
}

// View renders the bar line. marker is drawn in front of active bars; the
// caller animates it.
func (v *ProgressView) View(marker string) string {
	if !v.state.Active {
		marker = IdleMarker
		if v.updated && v.state.Percent == 100 {
			marker = SuccessMarker
		}
	}

	line := fmt.Sprintf("%s %s %4s", marker, v.bar.ViewAs(v.state.Fraction()), v.state.Width())
	if v.state.Label != "" {
		line += "  " + ProgressLabelStyle.Render(v.state.Label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, ProgressTitleStyle.Render(v.Title), line)
}

// String implements fmt.Stringer
func (v *ProgressView) String() string {
	return v.View(ActiveMarker)
}
