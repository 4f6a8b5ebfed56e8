package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	ToolbarHeight   int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// The header, toolbar and status bar are one line each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		ToolbarHeight:   1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.ToolbarHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar with a title on the left and a
// status string on the right.
func (l Layout) RenderHeader(title string, status string) string {
	return l.fill(theme.HeaderStyle, title, status)
}

// RenderToolbar renders the view tabs followed by a summary of the
// active filter and completion stats.
func (l Layout) RenderToolbar(tabs []string, active int, summary string) string {
	var parts []string
	for i, t := range tabs {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(theme.ColorGray)
		if i == active {
			style = style.Bold(true).Foreground(theme.ColorBlue).Underline(true)
		}
		parts = append(parts, style.Render(t))
	}
	left := strings.Join(parts, "")
	right := theme.MutedStyle.Render(summary)

	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.fill(theme.StatusBarStyle, hints, "")
}

func (l Layout) fill(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}

// RenderWithFrame stacks the header, toolbar, content and status bar.
func (l Layout) RenderWithFrame(
	header string,
	toolbar string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		toolbar,
		content,
		statusBar,
	)
}
