package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/theme"
)

// maxTags is how many tags a one-line task shows before eliding.
const maxTags = 2

// CheckMark returns the completion prefix for a task.
func CheckMark(t model.Task) string {
	if t.IsCompleted() {
		return "✓"
	}
	if t.Status == model.StatusInProcess {
		return "◐"
	}
	return "○"
}

// PriorityLabel returns a short label for a priority.
func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	default:
		return "P?"
	}
}

// DueLabel describes a deadline relative to now ("in 3h", "2d overdue").
func DueLabel(deadline time.Time, now time.Time) string {
	d := deadline.Sub(now)
	if d < 0 {
		return shortDuration(-d) + " overdue"
	}
	return "in " + shortDuration(d)
}

func shortDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 14*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw", int(d.Hours()/24/7))
	}
}

// RelativeTime returns a human-friendly "ago" string.
func RelativeTime(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return shortDuration(now.Sub(t)) + " ago"
}

// TaskLine renders a task on a single line: status mark, priority,
// title, recurrence, tags and deadline.
func TaskLine(t model.Task, now time.Time, showStatus bool) string {
	accent := lipgloss.NewStyle().Foreground(theme.AccentColor(t.Color)).Render("▌")

	parts := []string{accent + CheckMark(t)}
	if showStatus {
		parts = append(parts, theme.StatusStyle(t.Status).Render(string(t.Status)))
	}
	parts = append(parts, theme.PriorityStyle(t.Priority).Render(PriorityLabel(t.Priority)))

	title := t.Title
	if t.IsCompleted() {
		title = theme.DimmedStyle.Render(title)
	}
	parts = append(parts, title)

	if t.Recurring != nil {
		parts = append(parts, theme.MutedStyle.Render("↻ "+t.Recurring.String()))
	}
	if len(t.Tags) > 0 {
		tags := t.Tags
		if len(tags) > maxTags {
			tags = append(tags[:maxTags:maxTags], "…")
		}
		parts = append(parts, theme.TagStyle.Render("#"+strings.Join(tags, " #")))
	}
	if t.Deadline != nil {
		label := t.Deadline.In(now.Location()).Format("Jan 02 15:04")
		if t.IsOverdue(now) {
			parts = append(parts, theme.OverdueStyle.Render(label+" OVERDUE"))
		} else {
			parts = append(parts, theme.DueDateStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

// Truncate shortens s to width cells, adding an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// Centered renders msg in the middle of a width×height box.
func Centered(msg string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(msg)
}
