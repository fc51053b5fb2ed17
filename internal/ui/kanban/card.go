package kanban

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// cardHeight is the number of lines a rendered card occupies.
const cardHeight = 2

// renderCard draws a task as a title line and a badge line.
func renderCard(t model.Task, selected bool, width int, now time.Time) string {
	title := truncate(t.Title, width-2)

	var badges []string
	if t.Priority != model.PriorityUnset {
		badges = append(badges, theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority)))
	}
	if t.Category != "" {
		badges = append(badges, theme.CategoryStyle(t.CategoryColor).Render("● "+t.Category))
	}
	if t.Deadline != nil {
		state := t.DeadlineState(now)
		badges = append(badges, theme.DeadlineStyle(state).Render(deadlineLabel(*t.Deadline, state, now)))
	}
	if len(t.Tags) > 0 {
		names := t.TagNames()
		// Show max 2 tags to avoid overflow
		if len(names) > 2 {
			names = append(names[:2:2], "…")
		}
		badges = append(badges, lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render("#"+strings.Join(names, " #")))
	}
	meta := strings.Join(badges, " ")
	if meta == "" {
		meta = theme.DimmedStyle.Render(relativeTime(t.CreatedAt, now))
	}

	line := title + "\n" + meta
	if t.IsDone() {
		line = theme.DimmedStyle.Render(title) + "\n" + meta
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// deadlineLabel formats a deadline relative to now.
func deadlineLabel(d time.Time, state model.DeadlineState, now time.Time) string {
	switch state {
	case model.DeadlineOverdue:
		return "overdue " + d.Local().Format("Jan 02")
	case model.DeadlineToday:
		return "due today " + d.Local().Format("15:04")
	}
	if d.Year() != now.Year() {
		return "due " + d.Local().Format("Jan 02 2006")
	}
	return "due " + d.Local().Format("Jan 02")
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// priorityLabel returns a short label for the given priority level.
func priorityLabel(p int) string {
	switch p {
	case model.PriorityCritical:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	case model.PriorityLowest:
		return "P5"
	default:
		return "P?"
	}
}

func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
