// Package display provides terminal output formatting for reelfeed.
package display

import (
	"fmt"
	"strings"

	"github.com/gauthierbraillon/reelfeed/internal/card"
	"github.com/gauthierbraillon/reelfeed/internal/comments"
	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/media"
)

const (
	separator     = " • "
	maxTitleWidth = 72
)

// TerminalFormatter formats cards for terminal display.
type TerminalFormatter struct{}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{}
}

// FormatCard formats one card. Text fields are printed literally.
func (f *TerminalFormatter) FormatCard(h *card.Handle, playing bool) string {
	v := h.Video()
	var lines []string

	// Header: [▶] Title
	marker := "[ ]"
	if playing {
		marker = "[▶]"
	}
	title := v.Title
	if title == "" {
		title = "Untitled"
	}
	lines = append(lines, fmt.Sprintf("%s %s", marker, f.TruncateText(sanitize(title), maxTitleWidth)))

	// Publisher, genre and rating
	if meta := joinNonEmpty(sanitize(v.Publisher), sanitize(v.Genre), sanitize(v.AgeRating)); meta != "" {
		lines = append(lines, "  by "+meta)
	}
	if producer := sanitize(v.Producer); producer != "" {
		lines = append(lines, "  produced by "+producer)
	}

	lines = append(lines, "  "+f.formatInteractions(h))

	if v.MediaURL != "" {
		kind := "file"
		if media.IsAdaptive(v.MediaURL) {
			kind = "stream"
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", kind, v.MediaURL))
	}

	return strings.Join(lines, "\n") + "\n"
}

func (f *TerminalFormatter) formatInteractions(h *card.Handle) string {
	like := h.Like()
	heart := "♡"
	if like.Liked {
		heart = "♥"
	}
	follow := "follow"
	if h.Follow().Following {
		follow = "following"
	}
	return strings.Join([]string{
		fmt.Sprintf("%s %s", heart, pluralize(like.Count, "like")),
		follow,
	}, separator)
}

// FormatFeed formats cards in order, marking the playing one.
func (f *TerminalFormatter) FormatFeed(cards []*card.Handle, playingID string) string {
	if len(cards) == 0 {
		return "No videos found.\n"
	}

	var formatted []string
	for _, c := range cards {
		formatted = append(formatted, f.FormatCard(c, c.ID() == playingID))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// FormatComments formats a comments panel.
func (f *TerminalFormatter) FormatComments(view comments.View) string {
	if view.Unavailable || len(view.Comments) == 0 {
		return "  No comments\n"
	}
	var b strings.Builder
	for _, c := range view.Comments {
		fmt.Fprintf(&b, "  %s: %s\n", sanitize(c.Author()), sanitize(c.Text))
	}
	return b.String()
}

// FormatDashboard formats the publisher's videos as a table.
func (f *TerminalFormatter) FormatDashboard(entries []gateway.DashboardEntry) string {
	if len(entries) == 0 {
		return "No videos yet.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-32s %-12s %-10s %7s %6s  %s\n", "TITLE", "STATUS", "CREATED", "VIEWS", "RATING", "ID")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-32s %-12s %-10s %7s %6s  %s\n",
			f.TruncateText(sanitize(e.Title), 32),
			f.TruncateText(sanitize(e.Status), 12),
			sanitize(e.CreatedDate()),
			e.ViewsText(),
			e.RatingText(),
			sanitize(e.ID))
	}
	return b.String()
}

// FormatVariants lists adaptive renditions.
func (f *TerminalFormatter) FormatVariants(variants []media.Variant) string {
	if len(variants) == 0 {
		return ""
	}
	parts := make([]string, 0, len(variants))
	for _, v := range variants {
		label := v.Resolution
		if label == "" {
			label = "auto"
		}
		parts = append(parts, fmt.Sprintf("%s@%dkbps", label, v.Bandwidth/1000))
	}
	return "  qualities: " + strings.Join(parts, ", ") + "\n"
}

// pluralize returns "N unit" or "N units" based on count.
func pluralize(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}

// sanitize drops control characters so server text cannot drive the terminal.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return -1
		}
		return r
	}, s)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, separator)
}
