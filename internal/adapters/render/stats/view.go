// Package stats renders the account and collection dashboard.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/potato-cli/internal/application"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

func renderView(d application.Dashboard, s styles) string {
	lines := []string{s.title.Render("Potato Dashboard")}
	if !d.GeneratedAt.IsZero() {
		lines = append(lines, s.header.Render("as of "+d.GeneratedAt.Format(time.RFC3339)))
	}

	lines = append(lines,
		s.section.Render(renderAccounts(d, s)),
		s.section.Render(renderCollection(d, s)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccounts(d application.Dashboard, st styles) string {
	a := d.Accounts
	parts := []string{st.heading.Render("Accounts")}
	if a.Total == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, st.empty.Render("No accounts yet."))...)
	}

	parts = append(parts,
		row(st, "total:", fmt.Sprintf("%d", a.Total)),
		row(st, "online:", shareLine(a.Online, a.Total, st)),
		row(st, "registered today:", fmt.Sprintf("%d", a.RegisteredToday)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderCollection(d application.Dashboard, st styles) string {
	c := d.Collection
	parts := []string{st.heading.Render("Collected users")}
	if c.Total == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, st.empty.Render("No collected users yet."))...)
	}

	parts = append(parts,
		row(st, "total:", fmt.Sprintf("%d", c.Total)),
		row(st, "nearby:", fmt.Sprintf("%d", c.Nearby)),
		row(st, "group:", fmt.Sprintf("%d", c.Group)),
	)
	if c.Group > 0 {
		parts = append(parts, row(st, "active members:", shareLine(c.Active, c.Group, st)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func row(st styles, key, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, st.key.Render(key), st.value.Render(value))
}

func shareLine(part, total int, st styles) string {
	percent := 0.0
	if total > 0 {
		percent = float64(part) / float64(total) * 100
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		fmt.Sprintf("%d/%d", part, total),
		" ",
		renderBar(percent, barWidth, st),
		" ",
		fmt.Sprintf("%.0f%%", percent),
	)
}

func renderBar(percent float64, width int, st styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	filled = max(0, min(filled, width))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		st.barBracket.Render("["),
		st.barFill.Render(strings.Repeat("=", filled)),
		st.barEmpty.Render(strings.Repeat("-", width-filled)),
		st.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
