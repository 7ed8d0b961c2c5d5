package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskdash/internal/models"
)

// Color constants for the taskdash theme
const (
	ColorCardBackground = "#1B1530" // Dark purple
	ColorBorder         = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2"
	ColorSecondaryText = "#B1B8C7"
	ColorDisabledText  = "#6D7383"
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240"

	// Accent Colors
	ColorAccentMain   = "#7C3AED" // Active borders, header
	ColorAccentBright = "#A78BFA" // Highlights, focused field

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
	ColorInfo    = "#3B82F6" // Buttons, links
)

// statusColor picks the badge color for a task status
func statusColor(s models.Status) lipgloss.Color {
	switch s {
	case models.StatusDone:
		return lipgloss.Color(ColorSuccess)
	case models.StatusInProgress:
		return lipgloss.Color(ColorWarning)
	case models.StatusPending:
		return lipgloss.Color(ColorSecondaryText)
	default:
		return lipgloss.Color(ColorDisabledText)
	}
}

// statusIcon is the glyph shown next to a status in the table
func statusIcon(s models.Status) string {
	switch s {
	case models.StatusDone:
		return "✓"
	case models.StatusInProgress:
		return "◐"
	default:
		return "○"
	}
}
