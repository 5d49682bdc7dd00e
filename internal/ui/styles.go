package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/thedittmer/podcast-skill/internal/models"
)

var (
	primaryColor   = lipgloss.Color("#0969DA") // GitHub blue
	secondaryColor = lipgloss.Color("#8250DF") // Purple
	accentColor    = lipgloss.Color("#2DA44E") // Green
	warningColor   = lipgloss.Color("#D29922") // Orange
	errorColor     = lipgloss.Color("#CF222E") // Red
	dimColor       = lipgloss.Color("#6E7681") // Gray
	linkColor      = lipgloss.Color("#58A6FF") // Light blue
	sourceColor    = lipgloss.Color("#FFA657") // Light orange

	// Prefix for every line the skill speaks.
	SpeakerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			SetString("🔊 ")

	SpeechStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	LinkStyle = lipgloss.NewStyle().
			Foreground(linkColor).
			Underline(true)

	SourceStyle = lipgloss.NewStyle().
			Foreground(sourceColor).
			Bold(true)

	ConfidenceStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)
)

// Spoken renders one line the skill said.
func Spoken(text string) string {
	return SpeakerStyle.String() + SpeechStyle.Render(text)
}

// Confidence colors a match tier: green for EXACT down to gray for GENERIC.
func Confidence(c models.Confidence) string {
	switch c {
	case models.Exact:
		return SuccessStyle.Render(c.String())
	case models.Title:
		return ConfidenceStyle.Render(c.String())
	case models.Category:
		return WarningStyle.Render(c.String())
	default:
		return DimStyle.Render(c.String())
	}
}

// MatchLine summarizes a feed selection: name, tier and score.
func MatchLine(m models.Match) string {
	return fmt.Sprintf("%s %s %s",
		SourceStyle.Render(m.Name),
		Confidence(m.Confidence),
		DimStyle.Render(fmt.Sprintf("(%.2f)", m.Score)),
	)
}

// State renders a playback state, highlighted while audio plays.
func State(s models.PlaybackState) string {
	if s == models.StatePlaying {
		return SuccessStyle.Render(string(s))
	}
	return DimStyle.Render(string(s))
}
