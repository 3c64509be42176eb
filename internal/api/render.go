package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelzeko/water-quality/internal/entities"
)

var (
	colorSafe     = lipgloss.Color("#2CD7C7")
	colorPolluted = lipgloss.Color("#E74C3C")
	colorWarning  = lipgloss.Color("#F4D03F")
	colorMuted    = lipgloss.Color("#2C4A54")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	subtitleStyle = lipgloss.NewStyle().Bold(true)
	safeStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorSafe)
	pollutedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPolluted)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)

	infoBox  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSafe).Padding(0, 1)
	errorBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPolluted).Padding(0, 1)
)

// RenderHeader returns the application title block
func RenderHeader() string {
	return titleStyle.Render("💧 Water Quality Prediction") + "\n" +
		mutedStyle.Render("Enter the water quality parameters to predict if the water is safe or polluted according to CPCB guidelines.") + "\n"
}

// RenderResult formats an evaluation the way the form displays it
func RenderResult(res entities.EvaluationResult) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Prediction Result"))
	b.WriteString("\n\n")

	if res.IsSafe() {
		b.WriteString(safeStyle.Render("✅ Water is SAFE"))
		b.WriteString("\n")
		b.WriteString(infoBox.Render(res.Summary))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(pollutedStyle.Render("❌ Water is POLLUTED"))
	b.WriteString("\n")
	b.WriteString(warningStyle.Render("Reasons:"))
	b.WriteString("\n")
	b.WriteString(res.Summary)
	b.WriteString("\n\n")

	b.WriteString(subtitleStyle.Render("Suggested Corrective Actions"))
	b.WriteString("\n")
	for i, s := range res.Suggestions {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}
	return b.String()
}

// RenderError formats a failed evaluation; the user can try again
func RenderError(err error) string {
	return errorBox.Render(fmt.Sprintf("Prediction failed: %v\nPlease try again.", err)) + "\n"
}

// RenderStations formats the station list with the last update time
func RenderStations(stations []string, lastUpdate time.Time) string {
	if len(stations) == 0 {
		return "No station readings available. Run the scrapper to fetch them.\n"
	}

	var b strings.Builder
	b.WriteString("Available stations:\n\n")
	for _, station := range stations {
		b.WriteString("• " + station + "\n")
	}
	b.WriteString(fmt.Sprintf("\n🕒 Last update: %s\n", lastUpdate.Local().Format("2006-01-02 15:04:05")))
	return b.String()
}
