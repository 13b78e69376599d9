package format

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles used by text output.
type Theme struct {
	LaneHeader     lipgloss.Style
	DoneLaneHeader lipgloss.Style
	Collapsed      lipgloss.Style
	Open           lipgloss.Style
	Done           lipgloss.Style
	Muted          lipgloss.Style
}

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}
	colorDone   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// NewTheme configures the colour profile and returns the default styles. noColor forces plain
// output; NO_COLOR in the environment does the same.
func NewTheme(noColor bool) Theme {
	applyColorProfile(noColor)
	return Theme{
		LaneHeader:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		DoneLaneHeader: lipgloss.NewStyle().Bold(true).Foreground(colorDone),
		Collapsed:      lipgloss.NewStyle().Faint(true),
		Open:           lipgloss.NewStyle(),
		Done:           lipgloss.NewStyle().Foreground(colorMuted).Faint(true),
		Muted:          lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// applyColorProfile sets Lip Gloss's color profile for CLI output. Unlike an interactive
// program, piped output honors CLICOLOR/CLICOLOR_FORCE via termenv.EnvColorProfile.
func applyColorProfile(noColor bool) {
	if noColor || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}
