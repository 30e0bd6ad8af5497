package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the grid uses.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	infoStyle     = lipgloss.NewStyle().Foreground(colorInfo)
	dimStyle      = lipgloss.NewStyle().Foreground(colorOverlay0)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	sortStyle     = lipgloss.NewStyle().Foreground(colorPeach)
	focusRowStyle = lipgloss.NewStyle().Background(colorSurface0).Foreground(colorText)
	focusCell     = lipgloss.NewStyle().Background(colorSurface1).Foreground(colorFocus).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	disabledStyle = lipgloss.NewStyle().Foreground(colorOverlay0).Strikethrough(true)
	editStyle     = lipgloss.NewStyle().Foreground(colorWarning).Underline(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorSubtext0).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
)
