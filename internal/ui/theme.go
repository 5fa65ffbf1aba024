package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/dvdbackup/internal/config"
)

// Catppuccin Mocha palette, mutable so config can override.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorTeal   = lipgloss.Color("#94e2d5")
	ColorMauve  = lipgloss.Color("#cba6f7")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorDim    = lipgloss.Color("#3a4055")
	ColorBright = lipgloss.Color("#cdd6f4")
)

// Pre-built styles, rebuilt by rebuildStyles() after color changes.
var (
	styleHeader         lipgloss.Style
	styleLabel          lipgloss.Style
	styleIconDone       lipgloss.Style
	styleIconFailed     lipgloss.Style
	styleIconSkipped    lipgloss.Style
	styleFileName       lipgloss.Style
	styleCount          lipgloss.Style
	styleMuted          lipgloss.Style
	styleSpeed          lipgloss.Style
	styleWarn           lipgloss.Style
	styleError          lipgloss.Style
	styleSparkline      lipgloss.Style
	styleProgressFilled lipgloss.Style
	styleProgressEmpty  lipgloss.Style
)

func init() {
	rebuildStyles()
}

// rebuildStyles reconstructs all lipgloss styles from the current color vars.
func rebuildStyles() {
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorMauve)
	styleLabel = lipgloss.NewStyle().Foreground(ColorBlue)
	styleIconDone = lipgloss.NewStyle().Foreground(ColorGreen)
	styleIconFailed = lipgloss.NewStyle().Foreground(ColorRed)
	styleIconSkipped = lipgloss.NewStyle().Foreground(ColorMuted)
	styleFileName = lipgloss.NewStyle().Foreground(ColorBright)
	styleCount = lipgloss.NewStyle().Bold(true).Foreground(ColorBright)
	styleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	styleSpeed = lipgloss.NewStyle().Foreground(ColorTeal)
	styleWarn = lipgloss.NewStyle().Foreground(ColorYellow)
	styleError = lipgloss.NewStyle().Foreground(ColorRed)
	styleSparkline = lipgloss.NewStyle().Foreground(ColorBlue)
	styleProgressFilled = lipgloss.NewStyle().Foreground(ColorGreen)
	styleProgressEmpty = lipgloss.NewStyle().Foreground(ColorDim)
}

// ApplyTheme overrides colors from a config ThemeConfig and rebuilds all styles.
func ApplyTheme(tc config.ThemeConfig) {
	set := func(dst *lipgloss.Color, v *string) {
		if v != nil {
			*dst = lipgloss.Color(*v)
		}
	}
	set(&ColorGreen, tc.Green)
	set(&ColorBlue, tc.Blue)
	set(&ColorYellow, tc.Yellow)
	set(&ColorRed, tc.Red)
	set(&ColorTeal, tc.Teal)
	set(&ColorMauve, tc.Mauve)
	set(&ColorMuted, tc.Muted)
	set(&ColorDim, tc.Dim)
	set(&ColorBright, tc.Bright)
	rebuildStyles()
}
