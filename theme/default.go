package theme

import (
	"github.com/pterm/pterm"
)

// Theme defines the colour scheme used by the styled logger.
type Theme struct {
	Debug *pterm.Style
	Info  *pterm.Style
	Warn  *pterm.Style
	Error *pterm.Style
	Fatal *pterm.Style

	Success   *pterm.Style
	Highlight *pterm.Style
	Muted     *pterm.Style
	Accent    *pterm.Style

	Primary   pterm.Color
	Secondary pterm.Color
	Danger    pterm.Color
	Warning   pterm.Color
	Good      pterm.Color

	// Domain styles for the balancer/health-checker's styled log lines.
	Endpoint        *pterm.Style
	HealthCheck     *pterm.Style
	HealthHealthy   *pterm.Style
	HealthUnhealthy *pterm.Style
	HealthBusy      *pterm.Style
	HealthOffline   *pterm.Style
	HealthWarming   *pterm.Style
	HealthUnknown   *pterm.Style
	Counts          *pterm.Style
	Numbers         *pterm.Style
}

func Default() *Theme {
	return &Theme{
		Debug: pterm.NewStyle(pterm.FgLightBlue),
		Info:  pterm.NewStyle(pterm.FgGreen),
		Warn:  pterm.NewStyle(pterm.FgYellow, pterm.Bold),
		Error: pterm.NewStyle(pterm.FgRed, pterm.Bold),
		Fatal: pterm.NewStyle(pterm.FgWhite, pterm.BgRed, pterm.Bold),

		Success:   pterm.NewStyle(pterm.FgGreen, pterm.Bold),
		Highlight: pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		Muted:     pterm.NewStyle(pterm.FgGray),
		Accent:    pterm.NewStyle(pterm.FgMagenta),

		Primary:   pterm.FgBlue,
		Secondary: pterm.FgCyan,
		Danger:    pterm.FgRed,
		Warning:   pterm.FgYellow,
		Good:      pterm.FgGreen,

		Endpoint:        pterm.NewStyle(pterm.FgCyan),
		HealthCheck:     pterm.NewStyle(pterm.FgBlue),
		HealthHealthy:   pterm.NewStyle(pterm.FgGreen),
		HealthUnhealthy: pterm.NewStyle(pterm.FgRed),
		HealthBusy:      pterm.NewStyle(pterm.FgYellow),
		HealthOffline:   pterm.NewStyle(pterm.FgRed, pterm.Bold),
		HealthWarming:   pterm.NewStyle(pterm.FgLightYellow),
		HealthUnknown:   pterm.NewStyle(pterm.FgGray),
		Counts:          pterm.NewStyle(pterm.FgMagenta),
		Numbers:         pterm.NewStyle(pterm.FgLightBlue),
	}
}

func Dark() *Theme {
	t := Default()
	t.Info = pterm.NewStyle(pterm.FgLightGreen)
	t.Warn = pterm.NewStyle(pterm.FgLightYellow, pterm.Bold)
	t.Error = pterm.NewStyle(pterm.FgLightRed, pterm.Bold)
	t.Success = pterm.NewStyle(pterm.FgLightGreen, pterm.Bold)
	t.Highlight = pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	t.Accent = pterm.NewStyle(pterm.FgLightMagenta)
	t.Danger = pterm.FgLightRed
	t.Warning = pterm.FgLightYellow
	t.Good = pterm.FgLightGreen
	return t
}

func Light() *Theme {
	t := Default()
	t.Debug = pterm.NewStyle(pterm.FgBlue)
	t.Info = pterm.NewStyle(pterm.FgBlack)
	t.Warn = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	t.Highlight = pterm.NewStyle(pterm.FgBlue, pterm.Bold)
	t.Warning = pterm.FgRed
	return t
}

// GetTheme resolves a theme by name, defaulting when unrecognised.
func GetTheme(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	case "light":
		return Light()
	default:
		return Default()
	}
}
