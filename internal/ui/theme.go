package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Cleanstreak theme (CLI + TUI).
// Kept intentionally small: reusable styles and a few emojis.

const (
	IconFlame   = "🔥"
	IconSparkle = "✨"
	IconDone    = "✅"
	IconBroken  = "💔"
	IconCal     = "📅"
	IconSync    = "🔄"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconShield  = "🛡️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	SelectedDay = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// StreakText renders a streak count with a state-appropriate style.
func StreakText(count int) string {
	switch {
	case count == 0:
		return Muted.Render("0 days")
	case count == 1:
		return Good.Render("1 day")
	default:
		return Good.Render(fmt.Sprintf("%d days", count))
	}
}

// DayCell renders one calendar day cell for the month views.
func DayCell(dayNum int, status string, isToday bool) string {
	cell := fmt.Sprintf("%2d", dayNum)
	if isToday {
		return SelectedDay.Render(cell)
	}
	switch status {
	case "clean":
		return Good.Render(cell)
	case "relapse":
		return Bad.Render(cell)
	default:
		return Muted.Render(cell)
	}
}
