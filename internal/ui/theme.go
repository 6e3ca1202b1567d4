package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FocusQuest theme (CLI + TUI).

const (
	IconQuest   = "🗺️"
	IconSparkle = "✨"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconBolt    = "⚡"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconLoop    = "🔁"
	IconScroll  = "📜"
	IconSword   = "⚔️"
	IconSkull   = "💀"
	IconHeart   = "❤️"
	IconCoin    = "🪙"
	IconCrown   = "👑"
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
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
	BadgeBoss    = lipgloss.NewStyle().Bold(true).Foreground(cBad).Render("BOSS")
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

// Bar renders value/total as a fixed-width meter. Out-of-range values are
// clamped.
func Bar(value, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 3 {
		width = 3
	}
	value = max(0, min(value, total))
	filled := value * width / total
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// HPBar colors the meter by how much HP is left.
func HPBar(hp, maxHP, width int) string {
	bar := Bar(hp, maxHP, width)
	label := fmt.Sprintf("%s %d/%d", bar, hp, maxHP)
	switch {
	case maxHP <= 0 || hp*4 <= maxHP:
		return Bad.Render(label)
	case hp*2 <= maxHP:
		return Warn.Render(label)
	default:
		return Good.Render(label)
	}
}

func DifficultyText(d int) string {
	switch d {
	case 1:
		return Muted.Render("easy")
	case 2:
		return H2.Render("medium")
	case 3:
		return Warn.Render("hard")
	case 4:
		return Bad.Render("epic")
	default:
		return Muted.Render(fmt.Sprintf("d%d", d))
	}
}

func ActiveText(active bool) string {
	if active {
		return Good.Render("active")
	}
	return Muted.Render("archived")
}

func KindIcon(recurring bool) string {
	if recurring {
		return IconLoop
	}
	return IconQuest
}
