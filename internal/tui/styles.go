package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Card    lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
}

// DefaultStyles returns the default dashboard styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8FAFC")).Background(lipgloss.Color("#2563EB")).Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")),
		Card:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#CBD5E1")).Padding(0, 1).MarginRight(1),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Bold(true),
		Value:   lipgloss.NewStyle().Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
	}
}

// Swatch renders a small block in a tier color.
func Swatch(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■")
}
