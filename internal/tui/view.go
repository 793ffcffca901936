package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

// View renders the dashboard.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Dengue Atlas"))
	b.WriteString("  ")
	b.WriteString(a.selectionLine())
	if a.loading {
		b.WriteString("  " + a.spinner.View())
	}
	b.WriteString("\n\n")

	switch {
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	case a.view == nil:
		b.WriteString(a.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case a.view.NoData:
		b.WriteString(a.styles.Warning.Render(fmt.Sprintf("Tidak ada data untuk tahun %d", a.view.Year)))
		b.WriteString("\n")
	default:
		b.WriteString(a.renderCards(a.view.Summary))
		b.WriteString("\n\n")
		b.WriteString(a.renderDistribution(a.view.Distribution))
		b.WriteString("\n")
		b.WriteString(a.table.View())
		b.WriteString("\n")
	}

	if a.view != nil {
		b.WriteString("\n")
		b.WriteString(a.statusLine(a.view))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.helpLine())
	return b.String()
}

func (a *App) selectionLine() string {
	mode := fmt.Sprintf("kmeans k=%d", a.params.Clusters)
	if a.params.Mode == analytics.ModeDBSCAN {
		mode = fmt.Sprintf("dbscan eps=%g min=%d", a.params.Eps, a.params.MinSamples)
	}
	return fmt.Sprintf("Tahun %d · %s", a.Year(), mode)
}

func (a *App) renderCards(s dashboard.Summary) string {
	card := func(label, value string) string {
		return a.styles.Card.Render(a.styles.Label.Render(label) + "\n" + a.styles.Value.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Kasus", fmt.Sprintf("%d", s.TotalCases)),
		card("Meninggal", fmt.Sprintf("%d", s.TotalDeaths)),
		card("Aktif", fmt.Sprintf("%d", s.Active)),
		card("IR /100.000", fmt.Sprintf("%.2f", s.IncidenceRate)),
		card("CFR (%)", fmt.Sprintf("%.2f", s.AverageCFR)),
		card("Kelurahan", fmt.Sprintf("%d", s.Kelurahan)),
	)
}

func (a *App) renderDistribution(dist []dashboard.TierCount) string {
	var b strings.Builder
	b.WriteString(a.styles.Label.Render("Distribusi Risiko"))
	b.WriteString("\n")
	for _, tc := range dist {
		fmt.Fprintf(&b, "%s %-10s %d\n", Swatch(tc.Color), tc.Tier.Name, tc.Count)
	}
	return b.String()
}

func (a *App) statusLine(v *dashboard.View) string {
	var parts []string
	if v.Resolution.Found {
		parts = append(parts, a.styles.Success.Render(fmt.Sprintf("key %q matched %d/%d", v.Resolution.Key, v.Resolution.Matches, v.Resolution.Sampled)))
	} else if v.Resolution.Attempted {
		parts = append(parts, a.styles.Warning.Render("no boundary attribute matches region names"))
	}
	if v.Unmatched > 0 {
		parts = append(parts, a.styles.Warning.Render(fmt.Sprintf("%d unmatched", v.Unmatched)))
	}
	if len(v.Shadowed) > 0 {
		parts = append(parts, a.styles.Muted.Render(fmt.Sprintf("%d shadowed", len(v.Shadowed))))
	}
	if v.BoundaryError != "" {
		parts = append(parts, a.styles.Error.Render("boundary: "+v.BoundaryError))
	}
	return strings.Join(parts, a.styles.Muted.Render(" · "))
}

func (a *App) helpLine() string {
	bindings := a.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return a.styles.Muted.Render(strings.Join(parts, " · "))
}
