// Package tui is the terminal dashboard: year and clustering selection,
// headline figures, tier distribution and the highest-case ranking.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

// Refresher runs a dashboard refresh. *dashboard.Controller satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, sel dashboard.Selection) (*dashboard.View, error)
}

// refreshedMsg carries the result of one refresh.
type refreshedMsg struct {
	sel  dashboard.Selection
	view *dashboard.View
	err  error
}

// BoundaryReloaded tells the dashboard that the boundary document was
// replaced and the view should be rebuilt.
type BoundaryReloaded struct {
	Features int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// App is the root bubbletea model.
type App struct {
	ctx     context.Context
	ctl     Refresher
	years   []int
	yearIdx int
	params  analytics.Params

	keys    KeyMap
	styles  Styles
	spinner spinner.Model
	table   table.Model

	view    *dashboard.View
	err     error
	loading bool
	width   int
	height  int
	ready   bool
}

// NewApp creates the dashboard for the given years, starting at year. An
// unknown start year falls back to the last one.
func NewApp(ctx context.Context, ctl Refresher, years []int, year int, params analytics.Params) *App {
	idx := len(years) - 1
	for i, y := range years {
		if y == year {
			idx = i
		}
	}
	if idx < 0 {
		idx = 0
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		ctx:     ctx,
		ctl:     ctl,
		years:   years,
		yearIdx: idx,
		params:  params.WithDefaults(),
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		spinner: sp,
		table:   newTopTable(nil),
	}
}

// Init starts the first refresh.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("Dengue Atlas"),
		a.spinner.Tick,
		a.refresh(),
	)
}

// Update handles messages and returns the updated model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case refreshedMsg:
		if eris.Is(msg.err, dashboard.ErrSuperseded) {
			return a, nil
		}
		if msg.sel != a.selection() {
			return a, nil
		}
		a.loading = false
		a.err = msg.err
		a.view = msg.view
		if msg.view != nil {
			a.table.SetRows(topRows(msg.view.Top))
		} else {
			a.table.SetRows(nil)
		}
		return a, nil

	case BoundaryReloaded:
		return a, a.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.PrevYear):
		if a.yearIdx > 0 {
			a.yearIdx--
			return a, a.refresh()
		}

	case key.Matches(msg, a.keys.NextYear):
		if a.yearIdx < len(a.years)-1 {
			a.yearIdx++
			return a, a.refresh()
		}

	case key.Matches(msg, a.keys.MoreClusters):
		if a.params.Mode == analytics.ModeKMeans && a.params.Clusters < analytics.MaxClusters {
			a.params.Clusters++
			return a, a.refresh()
		}

	case key.Matches(msg, a.keys.FewClusters):
		if a.params.Mode == analytics.ModeKMeans && a.params.Clusters > analytics.MinClusters {
			a.params.Clusters--
			return a, a.refresh()
		}

	case key.Matches(msg, a.keys.ToggleMode):
		if a.params.Mode == analytics.ModeKMeans {
			a.params.Mode = analytics.ModeDBSCAN
		} else {
			a.params.Mode = analytics.ModeKMeans
		}
		a.params = a.params.WithDefaults()
		return a, a.refresh()

	case key.Matches(msg, a.keys.Refresh):
		return a, a.refresh()
	}
	return a, nil
}

// Year returns the selected year, or 0 when no years are configured.
func (a *App) Year() int {
	if len(a.years) == 0 {
		return 0
	}
	return a.years[a.yearIdx]
}

// Params returns the selected clustering parameters.
func (a *App) Params() analytics.Params { return a.params }

func (a *App) selection() dashboard.Selection {
	return dashboard.Selection{Year: a.Year(), Params: a.params}
}

func (a *App) refresh() tea.Cmd {
	if a.ctl == nil || len(a.years) == 0 {
		return nil
	}
	a.loading = true
	sel := a.selection()
	ctx, ctl := a.ctx, a.ctl
	return func() tea.Msg {
		v, err := ctl.Refresh(ctx, sel)
		return refreshedMsg{sel: sel, view: v, err: err}
	}
}

func newTopTable(rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Wilayah", Width: 24},
			{Title: "Kasus", Width: 7},
			{Title: "Meninggal", Width: 9},
			{Title: "CFR (%)", Width: 8},
			{Title: "Risiko", Width: 10},
		}),
		table.WithRows(rows),
		table.WithHeight(dashboard.DefaultTopN+1),
	)
	t.Blur()
	return t
}

func topRows(rows []dashboard.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		out = append(out, table.Row{
			fmt.Sprintf("%d", i+1),
			r.Region,
			fmt.Sprintf("%d", r.Cases),
			fmt.Sprintf("%d", r.Deaths),
			fmt.Sprintf("%.2f", r.CFR),
			r.Tier.Name,
		})
	}
	return out
}
