package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/region"
	"github.com/sells-group/dengue-atlas/internal/risk"
	"github.com/sells-group/dengue-atlas/pkg/analytics"
)

type fakeRefresher struct {
	calls []dashboard.Selection
	view  *dashboard.View
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, sel dashboard.Selection) (*dashboard.View, error) {
	f.calls = append(f.calls, sel)
	if f.err != nil {
		return nil, f.err
	}
	v := *f.view
	v.Year = sel.Year
	return &v, nil
}

func sampleView() *dashboard.View {
	return &dashboard.View{
		Summary: dashboard.Summary{TotalCases: 42, TotalDeaths: 1, Active: 41, IncidenceRate: 2100, AverageCFR: 2.38, Kelurahan: 2},
		Distribution: []dashboard.TierCount{
			{Tier: risk.Tier{Name: "Rendah", Rank: 0}, Count: 1, Color: "#22c55e"},
			{Tier: risk.Tier{Name: "Kritis", Rank: 2}, Count: 1, Color: "#ef4444"},
		},
		Top: []dashboard.Row{
			{Region: "Karangrejo", Cases: 40, Deaths: 1, CFR: 2.5, Tier: risk.Tier{Name: "Kritis", Rank: 2}},
			{Region: "Sukamaju", Cases: 2, Tier: risk.Tier{Name: "Rendah"}},
		},
		Resolution: region.Resolution{Key: "NAMOBJ", Found: true, Attempted: true, Matches: 2, Sampled: 2},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func run(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	app.Update(cmd())
}

func TestNewApp_StartYear(t *testing.T) {
	app := NewApp(context.Background(), &fakeRefresher{}, []int{2023, 2024, 2025}, 2024, analytics.Params{})
	assert.Equal(t, 2024, app.Year())
	assert.Equal(t, analytics.DefaultParams(), app.Params())

	app = NewApp(context.Background(), &fakeRefresher{}, []int{2023, 2024}, 1999, analytics.Params{})
	assert.Equal(t, 2024, app.Year())

	app = NewApp(context.Background(), &fakeRefresher{}, nil, 2024, analytics.Params{})
	assert.Equal(t, 0, app.Year())
	assert.Nil(t, app.refresh())
}

func TestApp_RefreshRendersView(t *testing.T) {
	f := &fakeRefresher{view: sampleView()}
	app := NewApp(context.Background(), f, []int{2023, 2024}, 2024, analytics.Params{})

	run(t, app, app.refresh())

	require.Len(t, f.calls, 1)
	assert.Equal(t, 2024, f.calls[0].Year)
	assert.False(t, app.loading)

	out := app.View()
	assert.Contains(t, out, "Tahun 2024")
	assert.Contains(t, out, "Total Kasus")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "Karangrejo")
	assert.Contains(t, out, "Kritis")
	assert.Contains(t, out, `key "NAMOBJ" matched 2/2`)
}

func TestApp_YearKeys(t *testing.T) {
	f := &fakeRefresher{view: sampleView()}
	app := NewApp(context.Background(), f, []int{2023, 2024}, 2024, analytics.Params{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Nil(t, cmd, "already at the last year")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyLeft})
	run(t, app, cmd)
	assert.Equal(t, 2023, app.Year())
	assert.Equal(t, 2023, f.calls[0].Year)

	_, cmd = app.Update(keyRunes("h"))
	assert.Nil(t, cmd, "already at the first year")
}

func TestApp_ClusterKeys(t *testing.T) {
	f := &fakeRefresher{view: sampleView()}
	app := NewApp(context.Background(), f, []int{2024}, 2024, analytics.Params{Mode: analytics.ModeKMeans, Clusters: analytics.MaxClusters - 1})

	_, cmd := app.Update(keyRunes("+"))
	run(t, app, cmd)
	assert.Equal(t, analytics.MaxClusters, app.Params().Clusters)

	_, cmd = app.Update(keyRunes("+"))
	assert.Nil(t, cmd)

	_, cmd = app.Update(keyRunes("-"))
	run(t, app, cmd)
	assert.Equal(t, analytics.MaxClusters-1, app.Params().Clusters)
}

func TestApp_ToggleMode(t *testing.T) {
	f := &fakeRefresher{view: sampleView()}
	app := NewApp(context.Background(), f, []int{2024}, 2024, analytics.Params{})

	_, cmd := app.Update(keyRunes("m"))
	run(t, app, cmd)
	p := app.Params()
	assert.Equal(t, analytics.ModeDBSCAN, p.Mode)
	assert.Equal(t, analytics.DefaultEps, p.Eps)
	assert.Equal(t, analytics.DefaultMinSamples, p.MinSamples)
	assert.Contains(t, app.View(), "dbscan eps=3 min=3")

	_, cmd = app.Update(keyRunes("+"))
	assert.Nil(t, cmd, "cluster count only applies to kmeans")
}

func TestApp_SupersededResultDropped(t *testing.T) {
	app := NewApp(context.Background(), &fakeRefresher{}, []int{2024}, 2024, analytics.Params{})
	app.view = sampleView()

	app.Update(refreshedMsg{sel: app.selection(), err: eris.Wrap(dashboard.ErrSuperseded, "x")})
	assert.NotNil(t, app.view)
	assert.NoError(t, app.err)
}

func TestApp_StaleSelectionDropped(t *testing.T) {
	app := NewApp(context.Background(), &fakeRefresher{}, []int{2023, 2024}, 2024, analytics.Params{})
	app.loading = true

	stale := dashboard.Selection{Year: 2023, Params: app.Params()}
	app.Update(refreshedMsg{sel: stale, view: sampleView()})
	assert.Nil(t, app.view)
	assert.True(t, app.loading)
}

func TestApp_ErrorAndNoData(t *testing.T) {
	f := &fakeRefresher{err: eris.New("analytics: upstream down")}
	app := NewApp(context.Background(), f, []int{2024}, 2024, analytics.Params{})
	run(t, app, app.refresh())
	assert.Contains(t, app.View(), "upstream down")

	f.err = nil
	f.view = &dashboard.View{NoData: true}
	run(t, app, app.refresh())
	assert.NoError(t, app.err)
	assert.Contains(t, app.View(), "Tidak ada data untuk tahun 2024")
}

func TestApp_BoundaryErrorShown(t *testing.T) {
	v := sampleView()
	v.Resolution = region.Resolution{}
	v.BoundaryError = "boundary: download: 404"
	app := NewApp(context.Background(), &fakeRefresher{view: v}, []int{2024}, 2024, analytics.Params{})
	run(t, app, app.refresh())
	assert.Contains(t, app.View(), "boundary: download: 404")
}

func TestApp_WindowSizeAndQuit(t *testing.T) {
	app := NewApp(context.Background(), &fakeRefresher{}, []int{2024}, 2024, analytics.Params{})

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.True(t, app.ready)
	assert.Equal(t, 120, app.width)

	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_BoundaryReloadedRefreshes(t *testing.T) {
	f := &fakeRefresher{view: sampleView()}
	app := NewApp(context.Background(), f, []int{2024}, 2024, analytics.Params{})

	_, cmd := app.Update(BoundaryReloaded{Features: 3})
	run(t, app, cmd)
	require.Len(t, f.calls, 1)
	assert.Equal(t, 2024, f.calls[0].Year)
	assert.False(t, app.loading)
}
