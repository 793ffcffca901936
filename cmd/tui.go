package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/boundary"
	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/metrics"
	"github.com/sells-group/dengue-atlas/internal/tui"
)

var (
	tuiSel   selectionFlags
	tuiWatch bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sel, err := tuiSel.selection()
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, "dashboard")
		if err != nil {
			return err
		}
		defer env.Close()

		ctl := dashboard.NewController(env.Client, env.Loader, cfg.Boundary.Source, env.Options)
		app := tui.NewApp(ctx, ctl, cfg.Dashboard.Years, sel.Year, sel.Params)
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

		if (tuiWatch || cfg.Boundary.Watch) && !isRemoteSource(cfg.Boundary.Source) {
			go func() {
				err := env.Loader.Watch(ctx, cfg.Boundary.Source, boundaryReloader(ctl, p.Send))
				if err != nil {
					zap.L().Error("boundary watch stopped", zap.Error(err))
				}
			}()
		}

		if _, err := p.Run(); err != nil {
			return eris.Wrap(err, "tui")
		}
		return nil
	},
}

// boundaryReloader installs a reloaded document in the controller and asks
// the program to rebuild its view.
func boundaryReloader(ctl *dashboard.Controller, send func(tea.Msg)) func(*boundary.Document) {
	return func(d *boundary.Document) {
		ctl.SetBoundary(d)
		metrics.ObserveBoundary(d.Len(), true)
		send(tui.BoundaryReloaded{Features: d.Len()})
	}
}

func init() {
	tuiSel.register(tuiCmd)
	tuiCmd.Flags().BoolVar(&tuiWatch, "watch", false, "reload the boundary file when it changes")
	rootCmd.AddCommand(tuiCmd)
}
