package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
)

// selectionFlags are the year and clustering flags shared by commands that
// build a dashboard view.
type selectionFlags struct {
	year       int
	mode       string
	k          int
	eps        float64
	minSamples int
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "analysis year (default from config)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "clustering mode: kmeans or dbscan (default from config)")
	cmd.Flags().IntVar(&f.k, "k", 0, "number of K-Means clusters (2-5)")
	cmd.Flags().Float64Var(&f.eps, "eps", 0, "DBSCAN neighborhood radius")
	cmd.Flags().IntVar(&f.minSamples, "min-samples", 0, "DBSCAN minimum samples")
}

func (f *selectionFlags) selection() (dashboard.Selection, error) {
	return selectionFrom(cfg, f.year, f.mode, f.k, f.eps, f.minSamples)
}

var (
	dashboardSel    selectionFlags
	dashboardFormat string
	dashboardSearch string
	dashboardRisk   string
	dashboardAll    bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard summary and ranking for a year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sel, err := dashboardSel.selection()
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, "dashboard")
		if err != nil {
			return err
		}
		defer env.Close()

		ctl := dashboard.NewController(env.Client, env.Loader, cfg.Boundary.Source, env.Options)
		v, err := ctl.Refresh(ctx, sel)
		if err != nil {
			return eris.Wrap(err, "dashboard")
		}

		rows := v.Top
		if dashboardAll || dashboardSearch != "" || dashboardRisk != "" {
			f := dashboard.Filter{Search: dashboardSearch, Risk: dashboardRisk}
			rows = f.Apply(dashboard.Rows(v.Records, env.Options.Palette))
		}

		handled, err := writeStructured(os.Stdout, dashboardFormat, struct {
			*dashboard.View
			Rows []dashboard.Row `json:"rows"`
		}{v, rows})
		if handled || err != nil {
			return err
		}

		formatSummary(os.Stdout, v)
		if !v.NoData {
			_, _ = fmt.Fprintln(os.Stdout)
			formatRows(os.Stdout, rows)
		}
		return nil
	},
}

func init() {
	dashboardSel.register(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardFormat, "format", formatTable, "output format: table, json or yaml")
	dashboardCmd.Flags().StringVar(&dashboardSearch, "q", "", "filter rows by region name")
	dashboardCmd.Flags().StringVar(&dashboardRisk, "risk", "", "filter rows by risk tier")
	dashboardCmd.Flags().BoolVar(&dashboardAll, "all", false, "list every region instead of the top ranking")
	rootCmd.AddCommand(dashboardCmd)
}
