package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/region"
)

var (
	resolveSel    selectionFlags
	resolveFormat string
	resolveSource string
)

// resolveReport is the machine-readable result of the resolve command.
type resolveReport struct {
	Source     string            `json:"source"`
	Year       int               `json:"year"`
	Features   int               `json:"features"`
	NoData     bool              `json:"no_data"`
	Resolution region.Resolution `json:"resolution"`
	Shadowed   []region.Shadow   `json:"shadowed,omitempty"`
	Unmatched  int               `json:"unmatched"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which boundary attribute joins to the region names of a year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sel, err := resolveSel.selection()
		if err != nil {
			return err
		}
		if resolveSource != "" {
			cfg.Boundary.Source = resolveSource
		}

		env, err := initEnv(ctx, cfg, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := env.Loader.Load(ctx, cfg.Boundary.Source)
		if err != nil {
			return eris.Wrap(err, "resolve: load boundary")
		}

		v, err := dashboard.Fetch(ctx, env.Client, doc, sel, env.Options)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		report := resolveReport{
			Source:     cfg.Boundary.Source,
			Year:       v.Year,
			Features:   doc.Len(),
			NoData:     v.NoData,
			Resolution: v.Resolution,
			Shadowed:   v.Shadowed,
			Unmatched:  v.Unmatched,
		}
		zap.L().Debug("resolve complete",
			zap.Bool("found", report.Resolution.Found),
			zap.String("key", report.Resolution.Key),
		)

		handled, err := writeStructured(os.Stdout, resolveFormat, report)
		if handled || err != nil {
			return err
		}
		formatResolution(os.Stdout, report.Resolution, report.Shadowed, report.Unmatched)
		return nil
	},
}

func init() {
	resolveSel.register(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveFormat, "format", formatTable, "output format: table, json or yaml")
	resolveCmd.Flags().StringVar(&resolveSource, "source", "", "boundary path or URL (default from config)")
	rootCmd.AddCommand(resolveCmd)
}
