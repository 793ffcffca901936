package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/export"
)

var (
	exportSel    selectionFlags
	exportOut    string
	exportSearch string
	exportRisk   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the data table of a year to .xlsx or .csv",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := exportFormat(exportOut)
		if err != nil {
			return err
		}
		sel, err := exportSel.selection()
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, "dashboard")
		if err != nil {
			return err
		}
		defer env.Close()

		// Rows need no boundary; skip the download.
		v, err := dashboard.Fetch(ctx, env.Client, nil, sel, env.Options)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		rows := dashboard.Filter{Search: exportSearch, Risk: exportRisk}.Apply(dashboard.Rows(v.Records, env.Options.Palette))

		f, err := os.Create(exportOut)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", exportOut)
		}
		if err := export.Write(f, format, rows); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "export: close %s", exportOut)
		}

		zap.L().Info("export written", zap.String("path", exportOut), zap.Int("rows", len(rows)))
		return nil
	},
}

// exportFormat picks the format from the output file extension.
func exportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.FormatXLSX, nil
	case ".csv":
		return export.FormatCSV, nil
	}
	return "", eris.Errorf("export: output must end in .xlsx or .csv, got %q", path)
}

func init() {
	exportSel.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "data_dbd.xlsx", "output file (.xlsx or .csv)")
	exportCmd.Flags().StringVar(&exportSearch, "q", "", "filter rows by region name")
	exportCmd.Flags().StringVar(&exportRisk, "risk", "", "filter rows by risk tier")
	rootCmd.AddCommand(exportCmd)
}
