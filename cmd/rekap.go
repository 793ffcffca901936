package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dengue-atlas/internal/rekap"
)

var (
	rekapFormat string
	rekapSeries bool
)

// yearPattern finds the year in a workbook file name such as
// "Rekap DBD 2024.xlsx".
var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

var rekapCmd = &cobra.Command{
	Use:   "rekap <workbook.xlsx>...",
	Short: "Parse monthly rekap workbooks",
	Long:  "Reads one or more rekap DBD workbooks and prints per-kelurahan totals and the monthly trend. With --series, the monthly counts of every workbook are joined into one chronological series keyed by the year in each file name.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("rekap"); err != nil {
			return err
		}

		byYear := make(map[int]*rekap.Workbook, len(args))
		books := make([]*rekap.Workbook, 0, len(args))
		for _, path := range args {
			wb, err := rekap.ReadWorkbook(path)
			if err != nil {
				return err
			}
			zap.L().Debug("rekap: parsed workbook", zap.String("path", path), zap.Int("rows", len(wb.Rows)))
			books = append(books, wb)

			if rekapSeries {
				year, err := yearFromPath(path)
				if err != nil {
					return err
				}
				byYear[year] = wb
			}
		}

		if rekapSeries {
			series := rekap.Series(byYear)
			handled, err := writeStructured(os.Stdout, rekapFormat, series)
			if handled || err != nil {
				return err
			}
			formatSeries(os.Stdout, series)
			return nil
		}

		var out any = books
		if len(books) == 1 {
			out = books[0]
		}
		handled, err := writeStructured(os.Stdout, rekapFormat, out)
		if handled || err != nil {
			return err
		}
		for _, wb := range books {
			formatRekap(os.Stdout, wb)
		}
		return nil
	},
}

func yearFromPath(path string) (int, error) {
	m := yearPattern.FindString(filepath.Base(path))
	if m == "" {
		return 0, eris.Errorf("rekap: no year in file name %s", path)
	}
	return strconv.Atoi(m)
}

func init() {
	rekapCmd.Flags().StringVar(&rekapFormat, "format", formatTable, "output format: table, json or yaml")
	rekapCmd.Flags().BoolVar(&rekapSeries, "series", false, "join workbooks into one monthly series")
	rootCmd.AddCommand(rekapCmd)
}
