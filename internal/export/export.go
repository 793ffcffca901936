// Package export writes the data table as a workbook or CSV file.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
)

// SheetName is the worksheet that holds the table.
const SheetName = "Data DBD"

// Header is the column row of every export.
var Header = []string{
	"Wilayah", "Jumlah Penduduk", "Kasus", "Meninggal", "Aktif",
	"IR per 100.000", "CFR (%)", "Cluster", "Risiko",
}

// Format names accepted by Write.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write writes rows in the given format.
func Write(w io.Writer, format string, rows []dashboard.Row) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, rows)
	case FormatCSV:
		return WriteCSV(w, rows)
	default:
		return eris.Errorf("export: unknown format %q", format)
	}
}

// WriteXLSX writes rows as a single-sheet workbook with numeric cells.
func WriteXLSX(w io.Writer, rows []dashboard.Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range Header {
		hdr.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Region)
		if r.Population != nil {
			row.AddCell().SetInt(*r.Population)
		} else {
			row.AddCell()
		}
		row.AddCell().SetInt(r.Cases)
		row.AddCell().SetInt(r.Deaths)
		row.AddCell().SetInt(r.Active)
		if r.Rate != nil {
			row.AddCell().SetFloat(*r.Rate)
		} else {
			row.AddCell()
		}
		row.AddCell().SetFloat(r.CFR)
		row.AddCell().SetString(r.Cluster.String())
		row.AddCell().SetString(r.Tier.Name)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// WriteCSV writes rows as comma-separated values with a header line.
func WriteCSV(w io.Writer, rows []dashboard.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		rec := []string{
			r.Region,
			optInt(r.Population),
			strconv.Itoa(r.Cases),
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Active),
			optFloat(r.Rate),
			strconv.FormatFloat(r.CFR, 'f', 2, 64),
			r.Cluster.String(),
			r.Tier.Name,
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "export: write row %q", r.Region)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

func optInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}
