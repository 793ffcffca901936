// Package rekap reads the yearly "rekap kasus DBD" workbook published by the
// city health office: one row per kelurahan with monthly positive cases and
// deaths, yearly totals, incidence rate and case fatality rate.
package rekap

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dengue-atlas/internal/fetcher"
	"github.com/sells-group/dengue-atlas/internal/model"
)

// Layout of the workbook.
const (
	// SkipRows is the number of title rows above the column header.
	SkipRows = 2
	// Columns is the number of data columns read per row.
	Columns = 30
	// TotalRow names the summary row at the bottom of the sheet.
	TotalRow = "Jumlah"
)

// Months are the month column prefixes in sheet order.
var Months = [12]string{"jan", "feb", "mar", "apr", "mei", "jun", "jul", "agt", "sep", "okt", "nov", "des"}

// ColumnNames returns the canonical names of the Columns data columns.
func ColumnNames() []string {
	names := make([]string, 0, Columns)
	names = append(names, "wilayah", "jml_penduduk")
	for _, m := range Months {
		names = append(names, m+"_p", m+"_m")
	}
	return append(names, "jml_p", "jml_m", "ir_100000", "cfr")
}

// MonthCount is one month of one region.
type MonthCount struct {
	Positive int `json:"positif"`
	Deaths   int `json:"meninggal"`
}

// Row is one kelurahan.
type Row struct {
	Region     string         `json:"wilayah"`
	Population int            `json:"jml_penduduk"`
	Monthly    [12]MonthCount `json:"monthly"`
	Cases      int            `json:"jml_p"`
	Deaths     int            `json:"jml_m"`
	IR         float64        `json:"ir_100000"`
	CFR        float64        `json:"cfr"`
}

// Workbook is a parsed rekap sheet.
type Workbook struct {
	Rows  []Row              `json:"rows"`
	Trend []model.TrendPoint `json:"trend"`
}

// ReadWorkbook opens and parses the workbook at path.
func ReadWorkbook(path string) (*Workbook, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SkipRows: SkipRows})
	if err != nil {
		return nil, eris.Wrapf(err, "rekap: read %s", path)
	}
	return Parse(rows)
}

// ReadWorkbookBytes parses an in-memory workbook.
func ReadWorkbookBytes(data []byte) (*Workbook, error) {
	rows, err := fetcher.ReadXLSXBytes(data, fetcher.XLSXOptions{SkipRows: SkipRows})
	if err != nil {
		return nil, eris.Wrap(err, "rekap: read workbook")
	}
	return Parse(rows)
}

// Parse reads sheet rows that start at the column header. A header whose
// first cell is blank marks an index column, which is dropped. Rows with an
// empty region or the TotalRow name are skipped; blank numbers count as 0.
func Parse(rows [][]string) (*Workbook, error) {
	if len(rows) == 0 {
		return nil, eris.New("rekap: sheet has no header row")
	}
	offset := 0
	if len(rows[0]) > 0 && strings.TrimSpace(rows[0][0]) == "" {
		offset = 1
	}

	wb := &Workbook{Rows: []Row{}}
	for i, raw := range rows[1:] {
		cells := window(raw, offset)
		name := strings.TrimSpace(cells[0])
		if name == "" || name == TotalRow {
			continue
		}

		r, err := parseRow(name, cells)
		if err != nil {
			// +2: header row and 1-based numbering, after the skipped rows.
			return nil, eris.Wrapf(err, "rekap: sheet row %d", i+SkipRows+2)
		}
		wb.Rows = append(wb.Rows, r)
	}

	wb.Trend = make([]model.TrendPoint, len(Months))
	for m, name := range Months {
		wb.Trend[m].Month = name
		for _, r := range wb.Rows {
			wb.Trend[m].Positive += r.Monthly[m].Positive
			wb.Trend[m].Deaths += r.Monthly[m].Deaths
		}
	}
	return wb, nil
}

// window returns exactly Columns cells starting at offset, padding with blanks.
func window(raw []string, offset int) []string {
	out := make([]string, Columns)
	for j := range out {
		if k := offset + j; k < len(raw) {
			out[j] = raw[k]
		}
	}
	return out
}

func parseRow(name string, cells []string) (Row, error) {
	cols := ColumnNames()
	num := func(j int) (float64, error) {
		f, err := parseNumber(cells[j])
		return f, eris.Wrapf(err, "column %s", cols[j])
	}
	count := func(j int) (int, error) {
		f, err := num(j)
		return int(math.Round(f)), err
	}

	r := Row{Region: name}
	var err error
	if r.Population, err = count(1); err != nil {
		return Row{}, err
	}
	for m := range Months {
		if r.Monthly[m].Positive, err = count(2 + 2*m); err != nil {
			return Row{}, err
		}
		if r.Monthly[m].Deaths, err = count(3 + 2*m); err != nil {
			return Row{}, err
		}
	}
	if r.Cases, err = count(26); err != nil {
		return Row{}, err
	}
	if r.Deaths, err = count(27); err != nil {
		return Row{}, err
	}
	if r.IR, err = num(28); err != nil {
		return Row{}, err
	}
	if r.CFR, err = num(29); err != nil {
		return Row{}, err
	}
	return r, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "not a number: %q", s)
	}
	if math.IsNaN(f) {
		return 0, nil
	}
	return f, nil
}

// Totals sums cases, deaths and population over all rows.
func (w *Workbook) Totals() (cases, deaths, population int) {
	for _, r := range w.Rows {
		cases += r.Cases
		deaths += r.Deaths
		population += r.Population
	}
	return cases, deaths, population
}
