package rekap

import (
	"fmt"
	"sort"
)

// SeriesPoint is the citywide positive count of one month.
type SeriesPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// Series concatenates the monthly trends of several years into one
// chronological series, dated YYYY-MM.
func Series(byYear map[int]*Workbook) []SeriesPoint {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	var out []SeriesPoint
	for _, y := range years {
		wb := byYear[y]
		if wb == nil {
			continue
		}
		for m, p := range wb.Trend {
			out = append(out, SeriesPoint{Date: fmt.Sprintf("%04d-%02d", y, m+1), Value: p.Positive})
		}
	}
	return out
}
