package dashboard

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/dengue-atlas/internal/model"
	"github.com/sells-group/dengue-atlas/internal/risk"
)

// Filter values with special meaning.
const (
	RiskAll   = "Semua"
	RiskAlias = "Tinggi"
)

// Summary holds the headline figures of a year.
type Summary struct {
	TotalCases  int `json:"total_cases"`
	TotalDeaths int `json:"total_deaths"`
	Active      int `json:"active"`
	Population  int `json:"population"`
	// IncidenceRate is cases per 100 000 inhabitants.
	IncidenceRate float64 `json:"incidence_rate"`
	// AverageCFR is deaths per 100 cases over the whole year.
	AverageCFR float64 `json:"average_cfr"`
	Kelurahan  int     `json:"kelurahan"`
}

// TierCount is one slice of the tier distribution.
type TierCount struct {
	Tier  risk.Tier `json:"tier"`
	Count int       `json:"count"`
	Color string    `json:"color"`
}

// Row is one line of the data table.
type Row struct {
	Region     string          `json:"wilayah"`
	Cases      int             `json:"jml_p"`
	Deaths     int             `json:"jml_m"`
	Active     int             `json:"aktif"`
	Population *int            `json:"jml_penduduk,omitempty"`
	Rate       *float64        `json:"ir,omitempty"`
	CFR        float64         `json:"cfr"`
	Cluster    model.ClusterID `json:"cluster"`
	Tier       risk.Tier       `json:"tier"`
	Color      string          `json:"color"`
}

// Summarize totals labeled records.
func Summarize(records []risk.LabeledRecord) Summary {
	var s Summary
	for _, lr := range records {
		s.TotalCases += lr.Record.Cases
		s.TotalDeaths += lr.Record.Deaths
		if lr.Record.Population != nil {
			s.Population += *lr.Record.Population
		}
	}
	s.Active = s.TotalCases - s.TotalDeaths
	s.Kelurahan = len(records)
	if s.Population > 0 {
		s.IncidenceRate = round2(float64(s.TotalCases) / float64(s.Population) * 100000)
	}
	s.AverageCFR = cfr(s.TotalCases, s.TotalDeaths)
	return s
}

// Distribution counts records per tier, ordered by tier rank with noise last.
func Distribution(records []risk.LabeledRecord, p risk.Palette) []TierCount {
	idx := make(map[string]int)
	var out []TierCount
	for _, lr := range records {
		i, ok := idx[lr.Tier.Name]
		if !ok {
			i = len(out)
			idx[lr.Tier.Name] = i
			out = append(out, TierCount{Tier: lr.Tier, Color: p.Color(lr.Tier)})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier.Less(out[j].Tier) })
	return out
}

// Rows converts labeled records into table rows.
func Rows(records []risk.LabeledRecord, p risk.Palette) []Row {
	rows := make([]Row, len(records))
	for i, lr := range records {
		r := lr.Record
		rows[i] = Row{
			Region:     r.Region,
			Cases:      r.Cases,
			Deaths:     r.Deaths,
			Active:     r.Active(),
			Population: r.Population,
			Rate:       r.Rate,
			CFR:        cfr(r.Cases, r.Deaths),
			Cluster:    lr.OriginalCluster,
			Tier:       lr.Tier,
			Color:      p.Color(lr.Tier),
		}
	}
	return rows
}

// TopN returns the n rows with the most cases. Equal counts keep input order.
func TopN(rows []Row, n int) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Cases > sorted[j].Cases })
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Filter narrows the data table.
type Filter struct {
	// Search matches a case-insensitive substring of the region name.
	Search string `json:"q,omitempty"`
	// Risk selects one tier by name; "" or RiskAll keeps every tier and
	// RiskAlias stands for "Kritis".
	Risk string `json:"risk,omitempty"`
}

// Apply returns the rows that pass the filter, in order.
func (f Filter) Apply(rows []Row) []Row {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	tier := strings.TrimSpace(f.Risk)
	if strings.EqualFold(tier, RiskAlias) {
		tier = "Kritis"
	}
	if strings.EqualFold(tier, RiskAll) {
		tier = ""
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if search != "" && !strings.Contains(strings.ToLower(r.Region), search) {
			continue
		}
		if tier != "" && !strings.EqualFold(r.Tier.Name, tier) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func cfr(cases, deaths int) float64 {
	if cases <= 0 {
		return 0
	}
	return round2(float64(deaths) / float64(cases) * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
