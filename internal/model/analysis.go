package model

import "github.com/rotisserie/eris"

// TrendPoint is one month of the exploratory trend series.
type TrendPoint struct {
	Month    string `json:"bulan"`
	Positive int    `json:"positif"`
	Deaths   int    `json:"meninggal"`
}

// Analysis is the payload of /api/analyze/{year}.
type Analysis struct {
	Year          string       `json:"year"`
	Trend         []TrendPoint `json:"eda_trend"`
	Records       []Record     `json:"clustering_result"`
	TotalClusters int          `json:"total_clusters"`
}

// Validate rejects analyses whose records are missing required fields.
func (a *Analysis) Validate() error {
	if a == nil {
		return eris.New("model: nil analysis")
	}
	return ValidateRecords(a.Records)
}
