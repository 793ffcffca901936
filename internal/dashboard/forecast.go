package dashboard

import "github.com/sells-group/dengue-atlas/internal/model"

// Accuracy labels derived from the backtest MAPE.
const (
	AccuracyHigh   = "Sangat Akurat (<20%)"
	AccuracyMedium = "Cukup Akurat"
)

const highAccuracyMAPE = 20.0

// ForecastView is the prediction page: the full series, the future-only
// rows and an accuracy label.
type ForecastView struct {
	NoData   bool                `json:"no_data"`
	Period   string              `json:"period,omitempty"`
	Model    string              `json:"model,omitempty"`
	LastDate string              `json:"last_date,omitempty"`
	Series   []model.ForecastRow `json:"series"`
	Future   []model.ForecastRow `json:"future"`
	// Evaluation is nil when the backend did not backtest.
	Evaluation *model.Evaluation `json:"evaluation,omitempty"`
	Accuracy   string            `json:"accuracy,omitempty"`
}

// BuildForecastView derives the prediction page from a forecast. A nil
// forecast is the empty state.
func BuildForecastView(f *model.Forecast) *ForecastView {
	if f == nil {
		return &ForecastView{NoData: true, Series: []model.ForecastRow{}, Future: []model.ForecastRow{}}
	}
	v := &ForecastView{
		Period:     f.Period,
		Model:      f.Model,
		LastDate:   f.LastDate,
		Series:     f.Rows,
		Future:     []model.ForecastRow{},
		Evaluation: f.Evaluation,
	}
	if v.Series == nil {
		v.Series = []model.ForecastRow{}
	}
	for _, r := range f.Rows {
		if r.IsFuture() {
			v.Future = append(v.Future, r)
		}
	}
	if f.Evaluation != nil {
		v.Accuracy = AccuracyLabel(f.Evaluation.MAPE)
	}
	return v
}

// AccuracyLabel grades a mean absolute percentage error.
func AccuracyLabel(mape float64) string {
	if mape < highAccuracyMAPE {
		return AccuracyHigh
	}
	return AccuracyMedium
}
