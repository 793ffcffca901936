package model

// ForecastRow is one month of a forecast series. Historical rows carry
// Actual; future rows carry only Predicted and the interval bounds.
type ForecastRow struct {
	Date      string   `json:"date"`
	Actual    *float64 `json:"actual"`
	Predicted *float64 `json:"predicted"`
	Lower     *float64 `json:"lower,omitempty"`
	Upper     *float64 `json:"upper,omitempty"`
}

// IsFuture reports whether the row is a pure prediction.
func (r ForecastRow) IsFuture() bool {
	return r.Actual == nil && r.Predicted != nil
}

// Evaluation holds backtest accuracy statistics.
type Evaluation struct {
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Forecast is the payload of /api/predict/{months}.
type Forecast struct {
	Period     string        `json:"period"`
	Rows       []ForecastRow `json:"data"`
	Model      string        `json:"model"`
	LastDate   string        `json:"last_date"`
	Evaluation *Evaluation   `json:"evaluation,omitempty"`
}
