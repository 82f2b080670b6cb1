package models

import "time"

// Estimate is a raw per-time output of a forecast model.
type Estimate struct {
	Time  time.Time `json:"time"`
	Point float64   `json:"point"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// ForecastRow is a validated forecast estimate. Lower <= Point <= Upper.
type ForecastRow struct {
	Time  time.Time `json:"time"`
	Point float64   `json:"point"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

type ForecastRows []ForecastRow

// Points reshapes the point estimates into a price series.
func (rows ForecastRows) Points() []PricePoint {
	out := make([]PricePoint, len(rows))
	for i, r := range rows {
		out[i] = PricePoint{Time: r.Time, Price: r.Point}
	}
	return out
}

// ModelQuality carries out-of-sample error statistics published with a model.
type ModelQuality struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}
