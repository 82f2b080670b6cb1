package models

import "time"

// PriceSummary is the headline metric set of a series.
type PriceSummary struct {
	Symbol        string        `json:"symbol"`
	AsOf          time.Time     `json:"as_of"`
	Current       float64       `json:"current"`
	Previous      OptionalFloat `json:"previous"`
	ChangePct     OptionalFloat `json:"change_pct"`
	TrailingMean  float64       `json:"trailing_mean"`
	TrailingCount int           `json:"trailing_count"`
	// RealizedVol is the annualized std of the trailing window's daily log
	// returns, undefined until window returns exist.
	RealizedVol OptionalFloat `json:"realized_vol"`
}

// SeasonalStat describes the distribution of prices in one calendar month.
type SeasonalStat struct {
	Month  time.Month `json:"month"`
	Count  int        `json:"count"`
	Mean   float64    `json:"mean"`
	Median float64    `json:"median"`
	Q1     float64    `json:"q1"`
	Q3     float64    `json:"q3"`
	Min    float64    `json:"min"`
	Max    float64    `json:"max"`
}

// YearlyStat is the mean price and mean rolling volatility of one year.
type YearlyStat struct {
	Year      int           `json:"year"`
	Count     int           `json:"count"`
	MeanPrice float64       `json:"mean_price"`
	MeanVol   OptionalFloat `json:"mean_volatility"`
}

// Mover is a single day ranked by its percent change.
type Mover struct {
	Time      time.Time `json:"time"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
}

// WindowStats summarizes a date window of a series.
type WindowStats struct {
	From       time.Time     `json:"from"`
	To         time.Time     `json:"to"`
	Count      int           `json:"count"`
	StartPrice float64       `json:"start_price"`
	EndPrice   float64       `json:"end_price"`
	MaxPrice   float64       `json:"max_price"`
	MinPrice   float64       `json:"min_price"`
	Change     float64       `json:"change"`
	ChangePct  float64       `json:"change_pct"`
	MeanVol    OptionalFloat `json:"mean_volatility"`
	TopMovers  []Mover       `json:"top_movers"`
}

// Event is a statically configured market event annotation.
type Event struct {
	Key   string    `json:"key"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}
