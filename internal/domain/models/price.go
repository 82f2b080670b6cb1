package models

import (
	"encoding/json"
	"time"
)

// PricePoint is a single (timestamp, price) observation. The segmenter also
// accepts it as a generic (time, value) pair, e.g. a monthly average.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// OptionalFloat is a derived value that may be undefined, such as a rolling
// statistic inside its warm-up prefix.
type OptionalFloat struct {
	Value float64
	Valid bool
}

func Some(v float64) OptionalFloat { return OptionalFloat{Value: v, Valid: true} }

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptionalFloat{}
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// DerivedPoint is a price point together with its derived rolling fields.
type DerivedPoint struct {
	Time      time.Time     `json:"time"`
	Price     float64       `json:"price"`
	ShortMean OptionalFloat `json:"ma_short"`
	LongMean  OptionalFloat `json:"ma_long"`
	Vol       OptionalFloat `json:"volatility"`
	PctChange OptionalFloat `json:"pct_change"`
	Diff      OptionalFloat `json:"diff"`
}

// PriceTable is the normalized output of a price source.
type PriceTable struct {
	Symbol string
	Source string
	Points []PricePoint
}

// PriceQuery selects rows from a price source.
type PriceQuery struct {
	Symbol string
	From   time.Time
	To     time.Time // zero means open ended
}
