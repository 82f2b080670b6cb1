package models

import "time"

// PhaseKind is the direction of a market phase.
type PhaseKind string

const (
	PhaseBull PhaseKind = "bull"
	PhaseBear PhaseKind = "bear"
)

// MarketPhase is one contiguous bull or bear regime.
//
// Trough and Peak are the low and high reference extrema of the phase. For a
// bull phase the trough is where it started and the peak where it topped out;
// a bear phase runs the other way round.
type MarketPhase struct {
	Kind       PhaseKind `json:"kind"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Trough     float64   `json:"trough"`
	Peak       float64   `json:"peak"`
	Magnitude  float64   `json:"magnitude"`
	Open       bool      `json:"open"`
}

// Origin is the extremum the phase moved away from.
func (p MarketPhase) Origin() float64 {
	if p.Kind == PhaseBull {
		return p.Trough
	}
	return p.Peak
}

// Terminus is the extremum the phase reached.
func (p MarketPhase) Terminus() float64 {
	if p.Kind == PhaseBull {
		return p.Peak
	}
	return p.Trough
}

// Len is the number of source points covered by the phase.
func (p MarketPhase) Len() int { return p.EndIndex - p.StartIndex + 1 }

// PhaseSummary aggregates a phase sequence.
type PhaseSummary struct {
	Bulls         int          `json:"bulls"`
	Bears         int          `json:"bears"`
	MeanBull      float64      `json:"mean_bull_magnitude"`
	MeanBear      float64      `json:"mean_bear_magnitude"`
	StrongestBull *MarketPhase `json:"strongest_bull,omitempty"`
	DeepestBear   *MarketPhase `json:"deepest_bear,omitempty"`
	Current       *MarketPhase `json:"current,omitempty"`
}

// PhaseEvent is published when a phase is confirmed or closed between two
// snapshots.
type PhaseEvent struct {
	ID        string      `json:"id"`
	Symbol    string      `json:"symbol"`
	Type      string      `json:"type"` // "confirmed" or "closed"
	Threshold float64     `json:"threshold"`
	Period    Period      `json:"period"`
	Phase     MarketPhase `json:"phase"`
	EmittedAt time.Time   `json:"emitted_at"`
}

const (
	PhaseEventConfirmed = "confirmed"
	PhaseEventClosed    = "closed"
)
