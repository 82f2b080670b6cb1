package forecast

import (
	"sync/atomic"

	domsvc "BrentPulse/internal/domain/service"
)

// Holder publishes the current model so it can be swapped on reload while
// readers keep querying the previous one.
type Holder struct {
	v atomic.Pointer[modelBox]
}

type modelBox struct{ m domsvc.ForecastModel }

func NewHolder(m domsvc.ForecastModel) *Holder {
	h := &Holder{}
	h.Set(m)
	return h
}

// Get returns the current model, or nil if none is loaded.
func (h *Holder) Get() domsvc.ForecastModel {
	if b := h.v.Load(); b != nil {
		return b.m
	}
	return nil
}

func (h *Holder) Set(m domsvc.ForecastModel) { h.v.Store(&modelBox{m: m}) }
