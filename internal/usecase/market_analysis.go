package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	domsvc "BrentPulse/internal/domain/service"
	"BrentPulse/internal/services/analytics"
	"BrentPulse/internal/services/forecast"
	"BrentPulse/internal/services/regime"
	"BrentPulse/internal/services/series"
	applogger "BrentPulse/pkg/logger"
	"BrentPulse/pkg/util"
)

// AnalysisParams are the static knobs of the analysis.
type AnalysisParams struct {
	Symbol         string
	Start          time.Time
	ShortWindow    int
	LongWindow     int
	VolWindow      int
	MeanWindow     int
	MaxHorizonDays int
}

// Snapshot is an immutable, fully built view of the price table. Handlers
// read the current snapshot without locking; Refresh swaps it atomically.
type Snapshot struct {
	Version int64
	Symbol  string
	Source  string
	BuiltAt time.Time
	Series  *series.PriceSeries
	// Phases are segmented with the default threshold and period.
	Phases []models.MarketPhase
}

// PhasesReport is the segmentation of the current snapshot.
type PhasesReport struct {
	Threshold float64              `json:"threshold"`
	Period    models.Period        `json:"period"`
	Phases    []models.MarketPhase `json:"phases"`
	Summary   models.PhaseSummary  `json:"summary"`
}

// ForecastReport is a validated forecast with the model's description.
type ForecastReport struct {
	Model   string               `json:"model,omitempty"`
	Quality *models.ModelQuality `json:"quality,omitempty"`
	AsOf    time.Time            `json:"as_of"`
	Days    int                  `json:"days"`
	Rows    models.ForecastRows  `json:"rows"`
}

// EventReport is a configured event with the stats of its window.
type EventReport struct {
	Event models.Event `json:"event"`
	// Anchor is the observation nearest the event date.
	Anchor          models.PricePoint    `json:"anchor"`
	AnchorChangePct models.OptionalFloat `json:"anchor_change_pct"`
	Stats           models.WindowStats   `json:"stats"`
}

// PricesParams selects the derived price rows. Zero Short or Long uses the
// configured moving average window.
type PricesParams struct {
	From   time.Time
	To     time.Time
	Period models.Period
	Limit  int
	Short  int
	Long   int
}

// MarketAnalysis owns the published snapshot and answers every analysis
// query against it.
type MarketAnalysis struct {
	source    domrepo.PriceSource
	segmenter *regime.Segmenter
	adapter   *forecast.Adapter
	models    *forecast.Holder
	metrics   domrepo.Metrics
	params    AnalysisParams
	events    []models.Event
	l         *applogger.Logger

	snap    atomic.Pointer[Snapshot]
	version atomic.Int64
	now     func() time.Time
}

func NewMarketAnalysis(source domrepo.PriceSource, segmenter *regime.Segmenter, adapter *forecast.Adapter, holder *forecast.Holder, metrics domrepo.Metrics, params AnalysisParams, events []models.Event) *MarketAnalysis {
	if params.MaxHorizonDays <= 0 {
		params.MaxHorizonDays = 365
	}
	return &MarketAnalysis{
		source:    source,
		segmenter: segmenter,
		adapter:   adapter,
		models:    holder,
		metrics:   metrics,
		params:    params,
		events:    events,
		now:       time.Now,
	}
}

// SetLogger injects a structured logger.
func (a *MarketAnalysis) SetLogger(l *applogger.Logger) { a.l = l }

func (a *MarketAnalysis) Symbol() string { return a.params.Symbol }

// SourceHealth pings the price source when it is backed by a database.
// Sources without a connection report nil.
func (a *MarketAnalysis) SourceHealth(ctx context.Context) error {
	if hc, ok := a.source.(domrepo.HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// Threshold is the reversal threshold phases are computed with at refresh.
func (a *MarketAnalysis) Threshold() float64 { return a.segmenter.Threshold() }

// Refresh loads the price table, builds the series and default phases and
// publishes the result. It returns the new and the replaced snapshot; the
// previous one is nil on the first refresh. On failure the published
// snapshot is left untouched.
func (a *MarketAnalysis) Refresh(ctx context.Context) (next, prev *Snapshot, err error) {
	start := a.now()
	tbl, err := a.source.Load(ctx, models.PriceQuery{Symbol: a.params.Symbol, From: a.params.Start})
	if err != nil {
		a.recordError("load")
		return nil, nil, fmt.Errorf("refresh: %w", err)
	}
	ps, err := series.Build(tbl.Points, a.params.ShortWindow, a.params.LongWindow)
	if err != nil {
		a.recordError("build")
		return nil, nil, fmt.Errorf("refresh: %w", err)
	}
	phases, err := a.segmenter.SegmentSeries(ps)
	if err != nil {
		a.recordError("segment")
		return nil, nil, fmt.Errorf("refresh: %w", err)
	}

	next = &Snapshot{
		Version: a.version.Add(1),
		Symbol:  a.params.Symbol,
		Source:  tbl.Source,
		BuiltAt: a.now().UTC(),
		Series:  ps,
		Phases:  phases,
	}
	prev = a.snap.Swap(next)

	if a.metrics != nil {
		a.metrics.RecordRefresh(tbl.Source)
		a.metrics.RecordLastPrice(a.params.Symbol, ps.Last().Price)
		a.metrics.RecordLatency("refresh", a.now().Sub(start).Seconds())
		sum := regime.Summarize(phases)
		a.metrics.RecordPhases(string(models.PhaseBull), sum.Bulls)
		a.metrics.RecordPhases(string(models.PhaseBear), sum.Bears)
	}
	if a.l != nil {
		a.l.Info("snapshot refreshed",
			applogger.Int64("version", next.Version),
			applogger.String("source", tbl.Source),
			applogger.Int("points", ps.Len()),
			applogger.Int("phases", len(phases)),
			applogger.Duration("took", a.now().Sub(start)),
		)
	}
	return next, prev, nil
}

// Snapshot returns the current snapshot or ErrNotReady.
func (a *MarketAnalysis) Snapshot() (*Snapshot, error) {
	s := a.snap.Load()
	if s == nil {
		return nil, models.ErrNotReady
	}
	return s, nil
}

// Prices returns the derived rows of the requested range, resampled to the
// period and limited to the most recent Limit rows. Rolling fields are
// computed over the whole (resampled) history and only then cut to the
// range, so a row's averages do not depend on where the range starts.
func (a *MarketAnalysis) Prices(p PricesParams) ([]models.DerivedPoint, error) {
	s, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	ps := s.Series
	from, to := p.From, p.To
	if p.Period != "" && p.Period != models.PeriodDay {
		if !models.IsValidPeriod(p.Period) {
			return nil, models.InvalidParameterf("unknown period %q", p.Period)
		}
		ps = ps.Resample(p.Period)
		// buckets are labelled with their period end
		if !from.IsZero() {
			from = p.Period.End(from)
		}
		if !to.IsZero() {
			to = p.Period.End(to)
		}
	}
	short, long := ps.Windows()
	if p.Short > 0 {
		short = p.Short
	}
	if p.Long > 0 {
		long = p.Long
	}
	rows, err := ps.DerivedWindows(short, long, a.params.VolWindow)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() || !to.IsZero() {
		lo, hi, err := ps.Range(from, to)
		if err != nil {
			return nil, err
		}
		rows = rows[lo:hi]
	}
	if p.Limit > 0 && len(rows) > p.Limit {
		rows = rows[len(rows)-p.Limit:]
	}
	return rows, nil
}

func (a *MarketAnalysis) Summary(window int) (models.PriceSummary, error) {
	s, err := a.Snapshot()
	if err != nil {
		return models.PriceSummary{}, err
	}
	return a.summaryOf(s, window)
}

func (a *MarketAnalysis) summaryOf(s *Snapshot, window int) (models.PriceSummary, error) {
	if window <= 0 {
		window = a.params.MeanWindow
	}
	return analytics.Summarize(s.Symbol, s.Series, window)
}

// Phases segments the snapshot. A zero threshold or empty period falls back
// to the configured segmenter; that combination reuses the phases computed
// at refresh time.
func (a *MarketAnalysis) Phases(threshold float64, period models.Period) (PhasesReport, error) {
	s, err := a.Snapshot()
	if err != nil {
		return PhasesReport{}, err
	}
	return a.phasesOf(s, threshold, period)
}

func (a *MarketAnalysis) phasesOf(s *Snapshot, threshold float64, period models.Period) (PhasesReport, error) {
	var err error
	if threshold == 0 {
		threshold = a.segmenter.Threshold()
	}
	if period == "" {
		period = a.segmenter.Period()
	}
	if !models.IsValidPeriod(period) {
		return PhasesReport{}, models.InvalidParameterf("unknown period %q", period)
	}
	phases := s.Phases
	if threshold != a.segmenter.Threshold() || period != a.segmenter.Period() {
		seg := regime.NewSegmenter(regime.WithThreshold(threshold), regime.WithPeriod(period))
		if phases, err = seg.SegmentSeries(s.Series); err != nil {
			return PhasesReport{}, err
		}
	}
	return PhasesReport{
		Threshold: threshold,
		Period:    period,
		Phases:    phases,
		Summary:   regime.Summarize(phases),
	}, nil
}

// Forecast queries the loaded model for days past asOf. A zero asOf means
// the last observation of the snapshot.
func (a *MarketAnalysis) Forecast(ctx context.Context, days int, asOf time.Time) (ForecastReport, error) {
	if asOf.IsZero() {
		s, err := a.Snapshot()
		if err != nil {
			return ForecastReport{}, err
		}
		asOf = s.Series.Last().Time
	}
	return a.forecastAt(ctx, days, asOf)
}

func (a *MarketAnalysis) forecastAt(ctx context.Context, days int, asOf time.Time) (ForecastReport, error) {
	if days < 1 || days > a.params.MaxHorizonDays {
		return ForecastReport{}, models.InvalidParameterf("days must be in [1, %d], got %d", a.params.MaxHorizonDays, days)
	}
	model := a.models.Get()
	if model == nil {
		a.forecastUnavailable()
		return ForecastReport{}, models.ForecastUnavailablef("no model loaded")
	}

	start := a.now()
	rows, err := a.adapter.Forecast(ctx, model, days, asOf)
	if err != nil {
		if errors.Is(err, models.ErrForecastUnavailable) {
			a.forecastUnavailable()
		}
		if a.l != nil {
			a.l.Error("forecast failed", applogger.Int("days", days), applogger.Error(err))
		}
		return ForecastReport{}, err
	}
	if a.metrics != nil {
		a.metrics.RecordLatency("forecast", a.now().Sub(start).Seconds())
	}

	rep := ForecastReport{AsOf: asOf, Days: days, Rows: rows}
	if d, ok := model.(domsvc.ModelDescriber); ok {
		q := d.Quality()
		rep.Model = d.Name()
		rep.Quality = &q
	}
	return rep, nil
}

func (a *MarketAnalysis) Seasonality() ([]models.SeasonalStat, error) {
	s, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	return analytics.MonthlySeasonality(s.Series)
}

func (a *MarketAnalysis) Yearly() ([]models.YearlyStat, error) {
	s, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	return a.yearlyOf(s)
}

func (a *MarketAnalysis) yearlyOf(s *Snapshot) ([]models.YearlyStat, error) {
	return analytics.YearlySummary(s.Series, a.params.VolWindow)
}

func (a *MarketAnalysis) Window(from, to time.Time, top int) (models.WindowStats, error) {
	s, err := a.Snapshot()
	if err != nil {
		return models.WindowStats{}, err
	}
	return analytics.WindowStats(s.Series, from, to, a.params.VolWindow, top)
}

// Events lists the configured events.
func (a *MarketAnalysis) Events() []models.Event {
	out := make([]models.Event, len(a.events))
	copy(out, a.events)
	return out
}

// Event returns the configured event, the observation nearest its date and
// the stats of its window.
func (a *MarketAnalysis) Event(key string, top int) (EventReport, error) {
	for _, e := range a.events {
		if e.Key != key {
			continue
		}
		s, err := a.Snapshot()
		if err != nil {
			return EventReport{}, err
		}
		st, err := analytics.WindowStats(s.Series, e.From, util.EndOfDay(e.To), a.params.VolWindow, top)
		if err != nil {
			return EventReport{}, err
		}
		anchor := s.Series.At(s.Series.Nearest(e.Date))
		rep := EventReport{Event: e, Anchor: anchor, Stats: st}
		if st.StartPrice > 0 {
			rep.AnchorChangePct = models.Some((anchor.Price - st.StartPrice) / st.StartPrice * 100)
		}
		return rep, nil
	}
	return EventReport{}, fmt.Errorf("event %q: %w", key, models.ErrNotFound)
}

func (a *MarketAnalysis) recordError(kind string) {
	if a.metrics != nil {
		a.metrics.RecordError(kind)
	}
}

func (a *MarketAnalysis) forecastUnavailable() {
	if a.metrics != nil {
		a.metrics.RecordForecastUnavailable()
	}
}
