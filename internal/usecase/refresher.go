package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	domsvc "BrentPulse/internal/domain/service"
	"BrentPulse/internal/services/forecast"
	"BrentPulse/internal/services/regime"
	applogger "BrentPulse/pkg/logger"
)

// ModelLoader reloads the forecast model from a file.
type ModelLoader func(path string) (domsvc.ForecastModel, error)

// SnapshotNotice is pushed to websocket subscribers after every refresh.
type SnapshotNotice struct {
	Type      string              `json:"type"`
	Version   int64               `json:"version"`
	Symbol    string              `json:"symbol"`
	Source    string              `json:"source"`
	AsOf      time.Time           `json:"as_of"`
	LastPrice float64             `json:"last_price"`
	Current   *models.MarketPhase `json:"current_phase,omitempty"`
	Events    []models.PhaseEvent `json:"phase_events,omitempty"`
}

// Refresher keeps the analysis snapshot current: it refreshes on a ticker
// and whenever a watched data file changes, reloads the forecast model when
// its file changes and fans phase changes out to Kafka and websockets.
type Refresher struct {
	analysis    *MarketAnalysis
	publisher   domrepo.PhasePublisher
	broadcaster domrepo.Broadcaster
	metrics     domrepo.Metrics
	l           *applogger.Logger

	interval   time.Duration
	dataFiles  []string
	modelPath  string
	holder     *forecast.Holder
	loadModel  ModelLoader
	newID      func() string
	cooldown   time.Duration
	lastReload time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	watcher *fsnotify.Watcher
}

type RefresherOption func(*Refresher)

func WithInterval(d time.Duration) RefresherOption { return func(r *Refresher) { r.interval = d } }

// WithWatchedData refreshes whenever one of the files is written.
func WithWatchedData(paths ...string) RefresherOption {
	return func(r *Refresher) {
		for _, p := range paths {
			if p != "" {
				r.dataFiles = append(r.dataFiles, filepath.Clean(p))
			}
		}
	}
}

// WithWatchedModel reloads the model into holder whenever path is written.
func WithWatchedModel(path string, holder *forecast.Holder, load ModelLoader) RefresherOption {
	return func(r *Refresher) {
		if path != "" {
			r.modelPath = filepath.Clean(path)
		}
		r.holder = holder
		r.loadModel = load
	}
}

func WithPublisher(p domrepo.PhasePublisher) RefresherOption {
	return func(r *Refresher) { r.publisher = p }
}

func WithBroadcaster(b domrepo.Broadcaster) RefresherOption {
	return func(r *Refresher) { r.broadcaster = b }
}

func WithRefresherLogger(l *applogger.Logger) RefresherOption {
	return func(r *Refresher) { r.l = l }
}

func NewRefresher(analysis *MarketAnalysis, metrics domrepo.Metrics, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		analysis: analysis,
		metrics:  metrics,
		interval: time.Hour,
		newID:    uuid.NewString,
		cooldown: time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start performs the first refresh and starts the background loop. A failed
// first refresh is logged and retried on the next tick; the API reports not
// ready until then.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return fmt.Errorf("refresher already started")
	}

	if err := r.RefreshOnce(ctx); err != nil && r.l != nil {
		r.l.Error("initial refresh failed", applogger.Error(err))
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if len(r.dataFiles) > 0 || r.modelPath != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		// watch directories so editors that replace files are still seen
		dirs := map[string]struct{}{}
		for _, p := range append(append([]string{}, r.dataFiles...), r.modelPath) {
			if p == "" {
				continue
			}
			dirs[filepath.Dir(p)] = struct{}{}
		}
		for d := range dirs {
			if err := w.Add(d); err != nil {
				_ = w.Close()
				return fmt.Errorf("watch %s: %w", d, err)
			}
		}
		r.watcher = w
		events, errs = w.Events, w.Errors
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(loopCtx, events, errs)
	return nil
}

func (r *Refresher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshLogged(ctx, "tick")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.handleFileEvent(ctx, filepath.Clean(ev.Name))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if r.l != nil {
				r.l.Warn("file watcher error", applogger.Error(err))
			}
		}
	}
}

func (r *Refresher) handleFileEvent(ctx context.Context, name string) {
	// writers usually emit several events per save
	if time.Since(r.lastReload) < r.cooldown {
		return
	}
	switch {
	case name == r.modelPath:
		r.lastReload = time.Now()
		if err := r.ReloadModel(); err != nil && r.l != nil {
			r.l.Error("model reload failed", applogger.String("path", name), applogger.Error(err))
		}
	case r.isDataFile(name):
		r.lastReload = time.Now()
		r.refreshLogged(ctx, "file")
	}
}

func (r *Refresher) isDataFile(name string) bool {
	for _, p := range r.dataFiles {
		if p == name {
			return true
		}
	}
	return false
}

func (r *Refresher) refreshLogged(ctx context.Context, trigger string) {
	if err := r.RefreshOnce(ctx); err != nil && r.l != nil {
		r.l.Error("refresh failed", applogger.String("trigger", trigger), applogger.Error(err))
	}
}

// RefreshOnce rebuilds the snapshot, publishes phase changes relative to the
// previous snapshot and notifies websocket subscribers.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	next, prev, err := r.analysis.Refresh(ctx)
	if err != nil {
		return err
	}

	var events []models.PhaseEvent
	if prev != nil {
		events = r.phaseEvents(next, prev.Phases)
	}
	if len(events) > 0 && r.publisher != nil {
		if err := r.publisher.PublishPhases(ctx, events); err != nil {
			if r.metrics != nil {
				r.metrics.RecordError("publish")
			}
			if r.l != nil {
				r.l.Error("publish phase events failed", applogger.Int("events", len(events)), applogger.Error(err))
			}
		}
	}
	r.notify(next, events)
	return nil
}

// ReloadModel loads the model file and swaps it in. The previous model stays
// active when loading fails.
func (r *Refresher) ReloadModel() error {
	if r.loadModel == nil || r.holder == nil || r.modelPath == "" {
		return nil
	}
	m, err := r.loadModel(r.modelPath)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("model_reload")
		}
		return fmt.Errorf("reload model: %w", err)
	}
	r.holder.Set(m)
	if r.l != nil {
		r.l.Info("forecast model reloaded", applogger.String("path", r.modelPath))
	}
	return nil
}

func (r *Refresher) phaseEvents(next *Snapshot, prev []models.MarketPhase) []models.PhaseEvent {
	confirmed, closed := regime.Diff(prev, next.Phases)
	now := time.Now().UTC()
	seg := r.analysis.segmenter
	mk := func(typ string, p models.MarketPhase) models.PhaseEvent {
		return models.PhaseEvent{
			ID:        r.newID(),
			Symbol:    next.Symbol,
			Type:      typ,
			Threshold: seg.Threshold(),
			Period:    seg.Period(),
			Phase:     p,
			EmittedAt: now,
		}
	}
	out := make([]models.PhaseEvent, 0, len(confirmed)+len(closed))
	for _, p := range confirmed {
		out = append(out, mk(models.PhaseEventConfirmed, p))
	}
	for _, p := range closed {
		out = append(out, mk(models.PhaseEventClosed, p))
	}
	return out
}

func (r *Refresher) notify(s *Snapshot, events []models.PhaseEvent) {
	if r.broadcaster == nil {
		return
	}
	n := SnapshotNotice{
		Type:      "snapshot",
		Version:   s.Version,
		Symbol:    s.Symbol,
		Source:    s.Source,
		AsOf:      s.Series.Last().Time,
		LastPrice: s.Series.Last().Price,
		Events:    events,
	}
	if k := len(s.Phases); k > 0 && s.Phases[k-1].Open {
		cur := s.Phases[k-1]
		n.Current = &cur
	}
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	r.broadcaster.Broadcast(b)
}

// Stop ends the loop and closes the watcher and publisher.
func (r *Refresher) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
	}
	var firstErr error
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			firstErr = err
		}
		r.watcher = nil
	}
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
