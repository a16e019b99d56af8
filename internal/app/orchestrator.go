package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/proctor/internal/interfaces"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/metrics"
	"github.com/raysh454/proctor/internal/report"
	"github.com/raysh454/proctor/internal/session"
)

var (
	ErrNoSession = errors.New("no interview session")
	ErrNoStore   = errors.New("no report store configured")
)

// ReportStore is the persistence the orchestrator needs; *report.Store
// implements it.
type ReportStore interface {
	Save(ctx context.Context, rec report.Record) (report.Record, error)
	Get(ctx context.Context, id string) (report.Record, error)
	List(ctx context.Context, limit int) ([]report.Summary, error)
	Delete(ctx context.Context, id string) error
}

// SessionInfo describes the current session.
type SessionInfo struct {
	ID            string           `json:"id"`
	CandidateName string           `json:"candidateName"`
	StartedAt     time.Time        `json:"startedAt"`
	Snapshot      session.Snapshot `json:"snapshot"`
}

// StopResult is what stopping a session produces. When storage fails the
// record is still returned together with the text fallback.
type StopResult struct {
	Report     report.Record `json:"report"`
	Stored     bool          `json:"stored"`
	StoreError string        `json:"storeError,omitempty"`
	TextReport string        `json:"textReport,omitempty"`
}

// Orchestrator owns at most one interview session at a time, persists its
// report when it stops and fans its updates out to subscribers.
type Orchestrator struct {
	cfg     *Config
	store   ReportStore
	faces   interfaces.FaceDetector
	objects interfaces.ObjectDetector
	logger  logging.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	current   *session.Session
	candidate string
	startedAt time.Time
	last      *StopResult

	subsMu sync.Mutex
	subs   map[string]chan session.Update
}

// NewOrchestrator ties together config, detectors, report store and logger.
func NewOrchestrator(cfg *Config, faces interfaces.FaceDetector, objects interfaces.ObjectDetector, store ReportStore, logger logging.Logger, m *metrics.Metrics) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Orchestrator{
		cfg:     cfg,
		store:   store,
		faces:   faces,
		objects: objects,
		logger:  logger,
		metrics: m,
		subs:    make(map[string]chan session.Update),
	}
}

// StartSession begins monitoring candidate. Fails with
// session.ErrSessionRunning while another session runs and with
// session.ErrCapabilityUnavailable when the detectors are unreachable.
func (o *Orchestrator) StartSession(ctx context.Context, candidate string) (*SessionInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil && o.current.Running() {
		return nil, session.ErrSessionRunning
	}

	id := uuid.New().String()
	sess := session.New(id, o.cfg.Session, o.faces, o.objects, o.logger,
		session.WithMetrics(o.metrics),
		session.WithNotifier(o.broadcast))
	if err := sess.Start(ctx); err != nil {
		o.logger.Warn("starting session", logging.Field{Key: "error", Value: err})
		return nil, err
	}

	o.current = sess
	o.candidate = candidate
	o.startedAt = time.Now().UTC()
	o.last = nil

	o.logger.Info("session started", logging.Field{Key: "session_id", Value: id}, logging.Field{Key: "candidate", Value: candidate})
	return o.infoLocked(), nil
}

// StopSession stops the running session and persists its report.
func (o *Orchestrator) StopSession(ctx context.Context) (*StopResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil || !o.current.Running() {
		return nil, session.ErrSessionNotRunning
	}

	snap, err := o.current.Stop()
	if err != nil {
		return nil, err
	}

	rec := report.FromSnapshot(snap, o.candidate, time.Now())
	res := &StopResult{Report: rec}

	if o.store == nil {
		res.StoreError = ErrNoStore.Error()
	} else if saved, err := o.store.Save(ctx, rec); err != nil {
		o.logger.Warn("saving report, falling back to text report", logging.Field{Key: "error", Value: err})
		res.StoreError = err.Error()
	} else {
		res.Report = saved
		res.Stored = true
	}
	if !res.Stored {
		res.TextReport = report.RenderText(res.Report)
	}

	o.last = res
	o.logger.Info("session stopped",
		logging.Field{Key: "session_id", Value: snap.SessionID},
		logging.Field{Key: "integrity_score", Value: snap.IntegrityScore},
		logging.Field{Key: "stored", Value: res.Stored})
	return res, nil
}

// Current returns the current (running or last stopped) session.
func (o *Orchestrator) Current() (*SessionInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return nil, ErrNoSession
	}
	return o.infoLocked(), nil
}

// LastResult returns the outcome of the most recent stop, if any.
func (o *Orchestrator) LastResult() *StopResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *Orchestrator) infoLocked() *SessionInfo {
	return &SessionInfo{
		ID:            o.current.ID(),
		CandidateName: o.candidate,
		StartedAt:     o.startedAt,
		Snapshot:      o.current.Snapshot(),
	}
}

// Subscribe registers a live-update subscriber.
func (o *Orchestrator) Subscribe() (string, <-chan session.Update) {
	size := o.cfg.SubscriberBuffer
	if size <= 0 {
		size = 16
	}
	id := uuid.New().String()
	ch := make(chan session.Update, size)

	o.subsMu.Lock()
	o.subs[id] = ch
	n := len(o.subs)
	o.subsMu.Unlock()

	o.metrics.SetSubscribers(n)
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (o *Orchestrator) Unsubscribe(id string) {
	o.subsMu.Lock()
	ch, ok := o.subs[id]
	if ok {
		delete(o.subs, id)
		close(ch)
	}
	n := len(o.subs)
	o.subsMu.Unlock()

	o.metrics.SetSubscribers(n)
}

func (o *Orchestrator) broadcast(u session.Update) {
	o.subsMu.Lock()
	defer o.subsMu.Unlock()

	for _, ch := range o.subs {
		// Non-blocking send; drop if the subscriber is behind.
		select {
		case ch <- u:
		default:
		}
	}
}

func (o *Orchestrator) SaveReport(ctx context.Context, rec report.Record) (report.Record, error) {
	if o.store == nil {
		return report.Record{}, ErrNoStore
	}
	return o.store.Save(ctx, rec)
}

func (o *Orchestrator) GetReport(ctx context.Context, id string) (report.Record, error) {
	if o.store == nil {
		return report.Record{}, ErrNoStore
	}
	return o.store.Get(ctx, id)
}

func (o *Orchestrator) ListReports(ctx context.Context, limit int) ([]report.Summary, error) {
	if o.store == nil {
		return nil, ErrNoStore
	}
	return o.store.List(ctx, limit)
}

func (o *Orchestrator) DeleteReport(ctx context.Context, id string) error {
	if o.store == nil {
		return ErrNoStore
	}
	return o.store.Delete(ctx, id)
}

// Close stops a running session (persisting its report) and drops all
// subscribers.
func (o *Orchestrator) Close(ctx context.Context) error {
	var err error
	o.mu.Lock()
	running := o.current != nil && o.current.Running()
	o.mu.Unlock()
	if running {
		_, err = o.StopSession(ctx)
	}

	o.subsMu.Lock()
	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
	o.subsMu.Unlock()
	o.metrics.SetSubscribers(0)
	return err
}
