// Package session runs one proctoring session: two independently paced
// detection polls feeding the attention and object trackers, a shared state
// with an append-only event log, and a frozen snapshot once stopped.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/proctor/internal/attention"
	"github.com/raysh454/proctor/internal/interfaces"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/metrics"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/objects"
)

var (
	ErrCapabilityUnavailable = errors.New("capture capability unavailable")
	ErrSessionRunning        = errors.New("session already running")
	ErrSessionNotRunning     = errors.New("session not running")
	ErrSessionFinished       = errors.New("session already finished")
)

// Option customizes a Session.
type Option func(*Session)

// WithMetrics records poll and violation metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithNotifier subscribes fn to state updates.
func WithNotifier(fn Notifier) Option {
	return func(s *Session) { s.notify = fn }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one interview. It is single-use: after Stop it stays frozen.
type Session struct {
	id      string
	cfg     Config
	faces   interfaces.FaceDetector
	objects interfaces.ObjectDetector
	logger  logging.Logger
	metrics *metrics.Metrics
	notify  Notifier
	now     func() time.Time

	state      *State
	attention  *attention.Tracker
	objTracker *objects.Tracker

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	group     *errgroup.Group
	inflight  sync.WaitGroup

	faceBusy   atomic.Bool
	objectBusy atomic.Bool
}

// New builds an idle session.
func New(id string, cfg Config, faces interfaces.FaceDetector, objs interfaces.ObjectDetector, logger logging.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = logging.Nop{}
	}
	s := &Session{
		id:      id,
		cfg:     cfg.withDefaults(),
		faces:   faces,
		objects: objs,
		logger:  logger.With(logging.Field{Key: "session_id", Value: id}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = NewState(id, s.cfg.Weights, s.notify, s.metrics)
	s.attention = attention.NewTracker(s.cfg.Attention, s.state, s.logger)
	s.objTracker = objects.NewTracker(s.cfg.Objects, s.state, s.logger)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State exposes the live state for readers.
func (s *Session) State() *State { return s.state }

// Start checks capture capability, resets all state and begins polling.
// ctx bounds the capability check only; polling runs until Stop.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel != nil {
		return ErrSessionRunning
	}
	if s.state.Frozen() {
		return ErrSessionFinished
	}
	if s.faces == nil || s.objects == nil {
		return fmt.Errorf("%w: detector not configured", ErrCapabilityUnavailable)
	}
	if err := s.probe(ctx); err != nil {
		return err
	}

	s.attention.Reset()
	s.objTracker.Reset()
	s.faceBusy.Store(false)
	s.objectBusy.Store(false)

	now := s.now()
	s.state.begin(now)
	s.state.Log(now, model.SeverityInfo, "Interview started")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return s.poll(gctx, metrics.ChannelFaces, s.cfg.FaceInterval, &s.faceBusy, s.faceTick)
	})
	g.Go(func() error {
		return s.poll(gctx, metrics.ChannelObjects, s.cfg.ObjectInterval, &s.objectBusy, s.objectTick)
	})
	s.cancel = cancel
	s.group = g

	s.logger.Info("session started",
		logging.Field{Key: "face_interval", Value: s.cfg.FaceInterval.String()},
		logging.Field{Key: "object_interval", Value: s.cfg.ObjectInterval.String()})
	return nil
}

func (s *Session) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	detectors := []struct {
		name string
		d    any
	}{
		{"face detector", s.faces},
		{"object detector", s.objects},
	}
	for _, det := range detectors {
		p, ok := det.d.(interfaces.Prober)
		if !ok {
			continue
		}
		if err := p.Probe(probeCtx); err != nil {
			s.logger.Warn("capability check failed", logging.Field{Key: "detector", Value: det.name}, logging.Field{Key: "error", Value: err})
			return fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, det.name, err)
		}
	}
	return nil
}

// Stop halts both polls, waits for in-flight ticks and freezes the state.
// No tick started after Stop returns can mutate the counters.
func (s *Session) Stop() (Snapshot, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.cancel == nil {
		if s.state.Frozen() {
			return s.state.Snapshot(s.now()), ErrSessionFinished
		}
		return Snapshot{}, ErrSessionNotRunning
	}

	s.cancel()
	if err := s.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("poll loop ended with error", logging.Field{Key: "error", Value: err})
	}
	s.inflight.Wait()
	s.cancel = nil
	s.group = nil

	now := s.now()
	s.state.Log(now, model.SeverityInfo, "Interview ended")
	s.state.freeze(now)

	snap := s.state.Snapshot(now)
	s.logger.Info("session stopped",
		logging.Field{Key: "duration", Value: snap.DurationText},
		logging.Field{Key: "integrity_score", Value: snap.IntegrityScore})
	return snap, nil
}

// Running reports whether the polls are active.
func (s *Session) Running() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.cancel != nil
}

// Snapshot returns the current view; safe during and after the session.
func (s *Session) Snapshot() Snapshot {
	return s.state.Snapshot(s.now())
}

// poll runs tick every interval. A tick that comes due while the previous
// one of the same channel is still in flight is skipped, never queued.
func (s *Session) poll(ctx context.Context, channel string, interval time.Duration, busy *atomic.Bool, tick func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if !busy.CompareAndSwap(false, true) {
			s.metrics.TickSkipped(channel)
			s.logger.Debug("tick skipped, previous still running", logging.Field{Key: "channel", Value: channel})
			continue
		}

		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			defer busy.Store(false)
			start := time.Now()
			tick(ctx)
			s.metrics.TickRan(channel, time.Since(start).Seconds())
		}()
	}
}

func (s *Session) faceTick(ctx context.Context) {
	faces, err := s.faces.DetectFaces(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.inferenceFailed(metrics.ChannelFaces, "Face detection failed", err)
		return
	}
	focus := s.attention.Process(s.now(), faces)
	s.state.setFocus(focus)
}

func (s *Session) objectTick(ctx context.Context) {
	dets, err := s.objects.DetectObjects(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.inferenceFailed(metrics.ChannelObjects, "Object detection failed", err)
		return
	}
	s.objTracker.Process(s.now(), dets)
}

func (s *Session) inferenceFailed(channel, msg string, err error) {
	s.metrics.InferenceFailed(channel)
	s.logger.Warn("inference failed", logging.Field{Key: "channel", Value: channel}, logging.Field{Key: "error", Value: err})
	s.state.Log(s.now(), model.SeverityError, fmt.Sprintf("%s: %v", msg, err))
}
