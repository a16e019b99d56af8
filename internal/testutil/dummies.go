// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O.
package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/report"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Sink ──────────────────────────────────────────────────────────────

// LoggedEvent is one entry captured by RecordingSink.
type LoggedEvent struct {
	At       time.Time
	Severity model.Severity
	Message  string
}

// RecordingSink implements interfaces.Sink in memory.
type RecordingSink struct {
	mu       sync.Mutex
	counters model.ViolationCounters
	Events   []LoggedEvent
}

func (s *RecordingSink) Increment(v model.Violation, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters.Inc(v)
}

func (s *RecordingSink) Log(at time.Time, sev model.Severity, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, LoggedEvent{At: at, Severity: sev, Message: msg})
}

func (s *RecordingSink) Counters() model.ViolationCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// Messages returns the logged messages in order.
func (s *RecordingSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Events))
	for i, e := range s.Events {
		out[i] = e.Message
	}
	return out
}

// ─── Detectors ─────────────────────────────────────────────────────────

// ScriptedFaceDetector implements interfaces.FaceDetector. Each call returns
// the next scripted frame (the last one repeats); Err, when set, is
// returned instead. Delay simulates slow inference.
type ScriptedFaceDetector struct {
	mu       sync.Mutex
	Frames   [][]model.FaceObservation
	Err      error
	Delay    time.Duration
	ProbeErr error

	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func (d *ScriptedFaceDetector) DetectFaces(ctx context.Context) ([]model.FaceObservation, error) {
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		m := d.maxSeen.Load()
		if n <= m || d.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	i := d.calls.Add(1) - 1

	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.Frames) == 0 {
		return nil, nil
	}
	if int(i) >= len(d.Frames) {
		return d.Frames[len(d.Frames)-1], nil
	}
	return d.Frames[i], nil
}

func (d *ScriptedFaceDetector) Probe(ctx context.Context) error { return d.ProbeErr }

// Calls is the number of DetectFaces calls so far.
func (d *ScriptedFaceDetector) Calls() int { return int(d.calls.Load()) }

// MaxConcurrent is the highest number of overlapping DetectFaces calls seen.
func (d *ScriptedFaceDetector) MaxConcurrent() int { return int(d.maxSeen.Load()) }

// SetErr swaps the scripted error.
func (d *ScriptedFaceDetector) SetErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Err = err
}

// ScriptedObjectDetector implements interfaces.ObjectDetector with the same
// conventions as ScriptedFaceDetector.
type ScriptedObjectDetector struct {
	mu     sync.Mutex
	Frames [][]model.ObjectDetection
	Err    error
	Delay  time.Duration

	calls atomic.Int64
}

func (d *ScriptedObjectDetector) DetectObjects(ctx context.Context) ([]model.ObjectDetection, error) {
	i := d.calls.Add(1) - 1
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.Frames) == 0 {
		return nil, nil
	}
	if int(i) >= len(d.Frames) {
		return d.Frames[len(d.Frames)-1], nil
	}
	return d.Frames[i], nil
}

// Calls is the number of DetectObjects calls so far.
func (d *ScriptedObjectDetector) Calls() int { return int(d.calls.Load()) }

// ─── Report store ──────────────────────────────────────────────────────

// ErrStoreDown is returned by a FailingStore.
var ErrStoreDown = errors.New("store unavailable")

// FailingStore implements app.ReportStore and fails every call.
type FailingStore struct{}

func (FailingStore) Save(context.Context, report.Record) (report.Record, error) {
	return report.Record{}, ErrStoreDown
}

func (FailingStore) Get(context.Context, string) (report.Record, error) {
	return report.Record{}, ErrStoreDown
}

func (FailingStore) List(context.Context, int) ([]report.Summary, error) {
	return nil, ErrStoreDown
}

func (FailingStore) Delete(context.Context, string) error { return ErrStoreDown }

// ─── Faces ─────────────────────────────────────────────────────────────

// CenteredFace returns a face looking straight at the camera: both eyes
// 10px either side of the nose in a 200px-wide box.
func CenteredFace() model.FaceObservation {
	return FaceWithEyes(90, 110)
}

// TurnedFace returns a face whose eyes both sit well to one side of the
// nose, so the eye-distance ratio is low.
func TurnedFace() model.FaceObservation {
	return FaceWithEyes(95, 140)
}

// FaceWithEyes builds a 200px-wide face with the nose at x=100 and eye
// centers at the given x positions.
func FaceWithEyes(rightX, leftX float64) model.FaceObservation {
	eye := func(x float64) []model.Point {
		return []model.Point{{X: x - 2, Y: 80}, {X: x, Y: 78}, {X: x + 2, Y: 82}}
	}
	return model.FaceObservation{
		TopLeft:     model.Point{X: 0, Y: 0},
		BottomRight: model.Point{X: 200, Y: 240},
		RightEye:    eye(rightX),
		LeftEye:     eye(leftX),
		Nose:        []model.Point{{X: 100, Y: 120}},
	}
}
