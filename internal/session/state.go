package session

import (
	"sync"
	"time"

	"github.com/raysh454/proctor/internal/attention"
	"github.com/raysh454/proctor/internal/metrics"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/score"
)

// Status is the lifecycle stage of a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// UpdateKind tells subscribers what changed.
type UpdateKind string

const (
	UpdateCounters UpdateKind = "counters"
	UpdateEvent    UpdateKind = "event"
	UpdateStatus   UpdateKind = "status"
	UpdateFocus    UpdateKind = "focus"
)

// Update is pushed to the notifier on every counter change, log append,
// focus change and lifecycle transition.
type Update struct {
	Kind           UpdateKind               `json:"type"`
	SessionID      string                   `json:"sessionId"`
	Counters       *model.ViolationCounters `json:"counters,omitempty"`
	IntegrityScore *int                     `json:"integrityScore,omitempty"`
	Event          *model.EventLogEntry     `json:"event,omitempty"`
	Status         Status                   `json:"status,omitempty"`
	Focus          attention.Focus          `json:"focus,omitempty"`
}

// Notifier receives updates in the order the mutations happened. It is
// called outside the state lock but from the poll goroutines, so it must
// not block or call back into the State.
type Notifier func(Update)

// State is the single owner of a session's counters and event log. It is
// safe for concurrent use by both poll channels and any number of readers.
// Once frozen, every mutation is dropped.
type State struct {
	id      string
	weights score.Weights
	notify  Notifier
	metrics *metrics.Metrics

	// emitMu is held from a mutation through its notification so a
	// slower tick cannot deliver an older counters update after a newer one.
	emitMu sync.Mutex

	mu        sync.Mutex
	status    Status
	startedAt time.Time
	endedAt   time.Time
	counters  model.ViolationCounters
	events    []model.EventLogEntry
	focus     attention.Focus
	frozen    bool
}

// NewState returns an idle state.
func NewState(id string, weights score.Weights, notify Notifier, m *metrics.Metrics) *State {
	return &State{id: id, weights: weights, notify: notify, metrics: m, status: StatusIdle}
}

func (s *State) emit(u Update) {
	if s.notify == nil {
		return
	}
	u.SessionID = s.id
	s.notify(u)
}

// begin resets everything and marks the state running.
func (s *State) begin(at time.Time) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.status = StatusRunning
	s.startedAt = at
	s.endedAt = time.Time{}
	s.counters = model.ViolationCounters{}
	s.events = nil
	s.focus = attention.FocusUnknown
	s.frozen = false
	s.mu.Unlock()

	s.metrics.SetSessionActive(true)
	s.metrics.SetIntegrityScore(score.MaxScore)
	s.emit(Update{Kind: UpdateStatus, Status: StatusRunning})
}

// freeze stops all further mutation.
func (s *State) freeze(at time.Time) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.frozen {
		s.mu.Unlock()
		return
	}
	s.frozen = true
	s.status = StatusStopped
	s.endedAt = at
	s.mu.Unlock()

	s.metrics.SetSessionActive(false)
	s.emit(Update{Kind: UpdateStatus, Status: StatusStopped})
}

// Increment implements interfaces.Sink.
func (s *State) Increment(v model.Violation, at time.Time) int {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.frozen {
		n := s.counters.Get(v)
		s.mu.Unlock()
		return n
	}
	n := s.counters.Inc(v)
	counters := s.counters
	s.mu.Unlock()

	sc := s.weights.Score(counters)
	s.metrics.ViolationCounted(v.String())
	s.metrics.SetIntegrityScore(sc)
	s.emit(Update{Kind: UpdateCounters, Counters: &counters, IntegrityScore: &sc})
	return n
}

// Log implements interfaces.Sink.
func (s *State) Log(at time.Time, sev model.Severity, msg string) {
	entry := model.NewEvent(at, sev, msg)
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.frozen {
		s.mu.Unlock()
		return
	}
	s.events = append(s.events, entry)
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateEvent, Event: &entry})
}

// Counters implements interfaces.Sink.
func (s *State) Counters() model.ViolationCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// Events returns a copy of the event log in insertion order.
func (s *State) Events() []model.EventLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventLogEntry, len(s.events))
	copy(out, s.events)
	return out
}

// Frozen reports whether the state has been frozen by a stop.
func (s *State) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

func (s *State) setFocus(f attention.Focus) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.frozen || s.focus == f {
		s.mu.Unlock()
		return
	}
	s.focus = f
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateFocus, Focus: f})
}

// Snapshot returns a read-only copy. For a running session the duration
// runs up to now.
func (s *State) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]model.EventLogEntry, len(s.events))
	copy(events, s.events)

	end := s.endedAt
	if end.IsZero() {
		end = now
	}
	var dur time.Duration
	if !s.startedAt.IsZero() {
		dur = end.Sub(s.startedAt)
	}

	return Snapshot{
		SessionID:      s.id,
		Status:         s.status,
		Duration:       dur,
		DurationText:   FormatDuration(dur),
		StartTime:      FormatISO(s.startedAt),
		EndTime:        FormatISO(s.endedAt),
		Counters:       s.counters,
		IntegrityScore: s.weights.Score(s.counters),
		Focus:          s.focus,
		Events:         events,
	}
}
