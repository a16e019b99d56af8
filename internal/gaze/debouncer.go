package gaze

import (
	"time"

	"github.com/raysh454/proctor/internal/violation"
)

// Outcome is what a single observation did to the look-away episode.
type Outcome int

const (
	// Steady: nothing changed.
	Steady Outcome = iota
	// Started: the gaze became consistently away and an episode opened.
	Started
	// Sustained: the open episode outlasted the cool-down and is counted.
	Sustained
	// Returned: an episode longer than ReturnNoticeAfter closed.
	Returned
	// Ended: a short episode closed.
	Ended
)

func (o Outcome) String() string {
	switch o {
	case Started:
		return "started"
	case Sustained:
		return "sustained"
	case Returned:
		return "returned"
	case Ended:
		return "ended"
	default:
		return "steady"
	}
}

// Debouncer turns raw per-frame samples into look-away episodes.
// It is not safe for concurrent use.
type Debouncer struct {
	cfg     Config
	window  *Window
	gate    *violation.Gate
	opened  time.Time
	episode bool
}

// NewDebouncer returns a debouncer whose sustained-episode counting follows
// policy. A zero policy uses Cooldown(cfg.ViolationAfter).
func NewDebouncer(cfg Config, policy violation.RatePolicy) *Debouncer {
	cfg = cfg.withDefaults()
	policy = policy.Or(violation.Cooldown(cfg.ViolationAfter))
	return &Debouncer{
		cfg:    cfg,
		window: NewWindow(cfg.WindowSize),
		gate:   violation.NewGate(policy),
	}
}

// Consistent reports whether strictly more than WindowSize*ConsistencyFraction
// of the held samples are "away".
func (d *Debouncer) Consistent() bool {
	return float64(d.window.Count()) > float64(d.window.Cap())*d.cfg.ConsistencyFraction
}

// Observe pushes one raw sample taken at now and advances the episode.
func (d *Debouncer) Observe(now time.Time, away bool) (bool, Outcome) {
	d.window.Push(away)
	consistent := d.Consistent()

	switch {
	case consistent && !d.episode:
		d.episode = true
		d.opened = now
		d.gate.Arm(now)
		return true, Started
	case consistent:
		if d.gate.Allow(now) {
			return true, Sustained
		}
		return true, Steady
	case d.episode:
		lasted := now.Sub(d.opened)
		d.episode = false
		d.opened = time.Time{}
		d.gate.Disarm()
		if lasted > d.cfg.ReturnNoticeAfter {
			return false, Returned
		}
		return false, Ended
	}
	return false, Steady
}

// ClearSamples empties the sample window. An open episode stays open until a
// later observation closes it.
func (d *Debouncer) ClearSamples() {
	d.window.Reset()
}

// Reset clears samples, the episode and the gate.
func (d *Debouncer) Reset() {
	d.window.Reset()
	d.episode = false
	d.opened = time.Time{}
	d.gate.Reset()
}

// EpisodeOpen reports whether a look-away episode is in progress, and since when.
func (d *Debouncer) EpisodeOpen() (time.Time, bool) {
	return d.opened, d.episode
}

// Samples exposes the window contents, oldest first.
func (d *Debouncer) Samples() []bool {
	return d.window.Samples()
}
