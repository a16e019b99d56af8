package interfaces

import (
	"time"

	"github.com/raysh454/proctor/internal/model"
)

// Sink receives what the trackers conclude. The session state implements it;
// tests use a recording double.
type Sink interface {
	// Increment bumps the counter for v and returns its new value.
	Increment(v model.Violation, at time.Time) int

	// Log appends an entry to the session event log.
	Log(at time.Time, sev model.Severity, msg string)

	// Counters returns the current counters.
	Counters() model.ViolationCounters
}
