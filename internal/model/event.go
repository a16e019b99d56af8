package model

import "time"

// Severity classifies an event log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// EventTimeLayout is the wall-clock format used for event timestamps.
const EventTimeLayout = "15:04:05"

// EventLogEntry is one line of the append-only session event log.
type EventLogEntry struct {
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

// NewEvent stamps msg with the local wall-clock time of at.
func NewEvent(at time.Time, sev Severity, msg string) EventLogEntry {
	return EventLogEntry{
		Timestamp: at.Local().Format(EventTimeLayout),
		Message:   msg,
		Severity:  sev,
	}
}
