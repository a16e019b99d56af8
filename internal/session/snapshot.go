package session

import (
	"fmt"
	"time"

	"github.com/raysh454/proctor/internal/attention"
	"github.com/raysh454/proctor/internal/model"
)

// ISOLayout matches JavaScript's Date.toISOString.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Snapshot is the read-only view of a session handed to report generation
// and the UI.
type Snapshot struct {
	SessionID      string                  `json:"sessionId"`
	Status         Status                  `json:"status"`
	Duration       time.Duration           `json:"-"`
	DurationText   string                  `json:"durationText"`
	StartTime      string                  `json:"startTime"`
	EndTime        string                  `json:"endTime,omitempty"`
	Counters       model.ViolationCounters `json:"counters"`
	IntegrityScore int                     `json:"integrityScore"`
	Focus          attention.Focus         `json:"focus,omitempty"`
	Events         []model.EventLogEntry   `json:"events"`
}

// FormatISO renders t in UTC with millisecond precision; zero renders empty.
func FormatISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ISOLayout)
}

// FormatDuration renders d as "1h 02m 03s", "4m 05s" or "7s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
