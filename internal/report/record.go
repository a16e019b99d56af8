// Package report converts a finished session into the persisted report
// record, renders the local text fallback, and stores records in SQLite.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/score"
	"github.com/raysh454/proctor/internal/session"
)

// FocusIssues groups the face-derived counters.
type FocusIssues struct {
	LookAwayCount      int `json:"lookAwayCount"`
	NoFaceCount        int `json:"noFaceCount"`
	MultipleFacesCount int `json:"multipleFacesCount"`
}

// ProhibitedItems groups the object-derived counters.
type ProhibitedItems struct {
	PhonesDetected  int `json:"phonesDetected"`
	BooksDetected   int `json:"booksDetected"`
	DevicesDetected int `json:"devicesDetected"`
}

// Record is the persisted report. Field names are consumed by existing
// report readers and must not change.
type Record struct {
	ID                string                `json:"id"`
	Timestamp         string                `json:"timestamp"`
	CandidateName     string                `json:"candidateName"`
	InterviewDuration string                `json:"interviewDuration"`
	StartTime         string                `json:"startTime"`
	EndTime           string                `json:"endTime"`
	FocusIssues       FocusIssues           `json:"focusIssues"`
	ProhibitedItems   ProhibitedItems       `json:"prohibitedItems"`
	IntegrityScore    int                   `json:"integrityScore"`
	Events            []model.EventLogEntry `json:"events"`
}

// FromSnapshot builds a record for candidate from a session snapshot. The
// id is left empty for the store to assign.
func FromSnapshot(snap session.Snapshot, candidate string, now time.Time) Record {
	c := snap.Counters
	events := make([]model.EventLogEntry, len(snap.Events))
	copy(events, snap.Events)
	return Record{
		Timestamp:         session.FormatISO(now),
		CandidateName:     candidate,
		InterviewDuration: snap.DurationText,
		StartTime:         snap.StartTime,
		EndTime:           snap.EndTime,
		FocusIssues: FocusIssues{
			LookAwayCount:      c.LookAway,
			NoFaceCount:        c.NoFace,
			MultipleFacesCount: c.MultipleFaces,
		},
		ProhibitedItems: ProhibitedItems{
			PhonesDetected:  c.Phone,
			BooksDetected:   c.Book,
			DevicesDetected: c.Device,
		},
		IntegrityScore: snap.IntegrityScore,
		Events:         events,
	}
}

// Counters reassembles the six session counters.
func (r Record) Counters() model.ViolationCounters {
	return model.ViolationCounters{
		LookAway:      r.FocusIssues.LookAwayCount,
		NoFace:        r.FocusIssues.NoFaceCount,
		MultipleFaces: r.FocusIssues.MultipleFacesCount,
		Phone:         r.ProhibitedItems.PhonesDetected,
		Book:          r.ProhibitedItems.BooksDetected,
		Device:        r.ProhibitedItems.DevicesDetected,
	}
}

// Snapshot turns a stored record back into a frozen session snapshot.
func (r Record) Snapshot() session.Snapshot {
	events := make([]model.EventLogEntry, len(r.Events))
	copy(events, r.Events)
	return session.Snapshot{
		Status:         session.StatusStopped,
		DurationText:   r.InterviewDuration,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Counters:       r.Counters(),
		IntegrityScore: r.IntegrityScore,
		Events:         events,
	}
}

// Result scores the record's counters with the default weights.
func (r Record) Result() score.Result {
	return score.Evaluate(r.Counters())
}

// Encode marshals r; a nil event list encodes as [].
func Encode(r Record) ([]byte, error) {
	if r.Events == nil {
		r.Events = []model.EventLogEntry{}
	}
	return json.Marshal(r)
}

// Decode unmarshals a record.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode report: %w", err)
	}
	if r.Events == nil {
		r.Events = []model.EventLogEntry{}
	}
	return r, nil
}
