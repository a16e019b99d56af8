package report_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/report"
	"github.com/raysh454/proctor/internal/session"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot() session.Snapshot {
	return session.Snapshot{
		SessionID:      "sess-1",
		Status:         session.StatusStopped,
		Duration:       65 * time.Second,
		DurationText:   "1m 05s",
		StartTime:      "2024-03-05T13:00:00.000Z",
		EndTime:        "2024-03-05T13:01:05.000Z",
		Counters:       model.ViolationCounters{LookAway: 1, NoFace: 1},
		IntegrityScore: 93,
		Events: []model.EventLogEntry{
			{Timestamp: "13:00:00", Message: "Interview started", Severity: model.SeverityInfo},
			{Timestamp: "13:00:30", Message: "Looking away from screen (violation #1)", Severity: model.SeverityWarning},
		},
	}
}

// ─── Record ────────────────────────────────────────────────────────────

func TestFromSnapshot_MapsCounters(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 5, 13, 1, 6, 0, time.UTC)
	rec := report.FromSnapshot(sampleSnapshot(), "Ada", now)

	if rec.ID != "" {
		t.Errorf("id should be left for the store, got %q", rec.ID)
	}
	if rec.Timestamp != "2024-03-05T13:01:06.000Z" {
		t.Errorf("timestamp = %q", rec.Timestamp)
	}
	if rec.FocusIssues.LookAwayCount != 1 || rec.FocusIssues.NoFaceCount != 1 {
		t.Errorf("unexpected focus issues %+v", rec.FocusIssues)
	}
	if rec.InterviewDuration != "1m 05s" || rec.IntegrityScore != 93 {
		t.Errorf("unexpected duration/score %q/%d", rec.InterviewDuration, rec.IntegrityScore)
	}
	if rec.Counters() != sampleSnapshot().Counters {
		t.Errorf("Counters() = %+v", rec.Counters())
	}
	if r := rec.Result(); r.Score != 93 || r.Label != "Excellent" {
		t.Errorf("Result() = %+v", r)
	}
}

func TestEncode_FieldNames(t *testing.T) {
	t.Parallel()
	rec := report.FromSnapshot(sampleSnapshot(), "Ada", time.Now())
	rec.ID = "r1"
	data, err := report.Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "timestamp", "candidateName", "interviewDuration", "startTime", "endTime", "focusIssues", "prohibitedItems", "integrityScore", "events"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if !strings.Contains(string(raw["prohibitedItems"]), `"phonesDetected":0`) {
		t.Errorf("unexpected prohibitedItems %s", raw["prohibitedItems"])
	}
}

func TestEncode_NilEventsAsEmptyArray(t *testing.T) {
	t.Parallel()
	data, err := report.Encode(report.Record{ID: "x"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"events":[]`) {
		t.Errorf("expected empty events array, got %s", data)
	}

	rec, err := report.Decode([]byte(`{"id":"y"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Events == nil {
		t.Error("decoded events should be non-nil")
	}
	if _, err := report.Decode([]byte(`{`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestRecord_SnapshotIsFrozen(t *testing.T) {
	t.Parallel()
	rec := report.FromSnapshot(sampleSnapshot(), "Ada", time.Now())
	snap := rec.Snapshot()
	if snap.Status != session.StatusStopped {
		t.Errorf("status = %q", snap.Status)
	}
	if snap.Counters != sampleSnapshot().Counters || len(snap.Events) != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

// ─── Text ──────────────────────────────────────────────────────────────

func TestRenderText(t *testing.T) {
	t.Parallel()
	rec := report.FromSnapshot(sampleSnapshot(), "Ada", time.Now())
	rec.ID = "r-42"
	text := report.RenderText(rec)

	for _, want := range []string{
		"Candidate:        Ada",
		"Report ID:        r-42",
		"Duration:         1m 05s",
		"Looking away:     1",
		"INTEGRITY SCORE: 93/100 (Excellent)",
		"Recommendation:  Recommended",
		"[13:00:30] WARNING Looking away from screen (violation #1)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderText_Empty(t *testing.T) {
	t.Parallel()
	text := report.RenderText(report.Record{IntegrityScore: 40})
	if !strings.Contains(text, "(unnamed)") || !strings.Contains(text, "(no events)") {
		t.Errorf("unexpected empty rendering:\n%s", text)
	}
	if !strings.Contains(text, "(Poor)") || !strings.Contains(text, "Not recommended") {
		t.Errorf("expected poor score labels:\n%s", text)
	}
	if strings.Contains(text, "Report ID") {
		t.Error("report id line should be omitted without an id")
	}
}

// ─── Store ─────────────────────────────────────────────────────────────

func TestStore_SaveGetListDelete(t *testing.T) {
	db := openTestDB(t)
	store, err := report.NewStore(db, logging.NewStdoutLogger("report_test"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	first, err := store.Save(ctx, report.FromSnapshot(sampleSnapshot(), "Ada", time.Now()))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected assigned id")
	}

	second := report.FromSnapshot(sampleSnapshot(), "Grace", time.Now())
	second.Timestamp = ""
	second, err = store.Save(ctx, second)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second.Timestamp == "" {
		t.Error("expected assigned timestamp")
	}

	got, err := store.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	a, _ := report.Encode(first)
	b, _ := report.Encode(got)
	if string(a) != string(b) {
		t.Errorf("round trip mismatch:\n%s\n%s", a, b)
	}

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(list))
	}
	if list[0].CandidateName != "Grace" {
		t.Errorf("expected newest first, got %+v", list)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	if err := store.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, first.ID); !errors.Is(err, report.ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, first.ID); !errors.Is(err, report.ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound on second delete, got %v", err)
	}
}

func TestNewStore_NilDB(t *testing.T) {
	t.Parallel()
	if _, err := report.NewStore(nil, nil); err == nil {
		t.Error("expected error for nil db")
	}
}

func TestStore_SchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if _, err := report.NewStore(db, nil); err != nil {
		t.Fatalf("first NewStore: %v", err)
	}
	if _, err := report.NewStore(db, nil); err != nil {
		t.Fatalf("second NewStore: %v", err)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	db := openTestDB(t)
	store, err := report.NewStore(db, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Save(ctx, report.FromSnapshot(sampleSnapshot(), "Ada", time.Now())); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	failed := 0
	for err := range errs {
		if failed == 0 {
			t.Errorf("first failed save: %v", err)
		}
		failed++
	}
	if failed > 0 {
		t.Fatalf("failed saves: %d/%d", failed, writers)
	}

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != writers {
		t.Errorf("expected %d reports, got %d", writers, len(list))
	}
}

func TestNewStore_EnablesWAL(t *testing.T) {
	db := openTestDB(t)
	if _, err := report.NewStore(db, nil); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}
