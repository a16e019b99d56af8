package app_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/raysh454/proctor/internal/app"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/report"
	"github.com/raysh454/proctor/internal/session"
	"github.com/raysh454/proctor/internal/testutil"
)

func fastConfig() *app.Config {
	cfg := app.DefaultConfig()
	cfg.Session.FaceInterval = 5 * time.Millisecond
	cfg.Session.ObjectInterval = 5 * time.Millisecond
	return cfg
}

func newStore(t *testing.T) *report.Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := report.NewStore(db, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func phoneDetector() *testutil.ScriptedObjectDetector {
	return &testutil.ScriptedObjectDetector{Frames: [][]model.ObjectDetection{{{Class: "cell phone", Confidence: 0.9}}}}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestOrchestrator_StartStopPersists(t *testing.T) {
	t.Parallel()
	store := newStore(t)
	faces := &testutil.ScriptedFaceDetector{Frames: [][]model.FaceObservation{{testutil.CenteredFace()}}}
	orch := app.NewOrchestrator(fastConfig(), faces, phoneDetector(), store, &testutil.DummyLogger{}, nil)
	ctx := context.Background()

	info, err := orch.StartSession(ctx, "Ada")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if info.ID == "" || info.CandidateName != "Ada" || info.Snapshot.Status != session.StatusRunning {
		t.Errorf("unexpected session info %+v", info)
	}
	if _, err := orch.StartSession(ctx, "Grace"); !errors.Is(err, session.ErrSessionRunning) {
		t.Errorf("expected ErrSessionRunning, got %v", err)
	}

	waitFor(t, "phone detection", func() bool {
		cur, err := orch.Current()
		return err == nil && cur.Snapshot.Counters.Phone > 0
	})

	res, err := orch.StopSession(ctx)
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if !res.Stored || res.Report.ID == "" {
		t.Fatalf("expected stored report, got %+v", res)
	}
	if res.TextReport != "" {
		t.Error("text fallback should only be produced when storage fails")
	}
	if res.Report.CandidateName != "Ada" || res.Report.ProhibitedItems.PhonesDetected == 0 {
		t.Errorf("unexpected report %+v", res.Report)
	}
	if orch.LastResult() != res {
		t.Error("LastResult should return the stop outcome")
	}

	got, err := orch.GetReport(ctx, res.Report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.IntegrityScore != res.Report.IntegrityScore {
		t.Errorf("stored score %d != %d", got.IntegrityScore, res.Report.IntegrityScore)
	}

	// The stopped session stays visible until the next one starts.
	cur, err := orch.Current()
	if err != nil || cur.Snapshot.Status != session.StatusStopped {
		t.Errorf("expected stopped current session, got %+v / %v", cur, err)
	}

	if _, err := orch.StartSession(ctx, "Grace"); err != nil {
		t.Fatalf("starting a new session after stop: %v", err)
	}
	if orch.LastResult() != nil {
		t.Error("LastResult should reset when a new session starts")
	}
	if _, err := orch.StopSession(ctx); err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	list, err := orch.ListReports(ctx, 0)
	if err != nil || len(list) != 2 {
		t.Errorf("expected 2 stored reports, got %d / %v", len(list), err)
	}
}

func TestOrchestrator_StorageFailureFallsBackToText(t *testing.T) {
	t.Parallel()
	logger := &testutil.DummyLogger{}
	orch := app.NewOrchestrator(fastConfig(), &testutil.ScriptedFaceDetector{}, phoneDetector(), testutil.FailingStore{}, logger, nil)
	ctx := context.Background()

	if _, err := orch.StartSession(ctx, "Ada"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := orch.StopSession(ctx)
	if err != nil {
		t.Fatalf("StopSession should succeed despite storage failure: %v", err)
	}
	if res.Stored {
		t.Error("expected unstored result")
	}
	if !strings.Contains(res.StoreError, testutil.ErrStoreDown.Error()) {
		t.Errorf("unexpected store error %q", res.StoreError)
	}
	if !strings.Contains(res.TextReport, "INTERVIEW INTEGRITY REPORT") || !strings.Contains(res.TextReport, "Ada") {
		t.Errorf("unexpected text report:\n%s", res.TextReport)
	}
	if len(logger.Warns) == 0 {
		t.Error("expected a warning about the storage failure")
	}
}

func TestOrchestrator_NoStore(t *testing.T) {
	t.Parallel()
	orch := app.NewOrchestrator(fastConfig(), &testutil.ScriptedFaceDetector{}, &testutil.ScriptedObjectDetector{}, nil, nil, nil)
	ctx := context.Background()

	if _, err := orch.ListReports(ctx, 0); !errors.Is(err, app.ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
	if _, err := orch.StartSession(ctx, ""); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	res, err := orch.StopSession(ctx)
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if res.Stored || res.TextReport == "" {
		t.Errorf("expected text fallback without a store, got %+v", res)
	}
}

func TestOrchestrator_Errors(t *testing.T) {
	t.Parallel()
	faces := &testutil.ScriptedFaceDetector{ProbeErr: errors.New("no camera")}
	orch := app.NewOrchestrator(fastConfig(), faces, &testutil.ScriptedObjectDetector{}, newStore(t), nil, nil)
	ctx := context.Background()

	if _, err := orch.Current(); !errors.Is(err, app.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	if _, err := orch.StopSession(ctx); !errors.Is(err, session.ErrSessionNotRunning) {
		t.Errorf("expected ErrSessionNotRunning, got %v", err)
	}
	if _, err := orch.StartSession(ctx, "Ada"); !errors.Is(err, session.ErrCapabilityUnavailable) {
		t.Errorf("expected ErrCapabilityUnavailable, got %v", err)
	}
	if _, err := orch.Current(); !errors.Is(err, app.ErrNoSession) {
		t.Errorf("failed start must not become current, got %v", err)
	}
}

func TestOrchestrator_SubscribersReceiveUpdates(t *testing.T) {
	t.Parallel()
	orch := app.NewOrchestrator(fastConfig(), &testutil.ScriptedFaceDetector{}, phoneDetector(), newStore(t), nil, nil)
	ctx := context.Background()

	id, updates := orch.Subscribe()
	_, other := orch.Subscribe()
	orch.Unsubscribe(id)
	if _, ok := <-updates; ok {
		t.Fatal("unsubscribed channel should be closed")
	}

	if _, err := orch.StartSession(ctx, "Ada"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	deadline := time.After(3 * time.Second)
	sawCounters := false
	for !sawCounters {
		select {
		case u := <-other:
			if u.Kind == session.UpdateCounters && u.Counters.Phone > 0 {
				sawCounters = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for a counters update")
		}
	}

	if err := orch.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if orch.LastResult() == nil || !orch.LastResult().Stored {
		t.Error("Close should stop and persist the running session")
	}
	// Drain: the channel must be closed after Close.
	for range other {
	}
}
