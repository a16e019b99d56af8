package demoserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/raysh454/proctor/internal/demoserver"
	"github.com/raysh454/proctor/internal/detector"
	"github.com/raysh454/proctor/internal/gaze"
	"github.com/raysh454/proctor/internal/objects"
	"github.com/raysh454/proctor/internal/testutil"
)

func newDemo(t *testing.T) (*demoserver.DemoServer, *httptest.Server, *detector.HTTPClient) {
	t.Helper()
	demo := demoserver.NewDemoServer(demoserver.DefaultConfig(), &testutil.DummyLogger{})
	ts := httptest.NewServer(demo.Handler())
	t.Cleanup(ts.Close)
	client, err := detector.NewHTTPClient(detector.Config{BaseURL: ts.URL}, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return demo, ts, client
}

func TestScenarios_MatchTheirNames(t *testing.T) {
	t.Parallel()
	classifier := gaze.NewClassifier(gaze.DefaultConfig())
	objTracker := objects.NewTracker(objects.DefaultConfig(), &testutil.RecordingSink{}, nil)

	for _, sc := range demoserver.GetAllScenarios() {
		away := false
		for _, f := range sc.Frame.Faces {
			if classifier.LookingAway(f) {
				away = true
			}
		}
		prohibited := 0
		for _, d := range sc.Frame.Objects {
			if _, ok := objTracker.Prohibited(d); ok {
				prohibited++
			}
		}

		switch sc.Name {
		case demoserver.ScenarioLookingAway:
			if !away {
				t.Errorf("%s: face should be looking away", sc.Name)
			}
		case demoserver.ScenarioNoFace:
			if len(sc.Frame.Faces) != 0 {
				t.Errorf("%s: expected empty frame", sc.Name)
			}
		case demoserver.ScenarioMultipleFaces:
			if len(sc.Frame.Faces) < 2 || away {
				t.Errorf("%s: expected several focused faces", sc.Name)
			}
		case demoserver.ScenarioPhone, demoserver.ScenarioBook, demoserver.ScenarioDevice:
			if prohibited != 1 || away {
				t.Errorf("%s: expected exactly one prohibited object, got %d", sc.Name, prohibited)
			}
		case demoserver.ScenarioFocused:
			if away || len(sc.Frame.Faces) != 1 {
				t.Errorf("%s: expected one focused face", sc.Name)
			}
		}
	}
}

func TestDemoServer_ServesCurrentScenario(t *testing.T) {
	t.Parallel()
	demo, ts, client := newDemo(t)
	ctx := context.Background()

	if err := client.Probe(ctx); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	faces, err := client.DetectFaces(ctx)
	if err != nil || len(faces) != 1 {
		t.Fatalf("focused scenario: %d faces, err %v", len(faces), err)
	}

	resp, err := http.PostForm(ts.URL+"/demo/set-scenario", url.Values{"scenario": {demoserver.ScenarioPhone}})
	if err != nil {
		t.Fatalf("set scenario: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || demo.Current() != demoserver.ScenarioPhone {
		t.Fatalf("scenario not switched: %d %q", resp.StatusCode, demo.Current())
	}

	dets, err := client.DetectObjects(ctx)
	if err != nil {
		t.Fatalf("DetectObjects: %v", err)
	}
	if len(dets) == 0 || dets[0].Class != "cell phone" {
		t.Errorf("unexpected detections %+v", dets)
	}

	if err := demo.SetScenario(demoserver.ScenarioNoFace); err != nil {
		t.Fatalf("SetScenario: %v", err)
	}
	faces, err = client.DetectFaces(ctx)
	if err != nil || len(faces) != 0 {
		t.Errorf("no_face scenario: %d faces, err %v", len(faces), err)
	}

	resp, err = http.Post(ts.URL+"/demo/reset", "", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	resp.Body.Close()
	if demo.Current() != demoserver.ScenarioFocused {
		t.Errorf("reset should restore the initial scenario, got %q", demo.Current())
	}
}

func TestDemoServer_ControlEndpoints(t *testing.T) {
	t.Parallel()
	demo, ts, _ := newDemo(t)

	resp, err := http.PostForm(ts.URL+"/demo/set-scenario", url.Values{"scenario": {"juggling"}})
	if err != nil {
		t.Fatalf("set scenario: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown scenario: expected 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/demo/set-scenario")
	if err != nil {
		t.Fatalf("get set-scenario: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET set-scenario: expected 405, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/demo/get-scenarios")
	if err != nil {
		t.Fatalf("get scenarios: %v", err)
	}
	var list []struct {
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}
	err = json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != len(demoserver.GetAllScenarios()) {
		t.Errorf("expected every scenario listed, got %d", len(list))
	}
	for _, sc := range list {
		if sc.Active != (sc.Name == demo.Current()) {
			t.Errorf("active flag wrong for %s", sc.Name)
		}
	}

	resp, err = http.Get(ts.URL + "/demo/control")
	if err != nil {
		t.Fatalf("control panel: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), demoserver.ScenarioLookingAway) {
		t.Error("control panel should list scenarios")
	}
}

func TestNewDemoServer_UnknownInitialScenario(t *testing.T) {
	t.Parallel()
	demo := demoserver.NewDemoServer(demoserver.Config{Port: 1, InitialScenario: "nope"}, nil)
	if demo.Current() != demoserver.ScenarioFocused {
		t.Errorf("expected fallback to focused, got %q", demo.Current())
	}
}
