package model_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/proctor/internal/model"
)

func TestViolationCounters_IncGetTotal(t *testing.T) {
	t.Parallel()
	var c model.ViolationCounters
	for i, v := range model.AllViolations {
		for j := 0; j <= i; j++ {
			c.Inc(v)
		}
	}
	for i, v := range model.AllViolations {
		if got := c.Get(v); got != i+1 {
			t.Errorf("%s = %d, want %d", v, got, i+1)
		}
	}
	if c.Total() != 21 {
		t.Errorf("Total = %d, want 21", c.Total())
	}
	if n := c.Inc(model.Phone); n != 5 {
		t.Errorf("Inc should return the new value, got %d", n)
	}
}

func TestViolationCounters_JSONNames(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(model.ViolationCounters{LookAway: 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{"lookAwayCount", "noFaceCount", "multipleFacesCount", "phoneCount", "bookCount", "deviceCount"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("missing %q in %s", key, data)
		}
	}
}

func TestViolation_String(t *testing.T) {
	t.Parallel()
	if model.MultipleFaces.String() != "multiple_faces" {
		t.Errorf("got %q", model.MultipleFaces.String())
	}
	if model.Violation(42).String() != "violation(42)" {
		t.Errorf("got %q", model.Violation(42).String())
	}
}

func TestNewEvent(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 2, 9, 8, 7, 0, time.Local)
	e := model.NewEvent(at, model.SeverityWarning, "hello")
	if e.Timestamp != "09:08:07" || e.Severity != model.SeverityWarning || e.Message != "hello" {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestFaceObservation_Width(t *testing.T) {
	t.Parallel()
	f := model.FaceObservation{TopLeft: model.Point{X: 150}, BottomRight: model.Point{X: 50}}
	if f.Width() != 100 {
		t.Errorf("Width = %v", f.Width())
	}
}
