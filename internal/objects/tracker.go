// Package objects counts prohibited objects seen by the object detector.
package objects

import (
	"fmt"
	"strings"
	"time"

	"github.com/raysh454/proctor/internal/interfaces"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/violation"
)

// Config controls which detections count and how often.
type Config struct {
	// MinConfidence is exclusive: a detection must score strictly above it.
	MinConfidence float64 `json:"min_confidence"`

	// Classes maps a prohibited detector class label to its counter.
	Classes map[string]model.Violation `json:"classes"`

	// Policy applies per counter. The default counts every qualifying
	// detection of every cycle.
	Policy violation.RatePolicy `json:"policy"`
}

// DefaultConfig returns the prohibited allow-list.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.6,
		Classes: map[string]model.Violation{
			"cell phone": model.Phone,
			"book":       model.Book,
			"laptop":     model.Device,
			"keyboard":   model.Device,
			"mouse":      model.Device,
			"remote":     model.Device,
		},
		Policy: violation.None(),
	}
}

// Hit is one counted detection.
type Hit struct {
	Class     string          `json:"class"`
	Violation model.Violation `json:"violation"`
	Count     int             `json:"count"`
}

// Tracker filters detections and increments one counter per qualifying
// detection. Not safe for concurrent use.
type Tracker struct {
	cfg    Config
	sink   interfaces.Sink
	logger logging.Logger
	gates  map[model.Violation]*violation.Gate
}

// NewTracker wires a tracker that reports into sink. The zero Config means
// DefaultConfig. Once Classes is set, a MinConfidence of 0 is honored and
// counts any listed detection; only a negative threshold falls back.
func NewTracker(cfg Config, sink interfaces.Sink, logger logging.Logger) *Tracker {
	def := DefaultConfig()
	if cfg.Classes == nil && cfg.MinConfidence == 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.Classes == nil {
		cfg.Classes = def.Classes
	}
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	cfg.Policy = cfg.Policy.Or(def.Policy)
	if logger == nil {
		logger = logging.Nop{}
	}
	t := &Tracker{cfg: cfg, sink: sink, logger: logger, gates: make(map[model.Violation]*violation.Gate)}
	t.Reset()
	return t
}

// Prohibited reports whether d is on the allow-list above the threshold.
func (t *Tracker) Prohibited(d model.ObjectDetection) (model.Violation, bool) {
	v, ok := t.cfg.Classes[d.Class]
	if !ok || d.Confidence <= t.cfg.MinConfidence {
		return 0, false
	}
	return v, true
}

// Process consumes one detection cycle at time now.
func (t *Tracker) Process(now time.Time, detections []model.ObjectDetection) []Hit {
	var hits []Hit
	for _, d := range detections {
		v, ok := t.Prohibited(d)
		if !ok {
			continue
		}
		if !t.gates[v].Allow(now) {
			continue
		}
		n := t.sink.Increment(v, now)
		t.sink.Log(now, model.SeverityError, message(v, d.Class))
		t.logger.Debug("prohibited object",
			logging.Field{Key: "class", Value: d.Class},
			logging.Field{Key: "confidence", Value: d.Confidence})
		hits = append(hits, Hit{Class: d.Class, Violation: v, Count: n})
	}
	return hits
}

// Reset clears the per-counter gates.
func (t *Tracker) Reset() {
	for _, v := range []model.Violation{model.Phone, model.Book, model.Device} {
		t.gates[v] = violation.NewGate(t.cfg.Policy)
	}
	for _, v := range t.cfg.Classes {
		if _, ok := t.gates[v]; !ok {
			t.gates[v] = violation.NewGate(t.cfg.Policy)
		}
	}
}

func message(v model.Violation, class string) string {
	switch v {
	case model.Phone:
		return "Cell phone detected"
	case model.Book:
		return "Book detected"
	case model.Device:
		return fmt.Sprintf("Prohibited device detected: %s", class)
	default:
		return fmt.Sprintf("Prohibited object detected: %s", strings.TrimSpace(class))
	}
}
