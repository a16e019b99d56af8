// Package attention turns each frame's face list into gaze, no-face and
// multiple-faces violations.
package attention

import (
	"fmt"
	"time"

	"github.com/raysh454/proctor/internal/gaze"
	"github.com/raysh454/proctor/internal/interfaces"
	"github.com/raysh454/proctor/internal/logging"
	"github.com/raysh454/proctor/internal/model"
	"github.com/raysh454/proctor/internal/violation"
)

// Focus is the session-level focus indicator after a frame.
type Focus string

const (
	FocusUnknown    Focus = ""
	FocusFocused    Focus = "focused"
	FocusDistracted Focus = "distracted"
	FocusNoFace     Focus = "no_face"
)

// Config controls the attention tracker.
type Config struct {
	Gaze gaze.Config `json:"gaze"`

	// NoFaceAfter is how long the frame must stay empty before it counts.
	NoFaceAfter time.Duration `json:"no_face_after"`

	LookAwayPolicy      violation.RatePolicy `json:"look_away_policy"`
	NoFacePolicy        violation.RatePolicy `json:"no_face_policy"`
	MultipleFacesPolicy violation.RatePolicy `json:"multiple_faces_policy"`
}

// DefaultConfig keeps the look-away count repeating every two seconds while
// no-face and multiple-faces are counted once per session.
func DefaultConfig() Config {
	g := gaze.DefaultConfig()
	return Config{
		Gaze:                g,
		NoFaceAfter:         8 * time.Second,
		LookAwayPolicy:      violation.Cooldown(g.ViolationAfter),
		NoFacePolicy:        violation.OnceOnly(),
		MultipleFacesPolicy: violation.OnceOnly(),
	}
}

// Tracker owns the attention state of one session. Not safe for concurrent
// use: the face poll loop is its only caller.
type Tracker struct {
	cfg        Config
	classifier *gaze.Classifier
	debouncer  *gaze.Debouncer
	sink       interfaces.Sink
	logger     logging.Logger

	noFaceGate *violation.Gate
	multiGate  *violation.Gate

	noFaceSince  time.Time
	noFaceActive bool
	focus        Focus
}

// NewTracker wires a tracker that reports into sink. The zero Config means
// DefaultConfig; otherwise a NoFaceAfter of 0 is kept as configured.
func NewTracker(cfg Config, sink interfaces.Sink, logger logging.Logger) *Tracker {
	def := DefaultConfig()
	if cfg == (Config{}) {
		cfg = def
	}
	if cfg.NoFaceAfter < 0 {
		cfg.NoFaceAfter = def.NoFaceAfter
	}
	cfg.NoFacePolicy = cfg.NoFacePolicy.Or(def.NoFacePolicy)
	cfg.MultipleFacesPolicy = cfg.MultipleFacesPolicy.Or(def.MultipleFacesPolicy)
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Tracker{
		cfg:        cfg,
		classifier: gaze.NewClassifier(cfg.Gaze),
		debouncer:  gaze.NewDebouncer(cfg.Gaze, cfg.LookAwayPolicy),
		sink:       sink,
		logger:     logger,
		noFaceGate: violation.NewGate(cfg.NoFacePolicy),
		multiGate:  violation.NewGate(cfg.MultipleFacesPolicy),
	}
}

// Process consumes the faces seen in one frame at time now.
func (t *Tracker) Process(now time.Time, faces []model.FaceObservation) Focus {
	if len(faces) == 0 {
		t.debouncer.ClearSamples()
		t.focus = FocusNoFace
		t.checkNoFace(now)
		return t.focus
	}

	if t.noFaceActive {
		t.noFaceActive = false
		t.noFaceSince = time.Time{}
		t.sink.Log(now, model.SeverityInfo, "Face detected again")
	}

	if len(faces) > 1 && t.multiGate.Allow(now) {
		t.sink.Increment(model.MultipleFaces, now)
		t.sink.Log(now, model.SeverityError, "Multiple faces detected - possible cheating attempt")
		t.logger.Warn("multiple faces", logging.Field{Key: "faces", Value: len(faces)})
	}

	distracted := false
	for _, face := range faces {
		away := t.classifier.LookingAway(face)
		consistent, outcome := t.debouncer.Observe(now, away)
		t.report(now, outcome)
		if consistent {
			distracted = true
		}
	}

	if distracted {
		t.focus = FocusDistracted
	} else {
		t.focus = FocusFocused
	}
	return t.focus
}

func (t *Tracker) checkNoFace(now time.Time) {
	if !t.noFaceActive {
		t.noFaceActive = true
		t.noFaceSince = now
		return
	}
	if now.Sub(t.noFaceSince) <= t.cfg.NoFaceAfter {
		return
	}
	if !t.noFaceGate.Allow(now) {
		return
	}
	t.sink.Increment(model.NoFace, now)
	t.sink.Log(now, model.SeverityError,
		fmt.Sprintf("No face detected for more than %s", humanSeconds(t.cfg.NoFaceAfter)))
	t.noFaceSince = now
}

func (t *Tracker) report(now time.Time, outcome gaze.Outcome) {
	switch outcome {
	case gaze.Started:
		t.sink.Log(now, model.SeverityWarning, "Candidate started looking away")
	case gaze.Sustained:
		n := t.sink.Increment(model.LookAway, now)
		t.sink.Log(now, model.SeverityWarning, fmt.Sprintf("Looking away from screen (violation #%d)", n))
	case gaze.Returned:
		t.sink.Log(now, model.SeveritySuccess, "Candidate returned to looking at screen")
	}
}

// Focus returns the indicator computed by the last Process call.
func (t *Tracker) Focus() Focus { return t.focus }

// Reset returns the tracker to its start-of-session state.
func (t *Tracker) Reset() {
	t.debouncer.Reset()
	t.noFaceGate.Reset()
	t.multiGate.Reset()
	t.noFaceActive = false
	t.noFaceSince = time.Time{}
	t.focus = FocusUnknown
}

func humanSeconds(d time.Duration) string {
	s := d.Seconds()
	if s == float64(int64(s)) {
		return fmt.Sprintf("%d seconds", int64(s))
	}
	return fmt.Sprintf("%.1f seconds", s)
}
