// Package gaze decides, per frame, whether a face is looking away from the
// screen, and debounces that decision over a short sliding window.
package gaze

import (
	"math"

	"github.com/raysh454/proctor/internal/model"
)

// Measurement is the geometry behind one classification.
type Measurement struct {
	NormalizedRight float64 `json:"normalized_right"`
	NormalizedLeft  float64 `json:"normalized_left"`
	Ratio           float64 `json:"ratio"`

	// Degenerate is set when the face box has no width or a landmark group
	// is missing; such frames never count as looking away.
	Degenerate bool `json:"degenerate"`
}

// Classifier judges a single face observation.
type Classifier struct {
	cfg Config
}

// NewClassifier returns a classifier using cfg; zero fields take defaults.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.withDefaults()}
}

// Measure computes the normalized eye-to-nose distances and their ratio.
func (c *Classifier) Measure(face model.FaceObservation) Measurement {
	width := face.Width()
	if width == 0 || len(face.RightEye) == 0 || len(face.LeftEye) == 0 || len(face.Nose) == 0 {
		return Measurement{Degenerate: true}
	}

	noseX := face.Nose[0].X
	right := math.Abs(center(face.RightEye).X-noseX) / width
	left := math.Abs(center(face.LeftEye).X-noseX) / width

	hi, lo := math.Max(right, left), math.Min(right, left)
	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Measurement{NormalizedRight: right, NormalizedLeft: left, Ratio: ratio}
}

// LookingAway reports the raw single-frame decision.
func (c *Classifier) LookingAway(face model.FaceObservation) bool {
	m := c.Measure(face)
	if m.Degenerate {
		return false
	}
	bothFar := m.NormalizedRight > c.cfg.AwayThreshold && m.NormalizedLeft > c.cfg.AwayThreshold
	return bothFar || m.Ratio < c.cfg.RatioThreshold
}

func center(pts []model.Point) model.Point {
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return model.Point{X: sx / n, Y: sy / n}
}
