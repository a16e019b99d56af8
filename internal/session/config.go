package session

import (
	"time"

	"github.com/raysh454/proctor/internal/attention"
	"github.com/raysh454/proctor/internal/objects"
	"github.com/raysh454/proctor/internal/score"
)

// Config controls one proctoring session.
type Config struct {
	// FaceInterval is the face-detection poll period.
	FaceInterval time.Duration `json:"face_interval"`

	// ObjectInterval is the object-detection poll period.
	ObjectInterval time.Duration `json:"object_interval"`

	// ProbeTimeout bounds the capability check run before starting.
	ProbeTimeout time.Duration `json:"probe_timeout"`

	Attention attention.Config `json:"attention"`
	Objects   objects.Config   `json:"objects"`
	Weights   score.Weights    `json:"weights"`
}

// DefaultConfig returns the production cadences and thresholds.
func DefaultConfig() Config {
	return Config{
		FaceInterval:   200 * time.Millisecond,
		ObjectInterval: 500 * time.Millisecond,
		ProbeTimeout:   5 * time.Second,
		Attention:      attention.DefaultConfig(),
		Objects:        objects.DefaultConfig(),
		Weights:        score.DefaultWeights(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FaceInterval <= 0 {
		c.FaceInterval = d.FaceInterval
	}
	if c.ObjectInterval <= 0 {
		c.ObjectInterval = d.ObjectInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.Weights == (score.Weights{}) {
		c.Weights = d.Weights
	}
	return c
}
