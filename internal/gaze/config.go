package gaze

import "time"

// Config holds the tunable gaze thresholds and debounce timings.
type Config struct {
	// AwayThreshold is the normalized eye-to-nose distance above which both
	// eyes must sit for the face to count as turned away.
	AwayThreshold float64 `json:"away_threshold"`

	// RatioThreshold is the min/max eye-distance ratio below which the face
	// counts as turned away.
	RatioThreshold float64 `json:"ratio_threshold"`

	// WindowSize is the number of recent raw samples kept.
	WindowSize int `json:"window_size"`

	// ConsistencyFraction: more than WindowSize*ConsistencyFraction "away"
	// samples make the gaze consistently away.
	ConsistencyFraction float64 `json:"consistency_fraction"`

	// ViolationAfter is how long an episode must last before it is counted,
	// and the interval between repeated counts of the same episode.
	ViolationAfter time.Duration `json:"violation_after"`

	// ReturnNoticeAfter is the minimum episode length that earns a
	// "returned to screen" notice when it ends.
	ReturnNoticeAfter time.Duration `json:"return_notice_after"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		AwayThreshold:       0.12,
		RatioThreshold:      0.7,
		WindowSize:          8,
		ConsistencyFraction: 0.6,
		ViolationAfter:      2 * time.Second,
		ReturnNoticeAfter:   time.Second,
	}
}

// withDefaults returns DefaultConfig for the zero Config. Otherwise a zero
// threshold or duration is kept as configured and only invalid values
// (negative, or an empty window) fall back to the default.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.AwayThreshold < 0 {
		c.AwayThreshold = d.AwayThreshold
	}
	if c.RatioThreshold < 0 {
		c.RatioThreshold = d.RatioThreshold
	}
	if c.WindowSize <= 0 {
		c.WindowSize = d.WindowSize
	}
	if c.ConsistencyFraction < 0 {
		c.ConsistencyFraction = d.ConsistencyFraction
	}
	if c.ViolationAfter < 0 {
		c.ViolationAfter = d.ViolationAfter
	}
	if c.ReturnNoticeAfter < 0 {
		c.ReturnNoticeAfter = d.ReturnNoticeAfter
	}
	return c
}
