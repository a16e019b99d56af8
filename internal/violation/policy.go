// Package violation holds the per-condition rate policies that decide how
// often a sustained condition may be counted.
package violation

import (
	"fmt"
	"time"
)

// Kind selects the rate policy behaviour. The zero Kind means "unset" and
// lets configuration layers substitute their default.
type Kind int

const (
	// KindNone lets every occurrence through.
	KindNone Kind = iota + 1
	// KindOnceOnly lets exactly one occurrence through per session.
	KindOnceOnly
	// KindCooldown lets an occurrence through once the cool-down has
	// elapsed since the gate was armed or last fired.
	KindCooldown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOnceOnly:
		return "once"
	case KindCooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RatePolicy is the rate policy configured for one violation type.
type RatePolicy struct {
	Kind     Kind          `json:"kind"`
	Cooldown time.Duration `json:"cooldown,omitempty"`
}

// IsZero reports whether the policy is unset.
func (p RatePolicy) IsZero() bool { return p.Kind == 0 }

// Or returns p, or def when p is unset.
func (p RatePolicy) Or(def RatePolicy) RatePolicy {
	if p.IsZero() {
		return def
	}
	return p
}

// None returns an unthrottled policy.
func None() RatePolicy { return RatePolicy{Kind: KindNone} }

// OnceOnly returns a policy that fires at most once.
func OnceOnly() RatePolicy { return RatePolicy{Kind: KindOnceOnly} }

// Cooldown returns a policy that fires when strictly more than d has
// elapsed since the last reference time.
func Cooldown(d time.Duration) RatePolicy { return RatePolicy{Kind: KindCooldown, Cooldown: d} }

func (p RatePolicy) String() string {
	if p.Kind == KindCooldown {
		return fmt.Sprintf("cooldown(%s)", p.Cooldown)
	}
	return p.Kind.String()
}

// Gate applies a RatePolicy over time. The zero Gate is unusable; use NewGate.
type Gate struct {
	policy RatePolicy
	fired  int
	ref    time.Time
	armed  bool
}

// NewGate returns a gate for policy p.
func NewGate(p RatePolicy) *Gate {
	return &Gate{policy: p}
}

// Policy returns the gate's policy.
func (g *Gate) Policy() RatePolicy { return g.policy }

// Fired reports how many occurrences the gate has let through.
func (g *Gate) Fired() int { return g.fired }

// Arm sets the cool-down reference time. Only meaningful for KindCooldown.
func (g *Gate) Arm(now time.Time) {
	g.ref = now
	g.armed = true
}

// Disarm clears the cool-down reference without forgetting the fire count.
func (g *Gate) Disarm() {
	g.armed = false
	g.ref = time.Time{}
}

// Armed reports whether a cool-down reference is set.
func (g *Gate) Armed() bool { return g.armed }

// Since returns the time elapsed since the reference, or 0 when disarmed.
func (g *Gate) Since(now time.Time) time.Duration {
	if !g.armed {
		return 0
	}
	return now.Sub(g.ref)
}

// Allow reports whether an occurrence at now may be counted and, if so,
// records it. For KindCooldown the reference moves to now on success, so a
// continuous condition fires again after another full cool-down; an unarmed
// cool-down gate fires immediately.
func (g *Gate) Allow(now time.Time) bool {
	switch g.policy.Kind {
	case KindNone:
		g.fired++
		return true
	case KindOnceOnly:
		if g.fired > 0 {
			return false
		}
		g.fired++
		return true
	case KindCooldown:
		if g.armed && now.Sub(g.ref) <= g.policy.Cooldown {
			return false
		}
		g.fired++
		g.Arm(now)
		return true
	}
	return false
}

// Reset returns the gate to its initial state.
func (g *Gate) Reset() {
	g.fired = 0
	g.Disarm()
}
