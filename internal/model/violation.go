package model

import "fmt"

// Violation identifies one of the six session counters.
type Violation int

const (
	LookAway Violation = iota
	NoFace
	MultipleFaces
	Phone
	Book
	Device
)

// AllViolations lists every counter in report order.
var AllViolations = []Violation{LookAway, NoFace, MultipleFaces, Phone, Book, Device}

func (v Violation) String() string {
	switch v {
	case LookAway:
		return "look_away"
	case NoFace:
		return "no_face"
	case MultipleFaces:
		return "multiple_faces"
	case Phone:
		return "phone"
	case Book:
		return "book"
	case Device:
		return "device"
	default:
		return fmt.Sprintf("violation(%d)", int(v))
	}
}

// ViolationCounters are the six per-session counters. They only grow during
// a session and are reset when a new session starts.
type ViolationCounters struct {
	LookAway      int `json:"lookAwayCount"`
	NoFace        int `json:"noFaceCount"`
	MultipleFaces int `json:"multipleFacesCount"`
	Phone         int `json:"phoneCount"`
	Book          int `json:"bookCount"`
	Device        int `json:"deviceCount"`
}

// Get returns the counter for v.
func (c ViolationCounters) Get(v Violation) int {
	switch v {
	case LookAway:
		return c.LookAway
	case NoFace:
		return c.NoFace
	case MultipleFaces:
		return c.MultipleFaces
	case Phone:
		return c.Phone
	case Book:
		return c.Book
	case Device:
		return c.Device
	}
	return 0
}

// Inc increments the counter for v and returns its new value.
func (c *ViolationCounters) Inc(v Violation) int {
	switch v {
	case LookAway:
		c.LookAway++
		return c.LookAway
	case NoFace:
		c.NoFace++
		return c.NoFace
	case MultipleFaces:
		c.MultipleFaces++
		return c.MultipleFaces
	case Phone:
		c.Phone++
		return c.Phone
	case Book:
		c.Book++
		return c.Book
	case Device:
		c.Device++
		return c.Device
	}
	return 0
}

// Total is the sum of all counters.
func (c ViolationCounters) Total() int {
	return c.LookAway + c.NoFace + c.MultipleFaces + c.Phone + c.Book + c.Device
}
