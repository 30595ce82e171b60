package controller

// LimitSource reads the two travel-limit switches, asserted high
type LimitSource interface {
	LimitX() bool
	LimitY() bool
}

// LimitMask is the set of limit switches asserted right now. It is re-read
// every cycle and never cached: a transient mis-read self-corrects on the
// next poll, which is why the switches are not debounced.
type LimitMask uint8

const (
	LimitXBit LimitMask = 1 << iota
	LimitYBit
)

func (m LimitMask) X() bool { return m&LimitXBit != 0 }
func (m LimitMask) Y() bool { return m&LimitYBit != 0 }

// PollLimits takes a live reading of both switches
func PollLimits(src LimitSource) LimitMask {
	var m LimitMask
	if src.LimitX() {
		m |= LimitXBit
	}
	if src.LimitY() {
		m |= LimitYBit
	}
	return m
}
