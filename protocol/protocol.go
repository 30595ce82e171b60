// Package protocol parses the line-oriented event stream shared by the
// vision tracker and the operator tools. Each event is one '\n'-terminated
// line of text; the transport underneath (USB serial or UDP) does not matter.
package protocol

import (
	"strconv"
	"strings"
)

// MaxLineLen is the longest accepted line, excluding the terminator.
// Longer lines are discarded and framing resynchronizes at the next newline.
const MaxLineLen = 127

// Event is one parsed protocol line. Exactly one concrete type is produced
// per accepted line; unrecognized lines produce nothing.
type Event interface {
	isEvent()
}

// Observation reports the grid cell a marker was last seen in
type Observation struct {
	ID  int
	Row int
	Col int
}

// PickupUpdate overrides the target cell for the plate currently awaiting
// pickup
type PickupUpdate struct {
	ID  int
	Row int
	Col int
}

// Release requests an immediate magnet release, skipping the placement dwell
type Release struct{}

// Confirm is the debounced operator button press. It is never produced by
// ParseLine; button sources inject it directly.
type Confirm struct{}

func (Observation) isEvent()  {}
func (PickupUpdate) isEvent() {}
func (Release) isEvent()      {}
func (Confirm) isEvent()      {}

// ParseLine parses a single line (without terminator) into an Event.
// It returns nil for anything that does not match the grammar; malformed
// input is not an error, it is simply ignored.
//
// Grammar, checked in priority order:
//
//	PICKUP,<id>,<row>,<col>
//	RELEASE
//	<id>,<row>,<col>
func ParseLine(line string) Event {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > MaxLineLen {
		return nil
	}

	if rest, ok := strings.CutPrefix(line, "PICKUP,"); ok {
		id, row, col, ok := parseTriple(rest)
		if !ok {
			return nil
		}
		return PickupUpdate{ID: id, Row: row, Col: col}
	}

	if line == "RELEASE" {
		return Release{}
	}

	id, row, col, ok := parseTriple(line)
	if !ok {
		return nil
	}
	return Observation{ID: id, Row: row, Col: col}
}

func parseTriple(s string) (id, row, col int, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}

	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}

	return vals[0], vals[1], vals[2], true
}
