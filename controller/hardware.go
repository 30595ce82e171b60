package controller

import (
	"time"

	"github.com/forgebots/station"
)

// Actuators is everything the workflow commands as a side effect. Hardware
// builds implement it with PWM and GPIO; the host binary implements it with
// a logger.
type Actuators interface {
	// SetMotors drives the coupled motor pair, each -255..255
	SetMotors(a, b int)
	SetMagnet(m station.MagnetMode)
	Indicate(i station.Indicator)
}

// Display receives throttled state snapshots for rendering. The controller
// never depends on anything being drawn.
type Display interface {
	Show(s Snapshot)
}

// Hardware bundles the capabilities the controller runs against. Analog,
// Limits and Acts are required; Button and Display may be nil.
type Hardware struct {
	Analog  AnalogSource
	Limits  LimitSource
	Button  ButtonSource
	Acts    Actuators
	Display Display
}

// Snapshot is the display-relevant state captured at the end of a cycle
type Snapshot struct {
	State  station.State
	Plates [2]Plate
	// Active is the index of the plate currently being handled
	Active int

	Position station.Cell
	// MarkerID and MarkerAge describe the latest observation; MarkerSeen is
	// false before the first one arrives
	MarkerSeen bool
	MarkerID   int
	MarkerAge  time.Duration

	// Gated is true while the workflow is waiting for the confirm button
	Gated bool

	MotorA    int
	MotorB    int
	Direction string

	// Locked is true during the post-homing motor lock window
	Locked bool

	Err error
}

// NopActuators discards every intent; useful for tests and dry runs
type NopActuators struct{}

func (NopActuators) SetMotors(a, b int)           {}
func (NopActuators) SetMagnet(station.MagnetMode) {}
func (NopActuators) Indicate(station.Indicator)   {}
