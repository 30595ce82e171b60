package controller

import "time"

// Config has the tuning values for the control loop. Defaults match the
// station hardware: 12-bit pots, 5x5 grid, 10ms cycle.
type Config struct {
	// Axis input shaping
	ADCMax         int
	Deadzone       int
	SmoothingAlpha float64
	Oversample     int

	// Homing
	HomingSpeed   int
	HomingSettle  time.Duration
	HomingTimeout time.Duration

	// MotorUnlockDelay keeps the motors disabled for a window after homing
	// so the operator can clear the work area. Zero disables the lock.
	MotorUnlockDelay time.Duration

	// Workflow timing
	PickupSettle   time.Duration
	PlacementDwell time.Duration
	ButtonDebounce time.Duration

	// MarkerFreshFor is how long the latest observation counts as "still
	// seeing the marker". The tracker streams at 10Hz, so anything much
	// older means the marker left the frame.
	MarkerFreshFor time.Duration

	// Loop pacing
	CyclePeriod  time.Duration
	DisplayEvery time.Duration

	// TargetCode is the 4-digit code naming the two target cells,
	// digit pairs are (col,row), 1-based.
	TargetCode string

	// PlateMarkers are the marker IDs expected on plate 1 and plate 2.
	PlateMarkers [2]int
}

// DefaultConfig returns the values used by the station firmware
func DefaultConfig() Config {
	return Config{
		ADCMax:         4095,
		Deadzone:       600,
		SmoothingAlpha: 0.3,
		Oversample:     8,

		HomingSpeed:   100,
		HomingSettle:  500 * time.Millisecond,
		HomingTimeout: 20 * time.Second,

		PickupSettle:   time.Second,
		PlacementDwell: 5 * time.Second,
		ButtonDebounce: 50 * time.Millisecond,

		MarkerFreshFor: time.Second,

		CyclePeriod:  10 * time.Millisecond,
		DisplayEvery: 200 * time.Millisecond,

		TargetCode:   "5432",
		PlateMarkers: [2]int{1, 2},
	}
}
