package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebots/station"
	"github.com/forgebots/station/protocol"
)

type fakeLimits struct {
	x, y bool
}

func (f *fakeLimits) LimitX() bool { return f.x }
func (f *fakeLimits) LimitY() bool { return f.y }

type fakeButton struct {
	level bool
}

func (f *fakeButton) Pressed() bool { return f.level }

// recordingActs records the latest motor/magnet intents and every indicator
type recordingActs struct {
	motorA, motorB int
	magnet         station.MagnetMode
	indicators     []station.Indicator
}

func (r *recordingActs) SetMotors(a, b int)             { r.motorA, r.motorB = a, b }
func (r *recordingActs) SetMagnet(m station.MagnetMode) { r.magnet = m }
func (r *recordingActs) Indicate(i station.Indicator)   { r.indicators = append(r.indicators, i) }

func (r *recordingActs) count(want station.Indicator) int {
	n := 0
	for _, i := range r.indicators {
		if i == want {
			n++
		}
	}
	return n
}

type rig struct {
	c      *Controller
	analog *fakeAnalog
	limits *fakeLimits
	button *fakeButton
	acts   *recordingActs
	now    time.Time
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()

	r := &rig{
		analog: &fakeAnalog{x: 2047, y: 2047},
		limits: &fakeLimits{},
		button: &fakeButton{},
		acts:   &recordingActs{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	c, err := New(cfg, Hardware{
		Analog: r.analog,
		Limits: r.limits,
		Button: r.button,
		Acts:   r.acts,
	}, nil)
	require.NoError(t, err)
	r.c = c
	return r
}

// step advances the fake clock and runs one cycle
func (r *rig) step(d time.Duration) {
	r.now = r.now.Add(d)
	r.c.Step(r.now)
}

func (r *rig) send(ev protocol.Event) {
	r.c.Events() <- ev
}

// home walks the controller through INIT and the homing phase machine
func (r *rig) home(t *testing.T) {
	t.Helper()

	r.limits.x, r.limits.y = true, true
	r.step(0)                      // INIT -> HOMING
	r.step(10 * time.Millisecond)  // X switch asserted -> settle
	r.step(600 * time.Millisecond) // settle elapsed -> home Y
	r.step(10 * time.Millisecond)  // Y switch asserted -> settle
	r.step(600 * time.Millisecond) // settle elapsed -> WAIT_PLATE_1
	require.Equal(t, station.StateWaitPlate1, r.c.State())

	r.limits.x, r.limits.y = false, false
}

// gateAndConfirm presents marker id at the hand-off cell and presses the
// confirm button
func (r *rig) gateAndConfirm(t *testing.T, id int) {
	t.Helper()

	r.send(protocol.Observation{ID: id, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)
	require.True(t, r.c.Snapshot(r.now).Gated)

	r.button.level = true
	r.step(10 * time.Millisecond)
	r.button.level = false
}

func TestHomingCompletes(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	snap := r.c.Snapshot(r.now)
	assert.Equal(t, station.Cell{Row: 0, Col: 0}, snap.Position)
	assert.Zero(t, r.acts.motorA)
	assert.Zero(t, r.acts.motorB)
}

func TestHomingDrivesNegativeX(t *testing.T) {
	r := newRig(t, DefaultConfig())

	r.step(0) // INIT -> HOMING
	r.step(10 * time.Millisecond)

	// negative X on an H-bot drives both motors the same direction
	assert.Equal(t, -100, r.acts.motorA)
	assert.Equal(t, -100, r.acts.motorB)
}

func TestHomingTimeoutFaults(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)

	r.step(0) // INIT -> HOMING
	r.step(cfg.HomingTimeout + time.Millisecond)

	assert.Equal(t, station.StateFault, r.c.State())
	assert.ErrorIs(t, r.c.Err(), ErrHomingTimeout)
	assert.Zero(t, r.acts.motorA)
	assert.Equal(t, station.MagnetOff, r.acts.magnet)
}

func TestWaitGateThenConfirm(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	// a fresh observation at the hand-off cell gates without advancing
	r.send(protocol.Observation{ID: 1, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)
	assert.Equal(t, station.StateWaitPlate1, r.c.State())
	assert.True(t, r.c.Snapshot(r.now).Gated)
	assert.Equal(t, 1, r.acts.count(station.IndicatorPickupAck))

	// replaying the observation neither re-beeps nor re-gates
	r.send(protocol.Observation{ID: 1, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)
	assert.Equal(t, 1, r.acts.count(station.IndicatorPickupAck))

	// the debounced button edge advances to pickup and engages the magnet
	r.button.level = true
	r.step(10 * time.Millisecond)
	assert.Equal(t, station.StatePickPlate1, r.c.State())
	assert.Equal(t, station.MagnetOn, r.acts.magnet)
	assert.Equal(t, 1, r.acts.count(station.IndicatorButtonDetected))
}

func TestWaitIgnoresMarkerOffOrigin(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.Observation{ID: 1, Row: 2, Col: 2})
	r.step(10 * time.Millisecond)

	assert.Equal(t, station.StateWaitPlate1, r.c.State())
	assert.False(t, r.c.Snapshot(r.now).Gated)
}

func TestGateClearsWhenMarkerMoves(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.Observation{ID: 1, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)
	require.True(t, r.c.Snapshot(r.now).Gated)

	r.send(protocol.Observation{ID: 1, Row: 1, Col: 0})
	r.step(10 * time.Millisecond)
	assert.False(t, r.c.Snapshot(r.now).Gated)
	assert.Equal(t, station.StateWaitPlate1, r.c.State())

	// the button no longer advances once the gate is closed
	r.button.level = true
	r.step(10 * time.Millisecond)
	assert.Equal(t, station.StateWaitPlate1, r.c.State())
}

func TestGateClearsWhenMarkerDisappears(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)

	r.send(protocol.Observation{ID: 1, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)
	require.True(t, r.c.Snapshot(r.now).Gated)

	// no further observations: the report goes stale and the gate clears
	r.step(cfg.MarkerFreshFor + 10*time.Millisecond)
	assert.False(t, r.c.Snapshot(r.now).Gated)
}

func TestSecondPlatePresentedFirstSwapsTargets(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	// marker 2 shows up first: its target must follow it to the active slot
	r.send(protocol.Observation{ID: 2, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)

	snap := r.c.Snapshot(r.now)
	require.True(t, snap.Gated)
	assert.Equal(t, 2, snap.Plates[0].Marker)
	assert.Equal(t, station.Cell{Row: 1, Col: 2}, snap.Plates[0].Target)
	assert.Equal(t, station.Cell{Row: 3, Col: 4}, snap.Plates[1].Target)
}

func TestUnknownMarkerDoesNotGate(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.Observation{ID: 9, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)

	assert.False(t, r.c.Snapshot(r.now).Gated)
}

func TestPickupSettleDwell(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.gateAndConfirm(t, 1)
	require.Equal(t, station.StatePickPlate1, r.c.State())

	tc := r.now
	r.now = tc.Add(cfg.PickupSettle - time.Millisecond)
	r.c.Step(r.now)
	assert.Equal(t, station.StatePickPlate1, r.c.State())

	r.now = tc.Add(cfg.PickupSettle)
	r.c.Step(r.now)
	assert.Equal(t, station.StateMovePlate1, r.c.State())
}

func TestConfirmEventAdvancesGate(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.Observation{ID: 1, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)
	require.True(t, r.c.Snapshot(r.now).Gated)

	// UI confirm events work the same as the physical button
	r.send(protocol.Confirm{})
	r.step(10 * time.Millisecond)
	assert.Equal(t, station.StatePickPlate1, r.c.State())
}

// moveToPlate walks a freshly homed rig into MOVE_PLATE_1
func (r *rig) enterMove(t *testing.T, cfg Config) {
	t.Helper()
	r.gateAndConfirm(t, 1)
	r.step(cfg.PickupSettle + 10*time.Millisecond)
	require.Equal(t, station.StateMovePlate1, r.c.State())
}

func TestMoveDrivesMotorsFromPots(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.enterMove(t, cfg)

	r.analog.x = 4095 // full positive X deflection
	r.step(10 * time.Millisecond)

	assert.Positive(t, r.acts.motorA)
	assert.Positive(t, r.acts.motorB)
}

func TestMoveRespectsLimitClipping(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.enterMove(t, cfg)

	r.analog.x = 0 // full negative X deflection
	r.limits.x = true
	r.step(10 * time.Millisecond)

	assert.Zero(t, r.acts.motorA)
	assert.Zero(t, r.acts.motorB)
}

func TestPlacementDwellExactBoundary(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.enterMove(t, cfg)

	// arrive at the plate 1 target (code 5432: row 3, col 4)
	r.send(protocol.Observation{ID: 1, Row: 3, Col: 4})
	r.step(10 * time.Millisecond)
	require.Equal(t, station.StateVerifyPlate1, r.c.State())
	tArrive := r.now

	// one millisecond short of the dwell: still verifying
	r.now = tArrive.Add(cfg.PlacementDwell - time.Millisecond)
	r.c.Step(r.now)
	assert.Equal(t, station.StateVerifyPlate1, r.c.State())
	assert.False(t, r.c.Snapshot(r.now).Plates[0].Placed)

	// exactly the dwell: placed
	r.now = tArrive.Add(cfg.PlacementDwell)
	r.c.Step(r.now)
	assert.Equal(t, station.StateWaitPlate2, r.c.State())
	assert.True(t, r.c.Snapshot(r.now).Plates[0].Placed)
	assert.Equal(t, station.MagnetReverseHold, r.acts.magnet)
	assert.Zero(t, r.acts.motorA)
}

func TestPlacementDriftRestartsDwell(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.enterMove(t, cfg)

	r.send(protocol.Observation{ID: 1, Row: 3, Col: 4})
	r.step(10 * time.Millisecond)
	require.Equal(t, station.StateVerifyPlate1, r.c.State())
	tArrive := r.now

	// drift off target halfway through the dwell
	r.now = tArrive.Add(cfg.PlacementDwell / 2)
	r.send(protocol.Observation{ID: 1, Row: 3, Col: 3})
	r.c.Step(r.now)
	require.Equal(t, station.StateMovePlate1, r.c.State())

	// back on target: the dwell restarts from here, not from tArrive
	r.send(protocol.Observation{ID: 1, Row: 3, Col: 4})
	r.step(10 * time.Millisecond)
	require.Equal(t, station.StateVerifyPlate1, r.c.State())
	tBack := r.now

	r.now = tBack.Add(cfg.PlacementDwell - time.Millisecond)
	r.c.Step(r.now)
	assert.Equal(t, station.StateVerifyPlate1, r.c.State())

	r.now = tBack.Add(cfg.PlacementDwell)
	r.c.Step(r.now)
	assert.Equal(t, station.StateWaitPlate2, r.c.State())
}

func TestReleaseOverrideSkipsDwell(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.enterMove(t, cfg)

	r.send(protocol.Release{})
	r.step(10 * time.Millisecond)

	assert.Equal(t, station.StateWaitPlate2, r.c.State())
	assert.True(t, r.c.Snapshot(r.now).Plates[0].Placed)
	assert.Equal(t, station.MagnetReverseHold, r.acts.magnet)
}

func TestReleaseIgnoredOutsideTransit(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.Release{})
	r.step(10 * time.Millisecond)

	assert.Equal(t, station.StateWaitPlate1, r.c.State())
	assert.False(t, r.c.Snapshot(r.now).Plates[0].Placed)
}

func TestPickupUpdateBeforeTransit(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.PickupUpdate{ID: 9, Row: 0, Col: 4})
	r.step(10 * time.Millisecond)

	assert.Equal(t, station.Cell{Row: 0, Col: 4}, r.c.Snapshot(r.now).Plates[0].Target)
}

func TestPickupUpdateIgnoredMidTransit(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)
	r.home(t)
	r.enterMove(t, cfg)

	r.send(protocol.PickupUpdate{ID: 9, Row: 0, Col: 0})
	r.step(10 * time.Millisecond)

	assert.Equal(t, station.Cell{Row: 3, Col: 4}, r.c.Snapshot(r.now).Plates[0].Target)
}

func TestMotorUnlockDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotorUnlockDelay = 10 * time.Second
	r := newRig(t, cfg)
	r.home(t)
	tHomed := r.now
	r.enterMove(t, cfg)

	// inside the lock window the pots are ignored
	r.analog.x = 4095
	r.step(10 * time.Millisecond)
	assert.Zero(t, r.acts.motorA)
	assert.True(t, r.c.Snapshot(r.now).Locked)

	// after the window they drive normally
	r.now = tHomed.Add(cfg.MotorUnlockDelay + time.Second)
	r.c.Step(r.now)
	assert.Positive(t, r.acts.motorA)
	assert.False(t, r.c.Snapshot(r.now).Locked)
}

func TestFullRun(t *testing.T) {
	cfg := DefaultConfig()
	r := newRig(t, cfg)

	var transitions []station.State
	r.c.OnTransition(func(_, to station.State, _ time.Time) {
		transitions = append(transitions, to)
	})
	var placed []int
	r.c.OnPlaced(func(plate int, _ station.Cell, _ time.Time) {
		placed = append(placed, plate)
	})

	r.home(t)

	// plate 1
	r.gateAndConfirm(t, 1)
	r.step(cfg.PickupSettle + 10*time.Millisecond)
	require.Equal(t, station.StateMovePlate1, r.c.State())
	r.send(protocol.Observation{ID: 1, Row: 3, Col: 4})
	r.step(10 * time.Millisecond)
	r.step(cfg.PlacementDwell)
	require.Equal(t, station.StateWaitPlate2, r.c.State())

	// plate 2
	r.gateAndConfirm(t, 2)
	require.Equal(t, station.StatePickPlate2, r.c.State())
	r.step(cfg.PickupSettle + 10*time.Millisecond)
	require.Equal(t, station.StateMovePlate2, r.c.State())
	r.send(protocol.Observation{ID: 2, Row: 1, Col: 2})
	r.step(10 * time.Millisecond)
	require.Equal(t, station.StateVerifyPlate2, r.c.State())
	r.step(cfg.PlacementDwell)

	assert.Equal(t, station.StateComplete, r.c.State())
	assert.True(t, r.c.Snapshot(r.now).Plates[0].Placed)
	assert.True(t, r.c.Snapshot(r.now).Plates[1].Placed)
	assert.Equal(t, station.MagnetReverseFinal, r.acts.magnet)
	assert.Equal(t, []int{0, 1}, placed)
	assert.Equal(t, 2, r.acts.count(station.IndicatorSuccess))
	assert.NoError(t, r.c.Err())

	assert.Equal(t, []station.State{
		station.StateHoming,
		station.StateWaitPlate1,
		station.StatePickPlate1,
		station.StateMovePlate1,
		station.StateVerifyPlate1,
		station.StateWaitPlate2,
		station.StatePickPlate2,
		station.StateMovePlate2,
		station.StateVerifyPlate2,
		station.StateComplete,
	}, transitions)
}

func TestObservationOutsideGridIgnored(t *testing.T) {
	r := newRig(t, DefaultConfig())
	r.home(t)

	r.send(protocol.Observation{ID: 1, Row: 7, Col: 0})
	r.step(10 * time.Millisecond)

	snap := r.c.Snapshot(r.now)
	assert.False(t, snap.MarkerSeen)
	assert.Equal(t, station.Cell{Row: 0, Col: 0}, snap.Position)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.c.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("control loop did not stop after cancellation")
	}

	// motors and magnet must be left safe
	assert.Zero(t, r.acts.motorA)
	assert.Zero(t, r.acts.motorB)
	assert.Equal(t, station.MagnetOff, r.acts.magnet)
}

func TestNewRejectsMissingCapabilities(t *testing.T) {
	_, err := New(DefaultConfig(), Hardware{}, nil)
	assert.Error(t, err)
}

func TestNewRejectsBadTargetCode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetCode = "90xx"

	_, err := New(cfg, Hardware{
		Analog: &fakeAnalog{},
		Limits: &fakeLimits{},
		Acts:   &recordingActs{},
	}, nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrHomingTimeout))
}
