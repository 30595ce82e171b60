// Package controller implements the motion-and-orchestration engine for the
// forge registry station: a two-axis H-bot gantry that picks up marked
// plates at the hand-off cell and places them at coded target cells, driven
// by operator pots with camera observations for target selection and
// arrival detection.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgebots/station"
	"github.com/forgebots/station/protocol"
)

// ErrHomingTimeout is surfaced when a limit switch never asserts during
// homing. The gantry must be re-seated by hand before another attempt.
var ErrHomingTimeout = errors.New("homing failed: limit switch never asserted")

type homingPhase int

const (
	homeX homingPhase = iota
	settleX
	homeY
	settleY
)

// origin is the hand-off cell where plates are presented for pickup
var origin = station.Cell{Row: 0, Col: 0}

type observation struct {
	id    int
	cell  station.Cell
	valid bool
	at    time.Time
}

// Controller owns every piece of mutable workflow state and is the only
// writer of it. Protocol events arrive as complete values on a queue and
// are drained at the top of each cycle, so transports may run on their own
// goroutines without touching shared fields.
type Controller struct {
	cfg Config
	hw  Hardware
	log *slog.Logger

	axes   *AxisReader
	deb    Debouncer
	events chan protocol.Event

	state  station.State
	plates PlateSet
	active int

	obs      observation
	pos      station.Cell
	gated    bool
	confirms int

	// dwell deadlines, compared each cycle instead of sleeping so the loop
	// stays responsive to release overrides and faults
	settleUntil    time.Time
	placementStart time.Time

	homing         homingPhase
	homingDeadline time.Time
	unlockUntil    time.Time

	motorA, motorB int
	faultErr       error

	onTransition func(from, to station.State, now time.Time)
	onPlaced     func(plate int, cell station.Cell, now time.Time)
}

// New wires a controller against its hardware capabilities. The plate
// targets are decoded from cfg.TargetCode immediately so a bad code fails
// here rather than mid-run.
func New(cfg Config, hw Hardware, log *slog.Logger) (*Controller, error) {
	if hw.Analog == nil || hw.Limits == nil || hw.Acts == nil {
		return nil, errors.New("analog, limit and actuator capabilities are required")
	}
	if log == nil {
		log = slog.Default()
	}

	plates, err := NewPlateSet(cfg.TargetCode, cfg.PlateMarkers)
	if err != nil {
		return nil, fmt.Errorf("decoding target code: %w", err)
	}

	return &Controller{
		cfg:    cfg,
		hw:     hw,
		log:    log,
		axes:   NewAxisReader(hw.Analog, cfg),
		deb:    Debouncer{Window: cfg.ButtonDebounce},
		events: make(chan protocol.Event, 64),
		state:  station.StateInit,
		plates: plates,
	}, nil
}

// Events is the single-consumer queue transports deliver parsed events into
func (c *Controller) Events() chan<- protocol.Event {
	return c.events
}

// State returns the current workflow state
func (c *Controller) State() station.State {
	return c.state
}

// Err returns the fault that stopped the workflow, if any
func (c *Controller) Err() error {
	return c.faultErr
}

// OnTransition registers a hook called after every state change
func (c *Controller) OnTransition(fn func(from, to station.State, now time.Time)) {
	c.onTransition = fn
}

// OnPlaced registers a hook called when a plate placement is verified
func (c *Controller) OnPlaced(fn func(plate int, cell station.Cell, now time.Time)) {
	c.onPlaced = fn
}

// Run drives the control loop until the workflow terminates or the context
// is cancelled. On cancellation the motors are stopped and the magnet
// released before returning.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.CyclePeriod)
	defer ticker.Stop()

	var lastShown time.Time
	for {
		select {
		case <-ctx.Done():
			c.hw.Acts.SetMotors(0, 0)
			c.hw.Acts.SetMagnet(station.MagnetOff)
			return ctx.Err()
		case now := <-ticker.C:
			c.Step(now)

			if c.hw.Display != nil && now.Sub(lastShown) >= c.cfg.DisplayEvery {
				c.hw.Display.Show(c.Snapshot(now))
				lastShown = now
			}

			if c.state.Terminal() {
				if c.hw.Display != nil {
					c.hw.Display.Show(c.Snapshot(now))
				}
				return c.faultErr
			}
		}
	}
}

// Step runs one control cycle: drain pending events, evaluate the current
// state, emit actuator intents. now is passed in so tests can drive time.
func (c *Controller) Step(now time.Time) {
	c.drainEvents(now)

	confirmed := c.pollConfirm(now)

	switch c.state {
	case station.StateInit:
		c.setMotors(0, 0)
		c.hw.Acts.SetMagnet(station.MagnetOff)
		c.beginHoming(now)

	case station.StateHoming:
		c.stepHoming(now)

	case station.StateWaitPlate1, station.StateWaitPlate2:
		c.setMotors(0, 0)
		c.stepWait(now, confirmed)

	case station.StatePickPlate1, station.StatePickPlate2:
		// settle dwell for the magnet to grip; gantry must not move
		c.setMotors(0, 0)
		if !now.Before(c.settleUntil) {
			c.placementStart = time.Time{}
			c.transition(c.moveState(), now)
		}

	case station.StateMovePlate1, station.StateMovePlate2:
		c.driveFromPots(now)
		if c.plates.Plate(c.active).Reached(c.pos) && c.obs.valid {
			c.placementStart = now
			c.transition(c.verifyState(), now)
		}

	case station.StateVerifyPlate1, station.StateVerifyPlate2:
		// operator may still be micro-adjusting
		c.driveFromPots(now)
		if !c.plates.Plate(c.active).Reached(c.pos) {
			c.placementStart = time.Time{}
			c.transition(c.moveState(), now)
		} else if now.Sub(c.placementStart) >= c.cfg.PlacementDwell {
			c.release(now)
		}

	case station.StateComplete, station.StateFault:
		c.setMotors(0, 0)
	}
}

// Snapshot captures the display-relevant state
func (c *Controller) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		State:      c.state,
		Plates:     [2]Plate{c.plates.Plate(0), c.plates.Plate(1)},
		Active:     c.active,
		Position:   c.pos,
		MarkerSeen: !c.obs.at.IsZero(),
		MarkerID:   c.obs.id,
		Gated:      c.gated,
		MotorA:     c.motorA,
		MotorB:     c.motorB,
		Direction:  DirectionString(c.motorA, c.motorB),
		Locked:     now.Before(c.unlockUntil),
		Err:        c.faultErr,
	}
	if s.MarkerSeen {
		s.MarkerAge = now.Sub(c.obs.at)
	}
	return s
}

func (c *Controller) drainEvents(now time.Time) {
	for {
		select {
		case ev := <-c.events:
			c.handleEvent(ev, now)
		default:
			return
		}
	}
}

func (c *Controller) handleEvent(ev protocol.Event, now time.Time) {
	switch ev := ev.(type) {
	case protocol.Observation:
		cell := station.Cell{Row: ev.Row, Col: ev.Col}
		if !cell.In() {
			c.log.Warn("observation outside grid ignored", "row", ev.Row, "col", ev.Col)
			return
		}
		// wholesale overwrite; replaying the same observation is a no-op
		c.obs = observation{
			id:    ev.ID,
			cell:  cell,
			valid: true,
			at:    now,
		}
		c.pos = c.obs.cell

	case protocol.PickupUpdate:
		if c.inTransit() || c.state.Terminal() || c.plates.Plate(c.active).Placed {
			c.log.Warn("pickup target update ignored, plate already in transit",
				"plate", c.active+1, "row", ev.Row, "col", ev.Col)
			return
		}
		if err := c.plates.UpdateTarget(c.active, ev.Row, ev.Col); err != nil {
			c.log.Warn("pickup target update rejected", "err", err)
			return
		}
		c.log.Info("pickup target updated",
			"plate", c.active+1, "row", ev.Row, "col", ev.Col)

	case protocol.Release:
		if c.inTransit() {
			c.log.Info("operator release override", "state", c.state.String())
			c.release(now)
		}

	case protocol.Confirm:
		c.confirms++
	}
}

// pollConfirm merges the hardware button with queued Confirm events
func (c *Controller) pollConfirm(now time.Time) bool {
	confirmed := c.confirms > 0
	c.confirms = 0

	if c.hw.Button != nil && c.deb.Press(c.hw.Button.Pressed(), now) {
		confirmed = true
	}
	return confirmed
}

func (c *Controller) beginHoming(now time.Time) {
	c.homing = homeX
	c.homingDeadline = now.Add(c.cfg.HomingTimeout)
	c.transition(station.StateHoming, now)
}

// stepHoming runs the bounded homing search: negative X until the X switch
// asserts, a settle pause, then negative Y until the Y switch asserts. A
// phase that outlives its deadline is fatal, an un-homed axis is a safety
// hazard.
func (c *Controller) stepHoming(now time.Time) {
	limits := PollLimits(c.hw.Limits)

	switch c.homing {
	case homeX:
		if limits.X() {
			c.setMotors(0, 0)
			c.settleUntil = now.Add(c.cfg.HomingSettle)
			c.homing = settleX
			return
		}
		if now.After(c.homingDeadline) {
			c.fault(fmt.Errorf("%w (X axis)", ErrHomingTimeout), now)
			return
		}
		c.setMotors(Mix(-c.cfg.HomingSpeed, 0, 0))

	case settleX:
		c.setMotors(0, 0)
		if !now.Before(c.settleUntil) {
			c.homing = homeY
			c.homingDeadline = now.Add(c.cfg.HomingTimeout)
		}

	case homeY:
		if limits.Y() {
			c.setMotors(0, 0)
			c.settleUntil = now.Add(c.cfg.HomingSettle)
			c.homing = settleY
			return
		}
		if now.After(c.homingDeadline) {
			c.fault(fmt.Errorf("%w (Y axis)", ErrHomingTimeout), now)
			return
		}
		c.setMotors(Mix(0, -c.cfg.HomingSpeed, 0))

	case settleY:
		c.setMotors(0, 0)
		if !now.Before(c.settleUntil) {
			c.pos = origin
			if c.cfg.MotorUnlockDelay > 0 {
				c.unlockUntil = now.Add(c.cfg.MotorUnlockDelay)
			}
			c.transition(station.StateWaitPlate1, now)
		}
	}
}

// stepWait handles the confirmation gate: a fresh marker at the hand-off
// cell opens the gate and signals the operator once; the debounced button
// advances to pickup; the marker disappearing or moving closes the gate.
func (c *Controller) stepWait(now time.Time, confirmed bool) {
	fresh := c.obs.valid && now.Sub(c.obs.at) <= c.cfg.MarkerFreshFor
	atOrigin := fresh && c.obs.cell == origin

	if c.gated {
		if !atOrigin {
			c.log.Info("marker left hand-off cell, gate cleared")
			c.gated = false
			return
		}
		if confirmed {
			c.gated = false
			c.hw.Acts.Indicate(station.IndicatorButtonDetected)
			c.hw.Acts.SetMagnet(station.MagnetOn)
			c.settleUntil = now.Add(c.cfg.PickupSettle)
			c.transition(c.pickState(), now)
		}
		return
	}

	if !atOrigin {
		return
	}

	// plate 1 accepts either marker: if the second plate's marker shows up
	// first, swap so the presented plate maps to the active slot
	if c.active == 0 && c.obs.id == c.plates.Plate(1).Marker {
		c.log.Info("second plate presented first, swapping targets", "marker", c.obs.id)
		c.plates.Swap()
	}
	if c.obs.id != c.plates.Plate(c.active).Marker {
		return
	}

	c.gated = true
	c.hw.Acts.Indicate(station.IndicatorPickupAck)
	c.log.Info("marker at hand-off cell, awaiting confirmation",
		"marker", c.obs.id, "plate", c.active+1)
}

// driveFromPots runs the per-cycle input chain: pots through the smoother,
// limits polled live, the pair mixed and sent to the motors
func (c *Controller) driveFromPots(now time.Time) {
	if now.Before(c.unlockUntil) {
		c.setMotors(0, 0)
		return
	}

	x := c.axes.Read(AxisX)
	y := c.axes.Read(AxisY)
	c.setMotors(Mix(x, y, PollLimits(c.hw.Limits)))
}

// release finishes the active plate: verified dwell completion and the
// operator RELEASE override both land here
func (c *Controller) release(now time.Time) {
	c.setMotors(0, 0)
	c.plates.MarkPlaced(c.active)

	if c.onPlaced != nil {
		c.onPlaced(c.active, c.plates.Plate(c.active).Target, now)
	}

	// consume the detection so a stale report cannot re-trigger the next
	// wait state
	c.obs.valid = false

	if c.active == 0 {
		c.hw.Acts.SetMagnet(station.MagnetReverseHold)
		c.hw.Acts.Indicate(station.IndicatorSuccess)
		c.active = 1
		c.transition(station.StateWaitPlate2, now)
		return
	}

	c.hw.Acts.SetMagnet(station.MagnetReverseFinal)
	c.transition(station.StateComplete, now)
	c.hw.Acts.Indicate(station.IndicatorSuccess)
}

func (c *Controller) fault(err error, now time.Time) {
	c.faultErr = err
	c.setMotors(0, 0)
	c.hw.Acts.SetMagnet(station.MagnetOff)
	c.log.Error("workflow fault", "err", err)
	c.transition(station.StateFault, now)
}

func (c *Controller) transition(to station.State, now time.Time) {
	from := c.state
	c.state = to
	c.log.Info("state transition", "from", from.String(), "to", to.String())
	if c.onTransition != nil {
		c.onTransition(from, to, now)
	}
}

func (c *Controller) setMotors(a, b int) {
	c.motorA, c.motorB = a, b
	c.hw.Acts.SetMotors(a, b)
}

func (c *Controller) inTransit() bool {
	switch c.state {
	case station.StateMovePlate1, station.StateVerifyPlate1,
		station.StateMovePlate2, station.StateVerifyPlate2:
		return true
	}
	return false
}

func (c *Controller) pickState() station.State {
	if c.active == 0 {
		return station.StatePickPlate1
	}
	return station.StatePickPlate2
}

func (c *Controller) moveState() station.State {
	if c.active == 0 {
		return station.StateMovePlate1
	}
	return station.StateMovePlate2
}

func (c *Controller) verifyState() station.State {
	if c.active == 0 {
		return station.StateVerifyPlate1
	}
	return station.StateVerifyPlate2
}
