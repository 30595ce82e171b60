// Package ui is the desktop operator panel: virtual pot sliders for
// driving the gantry, a confirm button for pickups, and a live view of the
// workflow state.
package ui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/forgebots/station"
	"github.com/forgebots/station/controller"
	"github.com/forgebots/station/protocol"
)

type StationUI struct {
	app    fyne.App
	pots   *VirtualPots
	adcMax uint16

	events chan<- protocol.Event

	stateLabel    *widget.Label
	positionLabel *widget.Label
	markerLabel   *widget.Label
	motorLabel    *widget.Label
	plateLabels   [2]*widget.Label

	runTimer     *timer
	waitForStart chan struct{}
	started      bool
}

func NewStationUI(adcMax uint16, events chan<- protocol.Event) *StationUI {
	ui := &StationUI{
		app:           app.New(),
		pots:          NewVirtualPots(adcMax),
		adcMax:        adcMax,
		events:        events,
		stateLabel:    widget.NewLabel("Starting..."),
		positionLabel: widget.NewLabel(""),
		markerLabel:   widget.NewLabel("No marker"),
		motorLabel:    widget.NewLabel("STOP"),
		runTimer:      newTimer(),
		waitForStart:  make(chan struct{}),
	}
	ui.plateLabels[0] = widget.NewLabel("")
	ui.plateLabels[1] = widget.NewLabel("")
	return ui
}

// App exposes the fyne app so the config window can share Preferences
func (ui *StationUI) App() fyne.App {
	return ui.app
}

// Pots is the analog capability backed by the on-screen sliders
func (ui *StationUI) Pots() *VirtualPots {
	return ui.pots
}

// BindEvents connects the confirm and release buttons to the workflow
// queue. Until it is called the buttons are harmless no-ops.
func (ui *StationUI) BindEvents(events chan<- protocol.Event) {
	ui.events = events
}

// Show updates the panel from a control loop snapshot. It is called from
// the controller's goroutine, so every widget touch goes through fyne.Do.
func (ui *StationUI) Show(s controller.Snapshot) {
	fyne.Do(func() {
		if s.Err != nil {
			ui.stateLabel.SetText(fmt.Sprintf("%s: %v", s.State.String(), s.Err))
		} else {
			ui.stateLabel.SetText(s.State.String())
		}

		ui.positionLabel.SetText(fmt.Sprintf("Position: row %d, col %d", s.Position.Row, s.Position.Col))

		switch {
		case s.Gated:
			ui.markerLabel.SetText(fmt.Sprintf("Marker %d ready - press Confirm", s.MarkerID))
		case s.MarkerSeen:
			ui.markerLabel.SetText(fmt.Sprintf("Marker %d seen %s ago", s.MarkerID, s.MarkerAge.Round(100*time.Millisecond)))
		default:
			ui.markerLabel.SetText("No marker")
		}

		if s.Locked {
			ui.motorLabel.SetText("LOCKED")
		} else {
			ui.motorLabel.SetText(fmt.Sprintf("%s (A=%d B=%d)", s.Direction, s.MotorA, s.MotorB))
		}

		for i, plate := range s.Plates {
			status := "waiting"
			if plate.Placed {
				status = "placed"
			} else if i == s.Active {
				status = "active"
			}
			ui.plateLabels[i].SetText(fmt.Sprintf("Plate %d -> row %d, col %d (%s)",
				i+1, plate.Target.Row, plate.Target.Col, status))
		}
	})

	if !ui.started && s.State != station.StateInit && s.State != station.StateHoming {
		ui.started = true
		ui.runTimer.Set(time.Now())
		close(ui.waitForStart)
	}
}

func (ui *StationUI) Run(ctx context.Context) {
	window := ui.app.NewWindow("Plate Station")

	ui.runTimer.Go(ui.waitForStart)

	confirmButton := widget.NewButton("Confirm Pickup", func() {
		select {
		case ui.events <- protocol.Confirm{}:
		default:
		}
	})
	confirmButton.Importance = widget.HighImportance

	releaseButton := widget.NewButton("Force Release", func() {
		select {
		case ui.events <- protocol.Release{}:
		default:
		}
	})

	xContainer := createAxisSlider("X Axis", ui.adcMax, ui.pots, controller.AxisX)
	yContainer := createAxisSlider("Y Axis", ui.adcMax, ui.pots, controller.AxisY)

	contentContainer := container.NewVBox(
		container.NewHBox(
			container.NewPadded(ui.stateLabel),
			layout.NewSpacer(),
			container.NewPadded(ui.runTimer.text),
		),
		ui.positionLabel,
		ui.markerLabel,
		ui.motorLabel,
		ui.plateLabels[0],
		ui.plateLabels[1],
		confirmButton,
		releaseButton,
		xContainer,
		yContainer,
	)

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	window.SetContent(contentContainer)
	window.Resize(fyne.NewSize(360, 420))
	window.ShowAndRun()
}
