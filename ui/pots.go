package ui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/forgebots/station/controller"
)

// VirtualPots stands in for the physical joystick pots so the station can
// be driven from the desktop. Sample is called from the control loop's
// goroutine while the sliders write from the UI thread, hence the mutex.
type VirtualPots struct {
	mtx  sync.Mutex
	x, y uint16
	mid  uint16
}

func NewVirtualPots(adcMax uint16) *VirtualPots {
	mid := adcMax / 2
	return &VirtualPots{x: mid, y: mid, mid: mid}
}

func (p *VirtualPots) Sample(axis controller.Axis) (uint16, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if axis == controller.AxisX {
		return p.x, nil
	}
	return p.y, nil
}

func (p *VirtualPots) set(axis controller.Axis, value uint16) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if axis == controller.AxisX {
		p.x = value
	} else {
		p.y = value
	}
}

// Center snaps both pots back to the middle, like releasing a sprung stick
func (p *VirtualPots) Center() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.x, p.y = p.mid, p.mid
}

func createAxisSlider(labelText string, adcMax uint16, pots *VirtualPots, axis controller.Axis) *fyne.Container {
	mid := float64(adcMax) / 2
	valueLabel := widget.NewLabel(fmt.Sprintf("%.0f", mid))

	slider := widget.NewSlider(0, float64(adcMax))
	slider.Step = 1
	slider.SetValue(mid)
	slider.OnChanged = func(value float64) {
		valueLabel.SetText(fmt.Sprintf("%.0f", value))
		pots.set(axis, uint16(value))
	}

	centerButton := widget.NewButton("Center", func() {
		slider.SetValue(mid)
		valueLabel.SetText(fmt.Sprintf("%.0f", mid))
		pots.set(axis, uint16(mid))
	})

	return container.NewVBox(
		container.NewGridWithColumns(3,
			widget.NewLabel(labelText),
			valueLabel,
			centerButton,
		),
		slider,
	)
}
