//go:build tinygo

package device

import (
	"machine"

	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/forgebots/station/controller"
)

const lcdWidth = 16

// LCD renders workflow status on the 16x2 character display
type LCD struct {
	dev hd44780i2c.Device
}

func NewLCD(cfg LCDConfig) (*LCD, error) {
	err := cfg.Bus.Configure(machine.I2CConfig{SDA: cfg.SDA, SCL: cfg.SCL})
	if err != nil {
		return nil, err
	}

	dev := hd44780i2c.New(cfg.Bus, cfg.Addr)
	err = dev.Configure(hd44780i2c.Config{
		Width:  lcdWidth,
		Height: 2,
	})
	if err != nil {
		return nil, err
	}

	return &LCD{dev: dev}, nil
}

// Show writes the state on the top line and position plus target on the
// bottom. The control loop throttles calls, so a full redraw each time is
// fine.
func (l *LCD) Show(s controller.Snapshot) {
	top := s.State.String()
	if s.Gated {
		top = "Press Confirm"
	}
	if s.Err != nil {
		top = "FAULT: rehome"
	}

	target := s.Plates[s.Active].Target
	bottom := "P" + digit(s.Position.Row) + digit(s.Position.Col) +
		" T" + digit(target.Row) + digit(target.Col) +
		" " + s.Direction

	l.dev.ClearDisplay()
	l.dev.SetCursor(0, 0)
	l.dev.Print(pad(top))
	l.dev.SetCursor(0, 1)
	l.dev.Print(pad(bottom))
}

func digit(n int) string {
	if n < 0 || n > 9 {
		return "?"
	}
	return string(byte(n) + '0')
}

// pad clips or right-pads a line to the display width
func pad(s string) []byte {
	line := make([]byte, lcdWidth)
	for i := range line {
		if i < len(s) {
			line[i] = s[i]
		} else {
			line[i] = ' '
		}
	}
	return line
}
