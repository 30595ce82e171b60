//go:build tinygo

package main

import (
	"context"
	"machine"

	"github.com/forgebots/station/controller"
	"github.com/forgebots/station/firmware/device"
	"github.com/forgebots/station/protocol"
)

func main() {
	motorA := device.MotorConfig{
		PWM:     machine.PWM7,
		PWMPin:  machine.GP15,
		Forward: machine.GP17,
		Reverse: machine.GP16,
	}
	motorB := device.MotorConfig{
		PWM:     machine.PWM6,
		PWMPin:  machine.GP13,
		Forward: machine.GP19,
		Reverse: machine.GP18,
	}
	magnet := device.MagnetConfig{
		Forward: machine.GP8,
		Reverse: machine.GP9,
	}
	limits := device.LimitConfig{
		X: machine.GP6,
		Y: machine.GP7,
	}
	analog := device.AnalogConfig{
		X: machine.GP26,
		Y: machine.GP27,
	}
	panel := device.PanelConfig{
		Buzzer: machine.GP10,
		UVLamp: machine.GP11,
		Button: machine.GP22,
	}

	d, err := device.New(motorA, motorB, magnet, limits, analog, panel)
	if err != nil {
		panic(err)
	}

	hw := controller.Hardware{
		Analog: d,
		Limits: d,
		Button: d,
		Acts:   d,
	}

	lcd, err := device.NewLCD(device.LCDConfig{
		Bus:  machine.I2C0,
		SDA:  machine.GP0,
		SCL:  machine.GP1,
		Addr: 0x27,
	})
	if err != nil {
		// run headless rather than refusing to start
		println("LCD unavailable:", err.Error())
	} else {
		hw.Display = lcd
	}

	c, err := controller.New(controller.DefaultConfig(), hw, nil)
	if err != nil {
		panic(err)
	}

	go feedCameraLines(d, c.Events())

	err = c.Run(context.Background())
	if err != nil {
		println("workflow stopped:", err.Error())
	}

	// hold here so the fault or completion screen stays visible
	select {}
}

// feedCameraLines pumps camera bytes from the USB serial link through the
// line reader into the workflow queue
func feedCameraLines(d *device.Device, events chan<- protocol.Event) {
	var lr protocol.LineReader
	for {
		b, err := d.ReadByte()
		if err != nil {
			continue
		}

		ev := lr.Feed(b)
		if ev == nil {
			continue
		}

		select {
		case events <- ev:
		default:
		}
	}
}
