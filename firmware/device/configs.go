//go:build tinygo

package device

import (
	"machine"
)

// pwmGroup is the subset of the rp2040 PWM slice API the motors need
type pwmGroup interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

// MotorConfig wires one gantry motor through an L298-style driver: a PWM
// pin for speed and two direction pins for the H-bridge
type MotorConfig struct {
	PWM     pwmGroup
	PWMPin  machine.Pin
	Forward machine.Pin
	Reverse machine.Pin
}

// MagnetConfig wires the pickup electromagnet's H-bridge so polarity can
// be reversed for plate release
type MagnetConfig struct {
	Forward machine.Pin
	Reverse machine.Pin
}

// LimitConfig holds the homing limit switches, active low with pullups
type LimitConfig struct {
	X machine.Pin
	Y machine.Pin
}

// AnalogConfig holds the joystick pot ADC pins
type AnalogConfig struct {
	X machine.Pin
	Y machine.Pin
}

// PanelConfig holds the operator feedback and input pins
type PanelConfig struct {
	Buzzer machine.Pin
	UVLamp machine.Pin
	Button machine.Pin
}

// LCDConfig wires the 16x2 character display over I2C
type LCDConfig struct {
	Bus  *machine.I2C
	SDA  machine.Pin
	SCL  machine.Pin
	Addr uint8
}
