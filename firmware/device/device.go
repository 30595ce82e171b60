//go:build tinygo

// Package device maps the station's hardware capabilities onto the Pico's
// pins: pot ADCs, the two H-bridge motor drivers, limit switches, the
// pickup magnet and the operator panel.
package device

import (
	"errors"
	"machine"
	"time"

	"github.com/forgebots/station"
	"github.com/forgebots/station/controller"
)

const (
	// motorPWMPeriod is 20kHz, above the audible range of the drivers
	motorPWMPeriod = uint64(50_000)

	shortBeep    = 100 * time.Millisecond
	longBeep     = 400 * time.Millisecond
	uvPulse      = 2 * time.Second
	releasePulse = time.Second
)

type motor struct {
	pwm     pwmGroup
	channel uint8
	forward machine.Pin
	reverse machine.Pin
}

func newMotor(cfg MotorConfig) (*motor, error) {
	err := cfg.PWM.Configure(machine.PWMConfig{Period: motorPWMPeriod})
	if err != nil {
		return nil, errors.New("error configuring motor PWM: " + err.Error())
	}

	channel, err := cfg.PWM.Channel(cfg.PWMPin)
	if err != nil {
		return nil, errors.New("error getting PWM channel: " + err.Error())
	}

	cfg.Forward.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cfg.Reverse.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &motor{
		pwm:     cfg.PWM,
		channel: channel,
		forward: cfg.Forward,
		reverse: cfg.Reverse,
	}, nil
}

// set drives the motor with a signed command in the -255..255 range
func (m *motor) set(cmd int) {
	magnitude := cmd
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if magnitude > 255 {
		magnitude = 255
	}

	m.forward.Set(cmd > 0)
	m.reverse.Set(cmd < 0)
	m.pwm.Set(m.channel, m.pwm.Top()*uint32(magnitude)/255)
}

// Device owns all pin state. It implements the analog, limit, button and
// actuator capabilities the control loop is built against.
type Device struct {
	adcX machine.ADC
	adcY machine.ADC

	motorA *motor
	motorB *motor

	limitX machine.Pin
	limitY machine.Pin

	magnetForward machine.Pin
	magnetReverse machine.Pin

	buzzer machine.Pin
	uvLamp machine.Pin
	button machine.Pin
}

func New(motorA, motorB MotorConfig, magnet MagnetConfig, limits LimitConfig, analog AnalogConfig, panel PanelConfig) (*Device, error) {
	machine.InitADC()

	a, err := newMotor(motorA)
	if err != nil {
		return nil, errors.New("error creating motor A: " + err.Error())
	}
	b, err := newMotor(motorB)
	if err != nil {
		return nil, errors.New("error creating motor B: " + err.Error())
	}

	d := &Device{
		adcX:          machine.ADC{Pin: analog.X},
		adcY:          machine.ADC{Pin: analog.Y},
		motorA:        a,
		motorB:        b,
		limitX:        limits.X,
		limitY:        limits.Y,
		magnetForward: magnet.Forward,
		magnetReverse: magnet.Reverse,
		buzzer:        panel.Buzzer,
		uvLamp:        panel.UVLamp,
		button:        panel.Button,
	}

	d.adcX.Configure(machine.ADCConfig{})
	d.adcY.Configure(machine.ADCConfig{})

	d.limitX.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.limitY.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	d.magnetForward.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.magnetReverse.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.buzzer.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.uvLamp.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return d, nil
}

// Sample reads one pot. The rp2040 ADC is 12-bit left-adjusted in Get's
// 16-bit result, so shift back down to the real resolution.
func (d *Device) Sample(axis controller.Axis) (uint16, error) {
	if axis == controller.AxisX {
		return d.adcX.Get() >> 4, nil
	}
	return d.adcY.Get() >> 4, nil
}

// limit switches pull the line low when the carriage hits them
func (d *Device) LimitX() bool { return !d.limitX.Get() }
func (d *Device) LimitY() bool { return !d.limitY.Get() }

func (d *Device) Pressed() bool { return !d.button.Get() }

func (d *Device) SetMotors(a, b int) {
	d.motorA.set(a)
	d.motorB.set(b)
}

func (d *Device) SetMagnet(mode station.MagnetMode) {
	switch mode {
	case station.MagnetOn:
		d.magnetReverse.Low()
		d.magnetForward.High()
	case station.MagnetReverseHold:
		d.magnetForward.Low()
		d.magnetReverse.High()
	case station.MagnetReverseFinal:
		d.magnetForward.Low()
		d.magnetReverse.High()
		go func() {
			time.Sleep(releasePulse)
			d.magnetReverse.Low()
		}()
	default:
		d.magnetForward.Low()
		d.magnetReverse.Low()
	}
}

func (d *Device) Indicate(signal station.Indicator) {
	switch signal {
	case station.IndicatorPickupAck:
		go d.beep(shortBeep, 2)
	case station.IndicatorButtonDetected:
		go d.beep(shortBeep, 1)
	case station.IndicatorSuccess:
		go d.beep(longBeep, 1)
		go func() {
			d.uvLamp.High()
			time.Sleep(uvPulse)
			d.uvLamp.Low()
		}()
	}
}

func (d *Device) beep(length time.Duration, count int) {
	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(length)
		}
		d.buzzer.High()
		time.Sleep(length)
		d.buzzer.Low()
	}
}

func (d *Device) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}
