package vision

import (
	"errors"
	"strings"

	"go.bug.st/serial"
)

// SerialPortNone lets the operator run without a camera attached
const SerialPortNone = "none"

// ErrNoUSBSerial means ports exist but none look like a USB camera adapter
var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists serial ports that look like USB devices, since the
// camera module always enumerates as one
func GetSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}

	var usbPorts []string
	for _, port := range ports {
		if strings.Contains(strings.ToLower(port), "usb") {
			usbPorts = append(usbPorts, port)
		}
	}

	if len(usbPorts) == 0 {
		return nil, ErrNoUSBSerial
	}
	return usbPorts, nil
}

// OpenSerial opens the camera's serial port for reading detections
func OpenSerial(port string, baudRate int) (serial.Port, error) {
	if port == "" || port == SerialPortNone {
		return nil, errors.New("no serial port configured")
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
	}
	return serial.Open(port, mode)
}
