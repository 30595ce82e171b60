package station

// GridSize is the width/height of the placement grid the camera reports on.
const GridSize = 5

// State is the workflow stage the station is currently in
type State int

const (
	StateInit State = iota
	StateHoming
	StateWaitPlate1
	StatePickPlate1
	StateMovePlate1
	StateVerifyPlate1
	StateWaitPlate2
	StatePickPlate2
	StateMovePlate2
	StateVerifyPlate2
	StateComplete
	// StateFault is terminal and only entered when homing fails. The
	// gantry position is unknown so nothing may be driven afterwards.
	StateFault
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateHoming:
		return "Homing"
	case StateWaitPlate1:
		return "WaitPlate1"
	case StatePickPlate1:
		return "PickPlate1"
	case StateMovePlate1:
		return "MovePlate1"
	case StateVerifyPlate1:
		return "VerifyPlate1"
	case StateWaitPlate2:
		return "WaitPlate2"
	case StatePickPlate2:
		return "PickPlate2"
	case StateMovePlate2:
		return "MovePlate2"
	case StateVerifyPlate2:
		return "VerifyPlate2"
	case StateComplete:
		return "Complete"
	case StateFault:
		return "Fault"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the workflow can make no further progress
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFault
}

// MagnetMode is the intent sent to the electromagnet driver
type MagnetMode int

const (
	MagnetOff MagnetMode = iota
	MagnetOn
	// MagnetReverseHold reverses polarity and keeps it reversed, pushing
	// the first plate off while the gantry returns for the second.
	MagnetReverseHold
	// MagnetReverseFinal reverses polarity briefly and then de-energizes,
	// used for the last plate of the run.
	MagnetReverseFinal
)

func (m MagnetMode) String() string {
	switch m {
	case MagnetOn:
		return "On"
	case MagnetReverseHold:
		return "ReverseHold"
	case MagnetReverseFinal:
		return "ReverseFinal"
	default:
		fallthrough
	case MagnetOff:
		return "Off"
	}
}

// Indicator identifies the operator feedback signals (buzzer patterns and
// the UV success lamp)
type Indicator int

const (
	IndicatorPickupAck Indicator = iota
	IndicatorButtonDetected
	IndicatorSuccess
)

func (i Indicator) String() string {
	switch i {
	case IndicatorPickupAck:
		return "PickupAck"
	case IndicatorButtonDetected:
		return "ButtonDetected"
	case IndicatorSuccess:
		return "Success"
	default:
		return "Unknown"
	}
}

// Cell is a 0-based grid coordinate. The camera reports (row, col); the X
// axis runs along columns and the Y axis along rows.
type Cell struct {
	Row int
	Col int
}

// In reports whether the cell lies inside the grid
func (c Cell) In() bool {
	return c.Row >= 0 && c.Row < GridSize && c.Col >= 0 && c.Col < GridSize
}
