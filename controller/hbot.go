package controller

// Mix combines the two axis commands into the coupled motor pair.
//
// The gantry is an H-bot: pure X drives both motors the same direction,
// pure Y drives them opposite. Limit clipping happens on the axis commands
// before mixing so an asserted switch fully blocks motion toward it no
// matter what diagonal the operator is commanding.
func Mix(xCmd, yCmd int, limits LimitMask) (motorA, motorB int) {
	if limits.X() && xCmd < 0 {
		xCmd = 0
	}
	if limits.Y() && yCmd < 0 {
		yCmd = 0
	}

	return clampCmd(xCmd + yCmd), clampCmd(xCmd - yCmd)
}

func clampCmd(v int) int {
	if v > 255 {
		return 255
	}
	if v < -255 {
		return -255
	}
	return v
}

// DirectionString names the heading the motor pair produces, for the
// display and logs
func DirectionString(motorA, motorB int) string {
	const threshold = 20

	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}

	if abs(motorA) < threshold && abs(motorB) < threshold {
		return "STOP"
	}

	switch {
	case motorA > threshold && motorB > threshold:
		if abs(motorA-motorB) < threshold {
			return "RIGHT"
		}
		if motorA > motorB {
			return "RIGHT-UP"
		}
		return "RIGHT-DN"
	case motorA < -threshold && motorB < -threshold:
		if abs(motorA-motorB) < threshold {
			return "LEFT"
		}
		if motorA < motorB {
			return "LEFT-UP"
		}
		return "LEFT-DN"
	case motorA > threshold && motorB < -threshold:
		if abs(motorA+motorB) < threshold {
			return "UP"
		}
		if motorA > abs(motorB) {
			return "RIGHT-UP"
		}
		return "UP-LEFT"
	case motorA < -threshold && motorB > threshold:
		if abs(motorA+motorB) < threshold {
			return "DOWN"
		}
		if abs(motorA) > motorB {
			return "LEFT-DN"
		}
		return "DOWN-RT"
	}

	if motorA > threshold {
		return "RIGHT-UP"
	}
	if motorA < -threshold {
		return "LEFT-DN"
	}
	if motorB > threshold {
		return "DOWN"
	}
	return "UP"
}
