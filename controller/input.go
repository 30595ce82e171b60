package controller

import "math"

// Axis identifies one of the two operator potentiometers
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "Y"
	}
	return "X"
}

// AnalogSource samples a raw potentiometer channel. Values run 0..Config.ADCMax.
type AnalogSource interface {
	Sample(axis Axis) (uint16, error)
}

// AxisReader converts raw pot samples into signed axis commands in
// [-255, 255]. Each Read oversamples the channel, folds the average into an
// exponentially-weighted running value, then applies the dead-zone and a
// sign-preserving quadratic curve so the stick is fine near center and fast
// at the extremes.
type AxisReader struct {
	src AnalogSource
	cfg Config

	smoothed [2]float64
	primed   [2]bool
}

// NewAxisReader creates an AxisReader with unprimed smoothing state
func NewAxisReader(src AnalogSource, cfg Config) *AxisReader {
	return &AxisReader{src: src, cfg: cfg}
}

// Read samples the axis and returns the shaped command. A starved source
// (sampling error) leaves the smoothing state untouched and the previous
// smoothed value carries forward.
func (r *AxisReader) Read(axis Axis) int {
	if avg, ok := r.average(axis); ok {
		if !r.primed[axis] {
			r.smoothed[axis] = avg
			r.primed[axis] = true
		} else {
			alpha := r.cfg.SmoothingAlpha
			r.smoothed[axis] = r.smoothed[axis]*(1-alpha) + avg*alpha
		}
	}
	if !r.primed[axis] {
		return 0
	}

	mid := float64(r.cfg.ADCMax) / 2
	centered := r.smoothed[axis] - mid

	if math.Abs(centered) < float64(r.cfg.Deadzone) {
		return 0
	}

	norm := centered / mid
	if norm > 1 {
		norm = 1
	} else if norm < -1 {
		norm = -1
	}

	// quadratic response, sign preserved
	scaled := norm * math.Abs(norm) * 255
	if scaled > 255 {
		scaled = 255
	} else if scaled < -255 {
		scaled = -255
	}
	return int(scaled)
}

func (r *AxisReader) average(axis Axis) (float64, bool) {
	n := r.cfg.Oversample
	if n < 1 {
		n = 1
	}

	var sum uint32
	for range n {
		v, err := r.src.Sample(axis)
		if err != nil {
			return 0, false
		}
		sum += uint32(v)
	}
	return float64(sum) / float64(n), true
}
