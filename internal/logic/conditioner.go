package logic

import "gonum.org/v1/gonum/stat"

// Time constants, in samples, selected by the instantaneous dose estimate.
const (
	TimeConstantLow  = 8 // dose <= 100
	TimeConstantMid  = 4 // dose <= 1000
	TimeConstantHigh = 2
)

// TimeConstantFor selects the moving-average window length for a dose.
func TimeConstantFor(dose float64) int {
	switch {
	case dose <= 100:
		return TimeConstantLow
	case dose <= 1000:
		return TimeConstantMid
	default:
		return TimeConstantHigh
	}
}

// Conditioner turns raw count-rate samples into a smoothed, calibrated dose
// rate using an adaptive moving average.
type Conditioner struct {
	window    []float64
	tc        int
	smoothed  float64
	lastCount int
	samples   uint64
}

// NewConditioner creates a conditioner with an empty window.
func NewConditioner() *Conditioner {
	return &Conditioner{tc: TimeConstantLow}
}

// Process feeds one sample through interpolation, window selection and
// averaging, and returns the new smoothed dose rate in mR/h.
func (c *Conditioner) Process(s Sample, table CalibrationTable, factor float64) float64 {
	c.samples++
	c.lastCount = s.CountRate

	instant := table.Interpolate(float64(s.CountRate))
	c.tc = TimeConstantFor(instant)

	c.window = append(c.window, float64(s.CountRate))
	if over := len(c.window) - c.tc; over > 0 {
		c.window = append(c.window[:0], c.window[over:]...)
	}

	mean := stat.Mean(c.window, nil)
	c.smoothed = table.Interpolate(mean) * factor
	return c.smoothed
}

// TimeConstant returns the current window length (also the integrator cadence in seconds).
func (c *Conditioner) TimeConstant() int {
	return c.tc
}

// DoseRate returns the last smoothed dose rate.
func (c *Conditioner) DoseRate() float64 {
	return c.smoothed
}

// LastCountRate returns the most recent raw count rate.
func (c *Conditioner) LastCountRate() int {
	return c.lastCount
}

// Window returns a copy of the samples currently averaged.
func (c *Conditioner) Window() []float64 {
	out := make([]float64, len(c.window))
	copy(out, c.window)
	return out
}

// Samples returns how many samples have been processed.
func (c *Conditioner) Samples() uint64 {
	return c.samples
}
