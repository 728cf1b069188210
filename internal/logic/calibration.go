package logic

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrTableTooShort is returned for a table with fewer than two points.
	ErrTableTooShort = errors.New("calibration table needs at least 2 points")
	// ErrTableNotAscending is returned when count rates do not strictly increase.
	ErrTableNotAscending = errors.New("calibration table count rates must be strictly ascending")
)

// CalibrationPoint maps a count rate to a dose rate in mR/h.
type CalibrationPoint struct {
	CountRate int     `toml:"cps" json:"cps"`
	Dose      float64 `toml:"dose" json:"dose"`
}

// CalibrationTable is an ordered set of control points. Entry 0 is the origin.
type CalibrationTable []CalibrationPoint

// DefaultCalibrationTable returns the factory curve.
func DefaultCalibrationTable() CalibrationTable {
	return CalibrationTable{
		{0, 0},
		{20, 2},
		{50, 5},
		{100, 10},
		{500, 50},
		{1000, 100},
		{4000, 500},
		{6800, 1000},
		{11000, 2000},
		{17500, 5000},
		{20500, 8000},
		{22500, 10000},
	}
}

// Clone returns an independent copy of the table.
func (t CalibrationTable) Clone() CalibrationTable {
	out := make(CalibrationTable, len(t))
	copy(out, t)
	return out
}

// Validate checks the table invariants.
func (t CalibrationTable) Validate() error {
	if len(t) < 2 {
		return ErrTableTooShort
	}
	for i, p := range t {
		if p.CountRate < 0 || p.Dose < 0 {
			return fmt.Errorf("calibration point %d is negative: (%d, %g)", i, p.CountRate, p.Dose)
		}
		if i > 0 && p.CountRate <= t[i-1].CountRate {
			return fmt.Errorf("%w: point %d (%d) after %d", ErrTableNotAscending, i, p.CountRate, t[i-1].CountRate)
		}
	}
	return nil
}

// Sorted returns a copy ordered by count rate, keeping entry order for ties.
func (t CalibrationTable) Sorted() CalibrationTable {
	out := t.Clone()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CountRate < out[j].CountRate })
	return out
}

// Interpolate converts a count rate to a dose by linear interpolation over
// the first interval that contains x (both ends inclusive). When no interval
// matches, the last entry's dose is returned. There is no clamp-low: x below
// the first entry also falls through to the last dose.
func (t CalibrationTable) Interpolate(x float64) float64 {
	if len(t) == 0 {
		return 0
	}
	for i := 0; i < len(t)-1; i++ {
		lower, upper := t[i], t[i+1]
		lo, hi := float64(lower.CountRate), float64(upper.CountRate)
		if x >= lo && x <= hi {
			if hi == lo {
				return lower.Dose
			}
			slope := (upper.Dose - lower.Dose) / (hi - lo)
			return lower.Dose + (x-lo)*slope
		}
	}
	return t[len(t)-1].Dose
}
