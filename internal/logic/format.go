package logic

import (
	"fmt"
	"strings"
)

// FormatDose renders a dose rate (mR/h) for the display in the given unit.
// It is presentation only; the pipeline always works in mR/h.
func FormatDose(dose float64, unit Unit, rawCPS int) string {
	switch unit {
	case UnitMRh:
		switch {
		case dose >= 100000:
			return fmt.Sprintf("%.0f R/h", dose/1000)
		case dose >= 10000:
			return fmt.Sprintf("%.1f R/h", dose/1000)
		case dose >= 1000:
			return fmt.Sprintf("%.2f R/h", dose/1000)
		}
		return fmt.Sprintf("%.2f mR/h", dose)
	case UnitUSvh:
		usv := dose * 10
		switch {
		case usv >= 1000000:
			return fmt.Sprintf("%.2f Sv/h", usv/1000000)
		case usv >= 100000:
			return fmt.Sprintf("%.0f mSv/h", usv/1000)
		case usv >= 10000:
			return fmt.Sprintf("%.1f mSv/h", usv/1000)
		case usv >= 1000:
			return fmt.Sprintf("%.2f mSv/h", usv/1000)
		}
		return fmt.Sprintf("%.2f µSv/h", usv)
	case UnitCGyh:
		return fmt.Sprintf("%.4f cGy/h", dose*0.001)
	case UnitCPS:
		return fmt.Sprintf("%d cps", rawCPS)
	case UnitCPM:
		return fmt.Sprintf("%d cpm", rawCPS*60)
	}
	return fmt.Sprintf("%.2f mR/h", dose)
}

// FormatCumulativeDose renders an accumulated dose, dropping the per-hour suffix.
func FormatCumulativeDose(dose float64, unit Unit, rawCPS int) string {
	return strings.TrimSuffix(FormatDose(dose, unit, rawCPS), "/h")
}
