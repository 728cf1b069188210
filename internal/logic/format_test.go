package logic

import "testing"

func TestFormatDose(t *testing.T) {
	tests := []struct {
		name string
		dose float64
		unit Unit
		raw  int
		want string
	}{
		{"mR low", 12.5, UnitMRh, 0, "12.50 mR/h"},
		{"mR to R", 1500, UnitMRh, 0, "1.50 R/h"},
		{"mR tens of R", 12500, UnitMRh, 0, "12.5 R/h"},
		{"mR hundreds of R", 150000, UnitMRh, 0, "150 R/h"},
		{"uSv low", 1.5, UnitUSvh, 0, "15.00 µSv/h"},
		{"uSv to mSv", 250, UnitUSvh, 0, "2.50 mSv/h"},
		{"uSv tens of mSv", 2500, UnitUSvh, 0, "25.0 mSv/h"},
		{"uSv hundreds of mSv", 25000, UnitUSvh, 0, "250 mSv/h"},
		{"uSv to Sv", 150000, UnitUSvh, 0, "1.50 Sv/h"},
		{"cGy", 123, UnitCGyh, 0, "0.1230 cGy/h"},
		{"cps", 99, UnitCPS, 42, "42 cps"},
		{"cpm", 99, UnitCPM, 42, "2520 cpm"},
		{"unknown unit", 3, Unit("rem"), 0, "3.00 mR/h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDose(tt.dose, tt.unit, tt.raw); got != tt.want {
				t.Errorf("FormatDose(%g, %s, %d) = %q, want %q", tt.dose, tt.unit, tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatCumulativeDose(t *testing.T) {
	if got := FormatCumulativeDose(1.234, UnitMRh, 0); got != "1.23 mR" {
		t.Errorf("got %q", got)
	}
	if got := FormatCumulativeDose(5, UnitCPS, 7); got != "7 cps" {
		t.Errorf("got %q", got)
	}
}
