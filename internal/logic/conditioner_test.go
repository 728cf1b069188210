package logic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTimeConstantFor(t *testing.T) {
	tests := []struct {
		dose float64
		want int
	}{
		{0, 8},
		{50, 8},
		{100, 8},
		{100.01, 4},
		{500, 4},
		{1000, 4},
		{1500, 2},
	}
	for _, tt := range tests {
		if got := TimeConstantFor(tt.dose); got != tt.want {
			t.Errorf("TimeConstantFor(%g) = %d, want %d", tt.dose, got, tt.want)
		}
	}
}

func feed(c *Conditioner, table CalibrationTable, factor float64, counts ...int) float64 {
	var out float64
	for i, n := range counts {
		out = c.Process(Sample{CountRate: n, Seq: uint64(i + 1)}, table, factor)
	}
	return out
}

func TestConditionerAveragesWindow(t *testing.T) {
	table := CalibrationTable{{0, 0}, {20, 2}, {50, 5}}
	c := NewConditioner()

	got := feed(c, table, 1, 10, 20, 30)
	// mean 20 -> 2 mR/h; dose estimates stay under 100 so tc=8
	if !approx(got, 2) {
		t.Errorf("smoothed = %g, want 2", got)
	}
	if c.TimeConstant() != 8 {
		t.Errorf("tc = %d, want 8", c.TimeConstant())
	}
	if c.LastCountRate() != 30 {
		t.Errorf("last count = %d, want 30", c.LastCountRate())
	}
	if c.Samples() != 3 {
		t.Errorf("samples = %d, want 3", c.Samples())
	}
}

func TestConditionerWindowCapacityFollowsTimeConstant(t *testing.T) {
	table := DefaultCalibrationTable()
	c := NewConditioner()

	feed(c, table, 1, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10)
	if n := len(c.Window()); n != 8 {
		t.Fatalf("window length = %d, want 8", n)
	}

	// 11000 cps -> 2000 mR/h instantaneous -> tc 2, window trimmed to the last 2
	feed(c, table, 1, 11000)
	if c.TimeConstant() != 2 {
		t.Fatalf("tc = %d, want 2", c.TimeConstant())
	}
	if diff := cmp.Diff([]float64{10, 11000}, c.Window()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
	want := table.Interpolate(5505)
	if !approx(c.DoseRate(), want) {
		t.Errorf("smoothed = %g, want %g", c.DoseRate(), want)
	}
}

func TestConditionerAppliesCalibrationFactor(t *testing.T) {
	table := CalibrationTable{{0, 0}, {20, 2}, {50, 5}}
	c := NewConditioner()

	got := feed(c, table, 1.25, 20)
	if !approx(got, 2.5) {
		t.Errorf("smoothed = %g, want 2.5", got)
	}
}

func TestConditionerWindowGrowsGradually(t *testing.T) {
	table := DefaultCalibrationTable()
	c := NewConditioner()

	feed(c, table, 1, 11000, 11000)
	if c.TimeConstant() != 2 {
		t.Fatalf("tc = %d, want 2", c.TimeConstant())
	}
	feed(c, table, 1, 10)
	if c.TimeConstant() != 8 {
		t.Fatalf("tc = %d, want 8", c.TimeConstant())
	}
	if n := len(c.Window()); n != 3 {
		t.Errorf("window length = %d, want 3 (grows one sample at a time)", n)
	}
}
