package tui

import (
	"testing"

	"trailrunner/internal/config"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"20:00", 1200, false},
		{"1:45:30", 6330, false},
		{"45", 2700, false},
		{" 3:05 ", 185, false},
		{"", 0, true},
		{"1:75", 0, true},
		{"a:b", 0, true},
		{"1:2:3:4", 0, true},
		{"0:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseClock(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59.6, "1:00"},
		{1200, "20:00"},
		{6330, "1:45:30"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.seconds); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestUnits(t *testing.T) {
	km := NewUnits(config.DisplayConfig{DistanceUnit: "km", PaceUnit: "min/km"})
	if got := km.FormatDistance(10500); got != "10.5 km" {
		t.Errorf("FormatDistance = %q", got)
	}
	if got := km.FormatPaceWithUnit(3000, 10000); got != "5:00/km" {
		t.Errorf("FormatPaceWithUnit = %q", got)
	}
	if got := km.FormatPace(0, 1000); got != "-" {
		t.Errorf("FormatPace without time = %q", got)
	}

	mi := NewUnits(config.DisplayConfig{DistanceUnit: "mi", PaceUnit: "min/mi"})
	if got := mi.FormatDistance(metersPerMile * 2); got != "2.0 mi" {
		t.Errorf("FormatDistance = %q", got)
	}
	if got := mi.FormatPaceWithUnit(480, metersPerMile); got != "8:00/mi" {
		t.Errorf("FormatPaceWithUnit = %q", got)
	}
}

func TestFormatHours(t *testing.T) {
	if got := formatHours(5.125); got != "5h08" {
		t.Errorf("formatHours(5.125) = %q", got)
	}
}
