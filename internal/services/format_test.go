package services

import "testing"

func TestFormatISODuration(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"PT3M45S", "3:45"},
		{"PT1H2M3S", "1:02:03"},
		{"PT45S", "0:45"},
		{"PT10M", "10:00"},
		{"PT2H", "2:00:00"},
		{"", "0:00"},
		{"P1D", "0:00"},
		{"garbage", "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatISODuration(tt.in); got != tt.want {
				t.Errorf("FormatISODuration(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatViewCount(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "0"},
		{"7", "7"},
		{"999", "999"},
		{"1000", "1,000"},
		{"1234567", "1,234,567"},
		{"12345678901", "12,345,678,901"},
		{"n/a", "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatViewCount(tt.in); got != tt.want {
				t.Errorf("FormatViewCount(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
