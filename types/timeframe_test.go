package types

import (
	"errors"
	"testing"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		spec    string
		want    Timeframe
		wantErr error
	}{
		{"D", Timeframe{Unit: UnitDay, N: 1}, nil},
		{"W", Timeframe{Unit: UnitWeek, N: 1}, nil},
		{"M", Timeframe{Unit: UnitMonth, N: 1}, nil},
		{"2d", Timeframe{Unit: UnitDay, N: 2}, nil},
		{"10d", Timeframe{Unit: UnitDay, N: 10}, nil},
		{"5w", Timeframe{Unit: UnitWeek, N: 5}, nil},
		{"3m", Timeframe{Unit: UnitMonth, N: 3}, nil},
		{"", Timeframe{}, ErrUnknownTimeframe},
		{"d", Timeframe{}, ErrUnknownTimeframe},
		{"0d", Timeframe{}, ErrUnknownTimeframe},
		{"-1d", Timeframe{}, ErrUnknownTimeframe},
		{"2x", Timeframe{}, ErrUnknownTimeframe},
		{"2D", Timeframe{}, ErrUnknownTimeframe},
		{"w2", Timeframe{}, ErrUnknownTimeframe},
		{"1.5d", Timeframe{}, ErrUnknownTimeframe},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseTimeframe(tt.spec)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseTimeframe(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeframe(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}
