package engine

import (
	"testing"
	"time"

	"stratfolio/types"
)

func TestClassifyPair(t *testing.T) {
	date := day(2026, time.January, 5)
	tests := []struct {
		name string
		prev types.Bar
		curr types.Bar
		want string
	}{
		{
			name: "inside bar",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 12, 18, 12, 14, 0),
			want: PatternInside,
		},
		{
			name: "inside with matching high",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 12, 20, 12, 14, 0),
			want: PatternInside,
		},
		{
			name: "outside bar",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 9, 22, 8, 16, 0),
			want: PatternOutside,
		},
		{
			name: "identical range closing higher",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 11, 20, 10, 16, 0),
			want: PatternTwoUp,
		},
		{
			name: "identical range closing lower",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 11, 20, 10, 14, 0),
			want: PatternTwoDown,
		},
		{
			name: "higher high closing up",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 15, 25, 14, 22, 0),
			want: PatternTwoUp,
		},
		{
			name: "lower low closing down",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 12, 19, 8, 9, 0),
			want: PatternTwoDown,
		},
		{
			name: "directional with unchanged close",
			prev: newBar(date, 10, 20, 10, 15, 0),
			curr: newBar(date, 12, 22, 11, 15, 0),
			want: PatternTwo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyPair(tt.prev, tt.curr); got != tt.want {
				t.Errorf("classifyPair() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyFirstBar(t *testing.T) {
	bars := []types.Bar{
		newBar(day(2026, time.January, 5), 10, 20, 10, 15, 0),
	}
	got := Classify(bars)
	if len(got) != 1 || got[0] != PatternTwo {
		t.Errorf("Classify() = %v, want [%q]", got, PatternTwo)
	}
}

func TestClassifySequence(t *testing.T) {
	bars := []types.Bar{
		newBar(day(2026, time.January, 5), 10, 20, 10, 15, 0),
		newBar(day(2026, time.January, 6), 12, 18, 12, 14, 0), // inside
		newBar(day(2026, time.January, 7), 11, 22, 10, 20, 0), // outside
		newBar(day(2026, time.January, 8), 20, 25, 15, 24, 0), // up
		newBar(day(2026, time.January, 9), 24, 26, 14, 16, 0), // outside, down doesn't matter
	}
	want := []string{PatternTwo, PatternInside, PatternOutside, PatternTwoUp, PatternOutside}
	got := Classify(bars)
	if len(got) != len(want) {
		t.Fatalf("Classify() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Classify()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClassifyEmpty(t *testing.T) {
	if got := Classify(nil); len(got) != 0 {
		t.Errorf("Classify(nil) = %v, want empty", got)
	}
}
