package lock

import (
	"testing"
	"time"
)

func TestEvaluate_NoConfirmedDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	state := Evaluate(nil, now, DefaultWindowDays)

	if state.Locked {
		t.Fatal("event without a confirmed date must never be locked")
	}
	if state.HasDeadline {
		t.Fatal("expected HasDeadline to be false")
	}
}

func TestEvaluate_WindowBoundaries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		offset     time.Duration
		wantLocked bool
		wantDays   int
	}{
		{"exactly ten days out", 10 * 24 * time.Hour, true, 10},
		{"eleven days out", 11 * 24 * time.Hour, false, 11},
		{"five days out", 5 * 24 * time.Hour, true, 5},
		{"partial day rounds up", 36 * time.Hour, true, 2},
		{"one hour out", time.Hour, true, 1},
		{"event is now", 0, false, 0},
		{"event passed yesterday", -24 * time.Hour, false, -1},
		{"event long past", -40 * 24 * time.Hour, false, -40},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			confirmed := now.Add(tc.offset)
			state := Evaluate(&confirmed, now, DefaultWindowDays)

			if state.Locked != tc.wantLocked {
				t.Fatalf("Locked = %v, want %v", state.Locked, tc.wantLocked)
			}
			if state.DaysRemaining != tc.wantDays {
				t.Fatalf("DaysRemaining = %d, want %d", state.DaysRemaining, tc.wantDays)
			}
			if !state.HasDeadline {
				t.Fatal("expected HasDeadline to be true")
			}
		})
	}
}

func TestEvaluate_CustomWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	confirmed := now.Add(15 * 24 * time.Hour)

	if state := Evaluate(&confirmed, now, 20); !state.Locked {
		t.Fatal("expected lock inside a widened window")
	}
	if state := Evaluate(&confirmed, now, 10); state.Locked {
		t.Fatal("expected no lock outside the default window")
	}
}

func TestEvaluate_ZeroWindowFallsBackToDefault(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	confirmed := now.Add(9 * 24 * time.Hour)

	state := Evaluate(&confirmed, now, 0)
	if !state.Locked {
		t.Fatal("expected default window to apply when configured window is zero")
	}
	if state.WindowDays != DefaultWindowDays {
		t.Fatalf("WindowDays = %d, want %d", state.WindowDays, DefaultWindowDays)
	}
}
