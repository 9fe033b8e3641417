package poll

import (
	"testing"
	"time"

	"github.com/Rican7/retry/backoff"
)

// TestSchedule_FlatPhase verifies that the first Flat attempts are spaced
// at exactly the initial delay.
func TestSchedule_FlatPhase(t *testing.T) {
	s := Schedule{Initial: 1500 * time.Millisecond, Flat: 5, Max: 24 * time.Second}

	for attempt := 1; attempt <= 5; attempt++ {
		if got := s.Delay(attempt); got != s.Initial {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, s.Initial)
		}
	}
}

// TestSchedule_DefaultGrowth verifies the default binary-exponential curve
// after the flat phase: initial*2, initial*4, ... capped at Max.
func TestSchedule_DefaultGrowth(t *testing.T) {
	s := Schedule{Initial: 1500 * time.Millisecond, Flat: 5, Max: 24 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{6, 3 * time.Second},
		{7, 6 * time.Second},
		{8, 12 * time.Second},
		{9, 24 * time.Second},
		{10, 24 * time.Second}, // capped
		{50, 24 * time.Second}, // stays capped
	}

	for _, tt := range tests {
		if got := s.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

// TestSchedule_Monotonic verifies that delay(n+1) >= delay(n) for every n
// and that no delay exceeds the ceiling.
func TestSchedule_Monotonic(t *testing.T) {
	schedules := map[string]Schedule{
		"default exponential": {Initial: time.Second, Flat: 3, Max: 30 * time.Second},
		"geometric 1.5":       {Initial: time.Second, Flat: 5, Max: time.Minute, Algorithm: Geometric(time.Second, 1.5)},
		"linear":              {Initial: time.Second, Flat: 0, Max: 10 * time.Second, Algorithm: backoff.Linear(time.Second)},
		"incremental":         {Initial: 500 * time.Millisecond, Flat: 2, Max: 5 * time.Second, Algorithm: backoff.Incremental(500*time.Millisecond, 250*time.Millisecond)},
	}

	for name, s := range schedules {
		t.Run(name, func(t *testing.T) {
			prev := time.Duration(0)
			for attempt := 1; attempt <= 200; attempt++ {
				d := s.Delay(attempt)
				if d < prev {
					t.Fatalf("Delay(%d) = %v < Delay(%d) = %v, want non-decreasing", attempt, d, attempt-1, prev)
				}
				if d > s.Max {
					t.Fatalf("Delay(%d) = %v exceeds ceiling %v", attempt, d, s.Max)
				}
				prev = d
			}
		})
	}
}

// TestSchedule_FloorAtInitial verifies that a curve returning less than the
// initial delay is floored, keeping the sequence non-decreasing across the
// flat-phase boundary.
func TestSchedule_FloorAtInitial(t *testing.T) {
	tiny := func(attempt uint) time.Duration { return time.Millisecond }
	s := Schedule{Initial: time.Second, Flat: 2, Max: time.Minute, Algorithm: tiny}

	if got := s.Delay(3); got != time.Second {
		t.Errorf("Delay(3) = %v, want floor at %v", got, time.Second)
	}
}

// TestSchedule_OverflowClamp verifies that an overflowing exponential curve
// at very high attempt counts pins to the ceiling rather than going negative.
func TestSchedule_OverflowClamp(t *testing.T) {
	s := Schedule{Initial: 1500 * time.Millisecond, Flat: 0, Max: 24 * time.Second}

	// 2^200 overflows time.Duration many times over
	if got := s.Delay(200); got != s.Max {
		t.Errorf("Delay(200) = %v, want %v", got, s.Max)
	}
}

// TestSchedule_AttemptBelowOne verifies that out-of-range attempt numbers
// are treated as the first attempt.
func TestSchedule_AttemptBelowOne(t *testing.T) {
	s := Schedule{Initial: time.Second, Flat: 3, Max: time.Minute}

	if got := s.Delay(0); got != time.Second {
		t.Errorf("Delay(0) = %v, want %v", got, time.Second)
	}
	if got := s.Delay(-4); got != time.Second {
		t.Errorf("Delay(-4) = %v, want %v", got, time.Second)
	}
}

// TestGeometric verifies the geometric curve helper.
func TestGeometric(t *testing.T) {
	alg := Geometric(time.Second, 2.0)

	tests := []struct {
		attempt uint
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := alg(tt.attempt); got != tt.want {
			t.Errorf("Geometric(1s, 2.0)(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
