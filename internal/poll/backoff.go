package poll

import (
	"math"
	"time"

	"github.com/Rican7/retry/backoff"
)

// Schedule describes the delay policy between successive poll attempts.
//
// The first Flat attempts are separated by the fixed Initial delay. After
// that the configured growth curve takes over, floored at Initial and capped
// at Max. With the built-in curves the resulting delay sequence is
// monotonically non-decreasing and bounded above by Max.
type Schedule struct {
	// Initial is the delay before the second attempt and the fixed spacing
	// for the flat phase. The first attempt always fires immediately.
	Initial time.Duration

	// Flat is the number of attempts polled at the Initial delay before the
	// growth curve kicks in.
	Flat int

	// Algorithm is the growth curve applied after the flat phase. The
	// argument passed to it starts at 1 for the first post-flat attempt.
	// If nil, a binary-exponential curve on Initial is used. Custom
	// algorithms must be non-decreasing; outputs are clamped to
	// [Initial, Max] regardless.
	Algorithm backoff.Algorithm

	// Max is the ceiling applied to every delay. Zero means no ceiling.
	Max time.Duration
}

// Geometric returns a growth curve that multiplies initial by factor once
// per attempt: initial * factor^attempt.
func Geometric(initial time.Duration, factor float64) backoff.Algorithm {
	return func(attempt uint) time.Duration {
		return time.Duration(float64(initial) * math.Pow(factor, float64(attempt)))
	}
}

// Delay returns the pause before the next fetch, given the number of
// attempts issued so far (>= 1).
func (s Schedule) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := s.Initial
	if attempt > s.Flat {
		alg := s.Algorithm
		if alg == nil {
			alg = backoff.BinaryExponential(s.Initial)
		}
		d = alg(uint(attempt - s.Flat))
		if d <= 0 {
			// curve overflowed at a high attempt count; pin to the ceiling
			d = s.Max
		}
	}

	if d < s.Initial {
		d = s.Initial
	}
	if s.Max > 0 && d > s.Max {
		d = s.Max
	}
	return d
}
