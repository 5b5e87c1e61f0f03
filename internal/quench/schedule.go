package quench

import (
	"errors"
	"fmt"
	"math"
)

// MaxCheckpoints bounds the number of cool/hold pairs one schedule may emit.
const MaxCheckpoints = 10000

var (
	// ErrNegativeTemperature is returned for a schedule below 0 K.
	ErrNegativeTemperature = errors.New("schedule temperature below 0 K")

	// ErrTooManyCheckpoints is returned when a schedule exceeds MaxCheckpoints.
	ErrTooManyCheckpoints = errors.New("schedule has too many checkpoints")
)

// Schedule is a descending temperature program in Kelvin.
type Schedule struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end" yaml:"end"`
	Step  int64 `json:"step" yaml:"step"`
}

// DefaultSchedule cools from 3000 K to 500 K in 500 K decrements.
var DefaultSchedule = Schedule{Start: 3000, End: 500, Step: 500}

// Validate rejects negative temperatures and schedules longer than
// MaxCheckpoints. An empty schedule (Step <= 0 or End >= Start) is valid.
func (s Schedule) Validate() error {
	if s.Start < 0 || s.End < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTemperature, s)
	}
	if n := s.count(); n > MaxCheckpoints {
		return fmt.Errorf("%w: %s gives %d, limit %d", ErrTooManyCheckpoints, s, n, MaxCheckpoints)
	}
	return nil
}

// Checkpoints returns the temperatures at which a cool step begins: Start,
// Start-Step, ... while the value stays above End. The last cool step may
// end below End when Step does not divide Start-End.
//
// A schedule with Step <= 0 or End >= Start has no checkpoints, and one
// beyond MaxCheckpoints returns nil; Validate reports the latter.
func (s Schedule) Checkpoints() []int64 {
	n := s.count()
	if n == 0 || n > MaxCheckpoints {
		return nil
	}
	out := make([]int64, n)
	for i := range out {
		// The true value lies in (End, Start], so wrapping arithmetic is exact.
		out[i] = s.Start - int64(i)*s.Step
	}
	return out
}

// Len returns the number of checkpoints, ceil((Start-End)/Step), saturated
// at math.MaxInt.
func (s Schedule) Len() int {
	n := s.count()
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// count computes ceil((Start-End)/Step) without overflow. Start > End makes
// the two's complement difference exact in uint64.
func (s Schedule) count() uint64 {
	if s.Step <= 0 || s.End >= s.Start {
		return 0
	}
	span := uint64(s.Start) - uint64(s.End)
	step := uint64(s.Step)
	n := span / step
	if span%step != 0 {
		n++
	}
	return n
}

func (s Schedule) String() string {
	return fmt.Sprintf("%d->%d/%d", s.Start, s.End, s.Step)
}
