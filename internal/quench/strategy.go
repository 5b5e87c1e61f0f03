package quench

import (
	"errors"
	"fmt"
)

// ErrUnknownStrategy is returned for a strategy name that is not recognised.
var ErrUnknownStrategy = errors.New("unknown quench strategy")

// Strategy selects which stages the planner emits.
type Strategy string

const (
	// SlowQuench emits the cool/hold chain followed by optimize and static.
	SlowQuench Strategy = "slow_quench"
	// MPQuench emits only optimize and static.
	MPQuench Strategy = "mp_quench"
)

// ParseStrategy validates a strategy name. The empty string selects
// SlowQuench.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", SlowQuench:
		return SlowQuench, nil
	case MPQuench:
		return MPQuench, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownStrategy, s, SlowQuench, MPQuench)
	}
}

// Cools reports whether the strategy emits the cool/hold chain.
func (s Strategy) Cools() bool {
	return s == SlowQuench
}

// Relaxes reports whether the strategy emits optimize and static steps.
func (s Strategy) Relaxes() bool {
	return s == SlowQuench || s == MPQuench
}

func (s Strategy) String() string {
	return string(s)
}
