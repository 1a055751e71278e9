package fog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for an unrecognised name.
var ErrUnknownMode = errors.New("fog: unknown scheduling mode")

// Mode selects how scans are scheduled across ticks.
type Mode int

const (
	ModeSynchronous Mode = iota // full pass on the tick thread whenever an observer is dirty
	ModeAmortized               // one slice of observers per tick, commit once per cycle
	ModeBackground              // full pass on a worker goroutine, committed when it finishes
)

func (m Mode) String() string {
	switch m {
	case ModeSynchronous:
		return "sync"
	case ModeAmortized:
		return "amortized"
	case ModeBackground:
		return "background"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Modes lists every scheduling mode in declaration order.
func Modes() []Mode {
	return []Mode{ModeSynchronous, ModeAmortized, ModeBackground}
}

// ParseMode accepts the String form and a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sync", "synchronous", "full":
		return ModeSynchronous, nil
	case "amortized", "amortised", "spread", "round-robin":
		return ModeAmortized, nil
	case "background", "async", "offload":
		return ModeBackground, nil
	}
	return 0, fmt.Errorf("parse mode %q: %w", s, ErrUnknownMode)
}

// State is the scheduler's position in its Idle → Scanning → Committing cycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
