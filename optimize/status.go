package optimize

import (
	"fmt"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
)

// Status is the terminal state of a gradient-descent run.
type Status int

const (
	// StatusConverged means the step statistic fell below the tolerance.
	StatusConverged Status = iota + 1
	// StatusExhausted means MaxIterations was reached first. The last
	// estimate is still returned.
	StatusExhausted
	// StatusDiverged means divergence detection tripped.
	StatusDiverged
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusExhausted:
		return "exhausted"
	case StatusDiverged:
		return "diverged"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText lets reports encode the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusConverged, StatusExhausted, StatusDiverged} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return errors.NewValueError("Status.UnmarshalText", fmt.Sprintf("unknown status %q", text))
}
