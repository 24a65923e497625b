package selection

import (
	"errors"
	"fmt"
)

// MinSourceNodes is the smallest source graph a connected sample can be
// drawn from.
const MinSourceNodes = 2

var (
	// ErrSourceTooSmall matches *SourceTooSmallError via errors.Is.
	ErrSourceTooSmall = errors.New("source graph too small")
	// ErrInvalidTarget is returned for a non-positive target node count.
	ErrInvalidTarget = errors.New("target node count must be positive")
	// ErrUnknownStrategy is returned for an unrecognised strategy name.
	ErrUnknownStrategy = errors.New("unknown selection strategy")
)

// SourceTooSmallError reports the observed source size.
type SourceTooSmallError struct {
	Observed int
	Minimum  int
}

func (e *SourceTooSmallError) Error() string {
	return fmt.Sprintf("%v: %d AS nodes available, need at least %d", ErrSourceTooSmall, e.Observed, e.Minimum)
}

// Is lets errors.Is(err, ErrSourceTooSmall) match.
func (e *SourceTooSmallError) Is(target error) bool {
	return target == ErrSourceTooSmall
}
