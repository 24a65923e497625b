package aslinks

import "errors"

var (
	// ErrInputUnavailable is returned when the AS-links source cannot be
	// opened or read. It is fatal for a run.
	ErrInputUnavailable = errors.New("AS-links input unavailable")
)
