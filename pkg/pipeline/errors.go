package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/caida-topogen/pkg/artifact"
	"github.com/dd0wney/caida-topogen/pkg/aslinks"
	"github.com/dd0wney/caida-topogen/pkg/config"
	"github.com/dd0wney/caida-topogen/pkg/geo"
	"github.com/dd0wney/caida-topogen/pkg/gml"
	"github.com/dd0wney/caida-topogen/pkg/selection"
	"github.com/dd0wney/caida-topogen/pkg/validation"
)

// Category classifies a failed run for the operator.
type Category string

const (
	CategoryInvalidConfig    Category = "invalid-config"
	CategoryInputUnavailable Category = "input-unavailable"
	CategorySourceTooSmall   Category = "source-too-small"
	CategoryOutputUnwritable Category = "output-unwritable"
	CategoryPublishFailed    Category = "publish-failed"
	CategoryCanceled         Category = "canceled"
	CategoryInternal         Category = "internal"
)

// StageError records which stage failed and why.
type StageError struct {
	Stage    Stage
	Category Category
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s stage): %v", e.Category, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// CategoryOf returns the category of err, or "" when err carries no
// StageError.
func CategoryOf(err error) Category {
	var se *StageError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

func stageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Category: categorize(err), Err: err}
}

func categorize(err error) Category {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, geo.ErrInvalidPlan),
		errors.Is(err, selection.ErrUnknownStrategy),
		errors.Is(err, selection.ErrInvalidTarget):
		return CategoryInvalidConfig
	case errors.Is(err, aslinks.ErrInputUnavailable):
		return CategoryInputUnavailable
	case errors.Is(err, selection.ErrSourceTooSmall):
		return CategorySourceTooSmall
	case errors.Is(err, gml.ErrOutputUnwritable):
		return CategoryOutputUnwritable
	case errors.Is(err, artifact.ErrPublish), errors.Is(err, artifact.ErrBadURI):
		return CategoryPublishFailed
	default:
		return CategoryInternal
	}
}
