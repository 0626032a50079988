package project

import (
	"errors"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/graph"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
)

// MapError converts graph and scheduler failures to coded CLI errors.
// Errors that already carry a code pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var cerr *clierr.Error
	if errors.As(err, &cerr) {
		return err
	}

	var gerr *graph.Error
	switch {
	case errors.As(err, &gerr) && errors.Is(gerr, graph.ErrCycle):
		return clierr.Wrap(clierr.CycleDetected, err).
			WithDetails(map[string]any{"cycle": gerr.Path})
	case errors.Is(err, graph.ErrInvalidGraph):
		return clierr.Wrap(clierr.InvalidInput, err)
	case errors.Is(err, schedule.ErrInvalidDuration):
		return clierr.Wrap(clierr.InvalidDuration, err)
	case errors.Is(err, schedule.ErrScheduling), errors.Is(err, calendar.ErrNoWorkingDays):
		var serr *schedule.Error
		if errors.As(err, &serr) && serr.TaskID != 0 {
			return clierr.Wrap(clierr.SchedulingError, err).
				WithDetails(map[string]any{"id": serr.TaskID})
		}
		return clierr.Wrap(clierr.SchedulingError, err)
	}
	return clierr.Wrap(clierr.InternalError, err)
}

func cycleDetected(taskID int, path []int) error {
	return clierr.Newf(clierr.CycleDetected, "dependencies of task #%d would form a cycle: %s",
		taskID, graph.FormatPath(path)).
		WithDetails(map[string]any{"id": taskID, "cycle": path})
}
