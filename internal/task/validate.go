package task

import (
	"strings"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
)

// Validate checks the intrinsic fields of t.
func Validate(t *Task) error {
	if strings.TrimSpace(t.Name) == "" {
		return clierr.New(clierr.InvalidInput, "task name must not be empty").
			WithDetails(map[string]any{"id": t.ID, "field": "name"})
	}
	return ValidateDuration(t.Duration)
}

// ValidateDuration rejects durations below one working day.
func ValidateDuration(duration int) error {
	if duration < 1 {
		return clierr.Newf(clierr.InvalidDuration,
			"duration must be at least 1 working day, got %d", duration).
			WithDetails(map[string]any{"field": "duration", "duration": duration})
	}
	return nil
}

// ValidateDependencies checks that ids are unique, never selfID, and all
// present among tasks.
func ValidateDependencies(selfID int, ids []int, tasks []*Task) error {
	seen := make(map[int]bool, len(ids))
	for _, depID := range ids {
		if depID == selfID {
			return ValidateSelfReference(depID)
		}
		if seen[depID] {
			return clierr.Newf(clierr.DuplicateDependency, "dependency #%d listed twice", depID).
				WithDetails(map[string]any{"id": selfID, "field": "dependencies", "dependency": depID})
		}
		seen[depID] = true
		if ByID(tasks, depID) == nil {
			return ValidateDependencyNotFound(depID)
		}
	}
	return nil
}

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateTaskID returns a CLIError for invalid task ID input.
func ValidateTaskID(input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidTaskID, "invalid task ID %q", input).
		WithDetails(map[string]any{"input": input})
}

// ValidateSelfReference returns a CLIError for self-referencing dependency.
func ValidateSelfReference(id int) *clierr.Error {
	return clierr.Newf(clierr.SelfReference, "task cannot depend on itself (ID %d)", id).
		WithDetails(map[string]any{"id": id, "field": "dependencies"})
}

// ValidateDependencyNotFound returns a CLIError for missing dependency.
func ValidateDependencyNotFound(depID int) *clierr.Error {
	return clierr.Newf(clierr.DependencyNotFound, "dependency task #%d not found", depID).
		WithDetails(map[string]any{"id": depID, "field": "dependencies"})
}

// NotFound returns a CLIError for an unknown task id.
func NotFound(id int) *clierr.Error {
	return clierr.Newf(clierr.TaskNotFound, "task not found: #%d", id).
		WithDetails(map[string]any{"id": id})
}
