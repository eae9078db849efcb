package types

import (
	"strings"

	"github.com/pkg/errors"
)

// JobExecutionStatus is the lifecycle state of a job.
type JobExecutionStatus string

const (
	JobStatusRunning   JobExecutionStatus = "RUNNING"
	JobStatusSucceeded JobExecutionStatus = "SUCCEEDED"
	JobStatusFailed    JobExecutionStatus = "FAILED"
	JobStatusUnknown   JobExecutionStatus = "UNKNOWN"
)

// StageStatus is the lifecycle state of a stage.
type StageStatus string

const (
	StageStatusPending  StageStatus = "PENDING"
	StageStatusActive   StageStatus = "ACTIVE"
	StageStatusComplete StageStatus = "COMPLETE"
	StageStatusSkipped  StageStatus = "SKIPPED"
	StageStatusFailed   StageStatus = "FAILED"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusRunning TaskStatus = "RUNNING"
	TaskStatusKilled  TaskStatus = "KILLED"
	TaskStatusFailed  TaskStatus = "FAILED"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusUnknown TaskStatus = "UNKNOWN"
)

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	ApplicationStatusCompleted ApplicationStatus = "COMPLETED"
	ApplicationStatusRunning   ApplicationStatus = "RUNNING"
)

// SQLExecutionStatus is the lifecycle state of a SQL execution.
type SQLExecutionStatus string

const (
	SQLStatusRunning   SQLExecutionStatus = "RUNNING"
	SQLStatusCompleted SQLExecutionStatus = "COMPLETED"
	SQLStatusFailed    SQLExecutionStatus = "FAILED"
)

// TaskSorting selects the task list sort order.
type TaskSorting string

const (
	TaskSortingID                TaskSorting = "ID"
	TaskSortingIncreasingRuntime TaskSorting = "INCREASING_RUNTIME"
	TaskSortingDecreasingRuntime TaskSorting = "DECREASING_RUNTIME"
)

// taskSortingAlternates are the short wire aliases the UI uses.
var taskSortingAlternates = map[string]TaskSorting{
	"runtime":  TaskSortingIncreasingRuntime,
	"-runtime": TaskSortingDecreasingRuntime,
}

// parseEnum normalizes the input to upper case and looks it up first by
// wire value, then by programmatic name.  For these enums the two forms
// coincide, so the fallback only fires for types that carry aliases; the
// dual lookup is kept because callers feed both forms.
func parseEnum(s string, valid []string) (string, error) {
	upper := strings.ToUpper(s)
	for _, v := range valid {
		if upper == v {
			return v, nil
		}
	}
	for _, v := range valid {
		if strings.EqualFold(strings.ReplaceAll(upper, "-", "_"), v) {
			return v, nil
		}
	}
	return "", errors.Errorf("%q is not one of %s", s, strings.Join(valid, ", "))
}

// ParseJobExecutionStatus parses a job status case-insensitively.
func ParseJobExecutionStatus(s string) (JobExecutionStatus, error) {
	v, err := parseEnum(s, []string{"RUNNING", "SUCCEEDED", "FAILED", "UNKNOWN"})
	return JobExecutionStatus(v), err
}

// ParseStageStatus parses a stage status case-insensitively.
func ParseStageStatus(s string) (StageStatus, error) {
	v, err := parseEnum(s, []string{"PENDING", "ACTIVE", "COMPLETE", "SKIPPED", "FAILED"})
	return StageStatus(v), err
}

// ParseTaskStatus parses a task status case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, error) {
	v, err := parseEnum(s, []string{"RUNNING", "KILLED", "FAILED", "SUCCESS", "UNKNOWN"})
	return TaskStatus(v), err
}

// ParseApplicationStatus parses an application status case-insensitively.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	v, err := parseEnum(s, []string{"COMPLETED", "RUNNING"})
	return ApplicationStatus(v), err
}

// ParseTaskSorting parses a sort order, accepting the UI's short
// "runtime"/"-runtime" aliases as well as the enum names.
func ParseTaskSorting(s string) (TaskSorting, error) {
	if alt, ok := taskSortingAlternates[strings.ToLower(s)]; ok {
		return alt, nil
	}
	v, err := parseEnum(s, []string{"ID", "INCREASING_RUNTIME", "DECREASING_RUNTIME"})
	return TaskSorting(v), err
}
