package analytics

import (
	"context"
	"sort"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// Timeline event types.
const (
	EventExecutorAdd    = "executor_add"
	EventExecutorRemove = "executor_remove"
	EventStageStart     = "stage_start"
	EventStageEnd       = "stage_end"
)

// TimelineEvent is one executor or stage lifecycle event.
type TimelineEvent struct {
	Timestamp types.Timestamp `json:"timestamp"`
	Type      string          `json:"type"`

	ExecutorID string  `json:"executor_id,omitempty"`
	Cores      int     `json:"cores,omitempty"`
	MemoryMB   float64 `json:"memory_mb,omitempty"`
	Reason     string  `json:"reason,omitempty"`

	StageID         int               `json:"stage_id,omitempty"`
	AttemptID       int               `json:"attempt_id,omitempty"`
	Name            string            `json:"name,omitempty"`
	TaskCount       int               `json:"task_count,omitempty"`
	Status          types.StageStatus `json:"status,omitempty"`
	DurationSeconds float64           `json:"duration_seconds,omitempty"`
}

// TimelinePoint is the resource picture immediately after one event.
// Executor removals decrement the active count but not the core and
// memory totals, because removal events carry no resource payload; the
// capacity columns are effectively high-water marks.
type TimelinePoint struct {
	Timestamp       types.Timestamp `json:"timestamp"`
	ActiveExecutors int             `json:"active_executors"`
	TotalCores      int             `json:"total_cores"`
	TotalMemoryMB   float64         `json:"total_memory_mb"`
	Event           TimelineEvent   `json:"event"`
}

// TimelineSummary counts the replayed events and their peaks.
type TimelineSummary struct {
	TotalEvents       int `json:"total_events"`
	ExecutorAdditions int `json:"executor_additions"`
	ExecutorRemovals  int `json:"executor_removals"`
	StageExecutions   int `json:"stage_executions"`
	PeakExecutors     int `json:"peak_executors"`
	PeakCores         int `json:"peak_cores"`
}

// ResourceTimeline is the chronological resource usage of one
// application.
type ResourceTimeline struct {
	ApplicationID   string          `json:"application_id"`
	ApplicationName string          `json:"application_name"`
	Timeline        []TimelinePoint `json:"timeline"`
	Summary         TimelineSummary `json:"summary"`
}

// Timeline merges executor add/remove and stage start/end events into
// one stream and replays it with running resource totals.
func (e *Engine) Timeline(ctx context.Context, appID string) (*ResourceTimeline, error) {
	app, err := e.client.GetApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	executors, err := e.client.ListAllExecutors(ctx, appID)
	if err != nil {
		return nil, err
	}
	stages, err := e.client.ListStages(ctx, appID, client.StageQuery{Details: true})
	if err != nil {
		return nil, err
	}

	events := collectEvents(executors, stages)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	result := &ResourceTimeline{
		ApplicationID:   appID,
		ApplicationName: app.Name,
		Timeline:        make([]TimelinePoint, 0, len(events)),
	}

	activeExecutors := 0
	totalCores := 0
	totalMemoryMB := 0.0

	for _, event := range events {
		switch event.Type {
		case EventExecutorAdd:
			activeExecutors++
			totalCores += event.Cores
			totalMemoryMB += event.MemoryMB
			result.Summary.ExecutorAdditions++
		case EventExecutorRemove:
			activeExecutors--
			result.Summary.ExecutorRemovals++
		case EventStageStart:
			result.Summary.StageExecutions++
		}

		result.Timeline = append(result.Timeline, TimelinePoint{
			Timestamp:       event.Timestamp,
			ActiveExecutors: activeExecutors,
			TotalCores:      totalCores,
			TotalMemoryMB:   totalMemoryMB,
			Event:           event,
		})

		if activeExecutors > result.Summary.PeakExecutors {
			result.Summary.PeakExecutors = activeExecutors
		}
		if totalCores > result.Summary.PeakCores {
			result.Summary.PeakCores = totalCores
		}
	}

	result.Summary.TotalEvents = len(events)
	return result, nil
}

func collectEvents(executors []types.ExecutorSummary, stages []types.StageData) []TimelineEvent {
	var events []TimelineEvent

	for _, executor := range executors {
		if executor.AddTime.Valid {
			events = append(events, TimelineEvent{
				Timestamp:  executor.AddTime,
				Type:       EventExecutorAdd,
				ExecutorID: executor.ID,
				Cores:      intVal(executor.TotalCores),
				MemoryMB:   float64(int64Val(executor.MaxMemory)) / (1024 * 1024),
			})
		}
		if executor.RemoveTime.Valid {
			events = append(events, TimelineEvent{
				Timestamp:  executor.RemoveTime,
				Type:       EventExecutorRemove,
				ExecutorID: executor.ID,
				Reason:     executor.RemoveReason,
			})
		}
	}

	for _, stage := range stages {
		if stage.SubmissionTime.Valid {
			events = append(events, TimelineEvent{
				Timestamp: stage.SubmissionTime,
				Type:      EventStageStart,
				StageID:   intVal(stage.StageID),
				AttemptID: stage.AttemptID,
				Name:      stage.Name,
				TaskCount: intVal(stage.NumTasks),
			})
		}
		if stage.CompletionTime.Valid {
			events = append(events, TimelineEvent{
				Timestamp:       stage.CompletionTime,
				Type:            EventStageEnd,
				StageID:         intVal(stage.StageID),
				AttemptID:       stage.AttemptID,
				Status:          stage.Status,
				DurationSeconds: durationSeconds(stage.SubmissionTime, stage.CompletionTime),
			})
		}
	}

	return events
}
