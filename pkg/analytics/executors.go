package analytics

import (
	"context"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// ExecutorTotals aggregates metrics across every executor of an
// application, active and removed alike.
type ExecutorTotals struct {
	TotalExecutors    int   `json:"total_executors"`
	ActiveExecutors   int   `json:"active_executors"`
	MemoryUsed        int64 `json:"memory_used"`
	DiskUsed          int64 `json:"disk_used"`
	CompletedTasks    int   `json:"completed_tasks"`
	FailedTasks       int   `json:"failed_tasks"`
	TotalDuration     int64 `json:"total_duration"`
	TotalGCTime       int64 `json:"total_gc_time"`
	TotalInputBytes   int64 `json:"total_input_bytes"`
	TotalShuffleRead  int64 `json:"total_shuffle_read"`
	TotalShuffleWrite int64 `json:"total_shuffle_write"`
}

// ExecutorSummary sums executor metrics for an application.  Memory
// used counts both on-heap and off-heap storage memory.
func (e *Engine) ExecutorSummary(ctx context.Context, appID string) (*ExecutorTotals, error) {
	executors, err := e.client.ListAllExecutors(ctx, appID)
	if err != nil {
		return nil, err
	}
	return sumExecutors(executors), nil
}

func sumExecutors(executors []types.ExecutorSummary) *ExecutorTotals {
	totals := &ExecutorTotals{TotalExecutors: len(executors)}
	for _, executor := range executors {
		if executor.IsActive {
			totals.ActiveExecutors++
		}
		if executor.MemoryMetrics != nil {
			totals.MemoryUsed += int64Val(executor.MemoryMetrics.UsedOnHeapStorageMemory) +
				int64Val(executor.MemoryMetrics.UsedOffHeapStorageMemory)
		}
		totals.DiskUsed += int64Val(executor.DiskUsed)
		totals.CompletedTasks += intVal(executor.CompletedTasks)
		totals.FailedTasks += intVal(executor.FailedTasks)
		totals.TotalDuration += int64Val(executor.TotalDuration)
		totals.TotalGCTime += int64Val(executor.TotalGCTime)
		totals.TotalInputBytes += int64Val(executor.TotalInputBytes)
		totals.TotalShuffleRead += int64Val(executor.TotalShuffleRead)
		totals.TotalShuffleWrite += int64Val(executor.TotalShuffleWrite)
	}
	return totals
}

// Executors lists executors, optionally including removed ones.
func (e *Engine) Executors(ctx context.Context, appID string, includeInactive bool) ([]types.ExecutorSummary, error) {
	if includeInactive {
		return e.client.ListAllExecutors(ctx, appID)
	}
	return e.client.ListExecutors(ctx, appID)
}

// Executor finds one executor by ID across active and removed
// executors.
func (e *Engine) Executor(ctx context.Context, appID, executorID string) (*types.ExecutorSummary, error) {
	executors, err := e.client.ListAllExecutors(ctx, appID)
	if err != nil {
		return nil, err
	}
	for i := range executors {
		if executors[i].ID == executorID {
			return &executors[i], nil
		}
	}
	return nil, &client.NotFoundError{Resource: "executor " + executorID}
}
