package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// spillThresholdBytes is the memory-spill size above which a stage is
// flagged as a spill bottleneck.
const spillThresholdBytes = 100 * 1024 * 1024

// gcPressureThreshold flags applications spending more than this share
// of executor time in garbage collection.
const gcPressureThreshold = 0.1

// StageBottleneck summarizes one slow stage.
type StageBottleneck struct {
	StageID         int     `json:"stage_id"`
	AttemptID       int     `json:"attempt_id"`
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"duration_seconds"`
	TaskCount       int     `json:"task_count"`
	FailedTasks     int     `json:"failed_tasks"`
}

// JobBottleneck summarizes one slow job.
type JobBottleneck struct {
	JobID           int                      `json:"job_id"`
	Name            string                   `json:"name"`
	DurationSeconds float64                  `json:"duration_seconds"`
	FailedTasks     int                      `json:"failed_tasks"`
	Status          types.JobExecutionStatus `json:"status"`
}

// SpillStage is a stage that spilled a significant amount of memory.
type SpillStage struct {
	StageID         int     `json:"stage_id"`
	AttemptID       int     `json:"attempt_id"`
	Name            string  `json:"name"`
	MemorySpilledMB float64 `json:"memory_spilled_mb"`
	DiskSpilledMB   float64 `json:"disk_spilled_mb"`
}

// ExecutorUtilization reports how many configured executors are live.
type ExecutorUtilization struct {
	TotalExecutors   int     `json:"total_executors"`
	ActiveExecutors  int     `json:"active_executors"`
	UtilizationRatio float64 `json:"utilization_ratio"`
}

// Recommendation is one actionable tuning suggestion.
type Recommendation struct {
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// BottleneckReport is the full output of bottleneck detection.
type BottleneckReport struct {
	ApplicationID          string `json:"application_id"`
	PerformanceBottlenecks struct {
		SlowestStages []StageBottleneck `json:"slowest_stages"`
		SlowestJobs   []JobBottleneck   `json:"slowest_jobs"`
	} `json:"performance_bottlenecks"`
	ResourceBottlenecks struct {
		MemorySpillStages   []SpillStage        `json:"memory_spill_stages"`
		GCPressureRatio     float64             `json:"gc_pressure_ratio"`
		ExecutorUtilization ExecutorUtilization `json:"executor_utilization"`
	} `json:"resource_bottlenecks"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Bottlenecks analyzes stages, jobs, and executors of an application
// and derives tuning recommendations from fixed thresholds.
func (e *Engine) Bottlenecks(ctx context.Context, appID string, topN int) (*BottleneckReport, error) {
	slowestStages, err := e.SlowestStages(ctx, appID, topN, false)
	if err != nil {
		return nil, err
	}
	slowestJobs, err := e.SlowestJobs(ctx, appID, topN, false)
	if err != nil {
		return nil, err
	}
	totals, err := e.ExecutorSummary(ctx, appID)
	if err != nil {
		return nil, err
	}
	allStages, err := e.client.ListStages(ctx, appID, client.StageQuery{Details: true})
	if err != nil {
		return nil, err
	}

	report := &BottleneckReport{ApplicationID: appID}

	for _, stage := range slowestStages {
		report.PerformanceBottlenecks.SlowestStages = append(report.PerformanceBottlenecks.SlowestStages, StageBottleneck{
			StageID:         intVal(stage.StageID),
			AttemptID:       stage.AttemptID,
			Name:            stage.Name,
			DurationSeconds: durationSeconds(stage.SubmissionTime, stage.CompletionTime),
			TaskCount:       intVal(stage.NumTasks),
			FailedTasks:     intVal(stage.NumFailedTasks),
		})
	}
	for _, job := range slowestJobs {
		report.PerformanceBottlenecks.SlowestJobs = append(report.PerformanceBottlenecks.SlowestJobs, JobBottleneck{
			JobID:           intVal(job.JobID),
			Name:            job.Name,
			DurationSeconds: durationSeconds(job.SubmissionTime, job.CompletionTime),
			FailedTasks:     intVal(job.NumFailedTasks),
			Status:          job.Status,
		})
	}

	spillStages := highSpillStages(allStages)
	if len(spillStages) > topN {
		spillStages = spillStages[:topN]
	}
	report.ResourceBottlenecks.MemorySpillStages = spillStages

	gcPressure := 0.0
	if totals.TotalDuration > 0 {
		gcPressure = float64(totals.TotalGCTime) / float64(maxInt64(totals.TotalDuration, 1))
	}
	report.ResourceBottlenecks.GCPressureRatio = gcPressure
	report.ResourceBottlenecks.ExecutorUtilization = ExecutorUtilization{
		TotalExecutors:   totals.TotalExecutors,
		ActiveExecutors:  totals.ActiveExecutors,
		UtilizationRatio: ratio(float64(totals.ActiveExecutors), float64(totals.TotalExecutors)),
	}

	report.Recommendations = []Recommendation{}
	if gcPressure > gcPressureThreshold {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:       "memory",
			Priority:   "high",
			Issue:      fmt.Sprintf("High GC pressure (%.1f%%)", gcPressure*100),
			Suggestion: "Consider increasing executor memory or reducing memory usage",
		})
	}
	if len(spillStages) > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:       "memory",
			Priority:   "high",
			Issue:      fmt.Sprintf("Memory spilling detected in %d stages", len(spillStages)),
			Suggestion: "Increase executor memory or optimize data partitioning",
		})
	}
	if totals.FailedTasks > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:       "reliability",
			Priority:   "medium",
			Issue:      fmt.Sprintf("%d failed tasks", totals.FailedTasks),
			Suggestion: "Investigate task failures and consider increasing task retry settings",
		})
	}

	return report, nil
}

func highSpillStages(stages []types.StageData) []SpillStage {
	spills := []SpillStage{}
	for _, stage := range stages {
		memSpilled := int64Val(stage.MemoryBytesSpilled)
		if memSpilled <= spillThresholdBytes {
			continue
		}
		spills = append(spills, SpillStage{
			StageID:         intVal(stage.StageID),
			AttemptID:       stage.AttemptID,
			Name:            stage.Name,
			MemorySpilledMB: float64(memSpilled) / (1024 * 1024),
			DiskSpilledMB:   float64(int64Val(stage.DiskBytesSpilled)) / (1024 * 1024),
		})
	}
	// Largest spill first.
	sort.SliceStable(spills, func(i, j int) bool {
		return spills[i].MemorySpilledMB > spills[j].MemorySpilledMB
	})
	return spills
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
