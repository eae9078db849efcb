package analytics

import (
	"context"
	"sort"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// DefaultSQLPageSize is how many SQL executions each page of the
// exhaustive fetch asks for.
const DefaultSQLPageSize = 100

// SlowestJobs returns the n longest-running jobs of an application,
// longest first.  Running jobs are excluded unless asked for, since
// their durations are still moving targets.
func (e *Engine) SlowestJobs(ctx context.Context, appID string, n int, includeRunning bool) ([]types.JobData, error) {
	jobs, err := e.client.ListJobs(ctx, appID, nil)
	if err != nil {
		return nil, err
	}

	if !includeRunning {
		kept := jobs[:0]
		for _, job := range jobs {
			if job.Status != types.JobStatusRunning {
				kept = append(kept, job)
			}
		}
		jobs = kept
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return durationSeconds(jobs[i].SubmissionTime, jobs[i].CompletionTime) >
			durationSeconds(jobs[j].SubmissionTime, jobs[j].CompletionTime)
	})

	if len(jobs) > n {
		jobs = jobs[:n]
	}
	return jobs, nil
}

// SlowestStages returns the n longest-running stages of an application,
// longest first.
func (e *Engine) SlowestStages(ctx context.Context, appID string, n int, includeRunning bool) ([]types.StageData, error) {
	stages, err := e.client.ListStages(ctx, appID, client.StageQuery{Details: true})
	if err != nil {
		return nil, err
	}

	if !includeRunning {
		kept := stages[:0]
		for _, stage := range stages {
			if stage.Status != types.StageStatusActive {
				kept = append(kept, stage)
			}
		}
		stages = kept
	}

	sort.SliceStable(stages, func(i, j int) bool {
		return durationSeconds(stages[i].SubmissionTime, stages[i].CompletionTime) >
			durationSeconds(stages[j].SubmissionTime, stages[j].CompletionTime)
	})

	if len(stages) > n {
		stages = stages[:n]
	}
	return stages, nil
}

// SlowestSQLQueries pages through every SQL execution of an application
// and returns the topN longest, longest first.  A page shorter than
// pageSize ends the scan.
func (e *Engine) SlowestSQLQueries(ctx context.Context, appID, attemptID string, topN, pageSize int, includeRunning bool) ([]types.ExecutionData, error) {
	if pageSize <= 0 {
		pageSize = DefaultSQLPageSize
	}

	var all []types.ExecutionData
	for offset := 0; ; offset += pageSize {
		page, err := e.client.GetSQLList(ctx, appID, client.SQLQuery{
			AttemptID: attemptID,
			Details:   true,
			Offset:    offset,
			Length:    pageSize,
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

	if !includeRunning {
		kept := all[:0]
		for _, exec := range all {
			if exec.Status != types.SQLStatusRunning {
				kept = append(kept, exec)
			}
		}
		all = kept
	}

	sort.SliceStable(all, func(i, j int) bool {
		return int64Val(all[i].Duration) > int64Val(all[j].Duration)
	})

	if len(all) > topN {
		all = all[:topN]
	}
	return all, nil
}
