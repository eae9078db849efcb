package analytics

import (
	"context"
	"sort"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// ExecutionSummary condenses one SQL execution for the plan diff.
type ExecutionSummary struct {
	ExecutionID int                      `json:"execution_id"`
	Duration    int64                    `json:"duration"`
	Status      types.SQLExecutionStatus `json:"status"`
	NodeCount   int                      `json:"node_count"`
	EdgeCount   int                      `json:"edge_count"`
}

// NodeTypeCounts is the per-plan frequency of one operator name.
type NodeTypeCounts struct {
	App1Count int `json:"app1_count"`
	App2Count int `json:"app2_count"`
}

// JobAssociations are the job IDs tied to one SQL execution.
type JobAssociations struct {
	RunningJobs []int `json:"running_jobs"`
	SuccessJobs []int `json:"success_jobs"`
	FailedJobs  []int `json:"failed_jobs"`
}

// SQLPlanComparison is the full plan diff of two SQL executions.
type SQLPlanComparison struct {
	Applications PropertyValues `json:"applications"`
	Executions   struct {
		App1 ExecutionSummary `json:"app1"`
		App2 ExecutionSummary `json:"app2"`
	} `json:"executions"`
	PlanStructure struct {
		NodeTypeComparison map[string]NodeTypeCounts `json:"node_type_comparison"`
		ComplexityMetrics  struct {
			NodeCountRatio float64 `json:"node_count_ratio"`
			EdgeCountRatio float64 `json:"edge_count_ratio"`
			DurationRatio  float64 `json:"duration_ratio"`
		} `json:"complexity_metrics"`
	} `json:"plan_structure"`
	JobAssociations struct {
		App1 JobAssociations `json:"app1"`
		App2 JobAssociations `json:"app2"`
	} `json:"job_associations"`
}

// CompareSQLPlans diffs the operator graphs of one SQL execution from
// each application.  When an execution ID is negative the
// longest-duration execution of that application is used.
func (e *Engine) CompareSQLPlans(ctx context.Context, appID1, appID2 string, executionID1, executionID2 int) (*SQLPlanComparison, error) {
	query := client.SQLQuery{Details: true, PlanDescription: true}

	if executionID1 < 0 {
		id, err := e.longestExecutionID(ctx, appID1)
		if err != nil {
			return nil, err
		}
		executionID1 = id
	}
	if executionID2 < 0 {
		id, err := e.longestExecutionID(ctx, appID2)
		if err != nil {
			return nil, err
		}
		executionID2 = id
	}

	exec1, err := e.client.GetSQLExecution(ctx, appID1, executionID1, query)
	if err != nil {
		return nil, err
	}
	exec2, err := e.client.GetSQLExecution(ctx, appID2, executionID2, query)
	if err != nil {
		return nil, err
	}

	nodes1 := nodeHistogram(exec1.Nodes)
	nodes2 := nodeHistogram(exec2.Nodes)

	result := &SQLPlanComparison{
		Applications: PropertyValues{App1: appID1, App2: appID2},
	}
	result.Executions.App1 = summarizeExecution(exec1)
	result.Executions.App2 = summarizeExecution(exec2)

	result.PlanStructure.NodeTypeComparison = map[string]NodeTypeCounts{}
	for _, name := range unionKeys(nodes1, nodes2) {
		result.PlanStructure.NodeTypeComparison[name] = NodeTypeCounts{
			App1Count: nodes1[name],
			App2Count: nodes2[name],
		}
	}
	result.PlanStructure.ComplexityMetrics.NodeCountRatio = ratio(float64(len(exec2.Nodes)), float64(len(exec1.Nodes)))
	result.PlanStructure.ComplexityMetrics.EdgeCountRatio = ratio(float64(len(exec2.Edges)), float64(len(exec1.Edges)))
	result.PlanStructure.ComplexityMetrics.DurationRatio = ratio(float64(int64Val(exec2.Duration)), float64(int64Val(exec1.Duration)))

	result.JobAssociations.App1 = associationsOf(exec1)
	result.JobAssociations.App2 = associationsOf(exec2)

	return result, nil
}

// longestExecutionID finds the longest-duration SQL execution of an
// application.
func (e *Engine) longestExecutionID(ctx context.Context, appID string) (int, error) {
	execs, err := e.client.GetSQLList(ctx, appID, client.SQLQuery{
		Details:         true,
		PlanDescription: true,
		Length:          DefaultSQLPageSize,
	})
	if err != nil {
		return 0, err
	}
	if len(execs) == 0 {
		return 0, &client.NotFoundError{Resource: "SQL executions for application " + appID}
	}

	longest := execs[0]
	for _, exec := range execs[1:] {
		if int64Val(exec.Duration) > int64Val(longest.Duration) {
			longest = exec
		}
	}
	return longest.ID, nil
}

func summarizeExecution(exec *types.ExecutionData) ExecutionSummary {
	return ExecutionSummary{
		ExecutionID: exec.ID,
		Duration:    int64Val(exec.Duration),
		Status:      exec.Status,
		NodeCount:   len(exec.Nodes),
		EdgeCount:   len(exec.Edges),
	}
}

func associationsOf(exec *types.ExecutionData) JobAssociations {
	return JobAssociations{
		RunningJobs: exec.RunningJobIDs,
		SuccessJobs: exec.SuccessJobIDs,
		FailedJobs:  exec.FailedJobIDs,
	}
}

func nodeHistogram(nodes []types.Node) map[string]int {
	histogram := map[string]int{}
	for _, node := range nodes {
		histogram[node.NodeName]++
	}
	return histogram
}

func unionKeys(a, b map[string]int) []string {
	seen := map[string]bool{}
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
