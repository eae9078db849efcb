package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
)

// newTestEngine serves canned JSON per API path.  Handlers registered
// on the mux see paths relative to /api/v1.
func newTestEngine(t *testing.T, routes map[string]string) (*Engine, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	c := client.NewWithHTTPClient("test", server.URL, server.Client())
	return New(c), server
}

func minutes(n int) int64 { return int64(n) * 60 * 1000 }

func jobJSON(id int, name, status string, submitMillis, completeMillis int64) string {
	job := map[string]interface{}{
		"jobId":          id,
		"name":           name,
		"status":         status,
		"submissionTime": submitMillis,
	}
	if completeMillis > 0 {
		job["completionTime"] = completeMillis
	}
	encoded, _ := json.Marshal(job)
	return string(encoded)
}

func TestSlowestJobsExcludesRunning(t *testing.T) {
	base := int64(1700000000000)
	jobs := fmt.Sprintf("[%s,%s,%s,%s]",
		jobJSON(0, "running", "RUNNING", base, 0),
		jobJSON(1, "two-minutes", "SUCCEEDED", base, base+minutes(2)),
		jobJSON(2, "five-minutes", "SUCCEEDED", base, base+minutes(5)),
		jobJSON(3, "one-minute", "FAILED", base, base+minutes(1)),
	)
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/jobs": jobs,
	})
	defer server.Close()

	slowest, err := engine.SlowestJobs(context.Background(), "app-1", 2, false)
	require.NoError(t, err)
	require.Len(t, slowest, 2)
	assert.Equal(t, "five-minutes", slowest[0].Name)
	assert.Equal(t, "two-minutes", slowest[1].Name)
}

func TestSlowestJobsCapsAtCollectionSize(t *testing.T) {
	base := int64(1700000000000)
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/jobs": "[" + jobJSON(0, "only", "SUCCEEDED", base, base+minutes(1)) + "]",
	})
	defer server.Close()

	slowest, err := engine.SlowestJobs(context.Background(), "app-1", 10, false)
	require.NoError(t, err)
	assert.Len(t, slowest, 1)
}

func TestSlowestSQLQueriesPaginatesToExhaustion(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/applications/app-1/sql", r.URL.Path)
		calls++

		var offset, length int
		_, _ = fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
		_, _ = fmt.Sscanf(r.URL.Query().Get("length"), "%d", &length)

		// 250 executions total, ids ascending, durations equal to id.
		var page []string
		for id := offset; id < offset+length && id < 250; id++ {
			page = append(page, fmt.Sprintf(
				`{"id": %d, "status": "COMPLETED", "durationMilliSeconds": %d, "runningJobIds": [], "successJobIds": [], "failedJobIds": [], "nodes": [], "edges": []}`,
				id, id))
		}
		_, _ = fmt.Fprintf(w, "[%s]", joinJSON(page))
	}))
	defer server.Close()

	engine := New(client.NewWithHTTPClient("test", server.URL, server.Client()))

	slowest, err := engine.SlowestSQLQueries(context.Background(), "app-1", "", 3, 100, false)
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "250 items at page size 100 take exactly 3 fetches")
	require.Len(t, slowest, 3)
	assert.Equal(t, 249, slowest[0].ID)
	assert.Equal(t, 248, slowest[1].ID)
	assert.Equal(t, 247, slowest[2].ID)
}

func joinJSON(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}

func TestExecutorSummarySumsOnAndOffHeap(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/allexecutors": `[
			{"id": "driver", "isActive": true, "diskUsed": 10, "completedTasks": 5, "failedTasks": 1,
			 "totalDuration": 1000, "totalGCTime": 100, "totalInputBytes": 50, "totalShuffleRead": 20, "totalShuffleWrite": 30,
			 "memoryMetrics": {"usedOnHeapStorageMemory": 300, "usedOffHeapStorageMemory": 200}},
			{"id": "1", "isActive": false, "diskUsed": 5, "completedTasks": 10, "failedTasks": 0,
			 "totalDuration": 2000, "totalGCTime": 400, "totalInputBytes": 25, "totalShuffleRead": 10, "totalShuffleWrite": 15}
		]`,
	})
	defer server.Close()

	totals, err := engine.ExecutorSummary(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, 2, totals.TotalExecutors)
	assert.Equal(t, 1, totals.ActiveExecutors)
	assert.Equal(t, int64(500), totals.MemoryUsed, "on-heap plus off-heap; missing metrics count as zero")
	assert.Equal(t, int64(15), totals.DiskUsed)
	assert.Equal(t, 15, totals.CompletedTasks)
	assert.Equal(t, 1, totals.FailedTasks)
	assert.Equal(t, int64(3000), totals.TotalDuration)
	assert.Equal(t, int64(500), totals.TotalGCTime)
}

func TestBottlenecksSpillThresholdAndGCPressure(t *testing.T) {
	base := int64(1700000000000)
	stages := fmt.Sprintf(`[
		{"stageId": 1, "attemptId": 0, "status": "COMPLETE", "name": "big-spill",
		 "submissionTime": %d, "completionTime": %d,
		 "memoryBytesSpilled": %d, "diskBytesSpilled": 1048576, "numTasks": 10, "numFailedTasks": 0},
		{"stageId": 2, "attemptId": 0, "status": "COMPLETE", "name": "small-spill",
		 "submissionTime": %d, "completionTime": %d,
		 "memoryBytesSpilled": %d, "numTasks": 10, "numFailedTasks": 0}
	]`, base, base+minutes(3), int64(150*1024*1024), base, base+minutes(1), int64(50*1024*1024))

	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/stages": stages,
		"/api/v1/applications/app-1/jobs":   "[]",
		"/api/v1/applications/app-1/allexecutors": `[
			{"id": "driver", "isActive": true, "totalDuration": 1000, "totalGCTime": 250, "failedTasks": 2}
		]`,
	})
	defer server.Close()

	report, err := engine.Bottlenecks(context.Background(), "app-1", 5)
	require.NoError(t, err)

	require.Len(t, report.ResourceBottlenecks.MemorySpillStages, 1, "only spills above 100MiB count")
	assert.Equal(t, 1, report.ResourceBottlenecks.MemorySpillStages[0].StageID)
	assert.InDelta(t, 150.0, report.ResourceBottlenecks.MemorySpillStages[0].MemorySpilledMB, 0.001)

	assert.InDelta(t, 0.25, report.ResourceBottlenecks.GCPressureRatio, 0.001)

	var kinds []string
	for _, rec := range report.Recommendations {
		kinds = append(kinds, rec.Type+"/"+rec.Priority)
	}
	assert.Equal(t, []string{"memory/high", "memory/high", "reliability/medium"}, kinds)
}

func TestGCPressureZeroWhenNoDuration(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/stages":       "[]",
		"/api/v1/applications/app-1/jobs":         "[]",
		"/api/v1/applications/app-1/allexecutors": `[{"id": "driver", "isActive": true, "totalGCTime": 500}]`,
	})
	defer server.Close()

	report, err := engine.Bottlenecks(context.Background(), "app-1", 5)
	require.NoError(t, err)
	assert.Zero(t, report.ResourceBottlenecks.GCPressureRatio)
	assert.Empty(t, report.Recommendations)
}

func TestCompareEnvironments(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/environment": `{
			"runtime": {"javaVersion": "11.0.1", "scalaVersion": "2.12"},
			"sparkProperties": [["spark.executor.memory", "4g"], ["spark.shuffle.partitions", "200"], ["spark.app.special", "yes"]],
			"systemProperties": [["java.version", "11.0.1"], ["os.name", "Linux"]]
		}`,
		"/api/v1/applications/app-2/environment": `{
			"runtime": {"javaVersion": "17.0.2", "scalaVersion": "2.12"},
			"sparkProperties": [["spark.executor.memory", "8g"], ["spark.shuffle.partitions", "200"], ["spark.dynamic.thing", "on"]],
			"systemProperties": [["java.version", "17.0.2"], ["os.name", "Linux"]]
		}`,
	})
	defer server.Close()

	cmp, err := engine.CompareEnvironments(context.Background(), "app-1", "app-2")
	require.NoError(t, err)

	assert.Equal(t, "11.0.1", cmp.RuntimeComparison.App1.JavaVersion)
	assert.Equal(t, "17.0.2", cmp.RuntimeComparison.App2.JavaVersion)

	assert.Contains(t, cmp.SparkProperties.Common, "spark.shuffle.partitions")
	assert.Equal(t, PropertyValues{App1: "4g", App2: "8g"}, cmp.SparkProperties.Different["spark.executor.memory"])
	assert.Equal(t, "yes", cmp.SparkProperties.OnlyInApp1["spark.app.special"])
	assert.Equal(t, "on", cmp.SparkProperties.OnlyInApp2["spark.dynamic.thing"])

	require.Contains(t, cmp.SystemProperties.KeyDifferences, "java.version")
	assert.NotContains(t, cmp.SystemProperties.KeyDifferences, "os.name")
}

func TestComparePerformanceRatios(t *testing.T) {
	base := int64(1700000000000)
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1": `{"id": "app-1", "name": "baseline", "attempts": []}`,
		"/api/v1/applications/app-2": `{"id": "app-2", "name": "candidate", "attempts": []}`,
		"/api/v1/applications/app-1/allexecutors": `[
			{"id": "driver", "isActive": true, "completedTasks": 100, "totalGCTime": 10,
			 "memoryMetrics": {"usedOnHeapStorageMemory": 1000, "usedOffHeapStorageMemory": 0}}
		]`,
		"/api/v1/applications/app-2/allexecutors": `[
			{"id": "driver", "isActive": true, "completedTasks": 200, "totalGCTime": 20,
			 "memoryMetrics": {"usedOnHeapStorageMemory": 2000, "usedOffHeapStorageMemory": 0}},
			{"id": "1", "isActive": true, "completedTasks": 0, "totalGCTime": 0}
		]`,
		"/api/v1/applications/app-1/jobs": "[" + jobJSON(0, "a", "SUCCEEDED", base, base+minutes(2)) + "]",
		"/api/v1/applications/app-2/jobs": "[" +
			jobJSON(0, "a", "SUCCEEDED", base, base+minutes(4)) + "," +
			jobJSON(1, "b", "SUCCEEDED", base, base+minutes(6)) + "]",
	})
	defer server.Close()

	cmp, err := engine.ComparePerformance(context.Background(), "app-1", "app-2")
	require.NoError(t, err)

	assert.Equal(t, "baseline", cmp.Applications.App1.Name)
	assert.InDelta(t, 2.0, cmp.ExecutorMetrics.Comparison.ExecutorCountRatio, 0.001)
	assert.InDelta(t, 2.0, cmp.ExecutorMetrics.Comparison.MemoryUsageRatio, 0.001)
	assert.InDelta(t, 2.0, cmp.ExecutorMetrics.Comparison.TaskCompletionRatio, 0.001)

	assert.Equal(t, 2, cmp.JobPerformance.App2.Count)
	assert.InDelta(t, 120.0, cmp.JobPerformance.App1.AvgDuration, 0.001)
	assert.InDelta(t, 300.0, cmp.JobPerformance.App2.AvgDuration, 0.001)
	assert.InDelta(t, 2.5, cmp.JobPerformance.Comparison.AvgDurationRatio, 0.001)
	assert.InDelta(t, 120.0, cmp.JobPerformance.App1.MinDuration, 0.001)
	assert.InDelta(t, 120.0, cmp.JobPerformance.App1.MaxDuration, 0.001)
}

func TestComparePerformanceZeroBaselineDurationRatio(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1":              `{"id": "app-1", "name": "a", "attempts": []}`,
		"/api/v1/applications/app-2":              `{"id": "app-2", "name": "b", "attempts": []}`,
		"/api/v1/applications/app-1/allexecutors": "[]",
		"/api/v1/applications/app-2/allexecutors": "[]",
		"/api/v1/applications/app-1/jobs":         "[]",
		"/api/v1/applications/app-2/jobs":         "[]",
	})
	defer server.Close()

	cmp, err := engine.ComparePerformance(context.Background(), "app-1", "app-2")
	require.NoError(t, err)
	assert.Zero(t, cmp.JobPerformance.Comparison.AvgDurationRatio)
	assert.Zero(t, cmp.JobPerformance.Comparison.TotalDurationRatio)
}

func TestCompareSQLPlansDefaultsToLongestExecution(t *testing.T) {
	sqlList1 := `[
		{"id": 1, "status": "COMPLETED", "durationMilliSeconds": 100, "runningJobIds": [], "successJobIds": [1], "failedJobIds": [],
		 "nodes": [{"nodeId": 1, "nodeName": "Scan parquet"}], "edges": []},
		{"id": 2, "status": "COMPLETED", "durationMilliSeconds": 900, "runningJobIds": [], "successJobIds": [2], "failedJobIds": [],
		 "nodes": [{"nodeId": 1, "nodeName": "Scan parquet"}, {"nodeId": 2, "nodeName": "HashAggregate"}, {"nodeId": 3, "nodeName": "HashAggregate"}],
		 "edges": [{"fromId": 1, "toId": 2}]}
	]`
	sqlList2 := `[
		{"id": 7, "status": "COMPLETED", "durationMilliSeconds": 300, "runningJobIds": [], "successJobIds": [5], "failedJobIds": [],
		 "nodes": [{"nodeId": 1, "nodeName": "Scan parquet"}, {"nodeId": 2, "nodeName": "SortMergeJoin"}],
		 "edges": [{"fromId": 1, "toId": 2}]}
	]`
	routes := map[string]string{
		"/api/v1/applications/app-1/sql": sqlList1,
		"/api/v1/applications/app-2/sql": sqlList2,
	}
	// Single-execution endpoints reuse the list entries.
	routes["/api/v1/applications/app-1/sql/2"] = `{"id": 2, "status": "COMPLETED", "durationMilliSeconds": 900,
		"runningJobIds": [], "successJobIds": [2], "failedJobIds": [],
		"nodes": [{"nodeId": 1, "nodeName": "Scan parquet"}, {"nodeId": 2, "nodeName": "HashAggregate"}, {"nodeId": 3, "nodeName": "HashAggregate"}],
		"edges": [{"fromId": 1, "toId": 2}]}`
	routes["/api/v1/applications/app-2/sql/7"] = `{"id": 7, "status": "COMPLETED", "durationMilliSeconds": 300,
		"runningJobIds": [], "successJobIds": [5], "failedJobIds": [],
		"nodes": [{"nodeId": 1, "nodeName": "Scan parquet"}, {"nodeId": 2, "nodeName": "SortMergeJoin"}],
		"edges": [{"fromId": 1, "toId": 2}]}`

	engine, server := newTestEngine(t, routes)
	defer server.Close()

	cmp, err := engine.CompareSQLPlans(context.Background(), "app-1", "app-2", -1, -1)
	require.NoError(t, err)

	assert.Equal(t, 2, cmp.Executions.App1.ExecutionID, "longest duration wins")
	assert.Equal(t, 7, cmp.Executions.App2.ExecutionID)

	assert.Equal(t, NodeTypeCounts{App1Count: 2, App2Count: 0}, cmp.PlanStructure.NodeTypeComparison["HashAggregate"])
	assert.Equal(t, NodeTypeCounts{App1Count: 1, App2Count: 1}, cmp.PlanStructure.NodeTypeComparison["Scan parquet"])
	assert.Equal(t, NodeTypeCounts{App1Count: 0, App2Count: 1}, cmp.PlanStructure.NodeTypeComparison["SortMergeJoin"])

	assert.InDelta(t, 2.0/3.0, cmp.PlanStructure.ComplexityMetrics.NodeCountRatio, 0.001)
	assert.InDelta(t, 300.0/900.0, cmp.PlanStructure.ComplexityMetrics.DurationRatio, 0.001)
	assert.Equal(t, []int{2}, cmp.JobAssociations.App1.SuccessJobs)
}

func TestTimelineRemovePreservesCapacity(t *testing.T) {
	base := int64(1700000000000)
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1": `{"id": "app-1", "name": "etl", "attempts": []}`,
		"/api/v1/applications/app-1/allexecutors": fmt.Sprintf(`[
			{"id": "1", "isActive": false, "totalCores": 4, "maxMemory": 4194304,
			 "addTime": %d, "removeTime": %d, "removeReason": "decommissioned"},
			{"id": "2", "isActive": true, "totalCores": 2, "maxMemory": 2097152, "addTime": %d}
		]`, base, base+minutes(10), base+minutes(2)),
		"/api/v1/applications/app-1/stages": fmt.Sprintf(`[
			{"stageId": 0, "attemptId": 0, "status": "COMPLETE", "name": "collect",
			 "submissionTime": %d, "completionTime": %d, "numTasks": 8}
		]`, base+minutes(1), base+minutes(5)),
	})
	defer server.Close()

	timeline, err := engine.Timeline(context.Background(), "app-1")
	require.NoError(t, err)

	require.Len(t, timeline.Timeline, 5)
	assert.Equal(t, "etl", timeline.ApplicationName)

	last := timeline.Timeline[len(timeline.Timeline)-1]
	assert.Equal(t, EventExecutorRemove, last.Event.Type)
	assert.Equal(t, 1, last.ActiveExecutors, "removal decrements the active count")
	assert.Equal(t, 6, last.TotalCores, "capacity counters are never decremented")
	assert.InDelta(t, 6.0, last.TotalMemoryMB, 0.001)

	assert.Equal(t, 5, timeline.Summary.TotalEvents)
	assert.Equal(t, 2, timeline.Summary.ExecutorAdditions)
	assert.Equal(t, 1, timeline.Summary.ExecutorRemovals)
	assert.Equal(t, 1, timeline.Summary.StageExecutions)
	assert.Equal(t, 2, timeline.Summary.PeakExecutors)
	assert.Equal(t, 6, timeline.Summary.PeakCores)
}

func TestStagePicksLatestAttemptAndBackfillsSummaries(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/stages/3": `[
			{"stageId": 3, "attemptId": 0, "status": "FAILED", "name": "retryable"},
			{"stageId": 3, "attemptId": 1, "status": "COMPLETE", "name": "retryable"}
		]`,
		"/api/v1/applications/app-1/stages/3/1/taskSummary": `{"quantiles": [0.5], "duration": [420]}`,
	})
	defer server.Close()

	stage, err := engine.Stage(context.Background(), "app-1", 3, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stage.AttemptID)
	require.NotNil(t, stage.TaskMetricsDistributions)
	assert.Equal(t, []float64{420}, stage.TaskMetricsDistributions.Duration)
}

func TestStageNotFound(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/stages/9": "[]",
	})
	defer server.Close()

	_, err := engine.Stage(context.Background(), "app-1", 9, nil, false)
	require.Error(t, err)

	var notFound *client.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestExecutorLookup(t *testing.T) {
	engine, server := newTestEngine(t, map[string]string{
		"/api/v1/applications/app-1/allexecutors": `[
			{"id": "driver", "isActive": true},
			{"id": "7", "isActive": false}
		]`,
	})
	defer server.Close()

	executor, err := engine.Executor(context.Background(), "app-1", "7")
	require.NoError(t, err)
	assert.False(t, executor.IsActive)

	_, err = engine.Executor(context.Background(), "app-1", "99")
	var notFound *client.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
