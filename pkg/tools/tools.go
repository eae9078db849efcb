// Package tools exposes the analytics surface over HTTP.  Each tool is
// invoked by POSTing its JSON arguments; the optional "server" argument
// picks a configured history server, defaulting to the one marked
// default.
package tools

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/analytics"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

type toolFunc func(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error)

// toolHandlers maps tool names to their implementations.
var toolHandlers = map[string]toolFunc{
	"get_version":                 getVersion,
	"list_applications":           listApplications,
	"get_application":             getApplication,
	"list_jobs":                   listJobs,
	"get_job":                     getJob,
	"list_slowest_jobs":           listSlowestJobs,
	"list_stages":                 listStages,
	"list_slowest_stages":         listSlowestStages,
	"get_stage":                   getStage,
	"get_stage_task_summary":      getStageTaskSummary,
	"list_stage_tasks":            listStageTasks,
	"get_environment":             getEnvironment,
	"list_executors":              listExecutors,
	"get_executor":                getExecutor,
	"get_executor_summary":        getExecutorSummary,
	"list_executor_threads":       listExecutorThreads,
	"list_rdds":                   listRDDs,
	"get_rdd":                     getRDD,
	"compare_job_environments":    compareJobEnvironments,
	"compare_job_performance":     compareJobPerformance,
	"compare_sql_execution_plans": compareSQLExecutionPlans,
	"list_slowest_sql_queries":    listSlowestSQLQueries,
	"get_job_bottlenecks":         getJobBottlenecks,
	"get_resource_usage_timeline": getResourceUsageTimeline,
}

func decode(args json.RawMessage, into interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, into); err != nil {
		return errors.WithMessage(err, "invalid tool arguments")
	}
	return nil
}

type appArgs struct {
	AppID string `json:"app_id"`
}

func getVersion(ctx context.Context, c *client.Client, _ json.RawMessage) (interface{}, error) {
	return c.GetVersion(ctx)
}

func listApplications(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		Status     []string `json:"status"`
		MinDate    string   `json:"min_date"`
		MaxDate    string   `json:"max_date"`
		MinEndDate string   `json:"min_end_date"`
		MaxEndDate string   `json:"max_end_date"`
		Limit      int      `json:"limit"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	query := client.ApplicationQuery{
		MinDate:    in.MinDate,
		MaxDate:    in.MaxDate,
		MinEndDate: in.MinEndDate,
		MaxEndDate: in.MaxEndDate,
		Limit:      in.Limit,
	}
	for _, s := range in.Status {
		status, err := types.ParseApplicationStatus(s)
		if err != nil {
			return nil, err
		}
		query.Status = append(query.Status, status)
	}
	return c.ListApplications(ctx, query)
}

func getApplication(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in appArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.GetApplication(ctx, in.AppID)
}

func listJobs(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		Status []string `json:"status"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	var statuses []types.JobExecutionStatus
	for _, s := range in.Status {
		status, err := types.ParseJobExecutionStatus(s)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return c.ListJobs(ctx, in.AppID, statuses)
}

func getJob(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		JobID int `json:"job_id"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.GetJob(ctx, in.AppID, in.JobID)
}

func listSlowestJobs(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		N              int  `json:"n"`
		IncludeRunning bool `json:"include_running"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if in.N <= 0 {
		in.N = 5
	}
	return analytics.New(c).SlowestJobs(ctx, in.AppID, in.N, in.IncludeRunning)
}

func listStages(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		Status        []string `json:"status"`
		WithSummaries bool     `json:"with_summaries"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	query := client.StageQuery{WithSummaries: in.WithSummaries}
	for _, s := range in.Status {
		status, err := types.ParseStageStatus(s)
		if err != nil {
			return nil, err
		}
		query.Status = append(query.Status, status)
	}
	return c.ListStages(ctx, in.AppID, query)
}

func listSlowestStages(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		N              int  `json:"n"`
		IncludeRunning bool `json:"include_running"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if in.N <= 0 {
		in.N = 5
	}
	return analytics.New(c).SlowestStages(ctx, in.AppID, in.N, in.IncludeRunning)
}

func getStage(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		StageID       int  `json:"stage_id"`
		AttemptID     *int `json:"attempt_id"`
		WithSummaries bool `json:"with_summaries"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).Stage(ctx, in.AppID, in.StageID, in.AttemptID, in.WithSummaries)
}

func getStageTaskSummary(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		StageID   int    `json:"stage_id"`
		AttemptID int    `json:"attempt_id"`
		Quantiles string `json:"quantiles"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.GetStageTaskSummary(ctx, in.AppID, in.StageID, in.AttemptID, in.Quantiles)
}

func listStageTasks(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		StageID   int      `json:"stage_id"`
		AttemptID int      `json:"attempt_id"`
		Offset    int      `json:"offset"`
		Length    int      `json:"length"`
		SortBy    string   `json:"sort_by"`
		Status    []string `json:"status"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	query := client.TaskQuery{Offset: in.Offset, Length: in.Length}
	if in.SortBy != "" {
		sortBy, err := types.ParseTaskSorting(in.SortBy)
		if err != nil {
			return nil, err
		}
		query.SortBy = sortBy
	}
	for _, s := range in.Status {
		status, err := types.ParseTaskStatus(s)
		if err != nil {
			return nil, err
		}
		query.Status = append(query.Status, status)
	}
	return c.ListStageTasks(ctx, in.AppID, in.StageID, in.AttemptID, query)
}

func getEnvironment(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in appArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.GetEnvironment(ctx, in.AppID)
}

func listExecutors(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		IncludeInactive bool `json:"include_inactive"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).Executors(ctx, in.AppID, in.IncludeInactive)
}

func getExecutor(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		ExecutorID string `json:"executor_id"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).Executor(ctx, in.AppID, in.ExecutorID)
}

func getExecutorSummary(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in appArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).ExecutorSummary(ctx, in.AppID)
}

func listExecutorThreads(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		ExecutorID string `json:"executor_id"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.ListExecutorThreadDump(ctx, in.AppID, in.ExecutorID)
}

func listRDDs(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in appArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.ListRDDs(ctx, in.AppID)
}

func getRDD(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		RDDID int `json:"rdd_id"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return c.GetRDD(ctx, in.AppID, in.RDDID)
}

type compareArgs struct {
	AppID1 string `json:"app_id1"`
	AppID2 string `json:"app_id2"`
}

func compareJobEnvironments(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in compareArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).CompareEnvironments(ctx, in.AppID1, in.AppID2)
}

func compareJobPerformance(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in compareArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).ComparePerformance(ctx, in.AppID1, in.AppID2)
}

func compareSQLExecutionPlans(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		compareArgs
		ExecutionID1 *int `json:"execution_id1"`
		ExecutionID2 *int `json:"execution_id2"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	id1, id2 := -1, -1
	if in.ExecutionID1 != nil {
		id1 = *in.ExecutionID1
	}
	if in.ExecutionID2 != nil {
		id2 = *in.ExecutionID2
	}
	return analytics.New(c).CompareSQLPlans(ctx, in.AppID1, in.AppID2, id1, id2)
}

func listSlowestSQLQueries(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		AttemptID      string `json:"attempt_id"`
		TopN           int    `json:"top_n"`
		PageSize       int    `json:"page_size"`
		IncludeRunning bool   `json:"include_running"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if in.TopN <= 0 {
		in.TopN = 1
	}
	return analytics.New(c).SlowestSQLQueries(ctx, in.AppID, in.AttemptID, in.TopN, in.PageSize, in.IncludeRunning)
}

func getJobBottlenecks(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in struct {
		appArgs
		TopN int `json:"top_n"`
	}
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	if in.TopN <= 0 {
		in.TopN = 5
	}
	return analytics.New(c).Bottlenecks(ctx, in.AppID, in.TopN)
}

func getResourceUsageTimeline(ctx context.Context, c *client.Client, args json.RawMessage) (interface{}, error) {
	var in appArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}
	return analytics.New(c).Timeline(ctx, in.AppID)
}
