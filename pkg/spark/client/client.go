// Package client is a typed client for the Spark History Server REST
// API (the /api/v1 surface).
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/config"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// DefaultQuantiles is the quantile list sent when a caller does not
// specify one.
const DefaultQuantiles = "0.05, 0.25, 0.5, 0.75, 0.95"

// Client talks to one Spark History Server.  It is safe for concurrent
// use as long as the underlying http.Client's cookie jar is not shared
// with other writers.
type Client struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// New builds a client for the given server config.
func New(name string, conf config.ServerConfig) (*Client, error) {
	httpConf := conf.HTTPConfig()
	httpClient, err := httpConf.Build()
	if err != nil {
		return nil, errors.WithMessagef(err, "could not build http client for server %s", name)
	}
	return NewWithHTTPClient(name, conf.URL, httpClient), nil
}

// NewWithHTTPClient builds a client around an existing http.Client.
// The EMR bootstrap path uses this to attach its cookie-bearing client
// and discovered base URL.
func NewWithHTTPClient(name, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log.WithFields(log.Fields{"sparkServer": name}),
	}
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.name }

// BaseURL returns the server base URL, without the /api/v1 suffix.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) apiURL(endpoint string) string {
	return c.baseURL + "/api/v1/" + strings.TrimLeft(endpoint, "/")
}

// get issues the request and applies the single address-fallback retry:
// on a 404 for a path containing /applications/, the literal attempt
// index "1/" is inserted after the application ID and the request is
// retried exactly once.  Never more than two HTTP calls per operation.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := c.apiURL(endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	err := c.fetchJSON(ctx, reqURL, out)
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		if fallbackURL, ok := rewriteURLWithAttempt(reqURL); ok {
			c.logger.WithField("url", reqURL).Debug("Got 404, retrying with default attempt ID")
			if retryErr := c.fetchJSON(ctx, fallbackURL, out); retryErr != nil {
				return errors.WithMessagef(retryErr, "fallback retry after 404 also failed (original error: %v)", err)
			}
			return nil
		}
	}
	return err
}

// rewriteURLWithAttempt applies the fallback rewrite to the path portion
// of a full request URL, leaving the query string alone.
func rewriteURLWithAttempt(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	newPath, ok := insertDefaultAttemptID(u.Path)
	if !ok {
		return "", false
	}
	u.Path = newPath
	return u.String(), true
}

// fetchJSON does one GET and deserializes the response body into out.
// Connection and timeout errors propagate unmodified; HTTP error
// statuses become HTTPStatusError; undecodable bodies become
// ValidationError.
func (c *Client) fetchJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrapf(err, "could not build request for url %s", reqURL)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        reqURL,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		ve := &ValidationError{URL: reqURL, Err: err}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			ve.Field = typeErr.Field
		}
		return ve
	}
	return nil
}

// GetVersion returns the Spark version of the history server.
func (c *Client) GetVersion(ctx context.Context) (*types.VersionInfo, error) {
	var out types.VersionInfo
	if err := c.get(ctx, "version", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplicationQuery filters ListApplications.
type ApplicationQuery struct {
	Status     []types.ApplicationStatus
	MinDate    string
	MaxDate    string
	MinEndDate string
	MaxEndDate string
	Limit      int
}

// ListApplications returns all applications known to the server.
func (c *Client) ListApplications(ctx context.Context, query ApplicationQuery) ([]types.ApplicationInfo, error) {
	params := url.Values{}
	for _, s := range query.Status {
		params.Add("status", string(s))
	}
	if query.MinDate != "" {
		params.Set("minDate", query.MinDate)
	}
	if query.MaxDate != "" {
		params.Set("maxDate", query.MaxDate)
	}
	if query.MinEndDate != "" {
		params.Set("minEndDate", query.MinEndDate)
	}
	if query.MaxEndDate != "" {
		params.Set("maxEndDate", query.MaxEndDate)
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	var out []types.ApplicationInfo
	if err := c.get(ctx, "applications", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetApplication returns one application by ID.
func (c *Client) GetApplication(ctx context.Context, appID string) (*types.ApplicationInfo, error) {
	var out types.ApplicationInfo
	if err := c.get(ctx, "applications/"+appID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetApplicationAttempt returns one attempt of an application.
func (c *Client) GetApplicationAttempt(ctx context.Context, appID, attemptID string) (*types.ApplicationAttemptInfo, error) {
	var out types.ApplicationAttemptInfo
	if err := c.get(ctx, fmt.Sprintf("applications/%s/%s", appID, attemptID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListJobs returns the jobs of an application, optionally filtered by
// status.
func (c *Client) ListJobs(ctx context.Context, appID string, statuses []types.JobExecutionStatus) ([]types.JobData, error) {
	params := url.Values{}
	for _, s := range statuses {
		params.Add("status", string(s))
	}

	var out []types.JobData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/jobs", appID), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetJob returns one job by ID.
func (c *Client) GetJob(ctx context.Context, appID string, jobID int) (*types.JobData, error) {
	var out types.JobData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/jobs/%d", appID, jobID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StageQuery tunes the stage endpoints.  Details is expensive on large
// stages; summaries attach per-quantile task metric distributions.
type StageQuery struct {
	Status        []types.StageStatus
	TaskStatus    []types.TaskStatus
	Details       bool
	WithSummaries bool
	Quantiles     string
}

func (q StageQuery) values() url.Values {
	quantiles := q.Quantiles
	if quantiles == "" {
		quantiles = DefaultQuantiles
	}

	params := url.Values{}
	params.Set("details", strconv.FormatBool(q.Details))
	params.Set("withSummaries", strconv.FormatBool(q.WithSummaries))
	params.Set("quantiles", quantiles)
	for _, s := range q.Status {
		params.Add("status", string(s))
	}
	for _, s := range q.TaskStatus {
		params.Add("taskStatus", string(s))
	}
	return params
}

// ListStages returns all stages of an application.
func (c *Client) ListStages(ctx context.Context, appID string, query StageQuery) ([]types.StageData, error) {
	var out []types.StageData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/stages", appID), query.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStageAttempts returns every attempt of one stage.
func (c *Client) ListStageAttempts(ctx context.Context, appID string, stageID int, query StageQuery) ([]types.StageData, error) {
	var out []types.StageData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d", appID, stageID), query.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStageAttempt returns one specific stage attempt.
func (c *Client) GetStageAttempt(ctx context.Context, appID string, stageID, attemptID int, query StageQuery) (*types.StageData, error) {
	var out types.StageData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d/%d", appID, stageID, attemptID), query.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStageTaskSummary returns per-quantile task metric distributions for
// one stage attempt.
func (c *Client) GetStageTaskSummary(ctx context.Context, appID string, stageID, attemptID int, quantiles string) (*types.TaskMetricDistributions, error) {
	if quantiles == "" {
		quantiles = DefaultQuantiles
	}
	params := url.Values{}
	params.Set("quantiles", quantiles)

	var out types.TaskMetricDistributions
	if err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d/%d/taskSummary", appID, stageID, attemptID), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TaskQuery pages through the task list of a stage attempt.
type TaskQuery struct {
	Offset int
	Length int
	SortBy types.TaskSorting
	Status []types.TaskStatus
}

// ListStageTasks returns one page of tasks for a stage attempt.
func (c *Client) ListStageTasks(ctx context.Context, appID string, stageID, attemptID int, query TaskQuery) ([]types.TaskData, error) {
	length := query.Length
	if length == 0 {
		length = 20
	}
	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = types.TaskSortingID
	}

	params := url.Values{}
	params.Set("offset", strconv.Itoa(query.Offset))
	params.Set("length", strconv.Itoa(length))
	params.Set("sortBy", string(sortBy))
	for _, s := range query.Status {
		params.Add("status", string(s))
	}

	var out []types.TaskData
	if err := c.get(ctx, fmt.Sprintf("applications/%s/stages/%d/%d/taskList", appID, stageID, attemptID), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListExecutors returns the active executors of an application.
func (c *Client) ListExecutors(ctx context.Context, appID string) ([]types.ExecutorSummary, error) {
	var out []types.ExecutorSummary
	if err := c.get(ctx, fmt.Sprintf("applications/%s/executors", appID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllExecutors returns every executor of an application, active and
// removed.
func (c *Client) ListAllExecutors(ctx context.Context, appID string) ([]types.ExecutorSummary, error) {
	var out []types.ExecutorSummary
	if err := c.get(ctx, fmt.Sprintf("applications/%s/allexecutors", appID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListExecutorThreadDump returns the thread dump of one executor.
func (c *Client) ListExecutorThreadDump(ctx context.Context, appID, executorID string) ([]types.ThreadStackTrace, error) {
	var out []types.ThreadStackTrace
	if err := c.get(ctx, fmt.Sprintf("applications/%s/executors/%s/threads", appID, executorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEnvironment returns the runtime configuration of an application.
func (c *Client) GetEnvironment(ctx context.Context, appID string) (*types.ApplicationEnvironmentInfo, error) {
	var out types.ApplicationEnvironmentInfo
	if err := c.get(ctx, fmt.Sprintf("applications/%s/environment", appID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRDDs returns all cached RDDs of an application.
func (c *Client) ListRDDs(ctx context.Context, appID string) ([]types.RDDStorageInfo, error) {
	var out []types.RDDStorageInfo
	if err := c.get(ctx, fmt.Sprintf("applications/%s/storage/rdd", appID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRDD returns one cached RDD by ID.
func (c *Client) GetRDD(ctx context.Context, appID string, rddID int) (*types.RDDStorageInfo, error) {
	var out types.RDDStorageInfo
	if err := c.get(ctx, fmt.Sprintf("applications/%s/storage/rdd/%d", appID, rddID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SQLQuery tunes the SQL execution endpoints.
type SQLQuery struct {
	// AttemptID selects an explicit application attempt; empty leaves
	// the choice to the server (and to the 404 fallback).
	AttemptID       string
	Details         bool
	PlanDescription bool
	Offset          int
	Length          int
}

func (q SQLQuery) values(paged bool) url.Values {
	params := url.Values{}
	params.Set("details", strconv.FormatBool(q.Details))
	params.Set("planDescription", strconv.FormatBool(q.PlanDescription))
	if paged {
		length := q.Length
		if length == 0 {
			length = 20
		}
		params.Set("offset", strconv.Itoa(q.Offset))
		params.Set("length", strconv.Itoa(length))
	}
	return params
}

// GetSQLList returns one page of SQL executions for an application.
// Callers wanting the full collection page with increasing offsets
// until a short page comes back.
func (c *Client) GetSQLList(ctx context.Context, appID string, query SQLQuery) ([]types.ExecutionData, error) {
	endpoint := fmt.Sprintf("applications/%s/sql", appID)
	if query.AttemptID != "" {
		endpoint = fmt.Sprintf("applications/%s/%s/sql", appID, query.AttemptID)
	}

	var out []types.ExecutionData
	if err := c.get(ctx, endpoint, query.values(true), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSQLExecution returns one SQL execution by ID.
func (c *Client) GetSQLExecution(ctx context.Context, appID string, executionID int, query SQLQuery) (*types.ExecutionData, error) {
	endpoint := fmt.Sprintf("applications/%s/sql/%d", appID, executionID)
	if query.AttemptID != "" {
		endpoint = fmt.Sprintf("applications/%s/%s/sql/%d", appID, query.AttemptID, executionID)
	}

	var out types.ExecutionData
	if err := c.get(ctx, endpoint, query.values(false), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
