package analytics

import (
	"context"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// keySystemProperties are the JVM/system properties whose differences
// most often explain behavior drift between two runs.
var keySystemProperties = []string{
	"java.version",
	"java.runtime.version",
	"os.name",
	"os.version",
	"user.timezone",
	"file.encoding",
}

const notSet = "NOT_SET"

// PropertyValues holds one property's value in each application.
type PropertyValues struct {
	App1 string `json:"app1"`
	App2 string `json:"app2"`
}

// RuntimeComparison holds both applications' JVM runtime identity.
type RuntimeComparison struct {
	App1 RuntimeDetails `json:"app1"`
	App2 RuntimeDetails `json:"app2"`
}

// RuntimeDetails is one application's JVM runtime identity.
type RuntimeDetails struct {
	JavaVersion  string `json:"java_version"`
	JavaHome     string `json:"java_home"`
	ScalaVersion string `json:"scala_version"`
}

// PropertyComparison partitions one property namespace into shared,
// conflicting, and one-sided entries.
type PropertyComparison struct {
	Common     map[string]PropertyValues `json:"common"`
	Different  map[string]PropertyValues `json:"different"`
	OnlyInApp1 map[string]string         `json:"only_in_app1"`
	OnlyInApp2 map[string]string         `json:"only_in_app2"`
}

// EnvironmentComparison is the full environment diff of two
// applications.
type EnvironmentComparison struct {
	Applications      PropertyValues     `json:"applications"`
	RuntimeComparison RuntimeComparison  `json:"runtime_comparison"`
	SparkProperties   PropertyComparison `json:"spark_properties"`
	SystemProperties  struct {
		KeyDifferences map[string]PropertyValues `json:"key_differences"`
	} `json:"system_properties"`
}

// CompareEnvironments diffs the runtime configuration of two
// applications.
func (e *Engine) CompareEnvironments(ctx context.Context, appID1, appID2 string) (*EnvironmentComparison, error) {
	env1, err := e.client.GetEnvironment(ctx, appID1)
	if err != nil {
		return nil, err
	}
	env2, err := e.client.GetEnvironment(ctx, appID2)
	if err != nil {
		return nil, err
	}

	sparkProps1 := propsToMap(env1.SparkProperties)
	sparkProps2 := propsToMap(env2.SparkProperties)
	systemProps1 := propsToMap(env1.SystemProperties)
	systemProps2 := propsToMap(env2.SystemProperties)

	result := &EnvironmentComparison{
		Applications: PropertyValues{App1: appID1, App2: appID2},
		RuntimeComparison: RuntimeComparison{
			App1: runtimeDetails(env1.Runtime),
			App2: runtimeDetails(env2.Runtime),
		},
		SparkProperties: compareProps(sparkProps1, sparkProps2),
	}

	result.SystemProperties.KeyDifferences = map[string]PropertyValues{}
	for _, key := range keySystemProperties {
		v1, ok1 := systemProps1[key]
		v2, ok2 := systemProps2[key]
		if v1 == v2 {
			continue
		}
		if !ok1 {
			v1 = notSet
		}
		if !ok2 {
			v2 = notSet
		}
		result.SystemProperties.KeyDifferences[key] = PropertyValues{App1: v1, App2: v2}
	}

	return result, nil
}

func runtimeDetails(r types.RuntimeInfo) RuntimeDetails {
	return RuntimeDetails{
		JavaVersion:  r.JavaVersion,
		JavaHome:     r.JavaHome,
		ScalaVersion: r.ScalaVersion,
	}
}

func propsToMap(props []types.PropertyPair) map[string]string {
	m := make(map[string]string, len(props))
	for _, p := range props {
		m[p.Name()] = p.Value()
	}
	return m
}

func compareProps(props1, props2 map[string]string) PropertyComparison {
	comparison := PropertyComparison{
		Common:     map[string]PropertyValues{},
		Different:  map[string]PropertyValues{},
		OnlyInApp1: map[string]string{},
		OnlyInApp2: map[string]string{},
	}

	for key, v1 := range props1 {
		v2, ok := props2[key]
		switch {
		case !ok:
			comparison.OnlyInApp1[key] = v1
		case v1 == v2:
			comparison.Common[key] = PropertyValues{App1: v1, App2: v2}
		default:
			comparison.Different[key] = PropertyValues{App1: v1, App2: v2}
		}
	}
	for key, v2 := range props2 {
		if _, ok := props1[key]; !ok {
			comparison.OnlyInApp2[key] = v2
		}
	}

	return comparison
}

// JobStats summarizes the job durations of one application.
type JobStats struct {
	Count          int     `json:"count"`
	CompletedCount int     `json:"completed_count"`
	TotalDuration  float64 `json:"total_duration"`
	AvgDuration    float64 `json:"avg_duration"`
	MinDuration    float64 `json:"min_duration"`
	MaxDuration    float64 `json:"max_duration"`
}

// ResourceAllocation is one application's granted resources.
type ResourceAllocation struct {
	CoresGranted        *int `json:"cores_granted"`
	MaxCores            *int `json:"max_cores"`
	CoresPerExecutor    *int `json:"cores_per_executor"`
	MemoryPerExecutorMB *int `json:"memory_per_executor_mb"`
}

// AppIdentity names one compared application.
type AppIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PerformanceComparison is the full performance diff of two
// applications.  All ratios divide app2 by app1 with the denominator
// floored at 1; a zero app1 duration baseline yields ratio 0.
type PerformanceComparison struct {
	Applications struct {
		App1 AppIdentity `json:"app1"`
		App2 AppIdentity `json:"app2"`
	} `json:"applications"`
	ResourceAllocation struct {
		App1 ResourceAllocation `json:"app1"`
		App2 ResourceAllocation `json:"app2"`
	} `json:"resource_allocation"`
	ExecutorMetrics struct {
		App1       *ExecutorTotals `json:"app1"`
		App2       *ExecutorTotals `json:"app2"`
		Comparison struct {
			ExecutorCountRatio  float64 `json:"executor_count_ratio"`
			MemoryUsageRatio    float64 `json:"memory_usage_ratio"`
			TaskCompletionRatio float64 `json:"task_completion_ratio"`
			GCTimeRatio         float64 `json:"gc_time_ratio"`
		} `json:"comparison"`
	} `json:"executor_metrics"`
	JobPerformance struct {
		App1       JobStats `json:"app1"`
		App2       JobStats `json:"app2"`
		Comparison struct {
			JobCountRatio      float64 `json:"job_count_ratio"`
			AvgDurationRatio   float64 `json:"avg_duration_ratio"`
			TotalDurationRatio float64 `json:"total_duration_ratio"`
		} `json:"comparison"`
	} `json:"job_performance"`
}

// ComparePerformance contrasts resource allocation, executor totals,
// and job duration statistics of two applications.
func (e *Engine) ComparePerformance(ctx context.Context, appID1, appID2 string) (*PerformanceComparison, error) {
	app1, err := e.client.GetApplication(ctx, appID1)
	if err != nil {
		return nil, err
	}
	app2, err := e.client.GetApplication(ctx, appID2)
	if err != nil {
		return nil, err
	}
	totals1, err := e.ExecutorSummary(ctx, appID1)
	if err != nil {
		return nil, err
	}
	totals2, err := e.ExecutorSummary(ctx, appID2)
	if err != nil {
		return nil, err
	}
	jobs1, err := e.client.ListJobs(ctx, appID1, nil)
	if err != nil {
		return nil, err
	}
	jobs2, err := e.client.ListJobs(ctx, appID2, nil)
	if err != nil {
		return nil, err
	}

	stats1 := calcJobStats(jobs1)
	stats2 := calcJobStats(jobs2)

	result := &PerformanceComparison{}
	result.Applications.App1 = AppIdentity{ID: appID1, Name: app1.Name}
	result.Applications.App2 = AppIdentity{ID: appID2, Name: app2.Name}
	result.ResourceAllocation.App1 = allocationOf(app1)
	result.ResourceAllocation.App2 = allocationOf(app2)

	result.ExecutorMetrics.App1 = totals1
	result.ExecutorMetrics.App2 = totals2
	result.ExecutorMetrics.Comparison.ExecutorCountRatio = ratio(float64(totals2.TotalExecutors), float64(totals1.TotalExecutors))
	result.ExecutorMetrics.Comparison.MemoryUsageRatio = ratio(float64(totals2.MemoryUsed), float64(totals1.MemoryUsed))
	result.ExecutorMetrics.Comparison.TaskCompletionRatio = ratio(float64(totals2.CompletedTasks), float64(totals1.CompletedTasks))
	result.ExecutorMetrics.Comparison.GCTimeRatio = ratio(float64(totals2.TotalGCTime), float64(totals1.TotalGCTime))

	result.JobPerformance.App1 = stats1
	result.JobPerformance.App2 = stats2
	result.JobPerformance.Comparison.JobCountRatio = ratio(float64(stats2.Count), float64(stats1.Count))
	if stats1.AvgDuration > 0 {
		result.JobPerformance.Comparison.AvgDurationRatio = ratio(stats2.AvgDuration, stats1.AvgDuration)
	}
	if stats1.TotalDuration > 0 {
		result.JobPerformance.Comparison.TotalDurationRatio = ratio(stats2.TotalDuration, stats1.TotalDuration)
	}

	return result, nil
}

func allocationOf(app *types.ApplicationInfo) ResourceAllocation {
	return ResourceAllocation{
		CoresGranted:        app.CoresGranted,
		MaxCores:            app.MaxCores,
		CoresPerExecutor:    app.CoresPerExecutor,
		MemoryPerExecutorMB: app.MemoryPerExecutorMB,
	}
}

func calcJobStats(jobs []types.JobData) JobStats {
	stats := JobStats{Count: len(jobs)}

	var durations []float64
	for _, job := range jobs {
		if !job.SubmissionTime.Valid || !job.CompletionTime.Valid {
			continue
		}
		durations = append(durations, durationSeconds(job.SubmissionTime, job.CompletionTime))
	}
	if len(durations) == 0 {
		return stats
	}

	stats.CompletedCount = len(durations)
	stats.MinDuration = durations[0]
	stats.MaxDuration = durations[0]
	for _, d := range durations {
		stats.TotalDuration += d
		if d < stats.MinDuration {
			stats.MinDuration = d
		}
		if d > stats.MaxDuration {
			stats.MaxDuration = d
		}
	}
	stats.AvgDuration = stats.TotalDuration / float64(len(durations))
	return stats
}
