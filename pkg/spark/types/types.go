// Package types holds the typed records the Spark History Server REST
// API deserializes into.  Optional numeric fields stay pointers so that
// genuinely-missing telemetry remains distinguishable from a true zero;
// only the analytics layer substitutes zeros.
package types

// VersionInfo reports the Spark version of the history server.
type VersionInfo struct {
	Spark string `json:"spark"`
}

// ApplicationInfo is one execution of a distributed compute job.
type ApplicationInfo struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	CoresGranted        *int                     `json:"coresGranted,omitempty"`
	MaxCores            *int                     `json:"maxCores,omitempty"`
	CoresPerExecutor    *int                     `json:"coresPerExecutor,omitempty"`
	MemoryPerExecutorMB *int                     `json:"memoryPerExecutorMB,omitempty"`
	Attempts            []ApplicationAttemptInfo `json:"attempts"`
}

// ApplicationAttemptInfo is one attempt of an application.
type ApplicationAttemptInfo struct {
	AttemptID       string    `json:"attemptId,omitempty"`
	StartTime       Timestamp `json:"startTime"`
	EndTime         Timestamp `json:"endTime"`
	LastUpdated     Timestamp `json:"lastUpdated"`
	Duration        int64     `json:"duration"`
	SparkUser       string    `json:"sparkUser"`
	AppSparkVersion string    `json:"appSparkVersion,omitempty"`
	Completed       bool      `json:"completed"`
}

// JobData describes one job of an application.
type JobData struct {
	JobID               *int               `json:"jobId"`
	Name                string             `json:"name"`
	Description         string             `json:"description,omitempty"`
	SubmissionTime      Timestamp          `json:"submissionTime"`
	CompletionTime      Timestamp          `json:"completionTime"`
	StageIDs            []int              `json:"stageIds,omitempty"`
	JobGroup            string             `json:"jobGroup,omitempty"`
	JobTags             []string           `json:"jobTags,omitempty"`
	Status              JobExecutionStatus `json:"status"`
	NumTasks            *int               `json:"numTasks"`
	NumActiveTasks      *int               `json:"numActiveTasks"`
	NumCompletedTasks   *int               `json:"numCompletedTasks"`
	NumSkippedTasks     *int               `json:"numSkippedTasks"`
	NumFailedTasks      *int               `json:"numFailedTasks"`
	NumKilledTasks      *int               `json:"numKilledTasks"`
	NumActiveStages     *int               `json:"numActiveStages"`
	NumCompletedStages  *int               `json:"numCompletedStages"`
	NumSkippedStages    *int               `json:"numSkippedStages"`
	NumFailedStages     *int               `json:"numFailedStages"`
	KilledTasksSummary  map[string]int     `json:"killedTasksSummary,omitempty"`
}

// StageData describes one stage attempt of an application.
type StageData struct {
	Status                StageStatus `json:"status"`
	StageID               *int        `json:"stageId"`
	AttemptID             int         `json:"attemptId"`
	NumTasks              *int        `json:"numTasks"`
	NumActiveTasks        *int        `json:"numActiveTasks"`
	NumCompleteTasks      *int        `json:"numCompleteTasks"`
	NumFailedTasks        *int        `json:"numFailedTasks"`
	NumKilledTasks        *int        `json:"numKilledTasks"`
	SubmissionTime        Timestamp   `json:"submissionTime"`
	FirstTaskLaunchedTime Timestamp   `json:"firstTaskLaunchedTime"`
	CompletionTime        Timestamp   `json:"completionTime"`
	FailureReason         string      `json:"failureReason,omitempty"`

	ExecutorRunTime     *int64 `json:"executorRunTime"`
	ExecutorCPUTime     *int64 `json:"executorCpuTime"`
	JVMGCTime           *int64 `json:"jvmGcTime"`
	ResultSize          *int64 `json:"resultSize"`
	MemoryBytesSpilled  *int64 `json:"memoryBytesSpilled"`
	DiskBytesSpilled    *int64 `json:"diskBytesSpilled"`
	PeakExecutionMemory *int64 `json:"peakExecutionMemory"`
	InputBytes          *int64 `json:"inputBytes"`
	InputRecords        *int64 `json:"inputRecords"`
	OutputBytes         *int64 `json:"outputBytes"`
	OutputRecords       *int64 `json:"outputRecords"`
	ShuffleReadBytes    *int64 `json:"shuffleReadBytes"`
	ShuffleReadRecords  *int64 `json:"shuffleReadRecords"`
	ShuffleWriteBytes   *int64 `json:"shuffleWriteBytes"`
	ShuffleWriteRecords *int64 `json:"shuffleWriteRecords"`

	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Details        string `json:"details,omitempty"`
	SchedulingPool string `json:"schedulingPool,omitempty"`

	Tasks                    map[string]TaskData      `json:"tasks,omitempty"`
	ExecutorSummaries        map[string]ExecutorStageSummary `json:"executorSummary,omitempty"`
	ResourceProfileID        *int                     `json:"resourceProfileId,omitempty"`
	TaskMetricsDistributions *TaskMetricDistributions `json:"taskMetricsDistributions,omitempty"`
}

// ExecutorStageSummary aggregates one executor's work within a stage.
type ExecutorStageSummary struct {
	TaskTime           *int64 `json:"taskTime"`
	FailedTasks        *int   `json:"failedTasks"`
	SucceededTasks     *int   `json:"succeededTasks"`
	KilledTasks        *int   `json:"killedTasks"`
	InputBytes         *int64 `json:"inputBytes"`
	OutputBytes        *int64 `json:"outputBytes"`
	ShuffleRead        *int64 `json:"shuffleRead"`
	ShuffleWrite       *int64 `json:"shuffleWrite"`
	MemoryBytesSpilled *int64 `json:"memoryBytesSpilled"`
	DiskBytesSpilled   *int64 `json:"diskBytesSpilled"`
}

// TaskData describes one task of a stage attempt.
type TaskData struct {
	TaskID            *int64       `json:"taskId"`
	Index             int          `json:"index"`
	Attempt           int          `json:"attempt"`
	PartitionID       *int         `json:"partitionId,omitempty"`
	LaunchTime        Timestamp    `json:"launchTime"`
	ResultFetchStart  Timestamp    `json:"resultFetchStart,omitempty"`
	Duration          *int64       `json:"duration,omitempty"`
	ExecutorID        string       `json:"executorId,omitempty"`
	Host              string       `json:"host"`
	Status            string       `json:"status"`
	TaskLocality      string       `json:"taskLocality,omitempty"`
	Speculative       bool         `json:"speculative"`
	ErrorMessage      string       `json:"errorMessage,omitempty"`
	TaskMetrics       *TaskMetrics `json:"taskMetrics,omitempty"`
	SchedulerDelay    *int64       `json:"schedulerDelay,omitempty"`
	GettingResultTime *int64       `json:"gettingResultTime,omitempty"`
}

// TaskMetrics are the point metrics of a single task.
type TaskMetrics struct {
	ExecutorDeserializeTime *int64               `json:"executorDeserializeTime"`
	ExecutorRunTime         *int64               `json:"executorRunTime"`
	ExecutorCPUTime         *int64               `json:"executorCpuTime"`
	ResultSize              *int64               `json:"resultSize"`
	JVMGCTime               *int64               `json:"jvmGcTime"`
	MemoryBytesSpilled      *int64               `json:"memoryBytesSpilled"`
	DiskBytesSpilled        *int64               `json:"diskBytesSpilled"`
	PeakExecutionMemory     *int64               `json:"peakExecutionMemory"`
	InputMetrics            *InputMetrics        `json:"inputMetrics,omitempty"`
	OutputMetrics           *OutputMetrics       `json:"outputMetrics,omitempty"`
	ShuffleReadMetrics      *ShuffleReadMetrics  `json:"shuffleReadMetrics,omitempty"`
	ShuffleWriteMetrics     *ShuffleWriteMetrics `json:"shuffleWriteMetrics,omitempty"`
}

// InputMetrics counts data read by a task.
type InputMetrics struct {
	BytesRead   *int64 `json:"bytesRead"`
	RecordsRead *int64 `json:"recordsRead"`
}

// OutputMetrics counts data written by a task.
type OutputMetrics struct {
	BytesWritten   *int64 `json:"bytesWritten"`
	RecordsWritten *int64 `json:"recordsWritten"`
}

// ShuffleReadMetrics counts shuffle data read by a task.
type ShuffleReadMetrics struct {
	RemoteBlocksFetched *int64 `json:"remoteBlocksFetched"`
	LocalBlocksFetched  *int64 `json:"localBlocksFetched"`
	FetchWaitTime       *int64 `json:"fetchWaitTime"`
	RemoteBytesRead     *int64 `json:"remoteBytesRead"`
	LocalBytesRead      *int64 `json:"localBytesRead"`
	RecordsRead         *int64 `json:"recordsRead"`
}

// ShuffleWriteMetrics counts shuffle data written by a task.
type ShuffleWriteMetrics struct {
	BytesWritten   *int64 `json:"bytesWritten"`
	WriteTime      *int64 `json:"writeTime"`
	RecordsWritten *int64 `json:"recordsWritten"`
}

// TaskMetricDistributions reports task metrics of a stage as per-quantile
// summaries.  Every sequence is aligned with Quantiles.
type TaskMetricDistributions struct {
	Quantiles []float64 `json:"quantiles"`

	Duration                []float64 `json:"duration,omitempty"`
	ExecutorDeserializeTime []float64 `json:"executorDeserializeTime,omitempty"`
	ExecutorRunTime         []float64 `json:"executorRunTime,omitempty"`
	ExecutorCPUTime         []float64 `json:"executorCpuTime,omitempty"`
	ResultSize              []float64 `json:"resultSize,omitempty"`
	JVMGCTime               []float64 `json:"jvmGcTime,omitempty"`
	SchedulerDelay          []float64 `json:"schedulerDelay,omitempty"`
	GettingResultTime       []float64 `json:"gettingResultTime,omitempty"`
	PeakExecutionMemory     []float64 `json:"peakExecutionMemory,omitempty"`
	MemoryBytesSpilled      []float64 `json:"memoryBytesSpilled,omitempty"`
	DiskBytesSpilled        []float64 `json:"diskBytesSpilled,omitempty"`

	InputMetrics        *InputMetricDistributions        `json:"inputMetrics,omitempty"`
	OutputMetrics       *OutputMetricDistributions       `json:"outputMetrics,omitempty"`
	ShuffleReadMetrics  *ShuffleReadMetricDistributions  `json:"shuffleReadMetrics,omitempty"`
	ShuffleWriteMetrics *ShuffleWriteMetricDistributions `json:"shuffleWriteMetrics,omitempty"`
}

// InputMetricDistributions is the quantile form of InputMetrics.
type InputMetricDistributions struct {
	BytesRead   []float64 `json:"bytesRead,omitempty"`
	RecordsRead []float64 `json:"recordsRead,omitempty"`
}

// OutputMetricDistributions is the quantile form of OutputMetrics.
type OutputMetricDistributions struct {
	BytesWritten   []float64 `json:"bytesWritten,omitempty"`
	RecordsWritten []float64 `json:"recordsWritten,omitempty"`
}

// ShuffleReadMetricDistributions is the quantile form of ShuffleReadMetrics.
type ShuffleReadMetricDistributions struct {
	ReadBytes           []float64 `json:"readBytes,omitempty"`
	ReadRecords         []float64 `json:"readRecords,omitempty"`
	RemoteBlocksFetched []float64 `json:"remoteBlocksFetched,omitempty"`
	LocalBlocksFetched  []float64 `json:"localBlocksFetched,omitempty"`
	FetchWaitTime       []float64 `json:"fetchWaitTime,omitempty"`
	RemoteBytesRead     []float64 `json:"remoteBytesRead,omitempty"`
	LocalBytesRead      []float64 `json:"localBytesRead,omitempty"`
}

// ShuffleWriteMetricDistributions is the quantile form of ShuffleWriteMetrics.
type ShuffleWriteMetricDistributions struct {
	WriteBytes   []float64 `json:"writeBytes,omitempty"`
	WriteRecords []float64 `json:"writeRecords,omitempty"`
	WriteTime    []float64 `json:"writeTime,omitempty"`
}

// ExecutorSummary describes one executor of an application.  Removal
// events carry no resource deltas, so RemoveTime/RemoveReason are the
// only fields populated by them.
type ExecutorSummary struct {
	ID                string            `json:"id"`
	HostPort          string            `json:"hostPort,omitempty"`
	IsActive          bool              `json:"isActive"`
	RDDBlocks         *int              `json:"rddBlocks,omitempty"`
	MemoryUsed        *int64            `json:"memoryUsed"`
	DiskUsed          *int64            `json:"diskUsed"`
	TotalCores        *int              `json:"totalCores"`
	MaxTasks          *int              `json:"maxTasks,omitempty"`
	ActiveTasks       *int              `json:"activeTasks"`
	FailedTasks       *int              `json:"failedTasks"`
	CompletedTasks    *int              `json:"completedTasks"`
	TotalTasks        *int              `json:"totalTasks"`
	TotalDuration     *int64            `json:"totalDuration"`
	TotalGCTime       *int64            `json:"totalGCTime"`
	TotalInputBytes   *int64            `json:"totalInputBytes"`
	TotalShuffleRead  *int64            `json:"totalShuffleRead"`
	TotalShuffleWrite *int64            `json:"totalShuffleWrite"`
	MaxMemory         *int64            `json:"maxMemory"`
	AddTime           Timestamp         `json:"addTime"`
	RemoveTime        Timestamp         `json:"removeTime,omitempty"`
	RemoveReason      string            `json:"removeReason,omitempty"`
	ExecutorLogs      map[string]string `json:"executorLogs,omitempty"`
	MemoryMetrics     *MemoryMetrics    `json:"memoryMetrics,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	ResourceProfileID *int              `json:"resourceProfileId,omitempty"`
}

// MemoryMetrics reports storage memory usage of one executor.
type MemoryMetrics struct {
	UsedOnHeapStorageMemory   *int64 `json:"usedOnHeapStorageMemory"`
	UsedOffHeapStorageMemory  *int64 `json:"usedOffHeapStorageMemory"`
	TotalOnHeapStorageMemory  *int64 `json:"totalOnHeapStorageMemory"`
	TotalOffHeapStorageMemory *int64 `json:"totalOffHeapStorageMemory"`
}

// PropertyPair is one (name, value) entry of an environment property
// list.  The server encodes these as two-element JSON arrays.
type PropertyPair [2]string

// Name returns the property key.
func (p PropertyPair) Name() string { return p[0] }

// Value returns the property value.
func (p PropertyPair) Value() string { return p[1] }

// ApplicationEnvironmentInfo is the runtime configuration of an
// application.
type ApplicationEnvironmentInfo struct {
	Runtime          RuntimeInfo    `json:"runtime"`
	SparkProperties  []PropertyPair `json:"sparkProperties,omitempty"`
	HadoopProperties []PropertyPair `json:"hadoopProperties,omitempty"`
	SystemProperties []PropertyPair `json:"systemProperties,omitempty"`
	MetricsProperties []PropertyPair `json:"metricsProperties,omitempty"`
	ClasspathEntries []PropertyPair `json:"classpathEntries,omitempty"`
}

// RuntimeInfo identifies the JVM and Scala runtime of an application.
type RuntimeInfo struct {
	JavaVersion  string `json:"javaVersion,omitempty"`
	JavaHome     string `json:"javaHome,omitempty"`
	ScalaVersion string `json:"scalaVersion,omitempty"`
}

// ThreadStackTrace is one thread of an executor thread dump.
type ThreadStackTrace struct {
	ThreadID         *int64      `json:"threadId"`
	ThreadName       string      `json:"threadName,omitempty"`
	ThreadState      string      `json:"threadState,omitempty"`
	StackTrace       *StackTrace `json:"stackTrace,omitempty"`
	BlockedByThreadID *int64     `json:"blockedByThreadId,omitempty"`
	BlockedByLock    string      `json:"blockedByLock,omitempty"`
	HoldingLocks     []string    `json:"holdingLocks,omitempty"`
	Synchronizers    []string    `json:"synchronizers,omitempty"`
	Monitors         []string    `json:"monitors,omitempty"`
	Suspended        bool        `json:"suspended"`
	IsDaemon         bool        `json:"isDaemon,omitempty"`
	Priority         int         `json:"priority"`
}

// StackTrace is the frame list of one thread.
type StackTrace struct {
	Elems []string `json:"elems"`
}

// RDDStorageInfo describes one cached RDD.
type RDDStorageInfo struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	NumPartitions       *int   `json:"numPartitions,omitempty"`
	NumCachedPartitions *int   `json:"numCachedPartitions,omitempty"`
	StorageLevel        string `json:"storageLevel,omitempty"`
	MemoryUsed          *int64 `json:"memoryUsed,omitempty"`
	DiskUsed            *int64 `json:"diskUsed,omitempty"`
}

// Metric is one metric of a SQL plan node.
type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is one operator of a SQL execution plan graph.
type Node struct {
	NodeID               int      `json:"nodeId"`
	NodeName             string   `json:"nodeName"`
	WholeStageCodegenID  *int     `json:"wholeStageCodegenId,omitempty"`
	Metrics              []Metric `json:"metrics,omitempty"`
}

// SparkPlanGraphEdge connects two operators of a plan graph.
type SparkPlanGraphEdge struct {
	FromID int `json:"fromId"`
	ToID   int `json:"toId"`
}

// ExecutionData describes one SQL execution and its operator graph.
type ExecutionData struct {
	ID              int                  `json:"id"`
	Status          SQLExecutionStatus   `json:"status"`
	Description     string               `json:"description,omitempty"`
	PlanDescription string               `json:"planDescription,omitempty"`
	SubmissionTime  Timestamp            `json:"submissionTime"`
	Duration        *int64               `json:"durationMilliSeconds"`
	RunningJobIDs   []int                `json:"runningJobIds"`
	SuccessJobIDs   []int                `json:"successJobIds"`
	FailedJobIDs    []int                `json:"failedJobIds"`
	Nodes           []Node               `json:"nodes"`
	Edges           []SparkPlanGraphEdge `json:"edges"`
}
