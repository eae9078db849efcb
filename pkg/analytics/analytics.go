// Package analytics turns raw history-server records into diagnostic
// summaries.  Every entry point takes the application ID and fans out
// to one or more REST calls through the underlying client.
//
// Missing numeric telemetry is treated as zero here and only here; the
// record types keep absent fields as nil pointers so that nothing is
// lost before aggregation.
package analytics

import (
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// Engine runs diagnostics against one history server.
type Engine struct {
	client *client.Client
}

// New builds an engine on top of an existing client.
func New(c *client.Client) *Engine {
	return &Engine{client: c}
}

func intVal(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func int64Val(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// durationSeconds is the interval between two timestamps in seconds, or
// 0 when either end is absent.
func durationSeconds(start, end types.Timestamp) float64 {
	return end.Sub(start).Seconds()
}

// ratio divides b by a with a floored at 1, the convention every
// comparison result uses so a zero baseline never divides by zero.
func ratio(b, a float64) float64 {
	if a < 1 {
		a = 1
	}
	return b / a
}
