package analytics

import (
	"context"
	"fmt"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/client"
	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/spark/types"
)

// Stage fetches one stage, picking the highest-numbered attempt when
// attemptID is nil.  When summaries are requested but the stage record
// comes back without metric distributions, they are backfilled with a
// separate task summary call.
func (e *Engine) Stage(ctx context.Context, appID string, stageID int, attemptID *int, withSummaries bool) (*types.StageData, error) {
	query := client.StageQuery{WithSummaries: withSummaries}

	var stage *types.StageData
	if attemptID != nil {
		fetched, err := e.client.GetStageAttempt(ctx, appID, stageID, *attemptID, query)
		if err != nil {
			return nil, err
		}
		stage = fetched
	} else {
		attempts, err := e.client.ListStageAttempts(ctx, appID, stageID, query)
		if err != nil {
			return nil, err
		}
		if len(attempts) == 0 {
			return nil, &client.NotFoundError{Resource: fmt.Sprintf("stage %d", stageID)}
		}

		latest := &attempts[0]
		for i := range attempts[1:] {
			if attempts[i+1].AttemptID > latest.AttemptID {
				latest = &attempts[i+1]
			}
		}
		stage = latest
	}

	if withSummaries && stage.TaskMetricsDistributions == nil {
		summary, err := e.client.GetStageTaskSummary(ctx, appID, stageID, stage.AttemptID, "")
		if err != nil {
			return nil, err
		}
		stage.TaskMetricsDistributions = summary
	}

	return stage, nil
}
