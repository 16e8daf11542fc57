package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/mobility-backend-go/internal/logging"
)

// ItemAnalyzer runs an analysis as a sequence of work items with progress tracking
type ItemAnalyzer struct {
	*BaseAnalyzer
	// ContinueOnError counts a failed item and moves on instead of aborting
	ContinueOnError bool
}

// NewItemAnalyzer creates a new item analyzer
func NewItemAnalyzer(base *BaseAnalyzer, continueOnError bool) *ItemAnalyzer {
	return &ItemAnalyzer{
		BaseAnalyzer:    base,
		ContinueOnError: continueOnError,
	}
}

// ItemResult reports how many items were processed and failed
type ItemResult struct {
	Processed int
	Failed    int
	Elapsed   time.Duration
}

// ProcessItems calls process for each item index in order, updating task progress after each
func (a *ItemAnalyzer) ProcessItems(
	ctx context.Context,
	taskID int64,
	total int,
	process func(ctx context.Context, i int) error,
) (ItemResult, error) {
	log := logging.With(a.Name)
	start := time.Now()
	res := ItemResult{}

	if err := a.Tasks.SetTotalItems(taskID, total); err != nil {
		return res, err
	}

	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if err := process(ctx, i); err != nil {
			if !a.ContinueOnError || ctx.Err() != nil {
				return res, fmt.Errorf("item %d: %w", i, err)
			}
			res.Failed++
			log.Warn().Err(err).Int64("task_id", taskID).Int("item", i).Msg("item failed")
		}
		res.Processed++

		if err := a.UpdateTaskProgress(taskID, res.Processed, total, res.Failed); err != nil {
			return res, fmt.Errorf("failed to update progress: %w", err)
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}
