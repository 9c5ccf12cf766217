package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
)

// BulkResult reports the per-item outcome of one bulk status action.
type BulkResult struct {
	Succeeded []string
	Failed    map[string]error
}

// BulkChangeStatus fans one optimistic mutation per application id out
// concurrently and waits for all of them to settle. Failed items roll
// back individually; committed items stay committed. There are no
// retries. A second bulk action for the same recruiter is rejected
// while one is in progress.
func (e *Engine) BulkChangeStatus(ctx context.Context, userID string, applicationIDs []string, target application.Status) (BulkResult, error) {
	if len(applicationIDs) == 0 {
		return BulkResult{}, apperrors.New(apperrors.CodeDashboardBulkEmptySet, "bulk action requires a selection")
	}
	if !e.tryBeginBulk(userID) {
		return BulkResult{}, apperrors.New(apperrors.CodeDashboardBulkInProgress, "bulk action already in progress")
	}
	defer e.endBulk(userID)

	ctx, span := e.tracer.Start(ctx, "dashboard.BulkChangeStatus")
	defer span.End()

	var mu sync.Mutex
	result := BulkResult{Failed: make(map[string]error)}

	// A plain group: one failed item must not cancel its siblings.
	var group errgroup.Group
	for _, applicationID := range applicationIDs {
		applicationID := applicationID
		group.Go(func() error {
			_, err := e.changeStatus(ctx, userID, applicationID, target, rollbackItem)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[applicationID] = err
				return nil
			}
			result.Succeeded = append(result.Succeeded, applicationID)
			return nil
		})
	}
	_ = group.Wait()

	if len(result.Failed) > 0 {
		e.logger.Warn("bulk action partially failed",
			zap.String("target_status", application.StatusLabel(target)),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
		)
	}
	return result, nil
}

func (e *Engine) tryBeginBulk(userID string) bool {
	e.bulkMu.Lock()
	defer e.bulkMu.Unlock()
	if _, active := e.bulkActive[userID]; active {
		return false
	}
	e.bulkActive[userID] = struct{}{}
	return true
}

func (e *Engine) endBulk(userID string) {
	e.bulkMu.Lock()
	defer e.bulkMu.Unlock()
	delete(e.bulkActive, userID)
}
