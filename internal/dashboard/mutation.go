package dashboard

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
	"github.com/louisbranch/kingsroad.gg/internal/platform/timeouts"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/notify"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage"
)

// Engine executes optimistic status mutations against the cache and
// the remote gateway. A mutation patches the cache before the remote
// write; on failure the full pre-mutation snapshot is restored.
type Engine struct {
	store     storage.Store
	cache     *Cache
	updating  *updatingSet
	localizer notify.Localizer
	logger    *zap.Logger
	tracer    trace.Tracer
	clock     func() time.Time

	notifyWG sync.WaitGroup

	bulkMu     sync.Mutex
	bulkActive map[string]struct{}
}

// NewEngine builds a mutation engine over the given gateway and cache.
// A nil logger defaults to a no-op logger.
func NewEngine(store storage.Store, cache *Cache, localizer notify.Localizer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      store,
		cache:      cache,
		updating:   newUpdatingSet(),
		localizer:  localizer,
		logger:     logger,
		tracer:     otel.Tracer("kingsroad.gg/dashboard"),
		clock:      time.Now,
		bulkActive: make(map[string]struct{}),
	}
}

// Updating reports whether an optimistic mutation is in flight for the
// application id.
func (e *Engine) Updating(applicationID string) bool {
	return e.updating.has(applicationID)
}

// ChangeStatus runs one optimistic status mutation for a recruiter's
// cached dashboard: capture the pre-mutation snapshot, patch the cache,
// mark the id updating, write remotely, then either commit (and queue
// the applicant notification) or restore the captured snapshot whole.
func (e *Engine) ChangeStatus(ctx context.Context, userID, applicationID string, target application.Status) (application.Application, error) {
	return e.changeStatus(ctx, userID, applicationID, target, rollbackSnapshot)
}

type rollbackScope int

const (
	// rollbackSnapshot restores the full pre-mutation snapshot.
	rollbackSnapshot rollbackScope = iota
	// rollbackItem restores only the mutated application row, so
	// concurrent bulk siblings keep their committed results.
	rollbackItem
)

func (e *Engine) changeStatus(ctx context.Context, userID, applicationID string, target application.Status, scope rollbackScope) (application.Application, error) {
	ctx, span := e.tracer.Start(ctx, "dashboard.ChangeStatus")
	defer span.End()

	before, ok := e.cache.Read(userID)
	if !ok {
		return application.Application{}, apperrors.New(apperrors.CodeDashboardEmptyUserID, "no dashboard loaded for user")
	}
	current, ok := before.Application(applicationID)
	if !ok {
		return application.Application{}, apperrors.WithMetadata(apperrors.CodeNotFound, "application not in dashboard", map[string]string{"ApplicationID": applicationID})
	}

	if !e.updating.tryAcquire(applicationID) {
		return application.Application{}, apperrors.WithMetadata(apperrors.CodeApplicationUpdateInFlight, "application update already in flight", map[string]string{"ApplicationID": applicationID})
	}
	defer e.updating.release(applicationID)

	updated, err := application.ApplyTransition(current, target, e.clock)
	if err != nil {
		return application.Application{}, err
	}

	e.cache.Patch(userID, func(snapshot *Snapshot) {
		snapshot.setApplication(updated)
	})

	writeCtx, cancel := context.WithTimeout(ctx, timeouts.GatewayRequest)
	defer cancel()
	writeErr := e.store.UpdateApplicationStatus(writeCtx, storage.UpdateStatusInput{
		ApplicationID:   applicationID,
		KingdomID:       updated.KingdomID,
		Status:          target,
		ResponderUserID: userID,
		Field:           application.TransitionTimestampField(target),
		At:              updated.UpdatedAt,
	})
	if writeErr != nil {
		switch scope {
		case rollbackItem:
			e.cache.Patch(userID, func(snapshot *Snapshot) {
				snapshot.setApplication(current)
			})
		default:
			e.cache.Replace(userID, before)
		}
		e.logger.Warn("status mutation rolled back",
			zap.String("application_id", applicationID),
			zap.String("target_status", application.StatusLabel(target)),
			zap.Error(writeErr),
		)
		return application.Application{}, apperrors.Wrap(apperrors.CodeConflict, "remote status write failed", writeErr)
	}

	e.queueNotification(updated, before.Editor.KingdomName)
	return updated, nil
}

// queueNotification delivers the applicant notification without
// blocking the mutation path. Delivery failures are logged and
// dropped; the status change has already committed.
func (e *Engine) queueNotification(app application.Application, kingdomName string) {
	intent, err := notify.NewStatusChangeIntent(e.localizer, app, kingdomName)
	if err != nil {
		e.logger.Warn("skipping applicant notification",
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
		return
	}

	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.GatewayRequest)
		defer cancel()
		if err := e.store.InsertNotification(ctx, intent); err != nil {
			e.logger.Warn("applicant notification dropped",
				zap.String("application_id", app.ID),
				zap.String("topic", intent.Topic),
				zap.Error(err),
			)
		}
	}()
}

// Drain blocks until queued applicant notifications have settled. Used
// on shutdown and in tests; mutations never wait on it.
func (e *Engine) Drain() {
	e.notifyWG.Wait()
}
