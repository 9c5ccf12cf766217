package dashboard

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/kingsroad.gg/internal/platform/timeouts"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/changefeed"
)

// NoticeKind classifies transient reconciler notices.
type NoticeKind int

const (
	// NoticeNewApplication marks an application inserted by a
	// candidate while the dashboard is open.
	NoticeNewApplication NoticeKind = iota + 1
	// NoticeCoEditorRequest marks a co-editor request raised by
	// someone other than the acting recruiter.
	NoticeCoEditorRequest
)

// Notice is a transient, informational signal raised from the change
// feed. Notices never mutate state; the snapshot replace that follows
// carries the data.
type Notice struct {
	Kind        NoticeKind
	RowID       string
	ActorUserID string
	OccurredAt  time.Time
}

// Reconciler keeps one session's snapshot aligned with remote writes
// made by other actors. Every observed insert or update triggers a
// full refetch and replace; there is no event-by-event patching.
type Reconciler struct {
	store      subscribeStore
	session    *Session
	logger     *zap.Logger
	onNotice   func(Notice)
	retryDelay time.Duration
}

type subscribeStore interface {
	Subscribe(ctx context.Context, kingdomID string, tables ...changefeed.Table) (*changefeed.Subscription, error)
}

// NewReconciler builds a reconciler for one session. onNotice may be
// nil; notices are then only logged.
func NewReconciler(store subscribeStore, session *Session, logger *zap.Logger, onNotice func(Notice)) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:      store,
		session:    session,
		logger:     logger,
		onNotice:   onNotice,
		retryDelay: timeouts.SubscriptionRetry,
	}
}

// Run subscribes to the kingdom's application and team change feeds
// and blocks until ctx is cancelled or the store shuts down. Dropped
// streams are reopened after a fixed delay.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		subscription, err := r.store.Subscribe(ctx, r.session.KingdomID(),
			changefeed.TableApplications, changefeed.TableTeamMembers)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, changefeed.ErrHubClosed) {
				return err
			}
			r.logger.Warn("change feed subscribe failed", zap.Error(err))
			if waitErr := r.wait(ctx); waitErr != nil {
				return waitErr
			}
			continue
		}

		r.consume(ctx, subscription)
		subscription.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Info("change feed stream ended, resubscribing")
		if waitErr := r.wait(ctx); waitErr != nil {
			return waitErr
		}
	}
}

// consume drains one subscription until its stream closes.
func (r *Reconciler) consume(ctx context.Context, subscription *changefeed.Subscription) {
	for event := range subscription.Events() {
		r.raiseNotice(event)

		if _, err := r.session.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("snapshot refetch after change event failed",
				zap.String("table", string(event.Table)),
				zap.Error(err),
			)
		}
	}
}

func (r *Reconciler) raiseNotice(event changefeed.Event) {
	if event.Kind != changefeed.KindInsert {
		return
	}
	if event.ActorUserID == r.session.UserID() {
		return
	}

	var notice Notice
	switch event.Table {
	case changefeed.TableApplications:
		notice = Notice{Kind: NoticeNewApplication, RowID: event.RowID, ActorUserID: event.ActorUserID, OccurredAt: event.OccurredAt}
	case changefeed.TableTeamMembers:
		notice = Notice{Kind: NoticeCoEditorRequest, RowID: event.RowID, ActorUserID: event.ActorUserID, OccurredAt: event.OccurredAt}
	default:
		return
	}

	r.logger.Info("reconciler notice",
		zap.Int("kind", int(notice.Kind)),
		zap.String("row_id", notice.RowID),
	)
	if r.onNotice != nil {
		r.onNotice(notice)
	}
}

func (r *Reconciler) wait(ctx context.Context) error {
	timer := time.NewTimer(r.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
