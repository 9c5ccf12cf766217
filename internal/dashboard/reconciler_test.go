package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/changefeed"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
)

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) record(notice Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *noticeRecorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReconcilerRefetchesOnRemoteEvent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	recorder := &noticeRecorder{}
	reconciler := NewReconciler(store, session, nil, recorder.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- reconciler.Run(ctx)
	}()

	// Remote actor changes an application out from under the session.
	store.mu.Lock()
	app := store.apps["app-1"]
	app.Status = application.StatusWithdrawn
	store.apps["app-1"] = app
	store.mu.Unlock()
	// Re-publish until the subscription attaches and the refetch lands;
	// the hub drops events published before a subscriber is registered.
	waitFor(t, "snapshot reconciliation", func() bool {
		store.hub.Publish(changefeed.Event{
			Table:       changefeed.TableApplications,
			Kind:        changefeed.KindUpdate,
			KingdomID:   testKingdomID,
			RowID:       "app-1",
			ActorUserID: "applicant-app-1",
			OccurredAt:  testBaseTime,
		})
		snapshot, err := session.Read(context.Background())
		if err != nil {
			return false
		}
		cached, ok := snapshot.Application("app-1")
		return ok && cached.Status == application.StatusWithdrawn
	})

	// Updates raise no notices: only specific inserts do.
	if notices := recorder.all(); len(notices) != 0 {
		t.Fatalf("expected no notices for update events, got %+v", notices)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReconcilerNoticesForForeignInserts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	recorder := &noticeRecorder{}
	reconciler := NewReconciler(store, session, nil, recorder.record)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- reconciler.Run(ctx)
	}()

	// Give the subscription time to attach before publishing.
	waitFor(t, "subscription attach", func() bool {
		store.hub.Publish(changefeed.Event{
			Table:       changefeed.TableApplications,
			Kind:        changefeed.KindInsert,
			KingdomID:   testKingdomID,
			RowID:       "app-2",
			ActorUserID: "applicant-x",
			OccurredAt:  testBaseTime,
		})
		return len(recorder.all()) > 0
	})

	store.hub.Publish(changefeed.Event{
		Table:       changefeed.TableTeamMembers,
		Kind:        changefeed.KindInsert,
		KingdomID:   testKingdomID,
		RowID:       "member-2",
		ActorUserID: "user-2",
		OccurredAt:  testBaseTime,
	})
	// The recruiter's own insert raises nothing.
	store.hub.Publish(changefeed.Event{
		Table:       changefeed.TableTeamMembers,
		Kind:        changefeed.KindInsert,
		KingdomID:   testKingdomID,
		RowID:       "member-self",
		ActorUserID: testUserID,
		OccurredAt:  testBaseTime,
	})

	waitFor(t, "co-editor notice", func() bool {
		for _, notice := range recorder.all() {
			if notice.Kind == NoticeCoEditorRequest && notice.RowID == "member-2" {
				return true
			}
		}
		return false
	})

	hasNewApplication := false
	for _, notice := range recorder.all() {
		if notice.Kind == NoticeNewApplication {
			hasNewApplication = true
		}
		if notice.RowID == "member-self" {
			t.Fatal("own insert must not raise a notice")
		}
	}
	if !hasNewApplication {
		t.Fatal("expected a new-application notice")
	}

	cancel()
	<-done
}

func TestReconcilerStopsWhenStoreCloses(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	reconciler := NewReconciler(store, session, nil, nil)
	reconciler.retryDelay = time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- reconciler.Run(context.Background())
	}()

	// Let it subscribe, then shut the feed down.
	time.Sleep(10 * time.Millisecond)
	store.hub.Close()

	select {
	case err := <-done:
		if !errors.Is(err, changefeed.ErrHubClosed) {
			t.Fatalf("expected ErrHubClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop after store close")
	}
}

func TestReconcilerRetriesFailedSubscribe(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	store.mu.Lock()
	store.subscribeFailures = 2
	store.mu.Unlock()

	recorder := &noticeRecorder{}
	reconciler := NewReconciler(store, session, nil, recorder.record)
	reconciler.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- reconciler.Run(ctx)
	}()

	waitFor(t, "subscribe after transient failures", func() bool {
		store.hub.Publish(changefeed.Event{
			Table:       changefeed.TableApplications,
			Kind:        changefeed.KindInsert,
			KingdomID:   testKingdomID,
			RowID:       "app-9",
			ActorUserID: "applicant-y",
			OccurredAt:  testBaseTime,
		})
		return len(recorder.all()) > 0
	})

	cancel()
	<-done
}
