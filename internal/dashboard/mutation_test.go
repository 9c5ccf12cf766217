package dashboard

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/notify"
)

func TestChangeStatusCommitsOptimistically(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	updated, err := session.ChangeStatus(context.Background(), "app-1", application.StatusViewed)
	if err != nil {
		t.Fatalf("change status: %v", err)
	}
	if updated.Status != application.StatusViewed {
		t.Fatalf("expected viewed, got %s", application.StatusLabel(updated.Status))
	}
	if updated.ViewedAt == nil || !updated.ViewedAt.Equal(testBaseTime) {
		t.Fatalf("expected viewed_at stamped at clock time, got %v", updated.ViewedAt)
	}
	if updated.RespondedAt != nil {
		t.Fatalf("viewed must not stamp responded_at, got %v", updated.RespondedAt)
	}
	if session.Updating("app-1") {
		t.Fatal("expected updating marker cleared after commit")
	}

	snapshot, err := session.Read(context.Background())
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	cached, ok := snapshot.Application("app-1")
	if !ok {
		t.Fatal("application missing from snapshot")
	}
	if cached.Status != application.StatusViewed {
		t.Fatalf("cache not patched, status %s", application.StatusLabel(cached.Status))
	}

	remote, err := store.GetApplication(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("get remote application: %v", err)
	}
	if remote.Status != application.StatusViewed || remote.ViewedAt == nil {
		t.Fatalf("remote write missing: %+v", remote)
	}
}

func TestChangeStatusSendsApplicantNotification(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusInterested)
	session := newTestSession(t, store)

	if _, err := session.ChangeStatus(context.Background(), "app-1", application.StatusAccepted); err != nil {
		t.Fatalf("change status: %v", err)
	}
	session.engine.Drain()

	sent := store.sentNotifications()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if sent[0].Topic != notify.TopicStatusAccepted {
		t.Fatalf("unexpected topic %q", sent[0].Topic)
	}
	if sent[0].RecipientUserID != "applicant-app-1" {
		t.Fatalf("unexpected recipient %q", sent[0].RecipientUserID)
	}
}

func TestCancelApprovalNotifiesDecline(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusAccepted)
	session := newTestSession(t, store)

	updated, err := session.ChangeStatus(context.Background(), "app-1", application.StatusDeclined)
	if err != nil {
		t.Fatalf("cancel approval: %v", err)
	}
	if updated.Status != application.StatusDeclined {
		t.Fatalf("expected declined, got %s", application.StatusLabel(updated.Status))
	}
	session.engine.Drain()

	sent := store.sentNotifications()
	if len(sent) != 1 || sent[0].Topic != notify.TopicStatusDeclined {
		t.Fatalf("expected declined notification, got %+v", sent)
	}
}

func TestChangeStatusRollbackRestoresSnapshotExactly(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	seedApplication(store, "app-2", application.StatusInterested)
	session := newTestSession(t, store)

	before, err := session.Read(context.Background())
	if err != nil {
		t.Fatalf("read before: %v", err)
	}

	store.mu.Lock()
	store.statusWriteErr = func(string) error { return fmt.Errorf("gateway unavailable") }
	store.mu.Unlock()

	_, err = session.ChangeStatus(context.Background(), "app-1", application.StatusViewed)
	if err == nil {
		t.Fatal("expected mutation failure")
	}
	var coded *apperrors.Error
	if !errors.As(err, &coded) || coded.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
	if session.Updating("app-1") {
		t.Fatal("expected updating marker cleared after rollback")
	}

	after, err := session.Read(context.Background())
	if err != nil {
		t.Fatalf("read after: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rollback not exact\nbefore: %+v\nafter:  %+v", before, after)
	}
	if len(store.sentNotifications()) != 0 {
		t.Fatal("rolled-back mutation must not notify")
	}
}

func TestChangeStatusRejectsConcurrentSameApplication(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	gate := make(chan struct{})
	store.mu.Lock()
	store.statusWriteGate = gate
	store.mu.Unlock()

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.ChangeStatus(context.Background(), "app-1", application.StatusViewed)
		firstDone <- err
	}()

	waitForUpdating(t, session, "app-1")

	_, err := session.ChangeStatus(context.Background(), "app-1", application.StatusInterested)
	var coded *apperrors.Error
	if !errors.As(err, &coded) || coded.Code != apperrors.CodeApplicationUpdateInFlight {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first mutation: %v", err)
	}
	session.engine.Drain()
}

func TestChangeStatusRejectsIllegalTransition(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusDeclined)
	session := newTestSession(t, store)

	_, err := session.ChangeStatus(context.Background(), "app-1", application.StatusAccepted)
	var coded *apperrors.Error
	if !errors.As(err, &coded) || coded.Code != apperrors.CodeApplicationInvalidStatusTransition {
		t.Fatalf("expected invalid transition code, got %v", err)
	}
	if len(store.sentNotifications()) != 0 {
		t.Fatal("rejected mutation must not notify")
	}
}

func TestChangeStatusUnknownApplication(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)

	_, err := session.ChangeStatus(context.Background(), "missing", application.StatusViewed)
	var coded *apperrors.Error
	if !errors.As(err, &coded) || coded.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %v", err)
	}
}

func TestViewedAtSetOnlyOnce(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedApplication(store, "app-1", application.StatusPending)
	session := newTestSession(t, store)
	ctx := context.Background()

	first, err := session.ChangeStatus(ctx, "app-1", application.StatusViewed)
	if err != nil {
		t.Fatalf("mark viewed: %v", err)
	}

	// A later transition path cannot restamp viewed_at.
	if _, err := session.ChangeStatus(ctx, "app-1", application.StatusInterested); err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	remote, err := store.GetApplication(ctx, "app-1")
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if remote.ViewedAt == nil || !remote.ViewedAt.Equal(*first.ViewedAt) {
		t.Fatalf("viewed_at changed: %v vs %v", remote.ViewedAt, first.ViewedAt)
	}
	session.engine.Drain()
}
