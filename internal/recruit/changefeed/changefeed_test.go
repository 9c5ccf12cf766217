package changefeed

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubscribeReceivesMatchingEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "kingdom-1", TableApplications)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	hub.Publish(Event{Table: TableApplications, Kind: KindInsert, KingdomID: "kingdom-1", RowID: "app-1"})

	select {
	case event := <-sub.Events():
		if event.RowID != "app-1" || event.Kind != KindInsert {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.OccurredAt.IsZero() {
			t.Fatal("expected occurred_at to be stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeFiltersKingdomAndTable(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "kingdom-1", TableApplications)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	hub.Publish(Event{Table: TableApplications, Kind: KindInsert, KingdomID: "kingdom-2", RowID: "other-kingdom"})
	hub.Publish(Event{Table: TableTeamMembers, Kind: KindInsert, KingdomID: "kingdom-1", RowID: "other-table"})
	hub.Publish(Event{Table: TableApplications, Kind: KindUpdate, KingdomID: "kingdom-1", RowID: "match"})

	select {
	case event := <-sub.Events():
		if event.RowID != "match" {
			t.Fatalf("expected filtered stream, got %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestCloseEndsStream(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "kingdom-1", TableApplications)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sub.Close()
	sub.Close() // idempotent

	if _, open := <-sub.Events(); open {
		t.Fatal("expected closed event stream")
	}

	// Publishing after release must not panic or deliver.
	hub.Publish(Event{Table: TableApplications, Kind: KindUpdate, KingdomID: "kingdom-1", RowID: "late"})
}

func TestContextCancellationReleasesSubscription(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, "kingdom-1", TableApplications)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, open := <-sub.Events():
		if open {
			t.Fatal("expected closed stream after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream close")
	}
}

func TestHubCloseEndsAllStreams(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe(context.Background(), "kingdom-1", TableApplications)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	hub.Close()

	if _, open := <-sub.Events(); open {
		t.Fatal("expected closed stream after hub close")
	}
	if _, err := hub.Subscribe(context.Background(), "kingdom-1", TableApplications); err != ErrHubClosed {
		t.Fatalf("expected ErrHubClosed, got %v", err)
	}
	sub.Close()
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "kingdom-1", TableApplications)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// Overfill the buffer; Publish must never block.
	for i := 0; i < subscriptionBuffer*2; i++ {
		hub.Publish(Event{Table: TableApplications, Kind: KindUpdate, KingdomID: "kingdom-1", RowID: "burst"})
	}

	received := 0
	for {
		select {
		case <-sub.Events():
			received++
		default:
			if received != subscriptionBuffer {
				t.Fatalf("received %d events, want %d buffered", received, subscriptionBuffer)
			}
			return
		}
	}
}

func TestSubscribeValidatesInput(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	if _, err := hub.Subscribe(context.Background(), " ", TableApplications); err == nil {
		t.Fatal("expected error for empty kingdom id")
	}
	if _, err := hub.Subscribe(context.Background(), "kingdom-1"); err == nil {
		t.Fatal("expected error for missing tables")
	}
}
