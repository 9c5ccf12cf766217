package transferee

import (
	"errors"
	"testing"
	"time"
)

func TestRedactHidesContactWhileAnonymous(t *testing.T) {
	t.Parallel()

	anon := Transferee{ID: "t-1", Contact: "wire:@knight", Anonymous: true}
	if got := Redact(anon); got.Contact != "" {
		t.Fatalf("expected redacted contact, got %q", got.Contact)
	}

	public := Transferee{ID: "t-2", Contact: "wire:@squire"}
	if got := Redact(public); got.Contact != "wire:@squire" {
		t.Fatalf("expected contact preserved, got %q", got.Contact)
	}
}

func TestNewWatchlistEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	idGenerator := func() (string, error) { return "watch-1", nil }

	entry, err := NewWatchlistEntry(" user-1 ", " t-1 ", " strong roster fit ", func() time.Time { return now }, idGenerator)
	if err != nil {
		t.Fatalf("new watchlist entry: %v", err)
	}
	if entry.ID != "watch-1" || entry.UserID != "user-1" || entry.TransfereeID != "t-1" {
		t.Fatalf("unexpected entry identity: %+v", entry)
	}
	if entry.Note != "strong roster fit" {
		t.Fatalf("unexpected note: %q", entry.Note)
	}
	if !entry.AddedAt.Equal(now) {
		t.Fatalf("added_at = %v, want %v", entry.AddedAt, now)
	}
}

func TestNewWatchlistEntryValidates(t *testing.T) {
	t.Parallel()

	idGenerator := func() (string, error) { return "watch-1", nil }
	if _, err := NewWatchlistEntry("", "t-1", "", nil, idGenerator); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
	if _, err := NewWatchlistEntry("user-1", " ", "", nil, idGenerator); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}
