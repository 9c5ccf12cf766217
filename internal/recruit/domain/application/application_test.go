package application

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to viewed", StatusPending, StatusViewed, true},
		{"pending to interested", StatusPending, StatusInterested, true},
		{"pending to declined", StatusPending, StatusDeclined, true},
		{"pending to accepted", StatusPending, StatusAccepted, false},
		{"viewed to interested", StatusViewed, StatusInterested, true},
		{"viewed to accepted", StatusViewed, StatusAccepted, true},
		{"viewed to declined", StatusViewed, StatusDeclined, true},
		{"viewed to pending", StatusViewed, StatusPending, false},
		{"interested to accepted", StatusInterested, StatusAccepted, true},
		{"interested to declined", StatusInterested, StatusDeclined, true},
		{"interested to viewed", StatusInterested, StatusViewed, false},
		{"accepted to declined cancels approval", StatusAccepted, StatusDeclined, true},
		{"accepted to interested", StatusAccepted, StatusInterested, false},
		{"declined is terminal", StatusDeclined, StatusViewed, false},
		{"withdrawn is terminal", StatusWithdrawn, StatusViewed, false},
		{"expired is terminal", StatusExpired, StatusViewed, false},
		{"no transition into withdrawn", StatusPending, StatusWithdrawn, false},
		{"no transition into expired", StatusViewed, StatusExpired, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransitionAllowed(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("IsTransitionAllowed(%s, %s) = %v, want %v",
					StatusLabel(tc.from), StatusLabel(tc.to), got, tc.allowed)
			}
		})
	}
}

func TestActionsTerminalStatusesExposeNone(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusDeclined, StatusWithdrawn, StatusExpired} {
		if actions := Actions(status); len(actions) != 0 {
			t.Fatalf("expected no actions for %s, got %d", StatusLabel(status), len(actions))
		}
	}
}

func TestActionsReturnsCopy(t *testing.T) {
	t.Parallel()

	first := Actions(StatusPending)
	first[0].Label = "mutated"
	second := Actions(StatusPending)
	if second[0].Label == "mutated" {
		t.Fatal("Actions must not expose the shared transition table")
	}
}

func TestApplyTransitionSetsViewedAtOnce(t *testing.T) {
	t.Parallel()

	appliedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	viewedAt := appliedAt.Add(2 * time.Hour)
	app := Application{
		ID:        "app-1",
		KingdomID: "kingdom-1",
		Status:    StatusPending,
		AppliedAt: appliedAt,
	}

	viewed, err := ApplyTransition(app, StatusViewed, fixedClock(viewedAt))
	if err != nil {
		t.Fatalf("apply viewed: %v", err)
	}
	if viewed.Status != StatusViewed {
		t.Fatalf("status = %s, want VIEWED", StatusLabel(viewed.Status))
	}
	if viewed.ViewedAt == nil || !viewed.ViewedAt.Equal(viewedAt) {
		t.Fatalf("viewed_at = %v, want %v", viewed.ViewedAt, viewedAt)
	}
	if viewed.ViewedAt.Before(viewed.AppliedAt) {
		t.Fatal("viewed_at must not precede applied_at")
	}
	if viewed.RespondedAt != nil {
		t.Fatal("viewed transition must not set responded_at")
	}

	// A later decision must not move viewed_at.
	shortlisted, err := ApplyTransition(viewed, StatusInterested, fixedClock(viewedAt.Add(time.Hour)))
	if err != nil {
		t.Fatalf("apply interested: %v", err)
	}
	if !shortlisted.ViewedAt.Equal(viewedAt) {
		t.Fatalf("viewed_at moved to %v", shortlisted.ViewedAt)
	}
	if shortlisted.RespondedAt == nil {
		t.Fatal("decision transition must set responded_at")
	}
}

func TestApplyTransitionSetsRespondedAtForDecisions(t *testing.T) {
	t.Parallel()

	respondedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for _, target := range []Status{StatusInterested, StatusDeclined} {
		app := Application{ID: "app-1", KingdomID: "kingdom-1", Status: StatusPending}
		updated, err := ApplyTransition(app, target, fixedClock(respondedAt))
		if err != nil {
			t.Fatalf("apply %s: %v", StatusLabel(target), err)
		}
		if updated.RespondedAt == nil || !updated.RespondedAt.Equal(respondedAt) {
			t.Fatalf("responded_at = %v, want %v", updated.RespondedAt, respondedAt)
		}
	}
}

func TestApplyTransitionAcceptedDisablesAnonymity(t *testing.T) {
	t.Parallel()

	app := Application{
		ID:        "app-1",
		KingdomID: "kingdom-1",
		Status:    StatusViewed,
		Profile:   ProfileSnapshot{Kingdom: "Northreach", Anonymous: true},
	}
	if app.ContactVisible() {
		t.Fatal("contact must be hidden while anonymous")
	}

	accepted, err := ApplyTransition(app, StatusAccepted, nil)
	if err != nil {
		t.Fatalf("apply accepted: %v", err)
	}
	if accepted.Profile.Anonymous {
		t.Fatal("accepted must force the anonymity flag off")
	}
	if !accepted.ContactVisible() {
		t.Fatal("contact must be visible after acceptance")
	}
}

func TestApplyTransitionCancelApprovalKeepsRespondedAt(t *testing.T) {
	t.Parallel()

	respondedAt := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	app := Application{ID: "app-1", KingdomID: "kingdom-1", Status: StatusViewed}
	accepted, err := ApplyTransition(app, StatusAccepted, fixedClock(respondedAt))
	if err != nil {
		t.Fatalf("apply accepted: %v", err)
	}

	declined, err := ApplyTransition(accepted, StatusDeclined, fixedClock(respondedAt.Add(time.Hour)))
	if err != nil {
		t.Fatalf("cancel approval: %v", err)
	}
	if declined.Status != StatusDeclined {
		t.Fatalf("status = %s, want DECLINED", StatusLabel(declined.Status))
	}
	if !declined.RespondedAt.Equal(respondedAt) {
		t.Fatalf("responded_at moved to %v", declined.RespondedAt)
	}
}

func TestApplyTransitionRejectsDisallowedEdge(t *testing.T) {
	t.Parallel()

	app := Application{ID: "app-1", KingdomID: "kingdom-1", Status: StatusDeclined}
	_, err := ApplyTransition(app, StatusAccepted, nil)
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
	var coded *apperrors.Error
	if !errors.As(err, &coded) {
		t.Fatalf("expected coded error, got %T", err)
	}
	if coded.Metadata["FromStatus"] != "DECLINED" || coded.Metadata["ToStatus"] != "ACCEPTED" {
		t.Fatalf("unexpected metadata: %v", coded.Metadata)
	}
}

func TestStatusLabelRoundTrip(t *testing.T) {
	t.Parallel()

	statuses := []Status{
		StatusPending, StatusViewed, StatusInterested, StatusAccepted,
		StatusDeclined, StatusWithdrawn, StatusExpired,
	}
	for _, status := range statuses {
		if got := StatusFromLabel(StatusLabel(status)); got != status {
			t.Fatalf("round trip for %s returned %s", StatusLabel(status), StatusLabel(got))
		}
	}
	if got := StatusFromLabel("  viewed "); got != StatusViewed {
		t.Fatalf("expected lenient parse, got %s", StatusLabel(got))
	}
	if got := StatusFromLabel("bogus"); got != StatusUnspecified {
		t.Fatalf("expected UNSPECIFIED for unknown label, got %s", StatusLabel(got))
	}
}

func TestNormalizeValidatesIdentity(t *testing.T) {
	t.Parallel()

	if _, err := Normalize(Application{KingdomID: "k", Status: StatusPending}); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
	if _, err := Normalize(Application{ID: "a", Status: StatusPending}); !errors.Is(err, ErrEmptyKingdomID) {
		t.Fatalf("expected ErrEmptyKingdomID, got %v", err)
	}
	if _, err := Normalize(Application{ID: "a", KingdomID: "k"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	normalized, err := Normalize(Application{ID: " a ", KingdomID: " k ", Status: StatusPending})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.ID != "a" || normalized.KingdomID != "k" {
		t.Fatalf("expected trimmed identity, got %+v", normalized)
	}
}
