package team

import (
	"errors"
	"testing"
	"time"
)

func member(userID string, role Role, status MemberStatus) Member {
	return Member{
		ID:        "member-" + userID,
		KingdomID: "kingdom-1",
		UserID:    userID,
		Role:      role,
		Status:    status,
	}
}

func TestApproveActivatesPendingRequest(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	members := []Member{
		member("owner", RoleOwner, MemberStatusActive),
		member("co-1", RoleCoEditor, MemberStatusActive),
	}
	pending := member("co-2", RoleCoEditor, MemberStatusPending)

	approved, err := Approve(members, pending, func() time.Time { return now })
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != MemberStatusActive {
		t.Fatalf("status = %s, want ACTIVE", MemberStatusLabel(approved.Status))
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(now) {
		t.Fatalf("approved_at = %v, want %v", approved.ApprovedAt, now)
	}
}

func TestApproveRejectsAtSeatCap(t *testing.T) {
	t.Parallel()

	members := []Member{
		member("owner", RoleOwner, MemberStatusActive),
		member("co-1", RoleCoEditor, MemberStatusActive),
		member("co-2", RoleCoEditor, MemberStatusActive),
		member("co-3", RoleCoEditor, MemberStatusActive),
	}
	pending := member("co-4", RoleCoEditor, MemberStatusPending)

	if _, err := Approve(members, pending, nil); !errors.Is(err, ErrCoEditorCapReached) {
		t.Fatalf("expected ErrCoEditorCapReached, got %v", err)
	}
}

func TestApproveRejectsNonPending(t *testing.T) {
	t.Parallel()

	if _, err := Approve(nil, member("co-1", RoleCoEditor, MemberStatusActive), nil); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending for active member, got %v", err)
	}
	if _, err := Approve(nil, member("owner", RoleOwner, MemberStatusPending), nil); !errors.Is(err, ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending for owner role, got %v", err)
	}
}

func TestRemoveProtectsOwnerSeat(t *testing.T) {
	t.Parallel()

	if err := Remove(member("owner", RoleOwner, MemberStatusActive)); !errors.Is(err, ErrOwnerNotRemovable) {
		t.Fatalf("expected ErrOwnerNotRemovable, got %v", err)
	}
	if err := Remove(member("co-1", RoleCoEditor, MemberStatusActive)); err != nil {
		t.Fatalf("expected co-editor removal to pass, got %v", err)
	}
}

func TestActiveCoEditorsIgnoresPendingAndOwner(t *testing.T) {
	t.Parallel()

	members := []Member{
		member("owner", RoleOwner, MemberStatusActive),
		member("co-1", RoleCoEditor, MemberStatusActive),
		member("co-2", RoleCoEditor, MemberStatusPending),
	}
	if got := ActiveCoEditors(members); got != 1 {
		t.Fatalf("ActiveCoEditors = %d, want 1", got)
	}
}

func TestOwnerLookup(t *testing.T) {
	t.Parallel()

	members := []Member{
		member("co-1", RoleCoEditor, MemberStatusActive),
		member("owner", RoleOwner, MemberStatusActive),
	}
	owner, ok := Owner(members)
	if !ok || owner.UserID != "owner" {
		t.Fatalf("Owner = %+v, ok=%v", owner, ok)
	}
	if _, ok := Owner(nil); ok {
		t.Fatal("expected no owner in empty team")
	}
}

func TestNormalizeValidates(t *testing.T) {
	t.Parallel()

	if _, err := Normalize(Member{UserID: "u", Role: RoleOwner}); !errors.Is(err, ErrEmptyKingdomID) {
		t.Fatalf("expected ErrEmptyKingdomID, got %v", err)
	}
	if _, err := Normalize(Member{KingdomID: "k", Role: RoleOwner}); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
	if _, err := Normalize(Member{KingdomID: "k", UserID: "u"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRoleAndStatusLabels(t *testing.T) {
	t.Parallel()

	if RoleFromLabel(RoleLabel(RoleCoEditor)) != RoleCoEditor {
		t.Fatal("role label round trip failed")
	}
	if MemberStatusFromLabel(MemberStatusLabel(MemberStatusPending)) != MemberStatusPending {
		t.Fatal("member status label round trip failed")
	}
	if RoleFromLabel("bogus") != RoleUnspecified {
		t.Fatal("expected UNSPECIFIED role for unknown label")
	}
}
