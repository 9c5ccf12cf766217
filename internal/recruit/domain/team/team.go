// Package team models the editors and co-editors of a kingdom's recruiter
// dashboard.
package team

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
)

// CoEditorSeatCap is the maximum number of active co-editors per kingdom.
const CoEditorSeatCap = 3

// Role describes a team member's write access level.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RoleOwner is the kingdom's primary editor.
	RoleOwner
	// RoleCoEditor is a capped, approvable delegate editor.
	RoleCoEditor
)

// MemberStatus describes the lifecycle of a team membership.
type MemberStatus int

const (
	// MemberStatusUnspecified represents an invalid member status value.
	MemberStatusUnspecified MemberStatus = iota
	// MemberStatusPending indicates a co-editor request awaiting approval.
	MemberStatusPending
	// MemberStatusActive indicates an approved member.
	MemberStatusActive
)

var (
	// ErrEmptyKingdomID indicates a missing kingdom ID.
	ErrEmptyKingdomID = apperrors.New(apperrors.CodeTeamEmptyKingdomID, "kingdom id is required")
	// ErrEmptyUserID indicates a missing user ID.
	ErrEmptyUserID = apperrors.New(apperrors.CodeTeamEmptyUserID, "user id is required")
	// ErrInvalidRole indicates a missing or invalid role.
	ErrInvalidRole = apperrors.New(apperrors.CodeTeamInvalidRole, "team role is required")
	// ErrCoEditorCapReached indicates the kingdom has no free co-editor seats.
	ErrCoEditorCapReached = apperrors.New(apperrors.CodeTeamCoEditorCapReached, "co-editor seat cap reached")
	// ErrRequestNotPending indicates an approval for a non-pending request.
	ErrRequestNotPending = apperrors.New(apperrors.CodeTeamRequestNotPending, "co-editor request is not pending")
	// ErrOwnerRequired indicates an operation reserved for the kingdom owner.
	ErrOwnerRequired = apperrors.New(apperrors.CodeTeamOwnerRequired, "only the kingdom owner may do this")
	// ErrOwnerNotRemovable indicates an attempt to remove the owner seat.
	ErrOwnerNotRemovable = apperrors.New(apperrors.CodeTeamOwnerNotRemovable, "the kingdom owner cannot be removed")
)

// Member represents one editor or co-editor of a kingdom.
type Member struct {
	ID          string
	KingdomID   string
	UserID      string
	DisplayName string
	Role        Role
	Status      MemberStatus
	RequestedAt time.Time
	ApprovedAt  *time.Time
	UpdatedAt   time.Time
}

// Normalize trims identity fields and validates required metadata.
func Normalize(member Member) (Member, error) {
	member.KingdomID = strings.TrimSpace(member.KingdomID)
	if member.KingdomID == "" {
		return Member{}, ErrEmptyKingdomID
	}
	member.UserID = strings.TrimSpace(member.UserID)
	if member.UserID == "" {
		return Member{}, ErrEmptyUserID
	}
	if member.Role == RoleUnspecified {
		return Member{}, ErrInvalidRole
	}
	member.DisplayName = strings.TrimSpace(member.DisplayName)
	return member, nil
}

// ActiveCoEditors counts the approved co-editors in a team.
func ActiveCoEditors(members []Member) int {
	count := 0
	for _, member := range members {
		if member.Role == RoleCoEditor && member.Status == MemberStatusActive {
			count++
		}
	}
	return count
}

// Approve marks one pending co-editor request as active. The caller is
// responsible for verifying the approver owns the kingdom; the team slice is
// consulted only for the seat cap.
func Approve(members []Member, member Member, now func() time.Time) (Member, error) {
	if now == nil {
		now = time.Now
	}
	if member.Role != RoleCoEditor || member.Status != MemberStatusPending {
		return Member{}, ErrRequestNotPending
	}
	if ActiveCoEditors(members) >= CoEditorSeatCap {
		return Member{}, ErrCoEditorCapReached
	}

	approved := member
	approved.Status = MemberStatusActive
	approvedAt := now().UTC()
	approved.ApprovedAt = &approvedAt
	approved.UpdatedAt = approvedAt
	return approved, nil
}

// Remove validates that a member may be removed from the team. The
// owner seat is permanent; removing a co-editor frees a seat.
func Remove(member Member) error {
	if member.Role == RoleOwner {
		return ErrOwnerNotRemovable
	}
	return nil
}

// Owner returns the kingdom owner, if present in the team.
func Owner(members []Member) (Member, bool) {
	for _, member := range members {
		if member.Role == RoleOwner {
			return member, true
		}
	}
	return Member{}, false
}

// RoleLabel returns the stable label for a team role.
func RoleLabel(role Role) string {
	switch role {
	case RoleOwner:
		return "OWNER"
	case RoleCoEditor:
		return "CO_EDITOR"
	default:
		return "UNSPECIFIED"
	}
}

// RoleFromLabel converts a role label to a Role value.
func RoleFromLabel(label string) Role {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "OWNER":
		return RoleOwner
	case "CO_EDITOR":
		return RoleCoEditor
	default:
		return RoleUnspecified
	}
}

// MemberStatusLabel returns the stable label for a membership status.
func MemberStatusLabel(status MemberStatus) string {
	switch status {
	case MemberStatusPending:
		return "PENDING"
	case MemberStatusActive:
		return "ACTIVE"
	default:
		return "UNSPECIFIED"
	}
}

// MemberStatusFromLabel converts a membership status label to a value.
func MemberStatusFromLabel(label string) MemberStatus {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return MemberStatusPending
	case "ACTIVE":
		return MemberStatusActive
	default:
		return MemberStatusUnspecified
	}
}
