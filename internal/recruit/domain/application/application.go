// Package application models kingdom transfer applications and their
// recruiter-facing status lifecycle.
package application

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
)

// Status describes the lifecycle status of an application.
type Status int

const (
	// StatusUnspecified represents an invalid application status.
	StatusUnspecified Status = iota
	// StatusPending indicates a new application awaiting recruiter review.
	StatusPending
	// StatusViewed indicates a recruiter has opened the application.
	StatusViewed
	// StatusInterested indicates the recruiter shortlisted the applicant.
	StatusInterested
	// StatusAccepted indicates the recruiter approved the transfer.
	StatusAccepted
	// StatusDeclined indicates the recruiter declined the transfer.
	StatusDeclined
	// StatusWithdrawn indicates the applicant withdrew the application.
	StatusWithdrawn
	// StatusExpired indicates the application passed its deadline unanswered.
	StatusExpired
)

var (
	// ErrEmptyID indicates a missing application ID.
	ErrEmptyID = apperrors.New(apperrors.CodeApplicationEmptyID, "application id is required")
	// ErrEmptyKingdomID indicates a missing kingdom ID.
	ErrEmptyKingdomID = apperrors.New(apperrors.CodeApplicationEmptyKingdomID, "kingdom id is required")
	// ErrInvalidStatus indicates an unknown application status value.
	ErrInvalidStatus = apperrors.New(apperrors.CodeApplicationInvalidStatus, "application status is invalid")
	// ErrInvalidStatusTransition indicates a disallowed status change.
	ErrInvalidStatusTransition = apperrors.New(apperrors.CodeApplicationInvalidStatusTransition, "application status transition is not allowed")
)

// ProfileSnapshot is the applicant profile joined onto an application at
// fetch time. It is read-only from the recruiter's side.
type ProfileSnapshot struct {
	Kingdom   string
	Power     int64
	TCLevel   int
	Contact   string
	Anonymous bool
}

// Application represents one transfer request from a candidate to a kingdom.
type Application struct {
	ID              string
	KingdomID       string
	ApplicantUserID string
	Status          Status
	Profile         ProfileSnapshot
	ApplicantNote   string
	RecruiterNote   string
	AppliedAt       time.Time
	ViewedAt        *time.Time
	RespondedAt     *time.Time
	ExpiresAt       time.Time
	UpdatedAt       time.Time
}

// Action is one legal status transition with its presentation metadata.
type Action struct {
	Target Status
	Label  string
}

// transitions is the status transition table. Terminal statuses have no
// entry. Withdrawal and expiry are driven externally and never appear as
// targets here; the accepted -> declined edge is the explicit cancel
// approval reversal.
var transitions = map[Status][]Action{
	StatusPending: {
		{Target: StatusViewed, Label: "Mark viewed"},
		{Target: StatusInterested, Label: "Shortlist"},
		{Target: StatusDeclined, Label: "Decline"},
	},
	StatusViewed: {
		{Target: StatusInterested, Label: "Shortlist"},
		{Target: StatusAccepted, Label: "Approve"},
		{Target: StatusDeclined, Label: "Decline"},
	},
	StatusInterested: {
		{Target: StatusAccepted, Label: "Approve"},
		{Target: StatusDeclined, Label: "Decline"},
	},
	StatusAccepted: {
		{Target: StatusDeclined, Label: "Cancel approval"},
	},
}

// Actions returns the legal transitions from the given status. The returned
// slice is a copy; callers may not mutate the table.
func Actions(from Status) []Action {
	actions := transitions[from]
	if len(actions) == 0 {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// IsTransitionAllowed reports whether a status transition is permitted.
func IsTransitionAllowed(from, to Status) bool {
	for _, action := range transitions[from] {
		if action.Target == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status exposes no recruiter actions.
func IsTerminal(status Status) bool {
	switch status {
	case StatusDeclined, StatusWithdrawn, StatusExpired:
		return true
	default:
		return false
	}
}

// TimestampField identifies which remote timestamp column a transition sets.
type TimestampField string

const (
	// TimestampFieldNone indicates a transition sets no timestamp.
	TimestampFieldNone TimestampField = ""
	// TimestampFieldViewedAt indicates a transition sets viewed_at.
	TimestampFieldViewedAt TimestampField = "viewed_at"
	// TimestampFieldRespondedAt indicates a transition sets responded_at.
	TimestampFieldRespondedAt TimestampField = "responded_at"
)

// TransitionTimestampField returns the timestamp column the remote write
// must set when entering the target status.
func TransitionTimestampField(target Status) TimestampField {
	switch target {
	case StatusViewed:
		return TimestampFieldViewedAt
	case StatusInterested, StatusAccepted, StatusDeclined:
		return TimestampFieldRespondedAt
	default:
		return TimestampFieldNone
	}
}

// ApplyTransition applies a status transition and updates lifecycle
// timestamps. viewed_at is set once, on the first entry into viewed;
// responded_at is set once, on the first entry into a decision status.
// Entering accepted forces the profile anonymity flag off.
func ApplyTransition(app Application, target Status, now func() time.Time) (Application, error) {
	if now == nil {
		now = time.Now
	}
	if !IsTransitionAllowed(app.Status, target) {
		fromStatus := StatusLabel(app.Status)
		toStatus := StatusLabel(target)
		return Application{}, apperrors.WithMetadata(
			apperrors.CodeApplicationInvalidStatusTransition,
			fmt.Sprintf("application status transition not allowed: %s -> %s", fromStatus, toStatus),
			map[string]string{"FromStatus": fromStatus, "ToStatus": toStatus},
		)
	}

	updated := app
	updated.Status = target
	updatedAt := now().UTC()
	updated.UpdatedAt = updatedAt
	switch TransitionTimestampField(target) {
	case TimestampFieldViewedAt:
		if updated.ViewedAt == nil {
			updated.ViewedAt = &updatedAt
		}
	case TimestampFieldRespondedAt:
		if updated.RespondedAt == nil {
			updated.RespondedAt = &updatedAt
		}
	}
	if target == StatusAccepted {
		updated.Profile.Anonymous = false
	}
	return updated, nil
}

// StatusLabel returns the stable label for an application status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "PENDING"
	case StatusViewed:
		return "VIEWED"
	case StatusInterested:
		return "INTERESTED"
	case StatusAccepted:
		return "ACCEPTED"
	case StatusDeclined:
		return "DECLINED"
	case StatusWithdrawn:
		return "WITHDRAWN"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel converts a status label to a Status value. It trims
// whitespace and matches case-insensitively.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return StatusPending
	case "VIEWED":
		return StatusViewed
	case "INTERESTED":
		return StatusInterested
	case "ACCEPTED":
		return StatusAccepted
	case "DECLINED":
		return StatusDeclined
	case "WITHDRAWN":
		return StatusWithdrawn
	case "EXPIRED":
		return StatusExpired
	default:
		return StatusUnspecified
	}
}

// ContactVisible reports whether the applicant's contact fields may be
// shown to the recruiter.
func (a Application) ContactVisible() bool {
	return !a.Profile.Anonymous
}

// Normalize trims identity fields and validates required metadata.
func Normalize(app Application) (Application, error) {
	app.ID = strings.TrimSpace(app.ID)
	if app.ID == "" {
		return Application{}, ErrEmptyID
	}
	app.KingdomID = strings.TrimSpace(app.KingdomID)
	if app.KingdomID == "" {
		return Application{}, ErrEmptyKingdomID
	}
	if app.Status == StatusUnspecified {
		return Application{}, ErrInvalidStatus
	}
	return app, nil
}
