// Package storage defines the remote data gateway contract for the
// recruiter dashboard. Implementations persist recruiter-visible state
// and emit change-feed events for other sessions of the same kingdom.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/changefeed"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/transferee"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/notify"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "not found")
	// ErrConflict indicates a uniqueness violation on insert.
	ErrConflict = apperrors.New(apperrors.CodeConflict, "conflict")
)

// Editor is the recruiter identity the dashboard acts as: one user tied
// to one kingdom with an editing role.
type Editor struct {
	UserID         string
	KingdomID      string
	KingdomName    string
	DisplayName    string
	Role           team.Role
	OnboardingDone bool
}

// Message is one chat message attached to an application thread. The
// dashboard only counts these against read markers; thread rendering
// lives elsewhere.
type Message struct {
	ID            string
	ApplicationID string
	SenderUserID  string
	Body          string
	SentAt        time.Time
}

// UpdateStatusInput carries one application status write. Field names
// which timestamp column the transition stamps; a zero Field stamps
// nothing beyond the status itself.
type UpdateStatusInput struct {
	ApplicationID   string
	KingdomID       string
	Status          application.Status
	ResponderUserID string
	Field           application.TimestampField
	At              time.Time
}

// Store is the remote data gateway. All methods honor ctx cancellation;
// reads return current committed state and writes are durable once the
// call returns. Writes publish insert/update events on the change feed
// so concurrent sessions can reconcile.
type Store interface {
	// GetEditor resolves the acting recruiter. ErrNotFound when the
	// user has no editor seat.
	GetEditor(ctx context.Context, userID string) (Editor, error)

	// ListApplications returns every application for the kingdom,
	// newest applied_at first.
	ListApplications(ctx context.Context, kingdomID string) ([]application.Application, error)

	// GetApplication fetches one application by id.
	GetApplication(ctx context.Context, applicationID string) (application.Application, error)

	// UpdateApplicationStatus persists one status transition. It fails
	// with ErrNotFound for an unknown application id. An accepted
	// status also clears the stored anonymity flag.
	UpdateApplicationStatus(ctx context.Context, input UpdateStatusInput) error

	// ListTeam returns the kingdom's editors and pending co-editor
	// requests.
	ListTeam(ctx context.Context, kingdomID string) ([]team.Member, error)

	// UpdateTeamMember replaces a member row, keyed by member id.
	UpdateTeamMember(ctx context.Context, member team.Member) error

	// RemoveTeamMember deletes a member row by id. ErrNotFound for an
	// unknown member id.
	RemoveTeamMember(ctx context.Context, memberID string) error

	// GetFund returns the kingdom's fund record. ErrNotFound when the
	// kingdom has never funded.
	GetFund(ctx context.Context, kingdomID string) (fund.Fund, error)

	// UpdateFund replaces the fund row, keyed by kingdom id.
	UpdateFund(ctx context.Context, f fund.Fund) error

	// ListTransferees returns browsable candidate profiles, already
	// redacted where the anonymity flag is set.
	ListTransferees(ctx context.Context) ([]transferee.Transferee, error)

	// AddWatchlistEntry stores a watchlist entry. ErrConflict when the
	// recruiter already watches the transferee.
	AddWatchlistEntry(ctx context.Context, entry transferee.WatchlistEntry) error

	// RemoveWatchlistEntry deletes by watcher and transferee id.
	RemoveWatchlistEntry(ctx context.Context, userID, transfereeID string) error

	// ListWatchlist returns the recruiter's watchlist, newest first.
	ListWatchlist(ctx context.Context, userID string) ([]transferee.WatchlistEntry, error)

	// InsertNotification stores an applicant notification. Repeated
	// inserts with the same dedupe key are dropped silently.
	InsertNotification(ctx context.Context, intent notify.Intent) error

	// UpsertReadMarker records that the recruiter has read an
	// application's thread up to readAt.
	UpsertReadMarker(ctx context.Context, applicationID, userID string, readAt time.Time) error

	// CountUnreadMessages returns, per application id, how many
	// messages in the kingdom's threads arrived after the recruiter's
	// read marker. Applications with zero unread are omitted.
	CountUnreadMessages(ctx context.Context, kingdomID, userID string) (map[string]int, error)

	// GetOnboardingComplete reads the per-user onboarding flag. Users
	// with no stored preference report false.
	GetOnboardingComplete(ctx context.Context, userID string) (bool, error)

	// SetOnboardingComplete persists the per-user onboarding flag.
	SetOnboardingComplete(ctx context.Context, userID string, done bool) error

	// Subscribe opens a change-feed stream for the kingdom's tables.
	// The subscription ends when ctx is cancelled, Close is called on
	// it, or the store shuts down.
	Subscribe(ctx context.Context, kingdomID string, tables ...changefeed.Table) (*changefeed.Subscription, error)

	// Close releases the store and ends all subscriptions.
	Close() error
}

// Seeder is the write surface used to load fixture data. The live
// dashboard never calls these; cmd/seed and tests do.
type Seeder interface {
	PutEditor(ctx context.Context, editor Editor) error
	PutApplication(ctx context.Context, app application.Application) error
	PutTeamMember(ctx context.Context, member team.Member) error
	PutFund(ctx context.Context, f fund.Fund) error
	PutTransferee(ctx context.Context, t transferee.Transferee) error
	PutMessage(ctx context.Context, msg Message) error
}
