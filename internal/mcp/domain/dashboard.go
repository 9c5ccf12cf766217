// Package domain defines the MCP tool schemas and handlers for the
// recruiter dashboard.
package domain

import (
	"context"
	"time"

	"github.com/louisbranch/kingsroad.gg/internal/dashboard"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/transferee"
)

// handlerTimeout bounds each tool invocation.
const handlerTimeout = 5 * time.Second

// Dashboard is the recruiter session surface the MCP tools call into.
// *dashboard.Session satisfies it.
type Dashboard interface {
	Read(ctx context.Context) (dashboard.Snapshot, error)
	Refresh(ctx context.Context) (dashboard.Snapshot, error)
	ChangeStatus(ctx context.Context, applicationID string, target application.Status) (application.Application, error)
	Select(applicationID string)
	ApplySelected(ctx context.Context, target application.Status) (dashboard.BulkResult, error)
	ApproveCoEditor(ctx context.Context, memberID string) (team.Member, error)
	RemoveCoEditor(ctx context.Context, memberID string) error
	SendInvite(ctx context.Context) (fund.Fund, error)
	Transferees(ctx context.Context) ([]transferee.Transferee, error)
	Watchlist(ctx context.Context) ([]transferee.WatchlistEntry, error)
	AddToWatchlist(ctx context.Context, transfereeID, note string) (transferee.WatchlistEntry, error)
	RemoveFromWatchlist(ctx context.Context, transfereeID string) error
	MarkApplicationRead(ctx context.Context, applicationID string) error
	OnboardingComplete(ctx context.Context) (bool, error)
	SetOnboardingComplete(ctx context.Context, done bool) error
}

// formatTime returns an RFC3339 timestamp or empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// formatTimePointer returns an RFC3339 timestamp or empty string.
func formatTimePointer(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
