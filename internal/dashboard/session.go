package dashboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
	"github.com/louisbranch/kingsroad.gg/internal/platform/id"
	"github.com/louisbranch/kingsroad.gg/internal/platform/timeouts"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/transferee"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/notify"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage"
)

// defaultStaleWindow bounds how old a cached snapshot may be before a
// read triggers a background refetch.
const defaultStaleWindow = 30 * time.Second

// SessionConfig carries the collaborators for one recruiter session.
// Zero fields fall back to production defaults.
type SessionConfig struct {
	Localizer   notify.Localizer
	Logger      *zap.Logger
	StaleWindow time.Duration
	Clock       func() time.Time
	NewID       func() (string, error)
}

// Session is one recruiter's live dashboard: a cached snapshot with
// stale-while-revalidate reads, optimistic mutations, a bulk selection,
// and the team, fund, watchlist and preference operations surrounding
// the application list.
type Session struct {
	store       storage.Store
	cache       *Cache
	engine      *Engine
	logger      *zap.Logger
	clock       func() time.Time
	newID       func() (string, error)
	staleWindow time.Duration
	userID      string

	mu         sync.Mutex
	editor     storage.Editor
	selection  map[string]struct{}
	refreshing bool

	wg sync.WaitGroup
}

// OpenSession resolves the recruiter's editor seat and loads the first
// snapshot.
func OpenSession(ctx context.Context, store storage.Store, userID string, cfg SessionConfig) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeDashboardEmptyUserID, "user id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = id.NewID
	}
	if cfg.StaleWindow <= 0 {
		cfg.StaleWindow = defaultStaleWindow
	}

	editor, err := store.GetEditor(ctx, userID)
	if err != nil {
		return nil, err
	}

	cache := NewCache()
	engine := NewEngine(store, cache, cfg.Localizer, cfg.Logger)
	engine.clock = cfg.Clock

	session := &Session{
		store:       store,
		cache:       cache,
		engine:      engine,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		newID:       cfg.NewID,
		staleWindow: cfg.StaleWindow,
		userID:      userID,
		editor:      editor,
		selection:   make(map[string]struct{}),
	}
	if _, err := session.Refresh(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// UserID returns the acting recruiter's user id.
func (s *Session) UserID() string {
	return s.userID
}

// Editor returns the acting recruiter's editor seat.
func (s *Session) Editor() storage.Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor
}

// KingdomID returns the kingdom this session edits.
func (s *Session) KingdomID() string {
	return s.Editor().KingdomID
}

// Refresh refetches the whole dashboard from the gateway and replaces
// the cached snapshot. Push events and stale reads both land here;
// there are no partial merges.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.SnapshotRefetch)
	defer cancel()

	editor, err := s.store.GetEditor(ctx, s.userID)
	if err != nil {
		return Snapshot{}, err
	}
	apps, err := s.store.ListApplications(ctx, editor.KingdomID)
	if err != nil {
		return Snapshot{}, err
	}
	members, err := s.store.ListTeam(ctx, editor.KingdomID)
	if err != nil {
		return Snapshot{}, err
	}
	kingdomFund, err := s.store.GetFund(ctx, editor.KingdomID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Snapshot{}, err
		}
		kingdomFund = fund.Fund{KingdomID: editor.KingdomID, Tier: fund.TierStandard}
	}
	unread, err := s.store.CountUnreadMessages(ctx, editor.KingdomID, s.userID)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Editor:       editor,
		Applications: apps,
		Team:         members,
		Fund:         kingdomFund,
		Unread:       unread,
		FetchedAt:    s.clock().UTC(),
	}
	s.cache.Replace(s.userID, snapshot)

	s.mu.Lock()
	s.editor = editor
	s.mu.Unlock()

	return snapshot.Clone(), nil
}

// Read returns the cached snapshot. A stale snapshot is returned
// immediately and one background refetch is triggered; a missing
// snapshot is fetched synchronously.
func (s *Session) Read(ctx context.Context) (Snapshot, error) {
	snapshot, ok := s.cache.Read(s.userID)
	if !ok {
		return s.Refresh(ctx)
	}
	if s.cache.Stale(s.userID, s.staleWindow, s.clock()) {
		s.triggerBackgroundRefresh()
	}
	return snapshot, nil
}

func (s *Session) triggerBackgroundRefresh() {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.refreshing = false
			s.mu.Unlock()
		}()
		if _, err := s.Refresh(context.Background()); err != nil {
			s.logger.Warn("background snapshot refresh failed", zap.Error(err))
		}
	}()
}

// Close waits for background refreshes and queued notifications.
func (s *Session) Close() {
	s.wg.Wait()
	s.engine.Drain()
}

// ChangeStatus runs one optimistic status mutation.
func (s *Session) ChangeStatus(ctx context.Context, applicationID string, target application.Status) (application.Application, error) {
	return s.engine.ChangeStatus(ctx, s.userID, applicationID, target)
}

// Updating reports whether an application has a mutation in flight.
func (s *Session) Updating(applicationID string) bool {
	return s.engine.Updating(applicationID)
}

// Select adds an application to the bulk selection.
func (s *Session) Select(applicationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection[applicationID] = struct{}{}
}

// Deselect removes an application from the bulk selection.
func (s *Session) Deselect(applicationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selection, applicationID)
}

// ClearSelection empties the bulk selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = make(map[string]struct{})
}

// Selection returns the selected application ids in stable order.
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.selection))
	for applicationID := range s.selection {
		ids = append(ids, applicationID)
	}
	sort.Strings(ids)
	return ids
}

// ApplySelected runs the bulk action over the current selection. Once
// the bulk action has run, the selection is cleared whether or not
// every item succeeded.
func (s *Session) ApplySelected(ctx context.Context, target application.Status) (BulkResult, error) {
	result, err := s.engine.BulkChangeStatus(ctx, s.userID, s.Selection(), target)
	if err != nil {
		return BulkResult{}, err
	}
	s.ClearSelection()
	return result, nil
}

// ApproveCoEditor approves a pending co-editor request. Only the
// kingdom owner may approve, and the seat cap is enforced before the
// remote write.
func (s *Session) ApproveCoEditor(ctx context.Context, memberID string) (team.Member, error) {
	if s.Editor().Role != team.RoleOwner {
		return team.Member{}, team.ErrOwnerRequired
	}

	snapshot, err := s.Read(ctx)
	if err != nil {
		return team.Member{}, err
	}
	var pending team.Member
	found := false
	for _, member := range snapshot.Team {
		if member.ID == memberID {
			pending = member
			found = true
			break
		}
	}
	if !found {
		return team.Member{}, apperrors.WithMetadata(apperrors.CodeNotFound, "team member not found", map[string]string{"MemberID": memberID})
	}

	approved, err := team.Approve(snapshot.Team, pending, s.clock)
	if err != nil {
		return team.Member{}, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeouts.GatewayRequest)
	defer cancel()
	if err := s.store.UpdateTeamMember(writeCtx, approved); err != nil {
		return team.Member{}, err
	}

	s.cache.Patch(s.userID, func(snapshot *Snapshot) {
		for i := range snapshot.Team {
			if snapshot.Team[i].ID == approved.ID {
				snapshot.Team[i] = approved
				return
			}
		}
	})
	return approved, nil
}

// RemoveCoEditor removes a co-editor from the team, freeing a seat.
// Only the kingdom owner may remove, and the owner seat itself is
// permanent.
func (s *Session) RemoveCoEditor(ctx context.Context, memberID string) error {
	if s.Editor().Role != team.RoleOwner {
		return team.ErrOwnerRequired
	}

	snapshot, err := s.Read(ctx)
	if err != nil {
		return err
	}
	var target team.Member
	found := false
	for _, member := range snapshot.Team {
		if member.ID == memberID {
			target = member
			found = true
			break
		}
	}
	if !found {
		return apperrors.WithMetadata(apperrors.CodeNotFound, "team member not found", map[string]string{"MemberID": memberID})
	}

	if err := team.Remove(target); err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeouts.GatewayRequest)
	defer cancel()
	if err := s.store.RemoveTeamMember(writeCtx, memberID); err != nil {
		return err
	}

	s.cache.Patch(s.userID, func(snapshot *Snapshot) {
		for i := range snapshot.Team {
			if snapshot.Team[i].ID == memberID {
				snapshot.Team = append(snapshot.Team[:i], snapshot.Team[i+1:]...)
				return
			}
		}
	})
	return nil
}

// SendInvite consumes one outbound invite from the kingdom's seasonal
// budget. The budget is checked locally before any write; standard
// tier kingdoms have no invites at all.
func (s *Session) SendInvite(ctx context.Context) (fund.Fund, error) {
	snapshot, err := s.Read(ctx)
	if err != nil {
		return fund.Fund{}, err
	}

	consumed, err := fund.ConsumeInvite(snapshot.Fund, s.clock)
	if err != nil {
		return fund.Fund{}, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeouts.GatewayRequest)
	defer cancel()
	if err := s.store.UpdateFund(writeCtx, consumed); err != nil {
		return fund.Fund{}, err
	}

	s.cache.Patch(s.userID, func(snapshot *Snapshot) {
		snapshot.Fund = consumed
	})
	return consumed, nil
}

// Transferees lists browsable candidate profiles.
func (s *Session) Transferees(ctx context.Context) ([]transferee.Transferee, error) {
	return s.store.ListTransferees(ctx)
}

// Watchlist lists the recruiter's watchlist entries.
func (s *Session) Watchlist(ctx context.Context) ([]transferee.WatchlistEntry, error) {
	return s.store.ListWatchlist(ctx, s.userID)
}

// AddToWatchlist puts a transferee on the recruiter's watchlist.
func (s *Session) AddToWatchlist(ctx context.Context, transfereeID, note string) (transferee.WatchlistEntry, error) {
	entry, err := transferee.NewWatchlistEntry(s.userID, transfereeID, note, s.clock, s.newID)
	if err != nil {
		return transferee.WatchlistEntry{}, err
	}
	if err := s.store.AddWatchlistEntry(ctx, entry); err != nil {
		return transferee.WatchlistEntry{}, err
	}
	return entry, nil
}

// RemoveFromWatchlist drops a transferee from the recruiter's
// watchlist.
func (s *Session) RemoveFromWatchlist(ctx context.Context, transfereeID string) error {
	return s.store.RemoveWatchlistEntry(ctx, s.userID, transfereeID)
}

// MarkApplicationRead advances the recruiter's read marker for an
// application thread and zeroes its cached unread count.
func (s *Session) MarkApplicationRead(ctx context.Context, applicationID string) error {
	if err := s.store.UpsertReadMarker(ctx, applicationID, s.userID, s.clock()); err != nil {
		return err
	}
	s.cache.Patch(s.userID, func(snapshot *Snapshot) {
		delete(snapshot.Unread, applicationID)
	})
	return nil
}

// OnboardingComplete reads the recruiter's onboarding flag.
func (s *Session) OnboardingComplete(ctx context.Context) (bool, error) {
	return s.store.GetOnboardingComplete(ctx, s.userID)
}

// SetOnboardingComplete persists the recruiter's onboarding flag.
func (s *Session) SetOnboardingComplete(ctx context.Context, done bool) error {
	if err := s.store.SetOnboardingComplete(ctx, s.userID, done); err != nil {
		return err
	}
	s.mu.Lock()
	s.editor.OnboardingDone = done
	s.mu.Unlock()
	s.cache.Patch(s.userID, func(snapshot *Snapshot) {
		snapshot.Editor.OnboardingDone = done
	})
	return nil
}
