// Package sqlite provides the SQLite-backed remote data gateway. Writes
// publish change-feed events so concurrent dashboard sessions of the
// same kingdom reconcile against committed state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/louisbranch/kingsroad.gg/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/changefeed"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/transferee"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/notify"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for recruiter dashboard state.
type Store struct {
	sqlDB  *sql.DB
	hub    *changefeed.Hub
	tracer trace.Tracer
	clock  func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a recruit SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{
		sqlDB:  sqlDB,
		hub:    changefeed.NewHub(),
		tracer: otel.Tracer("kingsroad.gg/recruit/storage/sqlite"),
		clock:  time.Now,
	}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close ends all change-feed subscriptions and closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func (s *Store) ready() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) publish(table changefeed.Table, kind changefeed.Kind, kingdomID, rowID, actorUserID string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(changefeed.Event{
		Table:       table,
		Kind:        kind,
		KingdomID:   kingdomID,
		RowID:       rowID,
		ActorUserID: actorUserID,
		OccurredAt:  s.clock().UTC(),
	})
}

// Subscribe opens a change-feed stream for the kingdom's tables.
func (s *Store) Subscribe(ctx context.Context, kingdomID string, tables ...changefeed.Table) (*changefeed.Subscription, error) {
	if s == nil || s.hub == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	return s.hub.Subscribe(ctx, kingdomID, tables...)
}

// GetEditor resolves the acting recruiter, joined with the onboarding
// preference flag.
func (s *Store) GetEditor(ctx context.Context, userID string) (storage.Editor, error) {
	if err := ctx.Err(); err != nil {
		return storage.Editor{}, err
	}
	if err := s.ready(); err != nil {
		return storage.Editor{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.Editor{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT e.user_id, e.kingdom_id, e.kingdom_name, e.display_name, e.role,
       COALESCE(p.onboarding_done, 0)
FROM editors e
LEFT JOIN preferences p ON p.user_id = e.user_id
WHERE e.user_id = ?
`, userID)

	var editor storage.Editor
	var role string
	var onboarding int
	if err := row.Scan(&editor.UserID, &editor.KingdomID, &editor.KingdomName, &editor.DisplayName, &role, &onboarding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Editor{}, storage.ErrNotFound
		}
		return storage.Editor{}, fmt.Errorf("get editor: %w", err)
	}
	editor.Role = team.RoleFromLabel(role)
	editor.OnboardingDone = onboarding != 0
	return editor, nil
}

// PutEditor upserts one recruiter editor row.
func (s *Store) PutEditor(ctx context.Context, editor storage.Editor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	editor.UserID = strings.TrimSpace(editor.UserID)
	editor.KingdomID = strings.TrimSpace(editor.KingdomID)
	if editor.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if editor.KingdomID == "" {
		return fmt.Errorf("kingdom id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO editors (user_id, kingdom_id, kingdom_name, display_name, role)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	kingdom_id = excluded.kingdom_id,
	kingdom_name = excluded.kingdom_name,
	display_name = excluded.display_name,
	role = excluded.role
`, editor.UserID, editor.KingdomID, editor.KingdomName, editor.DisplayName, team.RoleLabel(editor.Role))
	if err != nil {
		return fmt.Errorf("put editor: %w", err)
	}
	return nil
}

const applicationColumns = `id, kingdom_id, applicant_user_id, status,
profile_kingdom, profile_power, profile_tc_level, profile_contact, profile_anonymous,
applicant_note, recruiter_note, applied_at, viewed_at, responded_at, expires_at, updated_at`

// ListApplications returns every application for the kingdom, newest
// applied_at first.
func (s *Store) ListApplications(ctx context.Context, kingdomID string) ([]application.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	kingdomID = strings.TrimSpace(kingdomID)
	if kingdomID == "" {
		return nil, fmt.Errorf("kingdom id is required")
	}

	ctx, span := s.tracer.Start(ctx, "sqlite.ListApplications")
	defer span.End()

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+applicationColumns+`
FROM applications
WHERE kingdom_id = ?
ORDER BY applied_at DESC, id DESC
`, kingdomID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []application.Application
	for rows.Next() {
		app, scanErr := scanApplication(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan application row: %w", scanErr)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application rows: %w", err)
	}
	return apps, nil
}

// GetApplication fetches one application by id.
func (s *Store) GetApplication(ctx context.Context, applicationID string) (application.Application, error) {
	if err := ctx.Err(); err != nil {
		return application.Application{}, err
	}
	if err := s.ready(); err != nil {
		return application.Application{}, err
	}
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return application.Application{}, fmt.Errorf("application id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+applicationColumns+`
FROM applications
WHERE id = ?
`, applicationID)
	app, err := scanApplication(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Application{}, storage.ErrNotFound
		}
		return application.Application{}, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// PutApplication upserts one application row and publishes an insert
// event for the kingdom.
func (s *Store) PutApplication(ctx context.Context, app application.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	app, err := application.Normalize(app)
	if err != nil {
		return err
	}

	var viewedAt, respondedAt sql.NullInt64
	if app.ViewedAt != nil {
		viewedAt = sql.NullInt64{Int64: toMillis(*app.ViewedAt), Valid: true}
	}
	if app.RespondedAt != nil {
		respondedAt = sql.NullInt64{Int64: toMillis(*app.RespondedAt), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO applications (`+applicationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kingdom_id = excluded.kingdom_id,
	applicant_user_id = excluded.applicant_user_id,
	status = excluded.status,
	profile_kingdom = excluded.profile_kingdom,
	profile_power = excluded.profile_power,
	profile_tc_level = excluded.profile_tc_level,
	profile_contact = excluded.profile_contact,
	profile_anonymous = excluded.profile_anonymous,
	applicant_note = excluded.applicant_note,
	recruiter_note = excluded.recruiter_note,
	applied_at = excluded.applied_at,
	viewed_at = excluded.viewed_at,
	responded_at = excluded.responded_at,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at
`,
		app.ID,
		app.KingdomID,
		app.ApplicantUserID,
		application.StatusLabel(app.Status),
		app.Profile.Kingdom,
		app.Profile.Power,
		app.Profile.TCLevel,
		app.Profile.Contact,
		boolToInt(app.Profile.Anonymous),
		app.ApplicantNote,
		app.RecruiterNote,
		toMillis(app.AppliedAt),
		viewedAt,
		respondedAt,
		toMillis(app.ExpiresAt),
		toMillis(app.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put application: %w", err)
	}

	s.publish(changefeed.TableApplications, changefeed.KindInsert, app.KingdomID, app.ID, app.ApplicantUserID)
	return nil
}

// UpdateApplicationStatus persists one status transition. viewed_at is
// only stamped when still unset; responded_at keeps its first value. An
// accepted status clears the stored anonymity flag. Publishes an update
// event for the kingdom.
func (s *Store) UpdateApplicationStatus(ctx context.Context, input storage.UpdateStatusInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	input.ApplicationID = strings.TrimSpace(input.ApplicationID)
	input.KingdomID = strings.TrimSpace(input.KingdomID)
	if input.ApplicationID == "" {
		return fmt.Errorf("application id is required")
	}
	if input.Status == application.StatusUnspecified {
		return application.ErrInvalidStatus
	}
	if input.At.IsZero() {
		input.At = s.clock()
	}

	ctx, span := s.tracer.Start(ctx, "sqlite.UpdateApplicationStatus")
	defer span.End()

	set := "status = ?, updated_at = ?"
	args := []any{application.StatusLabel(input.Status), toMillis(input.At)}
	switch input.Field {
	case application.TimestampFieldViewedAt:
		set += ", viewed_at = COALESCE(viewed_at, ?)"
		args = append(args, toMillis(input.At))
	case application.TimestampFieldRespondedAt:
		set += ", responded_at = COALESCE(responded_at, ?)"
		args = append(args, toMillis(input.At))
	}
	if input.Status == application.StatusAccepted {
		set += ", profile_anonymous = 0"
	}
	args = append(args, input.ApplicationID)

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE applications SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application status rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	s.publish(changefeed.TableApplications, changefeed.KindUpdate, input.KingdomID, input.ApplicationID, input.ResponderUserID)
	return nil
}

// ListTeam returns the kingdom's editors and pending co-editor requests.
func (s *Store) ListTeam(ctx context.Context, kingdomID string) ([]team.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	kingdomID = strings.TrimSpace(kingdomID)
	if kingdomID == "" {
		return nil, fmt.Errorf("kingdom id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kingdom_id, user_id, display_name, role, status, requested_at, approved_at, updated_at
FROM team_members
WHERE kingdom_id = ?
ORDER BY requested_at ASC, id ASC
`, kingdomID)
	if err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	defer rows.Close()

	var members []team.Member
	for rows.Next() {
		member, scanErr := scanTeamMember(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan team member row: %w", scanErr)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team member rows: %w", err)
	}
	return members, nil
}

// PutTeamMember upserts one team member row and publishes an insert
// event for the kingdom.
func (s *Store) PutTeamMember(ctx context.Context, member team.Member) error {
	return s.writeTeamMember(ctx, member, changefeed.KindInsert)
}

// UpdateTeamMember replaces a member row, keyed by member id, and
// publishes an update event for the kingdom.
func (s *Store) UpdateTeamMember(ctx context.Context, member team.Member) error {
	return s.writeTeamMember(ctx, member, changefeed.KindUpdate)
}

func (s *Store) writeTeamMember(ctx context.Context, member team.Member, kind changefeed.Kind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	member, err := team.Normalize(member)
	if err != nil {
		return err
	}
	if strings.TrimSpace(member.ID) == "" {
		return fmt.Errorf("team member id is required")
	}

	var approvedAt sql.NullInt64
	if member.ApprovedAt != nil {
		approvedAt = sql.NullInt64{Int64: toMillis(*member.ApprovedAt), Valid: true}
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO team_members (id, kingdom_id, user_id, display_name, role, status, requested_at, approved_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kingdom_id = excluded.kingdom_id,
	user_id = excluded.user_id,
	display_name = excluded.display_name,
	role = excluded.role,
	status = excluded.status,
	requested_at = excluded.requested_at,
	approved_at = excluded.approved_at,
	updated_at = excluded.updated_at
`,
		member.ID,
		member.KingdomID,
		member.UserID,
		member.DisplayName,
		team.RoleLabel(member.Role),
		team.MemberStatusLabel(member.Status),
		toMillis(member.RequestedAt),
		approvedAt,
		toMillis(member.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("write team member: %w", err)
	}

	s.publish(changefeed.TableTeamMembers, kind, member.KingdomID, member.ID, member.UserID)
	return nil
}

// RemoveTeamMember deletes a member row by id and publishes an update
// event for the kingdom.
func (s *Store) RemoveTeamMember(ctx context.Context, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return fmt.Errorf("team member id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT kingdom_id, user_id
FROM team_members
WHERE id = ?
`, memberID)
	var kingdomID, userID string
	if err := row.Scan(&kingdomID, &userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("remove team member: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM team_members
WHERE id = ?
`, memberID); err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}

	s.publish(changefeed.TableTeamMembers, changefeed.KindUpdate, kingdomID, memberID, userID)
	return nil
}

// GetFund returns the kingdom's fund record.
func (s *Store) GetFund(ctx context.Context, kingdomID string) (fund.Fund, error) {
	if err := ctx.Err(); err != nil {
		return fund.Fund{}, err
	}
	if err := s.ready(); err != nil {
		return fund.Fund{}, err
	}
	kingdomID = strings.TrimSpace(kingdomID)
	if kingdomID == "" {
		return fund.Fund{}, fmt.Errorf("kingdom id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT kingdom_id, tier, invites_used, season_start, updated_at
FROM funds
WHERE kingdom_id = ?
`, kingdomID)

	var f fund.Fund
	var tier string
	var seasonStart, updatedAt int64
	if err := row.Scan(&f.KingdomID, &tier, &f.InvitesUsed, &seasonStart, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fund.Fund{}, storage.ErrNotFound
		}
		return fund.Fund{}, fmt.Errorf("get fund: %w", err)
	}
	f.Tier = fund.TierFromLabel(tier)
	f.SeasonStart = fromMillis(seasonStart)
	f.UpdatedAt = fromMillis(updatedAt)
	return f, nil
}

// PutFund upserts the fund row for a kingdom.
func (s *Store) PutFund(ctx context.Context, f fund.Fund) error {
	return s.writeFund(ctx, f)
}

// UpdateFund replaces the fund row, keyed by kingdom id.
func (s *Store) UpdateFund(ctx context.Context, f fund.Fund) error {
	return s.writeFund(ctx, f)
}

func (s *Store) writeFund(ctx context.Context, f fund.Fund) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	f.KingdomID = strings.TrimSpace(f.KingdomID)
	if f.KingdomID == "" {
		return fmt.Errorf("kingdom id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO funds (kingdom_id, tier, invites_used, season_start, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(kingdom_id) DO UPDATE SET
	tier = excluded.tier,
	invites_used = excluded.invites_used,
	season_start = excluded.season_start,
	updated_at = excluded.updated_at
`, f.KingdomID, fund.TierLabel(f.Tier), f.InvitesUsed, toMillis(f.SeasonStart), toMillis(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("write fund: %w", err)
	}
	return nil
}

// ListTransferees returns browsable candidate profiles, redacted where
// the anonymity flag is set.
func (s *Store) ListTransferees(ctx context.Context) ([]transferee.Transferee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, display_name, kingdom, power, tc_level, contact, anonymous, updated_at
FROM transferees
ORDER BY power DESC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list transferees: %w", err)
	}
	defer rows.Close()

	var results []transferee.Transferee
	for rows.Next() {
		var t transferee.Transferee
		var anonymous int
		var updatedAt int64
		if scanErr := rows.Scan(&t.ID, &t.DisplayName, &t.Kingdom, &t.Power, &t.TCLevel, &t.Contact, &anonymous, &updatedAt); scanErr != nil {
			return nil, fmt.Errorf("scan transferee row: %w", scanErr)
		}
		t.Anonymous = anonymous != 0
		t.UpdatedAt = fromMillis(updatedAt)
		results = append(results, transferee.Redact(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transferee rows: %w", err)
	}
	return results, nil
}

// PutTransferee upserts one browsable candidate profile.
func (s *Store) PutTransferee(ctx context.Context, t transferee.Transferee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return transferee.ErrEmptyID
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO transferees (id, display_name, kingdom, power, tc_level, contact, anonymous, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	display_name = excluded.display_name,
	kingdom = excluded.kingdom,
	power = excluded.power,
	tc_level = excluded.tc_level,
	contact = excluded.contact,
	anonymous = excluded.anonymous,
	updated_at = excluded.updated_at
`, t.ID, t.DisplayName, t.Kingdom, t.Power, t.TCLevel, t.Contact, boolToInt(t.Anonymous), toMillis(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put transferee: %w", err)
	}
	return nil
}

// AddWatchlistEntry stores a watchlist entry.
func (s *Store) AddWatchlistEntry(ctx context.Context, entry transferee.WatchlistEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	entry.ID = strings.TrimSpace(entry.ID)
	entry.UserID = strings.TrimSpace(entry.UserID)
	entry.TransfereeID = strings.TrimSpace(entry.TransfereeID)
	if entry.ID == "" {
		return fmt.Errorf("watchlist entry id is required")
	}
	if entry.UserID == "" {
		return transferee.ErrEmptyUserID
	}
	if entry.TransfereeID == "" {
		return transferee.ErrEmptyID
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO watchlist_entries (id, user_id, transferee_id, note, added_at)
VALUES (?, ?, ?, ?, ?)
`, entry.ID, entry.UserID, entry.TransfereeID, entry.Note, toMillis(entry.AddedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("add watchlist entry: %w", err)
	}
	return nil
}

// RemoveWatchlistEntry deletes by watcher and transferee id.
func (s *Store) RemoveWatchlistEntry(ctx context.Context, userID, transfereeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	transfereeID = strings.TrimSpace(transfereeID)
	if userID == "" {
		return transferee.ErrEmptyUserID
	}
	if transfereeID == "" {
		return transferee.ErrEmptyID
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM watchlist_entries WHERE user_id = ? AND transferee_id = ?
`, userID, transfereeID)
	if err != nil {
		return fmt.Errorf("remove watchlist entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove watchlist entry rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListWatchlist returns the recruiter's watchlist, newest first.
func (s *Store) ListWatchlist(ctx context.Context, userID string) ([]transferee.WatchlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, transferee.ErrEmptyUserID
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, transferee_id, note, added_at
FROM watchlist_entries
WHERE user_id = ?
ORDER BY added_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var entries []transferee.WatchlistEntry
	for rows.Next() {
		var entry transferee.WatchlistEntry
		var addedAt int64
		if scanErr := rows.Scan(&entry.ID, &entry.UserID, &entry.TransfereeID, &entry.Note, &addedAt); scanErr != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", scanErr)
		}
		entry.AddedAt = fromMillis(addedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}
	return entries, nil
}

// InsertNotification stores an applicant notification. Repeated inserts
// with the same dedupe key are dropped silently.
func (s *Store) InsertNotification(ctx context.Context, intent notify.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	intent.RecipientUserID = strings.TrimSpace(intent.RecipientUserID)
	intent.DedupeKey = strings.TrimSpace(intent.DedupeKey)
	if intent.RecipientUserID == "" {
		return notify.ErrEmptyRecipient
	}
	if intent.DedupeKey == "" {
		return fmt.Errorf("dedupe key is required")
	}
	payload := strings.TrimSpace(intent.PayloadJSON)
	if payload == "" {
		payload = "{}"
	}

	ctx, span := s.tracer.Start(ctx, "sqlite.InsertNotification")
	defer span.End()

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT OR IGNORE INTO notifications (dedupe_key, recipient_user_id, topic, title, body, payload_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, intent.DedupeKey, intent.RecipientUserID, intent.Topic, intent.Title, intent.Message, payload, toMillis(s.clock()))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// PutMessage stores one application thread message and publishes an
// insert event for the application's kingdom.
func (s *Store) PutMessage(ctx context.Context, msg storage.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	msg.ID = strings.TrimSpace(msg.ID)
	msg.ApplicationID = strings.TrimSpace(msg.ApplicationID)
	if msg.ID == "" {
		return fmt.Errorf("message id is required")
	}
	if msg.ApplicationID == "" {
		return fmt.Errorf("application id is required")
	}

	app, err := s.GetApplication(ctx, msg.ApplicationID)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO messages (id, application_id, sender_user_id, body, sent_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	application_id = excluded.application_id,
	sender_user_id = excluded.sender_user_id,
	body = excluded.body,
	sent_at = excluded.sent_at
`, msg.ID, msg.ApplicationID, msg.SenderUserID, msg.Body, toMillis(msg.SentAt))
	if err != nil {
		return fmt.Errorf("put message: %w", err)
	}

	s.publish(changefeed.TableMessages, changefeed.KindInsert, app.KingdomID, msg.ID, msg.SenderUserID)
	return nil
}

// UpsertReadMarker records that the recruiter has read an application's
// thread up to readAt.
func (s *Store) UpsertReadMarker(ctx context.Context, applicationID, userID string, readAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	applicationID = strings.TrimSpace(applicationID)
	userID = strings.TrimSpace(userID)
	if applicationID == "" {
		return fmt.Errorf("application id is required")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if readAt.IsZero() {
		readAt = s.clock()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO read_markers (application_id, user_id, read_at)
VALUES (?, ?, ?)
ON CONFLICT(application_id, user_id) DO UPDATE SET
	read_at = MAX(read_markers.read_at, excluded.read_at)
`, applicationID, userID, toMillis(readAt))
	if err != nil {
		return fmt.Errorf("upsert read marker: %w", err)
	}
	return nil
}

// CountUnreadMessages returns, per application id, how many messages in
// the kingdom's threads arrived after the recruiter's read marker. The
// recruiter's own messages never count. Applications with zero unread
// are omitted.
func (s *Store) CountUnreadMessages(ctx context.Context, kingdomID, userID string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	kingdomID = strings.TrimSpace(kingdomID)
	userID = strings.TrimSpace(userID)
	if kingdomID == "" {
		return nil, fmt.Errorf("kingdom id is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT m.application_id, COUNT(1)
FROM messages m
JOIN applications a ON a.id = m.application_id
LEFT JOIN read_markers r ON r.application_id = m.application_id AND r.user_id = ?
WHERE a.kingdom_id = ?
  AND m.sender_user_id != ?
  AND (r.read_at IS NULL OR m.sent_at > r.read_at)
GROUP BY m.application_id
`, userID, kingdomID, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var applicationID string
		var count int
		if scanErr := rows.Scan(&applicationID, &count); scanErr != nil {
			return nil, fmt.Errorf("scan unread count row: %w", scanErr)
		}
		counts[applicationID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unread count rows: %w", err)
	}
	return counts, nil
}

// GetOnboardingComplete reads the per-user onboarding flag.
func (s *Store) GetOnboardingComplete(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, fmt.Errorf("user id is required")
	}

	var done int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT onboarding_done FROM preferences WHERE user_id = ?
`, userID).Scan(&done); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get onboarding flag: %w", err)
	}
	return done != 0, nil
}

// SetOnboardingComplete persists the per-user onboarding flag.
func (s *Store) SetOnboardingComplete(ctx context.Context, userID string, done bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO preferences (user_id, onboarding_done, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	onboarding_done = excluded.onboarding_done,
	updated_at = excluded.updated_at
`, userID, boolToInt(done), toMillis(s.clock()))
	if err != nil {
		return fmt.Errorf("set onboarding flag: %w", err)
	}
	return nil
}

type scanner func(dest ...any) error

func scanApplication(scan scanner) (application.Application, error) {
	var app application.Application
	var status string
	var anonymous int
	var appliedAt, expiresAt, updatedAt int64
	var viewedAt, respondedAt sql.NullInt64
	if err := scan(
		&app.ID,
		&app.KingdomID,
		&app.ApplicantUserID,
		&status,
		&app.Profile.Kingdom,
		&app.Profile.Power,
		&app.Profile.TCLevel,
		&app.Profile.Contact,
		&anonymous,
		&app.ApplicantNote,
		&app.RecruiterNote,
		&appliedAt,
		&viewedAt,
		&respondedAt,
		&expiresAt,
		&updatedAt,
	); err != nil {
		return application.Application{}, err
	}
	app.Status = application.StatusFromLabel(status)
	app.Profile.Anonymous = anonymous != 0
	app.AppliedAt = fromMillis(appliedAt)
	app.ExpiresAt = fromMillis(expiresAt)
	app.UpdatedAt = fromMillis(updatedAt)
	if viewedAt.Valid {
		value := fromMillis(viewedAt.Int64)
		app.ViewedAt = &value
	}
	if respondedAt.Valid {
		value := fromMillis(respondedAt.Int64)
		app.RespondedAt = &value
	}
	return app, nil
}

func scanTeamMember(scan scanner) (team.Member, error) {
	var member team.Member
	var role, status string
	var requestedAt, updatedAt int64
	var approvedAt sql.NullInt64
	if err := scan(
		&member.ID,
		&member.KingdomID,
		&member.UserID,
		&member.DisplayName,
		&role,
		&status,
		&requestedAt,
		&approvedAt,
		&updatedAt,
	); err != nil {
		return team.Member{}, err
	}
	member.Role = team.RoleFromLabel(role)
	member.Status = team.MemberStatusFromLabel(status)
	member.RequestedAt = fromMillis(requestedAt)
	member.UpdatedAt = fromMillis(updatedAt)
	if approvedAt.Valid {
		value := fromMillis(approvedAt.Int64)
		member.ApprovedAt = &value
	}
	return member, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
