// Package seed loads demo fixtures into the dashboard gateway store.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/application"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/fund"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/team"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/domain/transferee"
	"github.com/louisbranch/kingsroad.gg/internal/recruit/storage"
)

// Fixture is one YAML seed file: editors, applications, and the supporting
// rows a demo dashboard needs.
type Fixture struct {
	Editors      []EditorFixture      `yaml:"editors"`
	Applications []ApplicationFixture `yaml:"applications"`
	TeamMembers  []TeamMemberFixture  `yaml:"team_members"`
	Funds        []FundFixture        `yaml:"funds"`
	Transferees  []TransfereeFixture  `yaml:"transferees"`
	Messages     []MessageFixture     `yaml:"messages"`
}

// EditorFixture seeds one recruiter seat.
type EditorFixture struct {
	UserID      string `yaml:"user_id"`
	KingdomID   string `yaml:"kingdom_id"`
	KingdomName string `yaml:"kingdom_name"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
}

// ApplicationFixture seeds one transfer application.
type ApplicationFixture struct {
	ID              string         `yaml:"id"`
	KingdomID       string         `yaml:"kingdom_id"`
	ApplicantUserID string         `yaml:"applicant_user_id"`
	Status          string         `yaml:"status"`
	Profile         ProfileFixture `yaml:"profile"`
	ApplicantNote   string         `yaml:"applicant_note"`
	RecruiterNote   string         `yaml:"recruiter_note"`
	AppliedAt       time.Time      `yaml:"applied_at"`
	ViewedAt        *time.Time     `yaml:"viewed_at"`
	RespondedAt     *time.Time     `yaml:"responded_at"`
	ExpiresAt       time.Time      `yaml:"expires_at"`
}

// ProfileFixture seeds the applicant profile joined onto an application.
type ProfileFixture struct {
	Kingdom   string `yaml:"kingdom"`
	Power     int64  `yaml:"power"`
	TCLevel   int    `yaml:"tc_level"`
	Contact   string `yaml:"contact"`
	Anonymous bool   `yaml:"anonymous"`
}

// TeamMemberFixture seeds one editorial team membership.
type TeamMemberFixture struct {
	ID          string    `yaml:"id"`
	KingdomID   string    `yaml:"kingdom_id"`
	UserID      string    `yaml:"user_id"`
	DisplayName string    `yaml:"display_name"`
	Role        string    `yaml:"role"`
	Status      string    `yaml:"status"`
	RequestedAt time.Time  `yaml:"requested_at"`
	ApprovedAt  *time.Time `yaml:"approved_at"`
}

// FundFixture seeds one kingdom recruitment fund.
type FundFixture struct {
	KingdomID   string    `yaml:"kingdom_id"`
	Tier        string    `yaml:"tier"`
	InvitesUsed int       `yaml:"invites_used"`
	SeasonStart time.Time `yaml:"season_start"`
}

// TransfereeFixture seeds one transfer-market candidate.
type TransfereeFixture struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Kingdom     string `yaml:"kingdom"`
	Power       int64  `yaml:"power"`
	TCLevel     int    `yaml:"tc_level"`
	Contact     string `yaml:"contact"`
	Anonymous   bool   `yaml:"anonymous"`
}

// MessageFixture seeds one applicant message.
type MessageFixture struct {
	ID            string    `yaml:"id"`
	ApplicationID string    `yaml:"application_id"`
	SenderUserID  string    `yaml:"sender_user_id"`
	Body          string    `yaml:"body"`
	SentAt        time.Time `yaml:"sent_at"`
}

// Load reads and decodes a fixture file.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML.
func Parse(data []byte) (Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return fixture, nil
}

// Apply writes every fixture row through the gateway seeder. Rows are
// written in dependency order so messages land on existing applications.
func Apply(ctx context.Context, seeder storage.Seeder, fixture Fixture) error {
	if seeder == nil {
		return fmt.Errorf("seeder is required")
	}

	for _, row := range fixture.Editors {
		editor, err := row.editor()
		if err != nil {
			return err
		}
		if err := seeder.PutEditor(ctx, editor); err != nil {
			return fmt.Errorf("seed editor %s: %w", row.UserID, err)
		}
	}
	for _, row := range fixture.Funds {
		f, err := row.fund()
		if err != nil {
			return err
		}
		if err := seeder.PutFund(ctx, f); err != nil {
			return fmt.Errorf("seed fund %s: %w", row.KingdomID, err)
		}
	}
	for _, row := range fixture.TeamMembers {
		member, err := row.member()
		if err != nil {
			return err
		}
		if err := seeder.PutTeamMember(ctx, member); err != nil {
			return fmt.Errorf("seed team member %s: %w", row.ID, err)
		}
	}
	for _, row := range fixture.Applications {
		app, err := row.application()
		if err != nil {
			return err
		}
		if err := seeder.PutApplication(ctx, app); err != nil {
			return fmt.Errorf("seed application %s: %w", row.ID, err)
		}
	}
	for _, row := range fixture.Transferees {
		if err := seeder.PutTransferee(ctx, row.transferee()); err != nil {
			return fmt.Errorf("seed transferee %s: %w", row.ID, err)
		}
	}
	for _, row := range fixture.Messages {
		msg, err := row.message()
		if err != nil {
			return err
		}
		if err := seeder.PutMessage(ctx, msg); err != nil {
			return fmt.Errorf("seed message %s: %w", row.ID, err)
		}
	}
	return nil
}

func (f EditorFixture) editor() (storage.Editor, error) {
	role := team.RoleFromLabel(f.Role)
	if role == team.RoleUnspecified {
		return storage.Editor{}, fmt.Errorf("editor %s: role %q is not recognized", f.UserID, f.Role)
	}
	return storage.Editor{
		UserID:      f.UserID,
		KingdomID:   f.KingdomID,
		KingdomName: f.KingdomName,
		DisplayName: f.DisplayName,
		Role:        role,
	}, nil
}

func (f ApplicationFixture) application() (application.Application, error) {
	status := application.StatusFromLabel(f.Status)
	if status == application.StatusUnspecified {
		return application.Application{}, fmt.Errorf("application %s: status %q is not recognized", f.ID, f.Status)
	}

	app := application.Application{
		ID:              f.ID,
		KingdomID:       f.KingdomID,
		ApplicantUserID: f.ApplicantUserID,
		Status:          status,
		Profile: application.ProfileSnapshot{
			Kingdom:   f.Profile.Kingdom,
			Power:     f.Profile.Power,
			TCLevel:   f.Profile.TCLevel,
			Contact:   f.Profile.Contact,
			Anonymous: f.Profile.Anonymous,
		},
		ApplicantNote: f.ApplicantNote,
		RecruiterNote: f.RecruiterNote,
		AppliedAt:     f.AppliedAt,
		ViewedAt:      f.ViewedAt,
		RespondedAt:   f.RespondedAt,
		ExpiresAt:     f.ExpiresAt,
	}
	if app.AppliedAt.IsZero() {
		return application.Application{}, fmt.Errorf("application %s: applied_at is required", f.ID)
	}
	if app.ExpiresAt.IsZero() {
		return application.Application{}, fmt.Errorf("application %s: expires_at is required", f.ID)
	}
	app.UpdatedAt = app.AppliedAt
	if app.RespondedAt != nil {
		app.UpdatedAt = *app.RespondedAt
	}

	return application.Normalize(app)
}

func (f TeamMemberFixture) member() (team.Member, error) {
	role := team.RoleFromLabel(f.Role)
	if role == team.RoleUnspecified {
		return team.Member{}, fmt.Errorf("team member %s: role %q is not recognized", f.ID, f.Role)
	}
	status := team.MemberStatusFromLabel(f.Status)
	if status == team.MemberStatusUnspecified {
		return team.Member{}, fmt.Errorf("team member %s: status %q is not recognized", f.ID, f.Status)
	}

	member := team.Member{
		ID:          f.ID,
		KingdomID:   f.KingdomID,
		UserID:      f.UserID,
		DisplayName: f.DisplayName,
		Role:        role,
		Status:      status,
		RequestedAt: f.RequestedAt,
		ApprovedAt:  f.ApprovedAt,
	}
	if member.RequestedAt.IsZero() {
		return team.Member{}, fmt.Errorf("team member %s: requested_at is required", f.ID)
	}
	member.UpdatedAt = member.RequestedAt

	return team.Normalize(member)
}

func (f FundFixture) fund() (fund.Fund, error) {
	tier := fund.TierFromLabel(f.Tier)
	if tier == fund.TierUnspecified {
		return fund.Fund{}, fmt.Errorf("fund %s: tier %q is not recognized", f.KingdomID, f.Tier)
	}

	out := fund.Fund{
		KingdomID:   f.KingdomID,
		Tier:        tier,
		InvitesUsed: f.InvitesUsed,
		SeasonStart: f.SeasonStart,
	}
	if out.SeasonStart.IsZero() {
		return fund.Fund{}, fmt.Errorf("fund %s: season_start is required", f.KingdomID)
	}
	out.UpdatedAt = out.SeasonStart
	return out, nil
}

func (f TransfereeFixture) transferee() transferee.Transferee {
	return transferee.Transferee{
		ID:          f.ID,
		DisplayName: f.DisplayName,
		Kingdom:     f.Kingdom,
		Power:       f.Power,
		TCLevel:     f.TCLevel,
		Contact:     f.Contact,
		Anonymous:   f.Anonymous,
	}
}

func (f MessageFixture) message() (storage.Message, error) {
	msg := storage.Message{
		ID:            f.ID,
		ApplicationID: f.ApplicationID,
		SenderUserID:  f.SenderUserID,
		Body:          f.Body,
		SentAt:        f.SentAt,
	}
	if msg.SentAt.IsZero() {
		return storage.Message{}, fmt.Errorf("message %s: sent_at is required", f.ID)
	}
	return msg, nil
}
