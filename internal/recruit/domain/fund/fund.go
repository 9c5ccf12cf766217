// Package fund models kingdom fund tiers and invite budget accounting.
package fund

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/kingsroad.gg/internal/platform/errors"
)

// Tier is a gating level controlling which profile fields and actions a
// kingdom has unlocked.
type Tier int

const (
	// TierUnspecified represents an invalid tier value.
	TierUnspecified Tier = iota
	// TierStandard is the free default tier.
	TierStandard
	// TierBronze is the first paid tier.
	TierBronze
	// TierSilver is the mid paid tier.
	TierSilver
	// TierGold is the top paid tier.
	TierGold
)

var (
	// ErrInvalidTier indicates an unknown fund tier value.
	ErrInvalidTier = apperrors.New(apperrors.CodeFundInvalidTier, "fund tier is invalid")
	// ErrInviteBudgetExceeded indicates no invites remain this season.
	ErrInviteBudgetExceeded = apperrors.New(apperrors.CodeFundInviteBudgetExceeded, "invite budget exceeded")
)

// Fund is a kingdom's fund/tier record with season invite accounting.
type Fund struct {
	KingdomID   string
	Tier        Tier
	InvitesUsed int
	SeasonStart time.Time
	UpdatedAt   time.Time
}

// InviteBudget returns the per-season outbound invite cap for a tier.
func InviteBudget(tier Tier) int {
	switch tier {
	case TierBronze:
		return 5
	case TierSilver:
		return 15
	case TierGold:
		return 40
	default:
		return 0
	}
}

// Unlocks describes which gated profile fields and actions a tier grants.
type Unlocks struct {
	ExtendedProfile bool
	Banner          bool
	SendInvites     bool
	Analytics       bool
}

// TierUnlocks returns the feature unlocks for a tier.
func TierUnlocks(tier Tier) Unlocks {
	switch tier {
	case TierBronze:
		return Unlocks{ExtendedProfile: true, SendInvites: true}
	case TierSilver:
		return Unlocks{ExtendedProfile: true, Banner: true, SendInvites: true}
	case TierGold:
		return Unlocks{ExtendedProfile: true, Banner: true, SendInvites: true, Analytics: true}
	default:
		return Unlocks{}
	}
}

// RemainingInvites returns the unused portion of the season invite budget.
func RemainingInvites(f Fund) int {
	remaining := InviteBudget(f.Tier) - f.InvitesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ConsumeInvite accounts for one outbound invite. It fails before any remote
// write when the budget is exhausted.
func ConsumeInvite(f Fund, now func() time.Time) (Fund, error) {
	if now == nil {
		now = time.Now
	}
	if RemainingInvites(f) <= 0 {
		return Fund{}, ErrInviteBudgetExceeded
	}
	updated := f
	updated.InvitesUsed++
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// TierLabel returns the stable label for a fund tier.
func TierLabel(tier Tier) string {
	switch tier {
	case TierStandard:
		return "STANDARD"
	case TierBronze:
		return "BRONZE"
	case TierSilver:
		return "SILVER"
	case TierGold:
		return "GOLD"
	default:
		return "UNSPECIFIED"
	}
}

// TierFromLabel converts a tier label to a Tier value.
func TierFromLabel(label string) Tier {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "STANDARD":
		return TierStandard
	case "BRONZE":
		return TierBronze
	case "SILVER":
		return TierSilver
	case "GOLD":
		return TierGold
	default:
		return TierUnspecified
	}
}
