package fund

import (
	"errors"
	"testing"
	"time"
)

func TestInviteBudgetPerTier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tier   Tier
		budget int
	}{
		{TierStandard, 0},
		{TierBronze, 5},
		{TierSilver, 15},
		{TierGold, 40},
		{TierUnspecified, 0},
	}
	for _, tc := range cases {
		if got := InviteBudget(tc.tier); got != tc.budget {
			t.Fatalf("InviteBudget(%s) = %d, want %d", TierLabel(tc.tier), got, tc.budget)
		}
	}
}

func TestConsumeInviteAccountsUsage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := Fund{KingdomID: "kingdom-1", Tier: TierBronze, InvitesUsed: 4}

	updated, err := ConsumeInvite(f, func() time.Time { return now })
	if err != nil {
		t.Fatalf("consume invite: %v", err)
	}
	if updated.InvitesUsed != 5 {
		t.Fatalf("invites used = %d, want 5", updated.InvitesUsed)
	}
	if RemainingInvites(updated) != 0 {
		t.Fatalf("remaining = %d, want 0", RemainingInvites(updated))
	}

	if _, err := ConsumeInvite(updated, nil); !errors.Is(err, ErrInviteBudgetExceeded) {
		t.Fatalf("expected ErrInviteBudgetExceeded, got %v", err)
	}
}

func TestConsumeInviteRejectsStandardTier(t *testing.T) {
	t.Parallel()

	f := Fund{KingdomID: "kingdom-1", Tier: TierStandard}
	if _, err := ConsumeInvite(f, nil); !errors.Is(err, ErrInviteBudgetExceeded) {
		t.Fatalf("expected ErrInviteBudgetExceeded, got %v", err)
	}
}

func TestRemainingInvitesNeverNegative(t *testing.T) {
	t.Parallel()

	f := Fund{Tier: TierBronze, InvitesUsed: 9}
	if got := RemainingInvites(f); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
}

func TestTierUnlocksGating(t *testing.T) {
	t.Parallel()

	if TierUnlocks(TierStandard).SendInvites {
		t.Fatal("standard tier must not unlock invites")
	}
	if !TierUnlocks(TierBronze).SendInvites {
		t.Fatal("bronze tier must unlock invites")
	}
	if TierUnlocks(TierSilver).Analytics {
		t.Fatal("silver tier must not unlock analytics")
	}
	if got := TierUnlocks(TierGold); !got.Analytics || !got.Banner || !got.SendInvites {
		t.Fatalf("gold unlocks = %+v", got)
	}
}

func TestTierLabelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tier := range []Tier{TierStandard, TierBronze, TierSilver, TierGold} {
		if got := TierFromLabel(TierLabel(tier)); got != tier {
			t.Fatalf("round trip for %s returned %s", TierLabel(tier), TierLabel(got))
		}
	}
}
