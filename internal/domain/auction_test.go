package domain_test

import (
	"testing"

	"github.com/bidpitch/auction/internal/domain"
	"github.com/google/uuid"
)

// ── Lot settlement state ──────────────────────────────────────────────────────

func TestAuctionLot_IsSettled(t *testing.T) {
	lot := &domain.AuctionLot{Status: domain.LotAvailable}
	if lot.IsSettled() {
		t.Error("available lot should not be settled")
	}
	lot.Status = domain.LotSold
	if !lot.IsSettled() {
		t.Error("sold lot should be settled")
	}
	lot.Status = domain.LotUnsold
	if !lot.IsSettled() {
		t.Error("unsold lot should be settled")
	}
}

func TestAuction_IsLive(t *testing.T) {
	a := &domain.Auction{ID: uuid.New(), Status: domain.AuctionScheduled}
	if a.IsLive() {
		t.Error("scheduled auction should not be live")
	}
	a.Status = domain.AuctionLive
	if !a.IsLive() {
		t.Error("live auction should be live")
	}
}

// ── Increment rule ────────────────────────────────────────────────────────────

func TestMeetsIncrement(t *testing.T) {
	tests := []struct {
		name                       string
		amount, highest, increment int64
		want                       bool
	}{
		{"first bid at the increment floor", 100_000, 0, 100_000, true},
		{"first bid below the floor", 99_999, 0, 100_000, false},
		{"exact step over highest", 200_000, 100_000, 100_000, true},
		{"short step over highest", 150_000, 100_000, 100_000, false},
		{"jump bid well over", 1_000_000, 100_000, 100_000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.MeetsIncrement(tt.amount, tt.highest, tt.increment); got != tt.want {
				t.Errorf("MeetsIncrement(%d, %d, %d) = %v, want %v",
					tt.amount, tt.highest, tt.increment, got, tt.want)
			}
		})
	}
}

// ── Player role validity ──────────────────────────────────────────────────────

func TestPlayerRole_IsValid(t *testing.T) {
	for _, r := range []domain.PlayerRole{
		domain.RoleBatter, domain.RoleBowler, domain.RoleAllRounder, domain.RoleWicketkeeper,
	} {
		if !r.IsValid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if domain.PlayerRole("Twelfth Man").IsValid() {
		t.Error("unknown role should not be valid")
	}
}
