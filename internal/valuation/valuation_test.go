package valuation_test

import (
	"testing"

	"github.com/bidpitch/auction/internal/domain"
	"github.com/bidpitch/auction/internal/valuation"
)

func TestEstimate_FloorsAtBasePrice(t *testing.T) {
	// A debutant with no numbers is worth exactly the reserve.
	got := valuation.Estimate(domain.PlayerStats{}, 2_000_000)
	if got != 2_000_000 {
		t.Errorf("Estimate(zero stats) = %d, want base price 2000000", got)
	}
}

func TestEstimate_CapsAtFiftyTimesBase(t *testing.T) {
	stats := domain.PlayerStats{
		Matches:    400,
		Runs:       12_000,
		Wickets:    300,
		StrikeRate: 145,
		Economy:    6.5,
	}
	base := int64(1_000_000)
	got := valuation.Estimate(stats, base)
	if got != base*50 {
		t.Errorf("Estimate(elite stats) = %d, want cap %d", got, base*50)
	}
}

func TestEstimate_BattingContribution(t *testing.T) {
	// 1000 runs at SR 120 → 1200 bat points × 5000 = 6_000_000,
	// plus 20 matches × 10000 = 200_000.
	stats := domain.PlayerStats{Matches: 20, Runs: 1000, StrikeRate: 120}
	got := valuation.Estimate(stats, 1_000_000)
	if got != 6_200_000 {
		t.Errorf("Estimate(batting) = %d, want 6200000", got)
	}
}

func TestEstimate_EconomyFloorGuardsDivision(t *testing.T) {
	// Economy below 1 is clamped to 1; the call must not blow up on 0.
	stats := domain.PlayerStats{Wickets: 10, Economy: 0}
	got := valuation.Estimate(stats, 1_000_000)
	// 10 × 6/1 = 60 bowl points × 15000 = 900_000 → below base, floored.
	if got != 1_000_000 {
		t.Errorf("Estimate(zero economy) = %d, want floor 1000000", got)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	stats := domain.PlayerStats{Matches: 50, Runs: 1500, Wickets: 40, StrikeRate: 130, Economy: 7.2}
	a := valuation.Estimate(stats, 1_000_000)
	b := valuation.Estimate(stats, 1_000_000)
	if a != b {
		t.Errorf("Estimate not deterministic: %d vs %d", a, b)
	}
}

func TestEstimate_DefaultsMissingBasePrice(t *testing.T) {
	got := valuation.Estimate(domain.PlayerStats{}, 0)
	if got != domain.DefaultBasePrice {
		t.Errorf("Estimate(base 0) = %d, want default %d", got, domain.DefaultBasePrice)
	}
}
