package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// TeamStrategy
// ──────────────────────────────────────────────────────────────────────────────

// TeamStrategy is the franchise's declared squad-building preference.
// Informational only; the engine never acts on it.
type TeamStrategy string

const (
	StrategyBattingHeavy TeamStrategy = "batting-heavy"
	StrategyBowlingHeavy TeamStrategy = "bowling-heavy"
	StrategyBalanced     TeamStrategy = "balanced"
)

// IsValid returns true if the strategy is a recognised value.
func (s TeamStrategy) IsValid() bool {
	return s == StrategyBattingHeavy || s == StrategyBowlingHeavy || s == StrategyBalanced
}

// DefaultTeamBudget is the per-team purse in rupees (₹10 crore) applied when
// an auction does not override it.
const DefaultTeamBudget int64 = 100_000_000

// ──────────────────────────────────────────────────────────────────────────────
// Team
// ──────────────────────────────────────────────────────────────────────────────

// Team is a bidding franchise. BudgetRemaining is the authoritative purse the
// engine checks before admitting a bid; it is debited exactly once per won
// round and never goes below zero.
type Team struct {
	ID              uuid.UUID    `json:"id"               db:"id"`
	Name            string       `json:"name"             db:"name"`
	LogoURL         string       `json:"logo_url"         db:"logo_url"`
	Strategy        TeamStrategy `json:"strategy"         db:"strategy"`
	BudgetTotal     int64        `json:"budget_total"     db:"budget_total"`
	BudgetRemaining int64        `json:"budget_remaining" db:"budget_remaining"`
	Approved        bool         `json:"approved"         db:"approved"`
	OwnerUserID     uuid.UUID    `json:"owner_user_id"    db:"owner_user_id"`
	CreatedAt       time.Time    `json:"created_at"       db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"       db:"updated_at"`
}

// CanAfford returns true when the remaining purse covers amount.
func (t *Team) CanAfford(amount int64) bool {
	return t.BudgetRemaining >= amount
}

// SpendBudget debits amount from the purse, flooring at zero.
func (t *Team) SpendBudget(amount int64) {
	t.BudgetRemaining -= amount
	if t.BudgetRemaining < 0 {
		t.BudgetRemaining = 0
	}
}

// BudgetSpent returns how much of the purse has been committed so far.
func (t *Team) BudgetSpent() int64 {
	return t.BudgetTotal - t.BudgetRemaining
}
