package live

import (
	"context"

	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/domain"
)

// Ledger is the engine's durable backing store. Admission persists through it
// before any in-memory mutation; finalize settles through it exactly once.
//
// SettleSold must mark the lot sold and debit the winner's purse in a single
// transaction, and must fail with domain.ErrLotSettled if the lot left the
// available state already. MarkUnsold carries the same guard.
type Ledger interface {
	// AppendBid durably records an accepted bid and returns its assigned ID.
	AppendBid(ctx context.Context, bid domain.Bid) (uuid.UUID, error)

	// SettleSold marks the lot sold to winnerID at finalPrice and debits the
	// winner's remaining budget, atomically.
	SettleSold(ctx context.Context, lotID, winnerID uuid.UUID, finalPrice int64) error

	// MarkUnsold records that the round ended with no bids.
	MarkUnsold(ctx context.Context, lotID uuid.UUID) error

	// IsEligibleBidder reports whether the team may bid (approved, active).
	IsEligibleBidder(ctx context.Context, teamID uuid.UUID) (bool, error)

	// RemainingBudget returns the team's current purse in rupees.
	RemainingBudget(ctx context.Context, teamID uuid.UUID) (int64, error)
}
