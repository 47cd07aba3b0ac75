package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bidpitch/auction/internal/domain"
)

// LedgerStore is the live engine's durable backing store. It composes the
// bid, team, and auction repositories so settlement can span all three inside
// one transaction.
type LedgerStore struct {
	db    *sqlx.DB
	bids  *BidRepository
	teams *TeamRepository
	lots  *AuctionRepository
}

// NewLedgerStore creates a LedgerStore over shared repositories.
func NewLedgerStore(db *sqlx.DB, bids *BidRepository, teams *TeamRepository, lots *AuctionRepository) *LedgerStore {
	return &LedgerStore{db: db, bids: bids, teams: teams, lots: lots}
}

// AppendBid durably records one accepted bid, assigning its ID.
func (s *LedgerStore) AppendBid(ctx context.Context, bid domain.Bid) (uuid.UUID, error) {
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	if err := s.bids.Append(ctx, &bid); err != nil {
		return uuid.Nil, err
	}
	return bid.ID, nil
}

// SettleSold marks the lot sold and debits the winner's purse in a single
// transaction, so a crash can never record the sale without the debit.
func (s *LedgerStore) SettleSold(ctx context.Context, lotID, winnerID uuid.UUID, finalPrice int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger_store.SettleSold begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := s.lots.MarkSold(ctx, tx, lotID, winnerID, finalPrice); err != nil {
		return err
	}
	if err := s.teams.DebitBudget(ctx, tx, winnerID, finalPrice); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger_store.SettleSold commit: %w", err)
	}
	return nil
}

// MarkUnsold records a bid-less round's outcome.
func (s *LedgerStore) MarkUnsold(ctx context.Context, lotID uuid.UUID) error {
	return s.lots.MarkUnsold(ctx, lotID)
}

// IsEligibleBidder reports whether the team exists and is approved.
func (s *LedgerStore) IsEligibleBidder(ctx context.Context, teamID uuid.UUID) (bool, error) {
	return s.teams.IsEligible(ctx, teamID)
}

// RemainingBudget returns the team's current purse.
func (s *LedgerStore) RemainingBudget(ctx context.Context, teamID uuid.UUID) (int64, error) {
	return s.teams.RemainingBudget(ctx, teamID)
}
