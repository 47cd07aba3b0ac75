package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bidpitch/auction/internal/domain"
)

// BidRepository handles the append-only bid record.
type BidRepository struct {
	db *sqlx.DB
}

// NewBidRepository creates a new BidRepository.
func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

// Append inserts one accepted bid. Bids are immutable once written; there is
// deliberately no update or delete path.
func (r *BidRepository) Append(ctx context.Context, b *domain.Bid) error {
	query := `
		INSERT INTO bids
			(id, auction_id, player_id, team_id, amount, placed_at, origin_address)
		VALUES
			(:id, :auction_id, :player_id, :team_id, :amount, :placed_at, :origin_address)`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("bid_repo.Append: %w", err)
	}
	return nil
}

// ListByAuction returns every bid of an auction in placement order.
func (r *BidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	var bids []*domain.Bid
	err := r.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE auction_id = $1 ORDER BY placed_at ASC`,
		auctionID)
	if err != nil {
		return nil, fmt.Errorf("bid_repo.ListByAuction: %w", err)
	}
	return bids, nil
}

// ListByPlayer returns the bid trail for one player within an auction.
func (r *BidRepository) ListByPlayer(ctx context.Context, auctionID, playerID uuid.UUID) ([]*domain.Bid, error) {
	var bids []*domain.Bid
	err := r.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE auction_id = $1 AND player_id = $2 ORDER BY placed_at ASC`,
		auctionID, playerID)
	if err != nil {
		return nil, fmt.Errorf("bid_repo.ListByPlayer: %w", err)
	}
	return bids, nil
}
