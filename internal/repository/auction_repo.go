package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bidpitch/auction/internal/domain"
)

// AuctionRepository handles all database operations for Auctions and their lots.
type AuctionRepository struct {
	db *sqlx.DB
}

// NewAuctionRepository creates a new AuctionRepository.
func NewAuctionRepository(db *sqlx.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

// Create inserts a new auction event.
func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	query := `
		INSERT INTO auctions
			(id, name, scheduled_at, budget_per_team, status, created_by, created_at, updated_at)
		VALUES
			(:id, :name, :scheduled_at, :budget_per_team, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("auction_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches an auction by primary key.
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	var a domain.Auction
	err := r.db.GetContext(ctx, &a, `SELECT * FROM auctions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("auction_repo.GetByID: %w", err)
	}
	return &a, nil
}

// List returns every auction, newest first.
func (r *AuctionRepository) List(ctx context.Context) ([]*domain.Auction, error) {
	var auctions []*domain.Auction
	err := r.db.SelectContext(ctx, &auctions,
		`SELECT * FROM auctions ORDER BY scheduled_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("auction_repo.List: %w", err)
	}
	return auctions, nil
}

// UpdateStatus moves the auction through its lifecycle.
func (r *AuctionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AuctionStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auctions SET status = $1, updated_at = now() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("auction_repo.UpdateStatus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lots
// ──────────────────────────────────────────────────────────────────────────────

// AddLot appends a player to the auction's running order.
func (r *AuctionRepository) AddLot(ctx context.Context, l *domain.AuctionLot) error {
	query := `
		INSERT INTO auction_lots
			(id, auction_id, player_id, status, sold_to_team_id, final_price, order_index, created_at, updated_at)
		VALUES
			(:id, :auction_id, :player_id, :status, :sold_to_team_id, :final_price, :order_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("auction_repo.AddLot: %w", err)
	}
	return nil
}

// GetLot fetches a lot by primary key.
func (r *AuctionRepository) GetLot(ctx context.Context, id uuid.UUID) (*domain.AuctionLot, error) {
	var l domain.AuctionLot
	err := r.db.GetContext(ctx, &l, `SELECT * FROM auction_lots WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLotNotFound
		}
		return nil, fmt.Errorf("auction_repo.GetLot: %w", err)
	}
	return &l, nil
}

// ListLots returns an auction's lots in running order.
func (r *AuctionRepository) ListLots(ctx context.Context, auctionID uuid.UUID) ([]*domain.AuctionLot, error) {
	var lots []*domain.AuctionLot
	err := r.db.SelectContext(ctx, &lots,
		`SELECT * FROM auction_lots WHERE auction_id = $1 ORDER BY order_index ASC`,
		auctionID)
	if err != nil {
		return nil, fmt.Errorf("auction_repo.ListLots: %w", err)
	}
	return lots, nil
}

// NextAvailableLot returns the first lot not yet settled, or ErrLotNotFound
// when the auction has been dealt through.
func (r *AuctionRepository) NextAvailableLot(ctx context.Context, auctionID uuid.UUID) (*domain.AuctionLot, error) {
	var l domain.AuctionLot
	err := r.db.GetContext(ctx, &l,
		`SELECT * FROM auction_lots WHERE auction_id = $1 AND status = 'available' ORDER BY order_index ASC LIMIT 1`,
		auctionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLotNotFound
		}
		return nil, fmt.Errorf("auction_repo.NextAvailableLot: %w", err)
	}
	return &l, nil
}

// MarkSold settles a lot to the winning team inside an existing transaction.
// The status guard makes settlement idempotent at the database: a second
// attempt matches zero rows and surfaces ErrLotSettled.
func (r *AuctionRepository) MarkSold(ctx context.Context, tx *sqlx.Tx, lotID, teamID uuid.UUID, finalPrice int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE auction_lots
		SET status = 'sold', sold_to_team_id = $1, final_price = $2, updated_at = now()
		WHERE id = $3 AND status = 'available'`,
		teamID, finalPrice, lotID)
	if err != nil {
		return fmt.Errorf("auction_repo.MarkSold: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLotSettled
	}
	return nil
}

// MarkUnsold records that a lot's round expired without bids. Same
// exactly-once guard as MarkSold.
func (r *AuctionRepository) MarkUnsold(ctx context.Context, lotID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE auction_lots
		SET status = 'unsold', updated_at = now()
		WHERE id = $1 AND status = 'available'`,
		lotID)
	if err != nil {
		return fmt.Errorf("auction_repo.MarkUnsold: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLotSettled
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Export
// ──────────────────────────────────────────────────────────────────────────────

// SoldLotRow is one line of the auction results export.
type SoldLotRow struct {
	LotID      uuid.UUID `db:"lot_id"`
	OrderIndex int       `db:"order_index"`
	PlayerName string    `db:"player_name"`
	PlayerRole string    `db:"player_role"`
	BasePrice  int64     `db:"base_price"`
	Status     string    `db:"status"`
	TeamName   *string   `db:"team_name"`
	FinalPrice *int64    `db:"final_price"`
}

// ListResults returns every settled lot of an auction joined with player and
// winning-team names, in running order. Feeds the CSV export.
func (r *AuctionRepository) ListResults(ctx context.Context, auctionID uuid.UUID) ([]SoldLotRow, error) {
	var rows []SoldLotRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT
			l.id          AS lot_id,
			l.order_index AS order_index,
			l.status      AS status,
			l.final_price AS final_price,
			p.name        AS player_name,
			p.role        AS player_role,
			p.base_price  AS base_price,
			t.name        AS team_name
		FROM auction_lots l
		JOIN players p ON p.id = l.player_id
		LEFT JOIN teams t ON t.id = l.sold_to_team_id
		WHERE l.auction_id = $1 AND l.status <> 'available'
		ORDER BY l.order_index ASC`,
		auctionID)
	if err != nil {
		return nil, fmt.Errorf("auction_repo.ListResults: %w", err)
	}
	return rows, nil
}
