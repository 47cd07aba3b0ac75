package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/domain"
	"github.com/bidpitch/auction/internal/live"
	"github.com/bidpitch/auction/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Request types
// ──────────────────────────────────────────────────────────────────────────────

// CreateAuctionRequest carries a new auction event.
type CreateAuctionRequest struct {
	Name          string    `json:"name"            binding:"required,min=2,max=80"`
	ScheduledAt   time.Time `json:"scheduled_at"    binding:"required"`
	BudgetPerTeam int64     `json:"budget_per_team" binding:"omitempty,min=0"`
}

// ──────────────────────────────────────────────────────────────────────────────
// AuctionService
// ──────────────────────────────────────────────────────────────────────────────

// AuctionService manages auction events and their lots, and is the only path
// that opens live rounds on the engine.
type AuctionService struct {
	auctionRepo *repository.AuctionRepository
	playerRepo  *repository.PlayerRepository
	teamRepo    *repository.TeamRepository
	bidRepo     *repository.BidRepository
	engine      *live.Engine
	cfg         *config.Config
}

// NewAuctionService creates an AuctionService.
func NewAuctionService(
	auctionRepo *repository.AuctionRepository,
	playerRepo *repository.PlayerRepository,
	teamRepo *repository.TeamRepository,
	bidRepo *repository.BidRepository,
	engine *live.Engine,
	cfg *config.Config,
) *AuctionService {
	return &AuctionService{
		auctionRepo: auctionRepo,
		playerRepo:  playerRepo,
		teamRepo:    teamRepo,
		bidRepo:     bidRepo,
		engine:      engine,
		cfg:         cfg,
	}
}

// Create schedules a new auction.
func (s *AuctionService) Create(ctx context.Context, createdBy uuid.UUID, req CreateAuctionRequest) (*domain.Auction, error) {
	budget := req.BudgetPerTeam
	if budget <= 0 {
		budget = s.cfg.Auction.DefaultTeamBudget
	}

	now := time.Now().UTC()
	auction := &domain.Auction{
		ID:            uuid.New(),
		Name:          req.Name,
		ScheduledAt:   req.ScheduledAt,
		BudgetPerTeam: budget,
		Status:        domain.AuctionScheduled,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.auctionRepo.Create(ctx, auction); err != nil {
		return nil, err
	}
	return auction, nil
}

// Get fetches one auction.
func (s *AuctionService) Get(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return s.auctionRepo.GetByID(ctx, id)
}

// List returns every auction, newest first.
func (s *AuctionService) List(ctx context.Context) ([]*domain.Auction, error) {
	return s.auctionRepo.List(ctx)
}

// AddLot appends an approved player to the auction's running order.
func (s *AuctionService) AddLot(ctx context.Context, auctionID, playerID uuid.UUID) (*domain.AuctionLot, error) {
	if _, err := s.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !player.Approved {
		return nil, domain.ErrPlayerNotFound
	}

	lots, err := s.auctionRepo.ListLots(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lot := &domain.AuctionLot{
		ID:         uuid.New(),
		AuctionID:  auctionID,
		PlayerID:   playerID,
		Status:     domain.LotAvailable,
		OrderIndex: len(lots),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.auctionRepo.AddLot(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// Lots returns the auction's running order.
func (s *AuctionService) Lots(ctx context.Context, auctionID uuid.UUID) ([]*domain.AuctionLot, error) {
	return s.auctionRepo.ListLots(ctx, auctionID)
}

// Bids returns the auction's full bid trail.
func (s *AuctionService) Bids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	return s.bidRepo.ListByAuction(ctx, auctionID)
}

// Results returns settled lots with player and team names, for display and
// the CSV export.
func (s *AuctionService) Results(ctx context.Context, auctionID uuid.UUID) ([]repository.SoldLotRow, error) {
	if _, err := s.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.auctionRepo.ListResults(ctx, auctionID)
}

// GoLive moves a scheduled auction into the live state and, when the event
// overrides the per-team budget, resets every approved team's purse to it.
func (s *AuctionService) GoLive(ctx context.Context, id uuid.UUID) error {
	auction, err := s.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if auction.Status == domain.AuctionEnded {
		return domain.ErrLotSettled
	}
	if err := s.auctionRepo.UpdateStatus(ctx, id, domain.AuctionLive); err != nil {
		return err
	}
	if auction.BudgetPerTeam > 0 {
		return s.teamRepo.ResetBudgets(ctx, auction.BudgetPerTeam)
	}
	return nil
}

// End closes an auction; any live round is force-ended first.
func (s *AuctionService) End(ctx context.Context, id uuid.UUID) error {
	if _, err := s.auctionRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.engine.ForceEnd(ctx, id); err != nil && !errors.Is(err, domain.ErrNoLiveRound) {
		return err
	}
	return s.auctionRepo.UpdateStatus(ctx, id, domain.AuctionEnded)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rounds
// ──────────────────────────────────────────────────────────────────────────────

// StartRound puts one lot under the hammer. The lot must belong to a live
// auction and still be available. The round's minimum increment is seeded
// from the player's base price, so the opening bid has to clear the reserve;
// the configured default applies when the player carries none.
func (s *AuctionService) StartRound(ctx context.Context, auctionID, lotID uuid.UUID) error {
	auction, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if !auction.IsLive() {
		return domain.ErrAuctionNotFound
	}

	lot, err := s.auctionRepo.GetLot(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.AuctionID != auctionID {
		return domain.ErrLotNotFound
	}
	if lot.IsSettled() {
		return domain.ErrLotSettled
	}

	player, err := s.playerRepo.GetByID(ctx, lot.PlayerID)
	if err != nil {
		return err
	}

	minIncrement := player.BasePrice
	if minIncrement <= 0 {
		minIncrement = s.cfg.Auction.DefaultMinIncrement
	}

	return s.engine.StartRound(ctx, auctionID, lot.ID, lot.PlayerID,
		s.cfg.Auction.DefaultRoundDuration, minIncrement)
}

// StartNextRound opens the first still-available lot of the auction.
func (s *AuctionService) StartNextRound(ctx context.Context, auctionID uuid.UUID) (*domain.AuctionLot, error) {
	lot, err := s.auctionRepo.NextAvailableLot(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if err := s.StartRound(ctx, auctionID, lot.ID); err != nil {
		return nil, err
	}
	return lot, nil
}

// ForceEndRound settles the auction's live round immediately.
func (s *AuctionService) ForceEndRound(ctx context.Context, auctionID uuid.UUID) error {
	return s.engine.ForceEnd(ctx, auctionID)
}

// LiveState exposes the engine snapshot for the read API.
func (s *AuctionService) LiveState(auctionID uuid.UUID) live.Snapshot {
	return s.engine.Snapshot(auctionID)
}
