package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/config"
	"github.com/bidpitch/auction/internal/domain"
	"github.com/bidpitch/auction/internal/repository"
	"github.com/bidpitch/auction/internal/valuation"
)

// ──────────────────────────────────────────────────────────────────────────────
// Request types
// ──────────────────────────────────────────────────────────────────────────────

// CreateTeamRequest carries a new franchise profile.
type CreateTeamRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=60"`
	LogoURL  string `json:"logo_url" binding:"omitempty,url"`
	Strategy string `json:"strategy" binding:"omitempty,oneof=batting-heavy bowling-heavy balanced"`
}

// RegisterPlayerRequest carries a new playing profile.
type RegisterPlayerRequest struct {
	Name         string             `json:"name"          binding:"required,min=2,max=80"`
	Role         string             `json:"role"          binding:"required"`
	BasePrice    int64              `json:"base_price"    binding:"omitempty,min=0"`
	Stats        domain.PlayerStats `json:"stats"`
	HighlightURL string             `json:"highlight_url" binding:"omitempty,url"`
}

// ──────────────────────────────────────────────────────────────────────────────
// RosterService
// ──────────────────────────────────────────────────────────────────────────────

// RosterService manages the team and player pools. Both kinds of profile are
// created pending and only enter auctions once an admin approves them.
type RosterService struct {
	teamRepo   *repository.TeamRepository
	playerRepo *repository.PlayerRepository
	cfg        *config.Config
}

// NewRosterService creates a RosterService.
func NewRosterService(teamRepo *repository.TeamRepository, playerRepo *repository.PlayerRepository, cfg *config.Config) *RosterService {
	return &RosterService{teamRepo: teamRepo, playerRepo: playerRepo, cfg: cfg}
}

// CreateTeam registers a franchise owned by the given user. The purse is
// seeded with the configured default; it becomes authoritative on approval.
func (s *RosterService) CreateTeam(ctx context.Context, ownerUserID uuid.UUID, req CreateTeamRequest) (*domain.Team, error) {
	strategy := domain.TeamStrategy(req.Strategy)
	if strategy == "" {
		strategy = domain.StrategyBalanced
	}
	if !strategy.IsValid() {
		strategy = domain.StrategyBalanced
	}

	now := time.Now().UTC()
	team := &domain.Team{
		ID:              uuid.New(),
		Name:            req.Name,
		LogoURL:         req.LogoURL,
		Strategy:        strategy,
		BudgetTotal:     s.cfg.Auction.DefaultTeamBudget,
		BudgetRemaining: s.cfg.Auction.DefaultTeamBudget,
		Approved:        false,
		OwnerUserID:     ownerUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// RegisterPlayer creates a playing profile and prices it with the valuation
// heuristic. The estimate is informational; bidding never consults it.
func (s *RosterService) RegisterPlayer(ctx context.Context, userID *uuid.UUID, req RegisterPlayerRequest) (*domain.Player, error) {
	role := domain.PlayerRole(req.Role)
	if !role.IsValid() {
		return nil, domain.ErrInvalidPlayerRole
	}

	basePrice := req.BasePrice
	if basePrice <= 0 {
		basePrice = domain.DefaultBasePrice
	}

	now := time.Now().UTC()
	player := &domain.Player{
		ID:           uuid.New(),
		Name:         req.Name,
		Role:         role,
		BasePrice:    basePrice,
		Stats:        req.Stats,
		HighlightURL: req.HighlightURL,
		AIValuation:  valuation.Estimate(req.Stats, basePrice),
		Approved:     false,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// GetTeam fetches one team.
func (s *RosterService) GetTeam(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	return s.teamRepo.GetByID(ctx, id)
}

// GetPlayer fetches one player.
func (s *RosterService) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	return s.playerRepo.GetByID(ctx, id)
}

// ListTeams returns the approved franchises.
func (s *RosterService) ListTeams(ctx context.Context) ([]*domain.Team, error) {
	return s.teamRepo.ListApproved(ctx)
}

// ListPlayers returns the approved player pool.
func (s *RosterService) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	return s.playerRepo.ListApproved(ctx)
}

// PendingTeams returns franchises awaiting approval.
func (s *RosterService) PendingTeams(ctx context.Context) ([]*domain.Team, error) {
	return s.teamRepo.ListPending(ctx)
}

// PendingPlayers returns players awaiting approval.
func (s *RosterService) PendingPlayers(ctx context.Context) ([]*domain.Player, error) {
	return s.playerRepo.ListPending(ctx)
}

// ApproveTeam admits a franchise to bidding and refills its purse.
func (s *RosterService) ApproveTeam(ctx context.Context, id uuid.UUID) error {
	return s.teamRepo.Approve(ctx, id)
}

// ApprovePlayer admits a player to the auctionable pool.
func (s *RosterService) ApprovePlayer(ctx context.Context, id uuid.UUID) error {
	return s.playerRepo.Approve(ctx, id)
}

// TeamForUser maps an authenticated user to the franchise they own. Satisfies
// the gateway's TeamResolver.
func (s *RosterService) TeamForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	team, err := s.teamRepo.GetByOwner(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return team.ID, nil
}
