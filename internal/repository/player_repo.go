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

// PlayerRepository handles all database operations for Players.
type PlayerRepository struct {
	db *sqlx.DB
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create inserts a new player profile. The ai_valuation column carries the
// heuristic estimate computed at registration.
func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	query := `
		INSERT INTO players
			(id, name, role, base_price, stats, highlight_url, ai_valuation, approved, user_id, created_at, updated_at)
		VALUES
			(:id, :name, :role, :base_price, :stats, :highlight_url, :ai_valuation, :approved, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("player_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a player by primary key.
func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	var p domain.Player
	err := r.db.GetContext(ctx, &p, `SELECT * FROM players WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("player_repo.GetByID: %w", err)
	}
	return &p, nil
}

// ListApproved returns the approved player pool, alphabetically.
func (r *PlayerRepository) ListApproved(ctx context.Context) ([]*domain.Player, error) {
	var players []*domain.Player
	err := r.db.SelectContext(ctx, &players,
		`SELECT * FROM players WHERE approved = true ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("player_repo.ListApproved: %w", err)
	}
	return players, nil
}

// ListPending returns players awaiting admin approval, oldest first.
func (r *PlayerRepository) ListPending(ctx context.Context) ([]*domain.Player, error) {
	var players []*domain.Player
	err := r.db.SelectContext(ctx, &players,
		`SELECT * FROM players WHERE approved = false ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("player_repo.ListPending: %w", err)
	}
	return players, nil
}

// Approve marks a player eligible for auction lots.
func (r *PlayerRepository) Approve(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET approved = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("player_repo.Approve: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}
