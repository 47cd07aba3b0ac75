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

// TeamRepository handles all database operations for Teams.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository creates a new TeamRepository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a new team row. New teams start unapproved.
func (r *TeamRepository) Create(ctx context.Context, t *domain.Team) error {
	query := `
		INSERT INTO teams
			(id, name, logo_url, strategy, budget_total, budget_remaining, approved, owner_user_id, created_at, updated_at)
		VALUES
			(:id, :name, :logo_url, :strategy, :budget_total, :budget_remaining, :approved, :owner_user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		if isPgUniqueViolation(err, "teams_name_key") {
			return domain.ErrTeamNameTaken
		}
		return fmt.Errorf("team_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a team by primary key.
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	var t domain.Team
	err := r.db.GetContext(ctx, &t, `SELECT * FROM teams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("team_repo.GetByID: %w", err)
	}
	return &t, nil
}

// GetByOwner fetches the team owned by the given user.
func (r *TeamRepository) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*domain.Team, error) {
	var t domain.Team
	err := r.db.GetContext(ctx, &t, `SELECT * FROM teams WHERE owner_user_id = $1`, ownerUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("team_repo.GetByOwner: %w", err)
	}
	return &t, nil
}

// ListApproved returns all approved teams, alphabetically.
func (r *TeamRepository) ListApproved(ctx context.Context) ([]*domain.Team, error) {
	var teams []*domain.Team
	err := r.db.SelectContext(ctx, &teams,
		`SELECT * FROM teams WHERE approved = true ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("team_repo.ListApproved: %w", err)
	}
	return teams, nil
}

// ListPending returns teams awaiting admin approval, oldest first.
func (r *TeamRepository) ListPending(ctx context.Context) ([]*domain.Team, error) {
	var teams []*domain.Team
	err := r.db.SelectContext(ctx, &teams,
		`SELECT * FROM teams WHERE approved = false ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("team_repo.ListPending: %w", err)
	}
	return teams, nil
}

// Approve marks a team approved and refills its purse to the full budget, so
// a team approved late (or re-approved) always starts from a clean slate.
func (r *TeamRepository) Approve(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE teams SET approved = true, budget_remaining = budget_total, updated_at = now() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("team_repo.Approve: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

// DebitBudget subtracts amount from a team's remaining purse inside an
// existing transaction, flooring at zero. The row lock keeps concurrent
// settlements from interleaving.
func (r *TeamRepository) DebitBudget(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int64) error {
	var remaining int64
	err := tx.GetContext(ctx, &remaining,
		`SELECT budget_remaining FROM teams WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTeamNotFound
		}
		return fmt.Errorf("team_repo.DebitBudget lock: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE teams SET budget_remaining = GREATEST(budget_remaining - $1, 0), updated_at = now() WHERE id = $2`,
		amount, id)
	if err != nil {
		return fmt.Errorf("team_repo.DebitBudget update: %w", err)
	}
	return nil
}

// IsEligible reports whether a team may bid: it must exist and be approved.
func (r *TeamRepository) IsEligible(ctx context.Context, id uuid.UUID) (bool, error) {
	var approved bool
	err := r.db.GetContext(ctx, &approved, `SELECT approved FROM teams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("team_repo.IsEligible: %w", err)
	}
	return approved, nil
}

// RemainingBudget returns a team's current purse.
func (r *TeamRepository) RemainingBudget(ctx context.Context, id uuid.UUID) (int64, error) {
	var remaining int64
	err := r.db.GetContext(ctx, &remaining,
		`SELECT budget_remaining FROM teams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrTeamNotFound
		}
		return 0, fmt.Errorf("team_repo.RemainingBudget: %w", err)
	}
	return remaining, nil
}

// ResetBudgets sets every approved team's purse to the given amount. Used
// when an auction with a per-team budget override goes live.
func (r *TeamRepository) ResetBudgets(ctx context.Context, budget int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE teams SET budget_total = $1, budget_remaining = $1, updated_at = now() WHERE approved = true`,
		budget)
	if err != nil {
		return fmt.Errorf("team_repo.ResetBudgets: %w", err)
	}
	return nil
}
