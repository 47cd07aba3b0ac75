package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// PlayerRole
// ──────────────────────────────────────────────────────────────────────────────

// PlayerRole is the on-field discipline a player is auctioned under.
type PlayerRole string

const (
	RoleBatter       PlayerRole = "Batter"
	RoleBowler       PlayerRole = "Bowler"
	RoleAllRounder   PlayerRole = "All-Rounder"
	RoleWicketkeeper PlayerRole = "Wicketkeeper"
)

// IsValid returns true if the role is a recognised discipline.
func (r PlayerRole) IsValid() bool {
	switch r {
	case RoleBatter, RoleBowler, RoleAllRounder, RoleWicketkeeper:
		return true
	}
	return false
}

// DefaultBasePrice is the reserve price in rupees (₹10 lakh) for a player who
// did not declare one.
const DefaultBasePrice int64 = 1_000_000

// ──────────────────────────────────────────────────────────────────────────────
// PlayerStats
// ──────────────────────────────────────────────────────────────────────────────

// PlayerStats holds the career numbers fed to the valuation heuristic.
// Stored as a JSONB column.
type PlayerStats struct {
	Matches    int     `json:"matches"`
	Runs       int     `json:"runs"`
	Wickets    int     `json:"wickets"`
	StrikeRate float64 `json:"strike_rate"`
	Economy    float64 `json:"economy"`
}

// Value implements driver.Valuer so sqlx can write the stats as JSONB.
func (s PlayerStats) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading the JSONB column back.
func (s *PlayerStats) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = PlayerStats{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("player stats: cannot scan %T", src)
}

// ──────────────────────────────────────────────────────────────────────────────
// Player
// ──────────────────────────────────────────────────────────────────────────────

// Player is an auctionable playing profile. AIValuation is a stateless
// heuristic estimate computed at registration time; it never constrains
// bidding.
type Player struct {
	ID           uuid.UUID   `json:"id"            db:"id"`
	Name         string      `json:"name"          db:"name"`
	Role         PlayerRole  `json:"role"          db:"role"`
	BasePrice    int64       `json:"base_price"    db:"base_price"`
	Stats        PlayerStats `json:"stats"         db:"stats"`
	HighlightURL string      `json:"highlight_url" db:"highlight_url"`
	AIValuation  int64       `json:"ai_valuation"  db:"ai_valuation"`
	Approved     bool        `json:"approved"      db:"approved"`
	UserID       *uuid.UUID  `json:"user_id"       db:"user_id"`
	CreatedAt    time.Time   `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"    db:"updated_at"`
}
