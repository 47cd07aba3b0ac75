package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// AuctionStatus represents the lifecycle state of an auction event.
type AuctionStatus string

const (
	AuctionScheduled AuctionStatus = "scheduled" // created, not yet underway
	AuctionLive      AuctionStatus = "live"      // rounds are being run
	AuctionEnded     AuctionStatus = "ended"     // all lots dealt with
)

// LotStatus represents the settlement state of one player within an auction.
type LotStatus string

const (
	LotAvailable LotStatus = "available" // not yet put under the hammer
	LotSold      LotStatus = "sold"      // won by a team, final price recorded
	LotUnsold    LotStatus = "unsold"    // round expired with no bids
)

// DefaultMinIncrement is the bid step in rupees (₹1 lakh) applied when a
// round does not override it.
const DefaultMinIncrement int64 = 100_000

// ──────────────────────────────────────────────────────────────────────────────
// Auction
// ──────────────────────────────────────────────────────────────────────────────

// Auction is one scheduled auction event: an ordered set of lots sold to
// approved teams, one timed round at a time.
type Auction struct {
	ID            uuid.UUID     `json:"id"              db:"id"`
	Name          string        `json:"name"            db:"name"`
	ScheduledAt   time.Time     `json:"scheduled_at"    db:"scheduled_at"`
	BudgetPerTeam int64         `json:"budget_per_team" db:"budget_per_team"`
	Status        AuctionStatus `json:"status"          db:"status"`
	CreatedBy     uuid.UUID     `json:"created_by"      db:"created_by"`
	CreatedAt     time.Time     `json:"created_at"      db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"      db:"updated_at"`
}

// IsLive returns true while rounds may be started for this auction.
func (a *Auction) IsLive() bool {
	return a.Status == AuctionLive
}

// ──────────────────────────────────────────────────────────────────────────────
// AuctionLot
// ──────────────────────────────────────────────────────────────────────────────

// AuctionLot links a player into an auction's running order and carries the
// settlement outcome. Status transitions available → sold|unsold exactly once.
type AuctionLot struct {
	ID           uuid.UUID  `json:"id"              db:"id"`
	AuctionID    uuid.UUID  `json:"auction_id"      db:"auction_id"`
	PlayerID     uuid.UUID  `json:"player_id"       db:"player_id"`
	Status       LotStatus  `json:"status"          db:"status"`
	SoldToTeamID *uuid.UUID `json:"sold_to_team_id" db:"sold_to_team_id"`
	FinalPrice   *int64     `json:"final_price"     db:"final_price"`
	OrderIndex   int        `json:"order_index"     db:"order_index"`
	CreatedAt    time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"      db:"updated_at"`
}

// IsSettled returns true once the lot has been through a finalized round.
func (l *AuctionLot) IsSettled() bool {
	return l.Status == LotSold || l.Status == LotUnsold
}
