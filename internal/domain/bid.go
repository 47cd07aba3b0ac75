package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bid
// ──────────────────────────────────────────────────────────────────────────────

// Bid is the durable record of one accepted bid. Immutable once written;
// rejected bid attempts are never persisted.
type Bid struct {
	ID            uuid.UUID `json:"id"             db:"id"`
	AuctionID     uuid.UUID `json:"auction_id"     db:"auction_id"`
	PlayerID      uuid.UUID `json:"player_id"      db:"player_id"`
	TeamID        uuid.UUID `json:"team_id"        db:"team_id"`
	Amount        int64     `json:"amount"         db:"amount"`
	PlacedAt      time.Time `json:"placed_at"      db:"placed_at"`
	OriginAddress string    `json:"-"              db:"origin_address"` // transport-derived, not exposed
}

// PlaceBidRequest carries the validated inputs for one bid attempt against a
// live round. OriginAddress must come from the transport layer, never from
// client payload.
type PlaceBidRequest struct {
	AuctionID     uuid.UUID
	TeamID        uuid.UUID
	PlayerID      uuid.UUID
	Amount        int64
	OriginAddress string
}

// MeetsIncrement reports whether amount clears the increment rule against the
// current highest bid. When the round has no bids yet the floor is one
// increment above zero, not the lot's base price.
func MeetsIncrement(amount, highest, minIncrement int64) bool {
	return amount >= highest+minIncrement
}
