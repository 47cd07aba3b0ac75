package live

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Outbound events
// ──────────────────────────────────────────────────────────────────────────────

// RoundStartedEvent announces a new live round for a lot.
type RoundStartedEvent struct {
	LotID    uuid.UUID `json:"lot_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Deadline time.Time `json:"deadline"`
}

// TickEvent carries the countdown, emitted once per second while live.
type TickEvent struct {
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// BidAcceptedEvent is broadcast after a bid clears admission and is durably
// recorded.
type BidAcceptedEvent struct {
	TeamID           uuid.UUID `json:"team_id"`
	Amount           int64     `json:"amount"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

// CommentaryEvent is advisory narration: auto-bid announcements and fraud
// alerts. Never affects round state.
type CommentaryEvent struct {
	Text string `json:"text"`
}

// SaleFinalizedEvent reports the exactly-once outcome of a round.
type SaleFinalizedEvent struct {
	LotID      uuid.UUID  `json:"lot_id"`
	PlayerID   uuid.UUID  `json:"player_id"`
	WinnerID   *uuid.UUID `json:"winner_id"`   // nil when unsold
	FinalPrice *int64     `json:"final_price"` // nil when unsold
	Status     string     `json:"status"`      // "sold" | "unsold"
}

// Snapshot is the one-time state reply sent to a subscriber joining an
// auction topic mid-round.
type Snapshot struct {
	AuctionID        uuid.UUID  `json:"auction_id"`
	IsLive           bool       `json:"is_live"`
	LotID            *uuid.UUID `json:"lot_id"`
	PlayerID         *uuid.UUID `json:"player_id"`
	HighestAmount    int64      `json:"highest_amount"`
	HighestTeamID    *uuid.UUID `json:"highest_team_id"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	History          []BidEvent `json:"history"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Broadcaster
// ──────────────────────────────────────────────────────────────────────────────

// Broadcaster delivers engine events to every subscriber of an auction's
// topic. Implementations must not block: the engine calls these while holding
// a room's lock.
type Broadcaster interface {
	RoundStarted(auctionID uuid.UUID, ev RoundStartedEvent)
	Tick(auctionID uuid.UUID, ev TickEvent)
	BidAccepted(auctionID uuid.UUID, ev BidAcceptedEvent)
	Commentary(auctionID uuid.UUID, ev CommentaryEvent)
	SaleFinalized(auctionID uuid.UUID, ev SaleFinalizedEvent)
}

// NopBroadcaster discards every event. Used when the engine runs without a
// connected gateway (e.g. in tests or offline tooling).
type NopBroadcaster struct{}

func (NopBroadcaster) RoundStarted(uuid.UUID, RoundStartedEvent)   {}
func (NopBroadcaster) Tick(uuid.UUID, TickEvent)                   {}
func (NopBroadcaster) BidAccepted(uuid.UUID, BidAcceptedEvent)     {}
func (NopBroadcaster) Commentary(uuid.UUID, CommentaryEvent)       {}
func (NopBroadcaster) SaleFinalized(uuid.UUID, SaleFinalizedEvent) {}
