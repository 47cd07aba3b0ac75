// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines the inbound commands clients may send and the outbound
// messages broadcast on each auction's topic.
package ws

import (
	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/live"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

// Inbound command types.
const (
	MsgTypeJoin           MsgType = "join"
	MsgTypeStartRound     MsgType = "start_round"
	MsgTypeForceEnd       MsgType = "force_end"
	MsgTypePlaceBid       MsgType = "place_bid"
	MsgTypeSetStandingBid MsgType = "set_standing_bid"
)

// Outbound message types.
const (
	MsgTypeRoundStarted  MsgType = "round_started"
	MsgTypeTick          MsgType = "tick"
	MsgTypeBidAccepted   MsgType = "bid_accepted"
	MsgTypeCommentary    MsgType = "commentary"
	MsgTypeSaleFinalized MsgType = "sale_finalized"
	MsgTypeSnapshot      MsgType = "snapshot"
	MsgTypeError         MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// Inbound
// ──────────────────────────────────────────────────────────────────────────────

// InboundMessage is the envelope every client frame must parse into. Fields
// beyond Type and AuctionID are read per command; unknown commands are
// dropped. The bidder's identity and origin address always come from the
// connection, never from the payload.
type InboundMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`

	// start_round
	LotID uuid.UUID `json:"lot_id,omitempty"`

	// place_bid
	PlayerID uuid.UUID `json:"player_id,omitempty"`
	Amount   int64     `json:"amount,omitempty"`

	// set_standing_bid
	Ceiling int64 `json:"ceiling,omitempty"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Outbound
// ──────────────────────────────────────────────────────────────────────────────

// RoundStartedMessage announces a fresh round on the auction topic.
type RoundStartedMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	live.RoundStartedEvent
}

// TickMessage carries the once-per-second countdown.
type TickMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	live.TickEvent
}

// BidAcceptedMessage is broadcast for every bid that cleared admission.
type BidAcceptedMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	live.BidAcceptedEvent
}

// CommentaryMessage carries advisory narration (auto-bids, fraud alerts).
type CommentaryMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	live.CommentaryEvent
}

// SaleFinalizedMessage reports a round's settled outcome.
type SaleFinalizedMessage struct {
	Type      MsgType   `json:"type"`
	AuctionID uuid.UUID `json:"auction_id"`
	live.SaleFinalizedEvent
}

// SnapshotMessage is sent once, directly to a client that just joined an
// auction topic.
type SnapshotMessage struct {
	Type MsgType `json:"type"`
	live.Snapshot
}

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
