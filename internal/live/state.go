// Package live implements the per-auction bidding engine: the authoritative
// in-memory round state, the countdown that drives it, bid admission with
// auto-bid cascades, and exactly-once settlement through the ledger.
package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Round state
// ──────────────────────────────────────────────────────────────────────────────

// BidEvent is one accepted bid in the round's in-memory history. Origin is
// the transport-derived network address used by the fraud heuristics.
type BidEvent struct {
	TeamID uuid.UUID `json:"team_id"`
	Amount int64     `json:"amount"`
	At     time.Time `json:"at"`
	Origin string    `json:"-"`
}

// standingBid is a registered auto-bid ceiling. The origin recorded at
// registration time is attributed to every bid the cascade places for the
// team, so the fraud heuristics see auto-bids the same way as manual ones.
type standingBid struct {
	ceiling int64
	origin  string
}

// roundState is the authoritative state of one auction's currently-open lot.
// Owned exclusively by its Room; every read and write happens under the
// Room's mutex.
type roundState struct {
	lotID    uuid.UUID // zero when idle
	playerID uuid.UUID // zero when idle

	highestAmount int64
	highestTeamID uuid.UUID // zero while no bids
	history       []BidEvent

	deadline     time.Time // zero when idle; only ever extended while live
	minIncrement int64

	standingBids map[uuid.UUID]standingBid

	isLive bool

	// round increments on every StartRound so a countdown goroutine from an
	// earlier round can detect it is stale and exit.
	round uint64
}

// resetForRound reinitialises the state for a fresh round.
func (s *roundState) resetForRound(lotID, playerID uuid.UUID, deadline time.Time, minIncrement int64) {
	s.lotID = lotID
	s.playerID = playerID
	s.highestAmount = 0
	s.highestTeamID = uuid.Nil
	s.history = nil
	s.deadline = deadline
	s.minIncrement = minIncrement
	s.standingBids = make(map[uuid.UUID]standingBid)
	s.isLive = true
	s.round++
}

// resetToIdle clears everything a finished round leaves behind.
func (s *roundState) resetToIdle() {
	s.lotID = uuid.Nil
	s.playerID = uuid.Nil
	s.highestAmount = 0
	s.highestTeamID = uuid.Nil
	s.history = nil
	s.deadline = time.Time{}
	s.isLive = false
}

// lastEvents returns up to n most recent history entries.
func (s *roundState) lastEvents(n int) []BidEvent {
	if len(s.history) <= n {
		return s.history
	}
	return s.history[len(s.history)-n:]
}

// ──────────────────────────────────────────────────────────────────────────────
// Registry
// ──────────────────────────────────────────────────────────────────────────────

// Registry maps auction IDs to their Rooms. The registry lock is held only
// long enough to fetch or create a handle; all round work then proceeds under
// the Room's own mutex, so independent auctions never contend.
type registry struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func newRegistry() *registry {
	return &registry{rooms: make(map[uuid.UUID]*Room)}
}

// room returns the Room for auctionID, creating it lazily on first reference.
func (g *registry) room(auctionID uuid.UUID, build func() *Room) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[auctionID]
	if !ok {
		r = build()
		g.rooms[auctionID] = r
	}
	return r
}

// peek returns the Room for auctionID without creating one.
func (g *registry) peek(auctionID uuid.UUID) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[auctionID]
	return r, ok
}
