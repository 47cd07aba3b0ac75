package live

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bid admission
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBid runs one bid attempt through admission and, if it is accepted,
// resolves any standing-bid cascade before releasing the room. The returned
// error says why a bid was dropped; the gateway discards it silently, per the
// drop-don't-nack contract.
func (e *Engine) PlaceBid(ctx context.Context, req domain.PlaceBidRequest) error {
	r, ok := e.reg.peek(req.AuctionID)
	if !ok {
		return domain.ErrNoLiveRound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admitLocked(ctx, req, false); err != nil {
		return err
	}
	r.cascadeLocked(ctx)
	return nil
}

// SetStandingBid registers, replaces, or (with ceiling <= 0) withdraws a
// team's auto-bid ceiling for the current round. Registration never bids on
// its own; the ceiling is evaluated only when a later acceptance cascades.
func (e *Engine) SetStandingBid(ctx context.Context, auctionID, teamID uuid.UUID, ceiling int64, origin string) error {
	r, ok := e.reg.peek(auctionID)
	if !ok {
		return domain.ErrNoLiveRound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.isLive {
		return domain.ErrNoLiveRound
	}
	if ceiling <= 0 {
		delete(r.state.standingBids, teamID)
		return nil
	}

	r.state.standingBids[teamID] = standingBid{ceiling: ceiling, origin: origin}
	e.bcast.Commentary(auctionID, CommentaryEvent{
		Text: fmt.Sprintf("Team %s armed an auto-bid up to ₹%d", shortID(teamID), ceiling),
	})
	return nil
}

// admitLocked is the admission pipeline for a single bid. Checks run in a
// fixed order — live round and item match, increment rule, bidder
// eligibility, budget — and the bid is durably appended through the ledger
// before any in-memory mutation. A failed append leaves the round exactly as
// it was.
func (r *Room) admitLocked(ctx context.Context, req domain.PlaceBidRequest, auto bool) error {
	s := &r.state

	if !s.isLive || req.PlayerID != s.playerID {
		return domain.ErrNoLiveRound
	}
	if !domain.MeetsIncrement(req.Amount, s.highestAmount, s.minIncrement) {
		return domain.ErrBidRejected
	}

	eligible, err := r.eng.ledger.IsEligibleBidder(ctx, req.TeamID)
	if err != nil {
		r.eng.log.Warn("eligibility check failed",
			"auction_id", r.auctionID, "team_id", req.TeamID, "error", err)
		return domain.ErrBidRejected
	}
	if !eligible {
		return domain.ErrTeamNotApproved
	}

	budget, err := r.eng.ledger.RemainingBudget(ctx, req.TeamID)
	if err != nil {
		r.eng.log.Warn("budget check failed",
			"auction_id", r.auctionID, "team_id", req.TeamID, "error", err)
		return domain.ErrBidRejected
	}
	if budget < req.Amount {
		return domain.ErrInsufficientBudget
	}

	now := time.Now()
	bid := domain.Bid{
		AuctionID:     req.AuctionID,
		PlayerID:      req.PlayerID,
		TeamID:        req.TeamID,
		Amount:        req.Amount,
		PlacedAt:      now,
		OriginAddress: req.OriginAddress,
	}
	if _, err := r.eng.ledger.AppendBid(ctx, bid); err != nil {
		r.eng.log.Error("bid append failed, dropping bid",
			"auction_id", r.auctionID, "team_id", req.TeamID,
			"amount", req.Amount, "error", err)
		return domain.ErrBidRejected
	}

	s.highestAmount = req.Amount
	s.highestTeamID = req.TeamID
	s.history = append(s.history, BidEvent{
		TeamID: req.TeamID,
		Amount: req.Amount,
		At:     now,
		Origin: req.OriginAddress,
	})

	// Late bids reset the clock instead of letting the round die mid-fight.
	// The deadline only ever moves forward.
	if time.Until(s.deadline) < r.eng.opts.AntiSnipeWindow {
		s.deadline = now.Add(r.eng.opts.AntiSnipeWindow)
	}

	r.eng.bcast.BidAccepted(r.auctionID, BidAcceptedEvent{
		TeamID:           req.TeamID,
		Amount:           req.Amount,
		RemainingSeconds: secondsLeft(time.Until(s.deadline)),
	})
	if auto {
		r.eng.bcast.Commentary(r.auctionID, CommentaryEvent{
			Text: fmt.Sprintf("Auto-bid: team %s raises to ₹%d", shortID(req.TeamID), req.Amount),
		})
	}

	// Advisory only, and strictly after the bid is committed: an alert can
	// never block or undo an accepted bid. Auto-bids go through the same
	// inspection as manual ones.
	for _, alert := range inspectFraud(s.history, r.eng.opts.FraudWindow, r.eng.opts.RapidBidGap) {
		r.eng.bcast.Commentary(r.auctionID, CommentaryEvent{Text: alert})
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Auto-bid cascade
// ──────────────────────────────────────────────────────────────────────────────

// cascadeLocked resolves standing bids inside the critical section that
// admitted the triggering bid, so no external bid interleaves with the chain.
// It is an iterative worklist, not recursion: after each accepted auto-bid it
// rescans from the lowest team ID, which makes the outcome deterministic.
//
// Termination: an accepted step raises the highest amount by exactly one
// increment, and a standing bid that fails admission is removed (amounts only
// rise, so it can never succeed later in the round). Eventually every ceiling
// is below the asking price or withdrawn.
func (r *Room) cascadeLocked(ctx context.Context) {
	s := &r.state

	for s.isLive {
		progressed := false
		for _, teamID := range sortedTeamIDs(s.standingBids) {
			if teamID == s.highestTeamID {
				// A team never outbids itself.
				continue
			}
			sb := s.standingBids[teamID]
			asking := s.highestAmount + s.minIncrement
			if sb.ceiling < asking {
				continue
			}

			req := domain.PlaceBidRequest{
				AuctionID:     r.auctionID,
				TeamID:        teamID,
				PlayerID:      s.playerID,
				Amount:        asking,
				OriginAddress: sb.origin,
			}
			if err := r.admitLocked(ctx, req, true); err != nil {
				delete(s.standingBids, teamID)
				continue
			}
			progressed = true
			break
		}
		if !progressed {
			return
		}
	}
}

func sortedTeamIDs(m map[uuid.UUID]standingBid) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// shortID renders a UUID's first segment for human-facing commentary.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
