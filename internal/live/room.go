package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/domain"
)

// settleTimeout bounds the ledger writes issued by finalize, which runs
// outside any request context.
const settleTimeout = 5 * time.Second

// ──────────────────────────────────────────────────────────────────────────────
// Engine
// ──────────────────────────────────────────────────────────────────────────────

// Options tunes the engine's timing. Zero values fall back to production
// defaults; tests shrink TickInterval to exercise full rounds quickly.
type Options struct {
	TickInterval    time.Duration // countdown cadence, default 1s
	AntiSnipeWindow time.Duration // late-bid clock reset, default 5s
	SnapshotHistory int           // history entries in a join snapshot, default 30
	FraudWindow     int           // bids inspected by the heuristics, default 5
	RapidBidGap     time.Duration // consecutive-bid alert threshold, default 500ms
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.AntiSnipeWindow <= 0 {
		o.AntiSnipeWindow = 5 * time.Second
	}
	if o.SnapshotHistory <= 0 {
		o.SnapshotHistory = 30
	}
	if o.FraudWindow <= 0 {
		o.FraudWindow = 5
	}
	if o.RapidBidGap <= 0 {
		o.RapidBidGap = 500 * time.Millisecond
	}
	return o
}

// Engine coordinates every auction's live round. Rooms are created lazily and
// never contend with each other: the registry lock only guards the handle
// lookup.
type Engine struct {
	opts   Options
	ledger Ledger
	bcast  Broadcaster
	log    *slog.Logger
	reg    *registry
}

// NewEngine builds an engine over the given ledger and broadcaster.
func NewEngine(ledger Ledger, bcast Broadcaster, log *slog.Logger, opts Options) *Engine {
	if bcast == nil {
		bcast = NopBroadcaster{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		opts:   opts.withDefaults(),
		ledger: ledger,
		bcast:  bcast,
		log:    log,
		reg:    newRegistry(),
	}
}

// Room owns one auction's round state. All round operations serialise on its
// mutex, so admission, cascade steps, and finalize can never interleave.
type Room struct {
	auctionID uuid.UUID
	eng       *Engine

	mu    sync.Mutex
	state roundState
}

func (e *Engine) roomFor(auctionID uuid.UUID) *Room {
	return e.reg.room(auctionID, func() *Room {
		return &Room{auctionID: auctionID, eng: e}
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Round lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// StartRound opens a timed round for the given lot. Fails with
// ErrRoundInProgress if the auction already has a live round; that round is
// untouched.
func (e *Engine) StartRound(ctx context.Context, auctionID, lotID, playerID uuid.UUID, duration time.Duration, minIncrement int64) error {
	if duration <= 0 {
		duration = 30 * time.Second
	}
	if minIncrement <= 0 {
		minIncrement = domain.DefaultMinIncrement
	}

	r := e.roomFor(auctionID)

	r.mu.Lock()
	if r.state.isLive {
		r.mu.Unlock()
		return domain.ErrRoundInProgress
	}
	deadline := time.Now().Add(duration)
	r.state.resetForRound(lotID, playerID, deadline, minIncrement)
	round := r.state.round
	r.mu.Unlock()

	e.bcast.RoundStarted(auctionID, RoundStartedEvent{
		LotID:    lotID,
		PlayerID: playerID,
		Deadline: deadline,
	})
	e.log.Info("round started",
		"auction_id", auctionID,
		"lot_id", lotID,
		"player_id", playerID,
		"duration", duration,
		"min_increment", minIncrement,
	)

	go r.runCountdown(round)
	return nil
}

// ForceEnd finalizes the live round immediately at whatever state it is in.
func (e *Engine) ForceEnd(ctx context.Context, auctionID uuid.UUID) error {
	r, ok := e.reg.peek(auctionID)
	if !ok {
		return domain.ErrNoLiveRound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.isLive {
		return domain.ErrNoLiveRound
	}
	r.finalizeLocked()
	return nil
}

// Snapshot returns the auction's current round state for a joining
// subscriber. Idle auctions yield a zero snapshot with IsLive false.
func (e *Engine) Snapshot(auctionID uuid.UUID) Snapshot {
	snap := Snapshot{AuctionID: auctionID}
	r, ok := e.reg.peek(auctionID)
	if !ok {
		return snap
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.isLive {
		return snap
	}

	lotID, playerID := r.state.lotID, r.state.playerID
	snap.IsLive = true
	snap.LotID = &lotID
	snap.PlayerID = &playerID
	snap.HighestAmount = r.state.highestAmount
	if r.state.highestTeamID != uuid.Nil {
		teamID := r.state.highestTeamID
		snap.HighestTeamID = &teamID
	}
	snap.RemainingSeconds = secondsLeft(time.Until(r.state.deadline))
	snap.History = append([]BidEvent(nil), r.state.lastEvents(e.opts.SnapshotHistory)...)
	return snap
}

// ──────────────────────────────────────────────────────────────────────────────
// Countdown
// ──────────────────────────────────────────────────────────────────────────────

// runCountdown drives one round to its deadline. It re-reads the deadline on
// every tick, so anti-snipe extensions take effect without rescheduling. A
// stale goroutine from a superseded round detects the round counter mismatch
// and exits without touching state.
func (r *Room) runCountdown(round uint64) {
	defer func() {
		if rec := recover(); rec != nil {
			r.eng.log.Error("countdown panic, resetting round",
				"auction_id", r.auctionID, "panic", rec)
			r.mu.Lock()
			if r.state.isLive && r.state.round == round {
				r.state.resetToIdle()
			}
			r.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(r.eng.opts.TickInterval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		if !r.state.isLive || r.state.round != round {
			r.mu.Unlock()
			return
		}
		remaining := time.Until(r.state.deadline)
		if remaining <= 0 {
			r.finalizeLocked()
			r.mu.Unlock()
			return
		}
		r.eng.bcast.Tick(r.auctionID, TickEvent{RemainingSeconds: secondsLeft(remaining)})
		r.mu.Unlock()
	}
}

// finalizeLocked settles the round exactly once. The caller holds r.mu, which
// is the same lock bid admission runs under, so no bid can slip in beside the
// settlement. Flipping isLive first makes a second finalize (countdown racing
// a force-end) a no-op.
//
// Ledger failure is logged but does not block the in-memory reset: the room
// must come back to idle so the operator can re-run or correct the lot.
func (r *Room) finalizeLocked() {
	if !r.state.isLive {
		return
	}
	r.state.isLive = false

	lotID, playerID := r.state.lotID, r.state.playerID
	winnerID, amount := r.state.highestTeamID, r.state.highestAmount

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()

	ev := SaleFinalizedEvent{LotID: lotID, PlayerID: playerID, Status: "unsold"}
	if winnerID != uuid.Nil {
		if err := r.eng.ledger.SettleSold(ctx, lotID, winnerID, amount); err != nil {
			r.eng.log.Error("settlement write failed",
				"auction_id", r.auctionID, "lot_id", lotID,
				"winner_id", winnerID, "amount", amount, "error", err)
		}
		w, a := winnerID, amount
		ev.WinnerID = &w
		ev.FinalPrice = &a
		ev.Status = "sold"
	} else {
		if err := r.eng.ledger.MarkUnsold(ctx, lotID); err != nil {
			r.eng.log.Error("unsold write failed",
				"auction_id", r.auctionID, "lot_id", lotID, "error", err)
		}
	}

	r.eng.bcast.SaleFinalized(r.auctionID, ev)
	r.eng.log.Info("sale finalized",
		"auction_id", r.auctionID, "lot_id", lotID,
		"status", ev.Status, "amount", amount)

	r.state.resetToIdle()
}

// secondsLeft converts a remaining duration to whole seconds, rounding up so
// a client never sees 0 while the round is still open.
func secondsLeft(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
