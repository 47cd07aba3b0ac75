package live_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bidpitch/auction/internal/domain"
	"github.com/bidpitch/auction/internal/live"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type soldRecord struct {
	winnerID uuid.UUID
	price    int64
}

// fakeLedger is an in-memory Ledger. Teams are eligible with a huge budget
// unless the test says otherwise.
type fakeLedger struct {
	mu sync.Mutex

	bids   []domain.Bid
	sold   map[uuid.UUID]soldRecord
	unsold map[uuid.UUID]int

	ineligible map[uuid.UUID]bool
	budgets    map[uuid.UUID]int64

	appendErr error
	settleErr error

	settleCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		sold:       make(map[uuid.UUID]soldRecord),
		unsold:     make(map[uuid.UUID]int),
		ineligible: make(map[uuid.UUID]bool),
		budgets:    make(map[uuid.UUID]int64),
	}
}

func (f *fakeLedger) AppendBid(_ context.Context, bid domain.Bid) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return uuid.Nil, f.appendErr
	}
	bid.ID = uuid.New()
	f.bids = append(f.bids, bid)
	return bid.ID, nil
}

func (f *fakeLedger) SettleSold(_ context.Context, lotID, winnerID uuid.UUID, finalPrice int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settleCalls++
	if f.settleErr != nil {
		return f.settleErr
	}
	if _, done := f.sold[lotID]; done {
		return domain.ErrLotSettled
	}
	f.sold[lotID] = soldRecord{winnerID: winnerID, price: finalPrice}
	return nil
}

func (f *fakeLedger) MarkUnsold(_ context.Context, lotID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsold[lotID]++
	return nil
}

func (f *fakeLedger) IsEligibleBidder(_ context.Context, teamID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.ineligible[teamID], nil
}

func (f *fakeLedger) RemainingBudget(_ context.Context, teamID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.budgets[teamID]; ok {
		return b, nil
	}
	return 1 << 40, nil
}

func (f *fakeLedger) bidCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bids)
}

// recorder captures broadcast events for assertions.
type recorder struct {
	mu         sync.Mutex
	started    []live.RoundStartedEvent
	ticks      []live.TickEvent
	accepted   []live.BidAcceptedEvent
	commentary []live.CommentaryEvent
	finalized  []live.SaleFinalizedEvent
}

func (r *recorder) RoundStarted(_ uuid.UUID, ev live.RoundStartedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, ev)
}

func (r *recorder) Tick(_ uuid.UUID, ev live.TickEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, ev)
}

func (r *recorder) BidAccepted(_ uuid.UUID, ev live.BidAcceptedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted = append(r.accepted, ev)
}

func (r *recorder) Commentary(_ uuid.UUID, ev live.CommentaryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commentary = append(r.commentary, ev)
}

func (r *recorder) SaleFinalized(_ uuid.UUID, ev live.SaleFinalizedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = append(r.finalized, ev)
}

func (r *recorder) finalizedEvents() []live.SaleFinalizedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]live.SaleFinalizedEvent(nil), r.finalized...)
}

func (r *recorder) commentaryEvents() []live.CommentaryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]live.CommentaryEvent(nil), r.commentary...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const inc = int64(100_000)

type fixture struct {
	eng       *live.Engine
	ledger    *fakeLedger
	rec       *recorder
	auctionID uuid.UUID
	lotID     uuid.UUID
	playerID  uuid.UUID
}

func newFixture(t *testing.T, opts live.Options) *fixture {
	t.Helper()
	ledger := newFakeLedger()
	rec := &recorder{}
	eng := live.NewEngine(ledger, rec, slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	return &fixture{
		eng:       eng,
		ledger:    ledger,
		rec:       rec,
		auctionID: uuid.New(),
		lotID:     uuid.New(),
		playerID:  uuid.New(),
	}
}

func (fx *fixture) startRound(t *testing.T, duration time.Duration) {
	t.Helper()
	err := fx.eng.StartRound(context.Background(), fx.auctionID, fx.lotID, fx.playerID, duration, inc)
	if err != nil {
		t.Fatalf("StartRound: %v", err)
	}
}

func (fx *fixture) bid(teamID uuid.UUID, amount int64) error {
	return fx.eng.PlaceBid(context.Background(), domain.PlaceBidRequest{
		AuctionID:     fx.auctionID,
		TeamID:        teamID,
		PlayerID:      fx.playerID,
		Amount:        amount,
		OriginAddress: "10.0.0.1",
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Admission
// ──────────────────────────────────────────────────────────────────────────────

func TestPlaceBid_FirstBidFloorIsOneIncrement(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)

	team := uuid.New()
	if err := fx.bid(team, inc-1); !errors.Is(err, domain.ErrBidRejected) {
		t.Fatalf("bid below increment floor: got %v, want ErrBidRejected", err)
	}
	// The opening floor is one increment above zero, not the base price.
	if err := fx.bid(team, inc); err != nil {
		t.Fatalf("opening bid at exactly one increment rejected: %v", err)
	}

	snap := fx.eng.Snapshot(fx.auctionID)
	if snap.HighestAmount != inc {
		t.Errorf("highest = %d, want %d", snap.HighestAmount, inc)
	}
}

func TestPlaceBid_IncrementRuleAgainstHighest(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)

	a, b := uuid.New(), uuid.New()
	if err := fx.bid(a, 10*inc); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	if err := fx.bid(b, 10*inc+inc-1); !errors.Is(err, domain.ErrBidRejected) {
		t.Fatalf("short raise admitted: %v", err)
	}
	if err := fx.bid(b, 11*inc); err != nil {
		t.Fatalf("exact raise rejected: %v", err)
	}
	if got := fx.ledger.bidCount(); got != 2 {
		t.Errorf("persisted bids = %d, want 2 (rejected bid must not be recorded)", got)
	}
}

func TestPlaceBid_DroppedWhenNoRoundOrWrongItem(t *testing.T) {
	fx := newFixture(t, live.Options{})

	team := uuid.New()
	if err := fx.bid(team, inc); !errors.Is(err, domain.ErrNoLiveRound) {
		t.Fatalf("bid with no round: got %v, want ErrNoLiveRound", err)
	}

	fx.startRound(t, time.Minute)
	err := fx.eng.PlaceBid(context.Background(), domain.PlaceBidRequest{
		AuctionID: fx.auctionID,
		TeamID:    team,
		PlayerID:  uuid.New(), // not the player on the block
		Amount:    inc,
	})
	if !errors.Is(err, domain.ErrNoLiveRound) {
		t.Fatalf("bid for wrong item: got %v, want ErrNoLiveRound", err)
	}
	if fx.ledger.bidCount() != 0 {
		t.Error("dropped bids must never reach the ledger")
	}
}

func TestPlaceBid_IneligibleAndBrokeTeamsDropped(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)

	unapproved := uuid.New()
	fx.ledger.ineligible[unapproved] = true
	if err := fx.bid(unapproved, inc); !errors.Is(err, domain.ErrTeamNotApproved) {
		t.Fatalf("unapproved team: got %v, want ErrTeamNotApproved", err)
	}

	broke := uuid.New()
	fx.ledger.budgets[broke] = inc - 1
	if err := fx.bid(broke, inc); !errors.Is(err, domain.ErrInsufficientBudget) {
		t.Fatalf("budget-short team: got %v, want ErrInsufficientBudget", err)
	}

	if snap := fx.eng.Snapshot(fx.auctionID); snap.HighestAmount != 0 {
		t.Errorf("highest = %d after only dropped bids, want 0", snap.HighestAmount)
	}
}

func TestPlaceBid_AppendFailureRollsBackEverything(t *testing.T) {
	fx := newFixture(t, live.Options{AntiSnipeWindow: 5 * time.Second})
	fx.startRound(t, 3*time.Second) // inside the anti-snipe window already

	a := uuid.New()
	if err := fx.bid(a, inc); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	before := fx.eng.Snapshot(fx.auctionID)

	fx.ledger.mu.Lock()
	fx.ledger.appendErr = errors.New("disk on fire")
	fx.ledger.mu.Unlock()

	if err := fx.bid(uuid.New(), 5*inc); !errors.Is(err, domain.ErrBidRejected) {
		t.Fatalf("bid with failing ledger: got %v, want ErrBidRejected", err)
	}

	after := fx.eng.Snapshot(fx.auctionID)
	if after.HighestAmount != before.HighestAmount {
		t.Errorf("highest mutated on failed persist: %d → %d", before.HighestAmount, after.HighestAmount)
	}
	if *after.HighestTeamID != a {
		t.Errorf("highest team mutated on failed persist")
	}
	if len(after.History) != len(before.History) {
		t.Errorf("history grew on failed persist: %d → %d", len(before.History), len(after.History))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Anti-sniping
// ──────────────────────────────────────────────────────────────────────────────

func TestAntiSnipe_LateBidResetsClock(t *testing.T) {
	fx := newFixture(t, live.Options{AntiSnipeWindow: 5 * time.Second})
	fx.startRound(t, 3*time.Second)

	if err := fx.bid(uuid.New(), inc); err != nil {
		t.Fatalf("bid: %v", err)
	}
	snap := fx.eng.Snapshot(fx.auctionID)
	if snap.RemainingSeconds != 5 {
		t.Errorf("remaining after snipe = %ds, want clock reset to 5s", snap.RemainingSeconds)
	}
}

func TestAntiSnipe_EarlyBidLeavesDeadlineAlone(t *testing.T) {
	fx := newFixture(t, live.Options{AntiSnipeWindow: 5 * time.Second})
	fx.startRound(t, 30*time.Second)

	if err := fx.bid(uuid.New(), inc); err != nil {
		t.Fatalf("bid: %v", err)
	}
	snap := fx.eng.Snapshot(fx.auctionID)
	// The deadline only moves when the bid lands inside the window; it never
	// shortens an open round.
	if snap.RemainingSeconds < 29 || snap.RemainingSeconds > 30 {
		t.Errorf("remaining = %ds, want ~30s untouched", snap.RemainingSeconds)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Round lifecycle and settlement
// ──────────────────────────────────────────────────────────────────────────────

func TestStartRound_RejectedWhileLive(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)

	err := fx.eng.StartRound(context.Background(), fx.auctionID, uuid.New(), uuid.New(), time.Minute, inc)
	if !errors.Is(err, domain.ErrRoundInProgress) {
		t.Fatalf("second start: got %v, want ErrRoundInProgress", err)
	}
	// The live round must be untouched.
	snap := fx.eng.Snapshot(fx.auctionID)
	if snap.LotID == nil || *snap.LotID != fx.lotID {
		t.Error("live round replaced by rejected start")
	}
}

func TestCountdown_ExpiryFinalizesSoldExactlyOnce(t *testing.T) {
	fx := newFixture(t, live.Options{TickInterval: 10 * time.Millisecond})
	fx.startRound(t, 80*time.Millisecond)

	winner := uuid.New()
	if err := fx.bid(winner, 7*inc); err != nil {
		t.Fatalf("bid: %v", err)
	}

	time.Sleep(300 * time.Millisecond)

	fx.ledger.mu.Lock()
	settleCalls := fx.ledger.settleCalls
	rec, sold := fx.ledger.sold[fx.lotID]
	fx.ledger.mu.Unlock()

	if settleCalls != 1 {
		t.Fatalf("settle calls = %d, want exactly 1", settleCalls)
	}
	if !sold || rec.winnerID != winner || rec.price != 7*inc {
		t.Fatalf("sold record = %+v (present=%v), want winner %s at %d", rec, sold, winner, 7*inc)
	}

	evs := fx.rec.finalizedEvents()
	if len(evs) != 1 || evs[0].Status != "sold" || *evs[0].WinnerID != winner {
		t.Fatalf("finalized events = %+v, want one sold event for winner", evs)
	}

	// Expired round resets to idle; the next lot can go up immediately.
	if snap := fx.eng.Snapshot(fx.auctionID); snap.IsLive {
		t.Error("round still live after expiry")
	}
	if err := fx.eng.StartRound(context.Background(), fx.auctionID, uuid.New(), uuid.New(), time.Minute, inc); err != nil {
		t.Fatalf("start after settle: %v", err)
	}
}

func TestCountdown_NoBidsFinalizesUnsold(t *testing.T) {
	fx := newFixture(t, live.Options{TickInterval: 10 * time.Millisecond})
	fx.startRound(t, 50*time.Millisecond)

	time.Sleep(250 * time.Millisecond)

	fx.ledger.mu.Lock()
	unsoldMarks := fx.ledger.unsold[fx.lotID]
	settleCalls := fx.ledger.settleCalls
	fx.ledger.mu.Unlock()

	if unsoldMarks != 1 {
		t.Fatalf("unsold marks = %d, want 1", unsoldMarks)
	}
	if settleCalls != 0 {
		t.Fatalf("settle calls = %d for a bid-less round, want 0", settleCalls)
	}
	evs := fx.rec.finalizedEvents()
	if len(evs) != 1 || evs[0].Status != "unsold" || evs[0].WinnerID != nil {
		t.Fatalf("finalized events = %+v, want one unsold event", evs)
	}
}

func TestForceEnd_ConcurrentCallsSettleOnce(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)

	winner := uuid.New()
	if err := fx.bid(winner, 3*inc); err != nil {
		t.Fatalf("bid: %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	var okCount, noRoundCount int64
	var cntMu sync.Mutex
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fx.eng.ForceEnd(context.Background(), fx.auctionID)
			cntMu.Lock()
			defer cntMu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, domain.ErrNoLiveRound):
				noRoundCount++
			}
		}()
	}
	wg.Wait()

	if okCount != 1 || noRoundCount != callers-1 {
		t.Fatalf("ok=%d noRound=%d, want exactly one winner among %d callers", okCount, noRoundCount, callers)
	}

	fx.ledger.mu.Lock()
	defer fx.ledger.mu.Unlock()
	if fx.ledger.settleCalls != 1 {
		t.Fatalf("settle calls = %d, want 1", fx.ledger.settleCalls)
	}
}

func TestFinalize_LedgerFailureStillResetsRound(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)
	if err := fx.bid(uuid.New(), inc); err != nil {
		t.Fatalf("bid: %v", err)
	}

	fx.ledger.mu.Lock()
	fx.ledger.settleErr = errors.New("postgres is away")
	fx.ledger.mu.Unlock()

	if err := fx.eng.ForceEnd(context.Background(), fx.auctionID); err != nil {
		t.Fatalf("ForceEnd: %v", err)
	}
	if snap := fx.eng.Snapshot(fx.auctionID); snap.IsLive {
		t.Fatal("room stuck live after settlement failure")
	}
	if err := fx.eng.StartRound(context.Background(), fx.auctionID, uuid.New(), uuid.New(), time.Minute, inc); err != nil {
		t.Fatalf("start after failed settle: %v", err)
	}
}

func TestNoBidAdmittedAfterFinalize(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)
	if err := fx.bid(uuid.New(), inc); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := fx.eng.ForceEnd(context.Background(), fx.auctionID); err != nil {
		t.Fatalf("ForceEnd: %v", err)
	}

	if err := fx.bid(uuid.New(), 2*inc); !errors.Is(err, domain.ErrNoLiveRound) {
		t.Fatalf("bid after finalize: got %v, want ErrNoLiveRound", err)
	}
	if got := fx.ledger.bidCount(); got != 1 {
		t.Errorf("persisted bids = %d, want 1", got)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot
// ──────────────────────────────────────────────────────────────────────────────

func TestSnapshot_TruncatesHistory(t *testing.T) {
	fx := newFixture(t, live.Options{SnapshotHistory: 5})
	fx.startRound(t, time.Minute)

	teams := []uuid.UUID{uuid.New(), uuid.New()}
	for i := 1; i <= 8; i++ {
		if err := fx.bid(teams[i%2], int64(i)*inc); err != nil {
			t.Fatalf("bid %d: %v", i, err)
		}
	}

	snap := fx.eng.Snapshot(fx.auctionID)
	if len(snap.History) != 5 {
		t.Fatalf("snapshot history = %d entries, want 5", len(snap.History))
	}
	if snap.History[4].Amount != 8*inc || snap.History[0].Amount != 4*inc {
		t.Errorf("snapshot window wrong: first=%d last=%d", snap.History[0].Amount, snap.History[4].Amount)
	}
	if snap.HighestAmount != 8*inc {
		t.Errorf("highest = %d, want %d", snap.HighestAmount, 8*inc)
	}
}

func TestSnapshot_UnknownAuctionIsIdle(t *testing.T) {
	fx := newFixture(t, live.Options{})
	snap := fx.eng.Snapshot(uuid.New())
	if snap.IsLive || snap.LotID != nil || len(snap.History) != 0 {
		t.Errorf("unknown auction snapshot not idle: %+v", snap)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrency
// ──────────────────────────────────────────────────────────────────────────────

// Hammers one round from many goroutines and checks the invariant the whole
// engine hangs on: accepted bids are strictly increasing by at least the
// minimum increment, regardless of arrival order.
func TestConcurrentBids_HistoryStrictlyIncreasing(t *testing.T) {
	fx := newFixture(t, live.Options{})
	fx.startRound(t, time.Minute)

	const bidders = 40
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			team := uuid.New()
			// Everyone races for the same few price points; most lose.
			for _, amount := range []int64{inc, 2 * inc, 3 * inc, int64(n+1) * inc} {
				_ = fx.bid(team, amount)
			}
		}(i)
	}
	wg.Wait()

	snap := fx.eng.Snapshot(fx.auctionID)
	prev := int64(0)
	for i, ev := range snap.History {
		if ev.Amount < prev+inc {
			t.Fatalf("history[%d] = %d violates increment over %d", i, ev.Amount, prev)
		}
		prev = ev.Amount
	}
	if snap.HighestAmount != prev {
		t.Errorf("highest %d does not match last history entry %d", snap.HighestAmount, prev)
	}
	if fx.ledger.bidCount() != len(snap.History) {
		t.Errorf("ledger has %d bids, history has %d", fx.ledger.bidCount(), len(snap.History))
	}
}
