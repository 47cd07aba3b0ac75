package live

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func bidAt(origin string, at time.Time) BidEvent {
	return BidEvent{TeamID: uuid.New(), Amount: 100_000, At: at, Origin: origin}
}

func TestInspectFraud_SingleBidIsQuiet(t *testing.T) {
	history := []BidEvent{bidAt("10.0.0.1", time.Now())}
	if alerts := inspectFraud(history, 5, 500*time.Millisecond); len(alerts) != 0 {
		t.Errorf("one bid produced alerts: %v", alerts)
	}
}

func TestInspectFraud_RapidConsecutiveBids(t *testing.T) {
	base := time.Now()
	history := []BidEvent{
		bidAt("10.0.0.1", base),
		bidAt("10.0.0.2", base.Add(200*time.Millisecond)),
	}
	alerts := inspectFraud(history, 5, 500*time.Millisecond)
	if len(alerts) != 1 || !strings.Contains(alerts[0], "rapid") {
		t.Fatalf("alerts = %v, want one rapid-bidding alert", alerts)
	}
}

func TestInspectFraud_SlowBidsAreQuiet(t *testing.T) {
	base := time.Now()
	history := []BidEvent{
		bidAt("10.0.0.1", base),
		bidAt("10.0.0.2", base.Add(2*time.Second)),
	}
	if alerts := inspectFraud(history, 5, 500*time.Millisecond); len(alerts) != 0 {
		t.Errorf("well-spaced bids produced alerts: %v", alerts)
	}
}

func TestInspectFraud_RepeatedOrigin(t *testing.T) {
	base := time.Now()
	history := []BidEvent{
		bidAt("10.0.0.7", base),
		bidAt("10.0.0.2", base.Add(time.Second)),
		bidAt("10.0.0.7", base.Add(2*time.Second)),
	}
	alerts := inspectFraud(history, 5, 500*time.Millisecond)
	if len(alerts) != 1 || !strings.Contains(alerts[0], "same network address") {
		t.Fatalf("alerts = %v, want one shared-origin alert", alerts)
	}
}

func TestInspectFraud_WindowExcludesOldBids(t *testing.T) {
	base := time.Now()
	history := []BidEvent{
		bidAt("10.0.0.7", base), // outside the window of 3
		bidAt("10.0.0.2", base.Add(time.Second)),
		bidAt("10.0.0.3", base.Add(2*time.Second)),
		bidAt("10.0.0.7", base.Add(3*time.Second)),
	}
	if alerts := inspectFraud(history, 3, 500*time.Millisecond); len(alerts) != 0 {
		t.Errorf("origin outside window still flagged: %v", alerts)
	}
}

func TestInspectFraud_EmptyOriginNeverFlagged(t *testing.T) {
	base := time.Now()
	history := []BidEvent{
		bidAt("", base),
		bidAt("", base.Add(time.Second)),
	}
	if alerts := inspectFraud(history, 5, 500*time.Millisecond); len(alerts) != 0 {
		t.Errorf("empty origins flagged: %v", alerts)
	}
}

func TestInspectFraud_BothAlertsCanFire(t *testing.T) {
	base := time.Now()
	history := []BidEvent{
		bidAt("10.0.0.7", base),
		bidAt("10.0.0.7", base.Add(100*time.Millisecond)),
	}
	alerts := inspectFraud(history, 5, 500*time.Millisecond)
	if len(alerts) != 2 {
		t.Fatalf("alerts = %v, want rapid and shared-origin together", alerts)
	}
}
