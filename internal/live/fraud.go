package live

import (
	"fmt"
	"time"
)

// inspectFraud runs the advisory heuristics over the trailing window of
// accepted bids and returns zero or more alert texts. Stateless and
// side-effect free: callers turn the alerts into commentary events, nothing
// more.
//
// Two signals are checked against the bid that just landed:
//   - it followed the previous accepted bid within rapidGap;
//   - its origin address already appears among the windowed bids.
func inspectFraud(history []BidEvent, window int, rapidGap time.Duration) []string {
	if len(history) < 2 {
		return nil
	}

	recent := history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	latest := recent[len(recent)-1]

	var alerts []string

	prev := recent[len(recent)-2]
	if gap := latest.At.Sub(prev.At); gap < rapidGap {
		alerts = append(alerts, fmt.Sprintf(
			"Suspiciously rapid bidding: consecutive bids landed %dms apart", gap.Milliseconds()))
	}

	if latest.Origin != "" {
		seen := 0
		for _, ev := range recent {
			if ev.Origin == latest.Origin {
				seen++
			}
		}
		if seen > 1 {
			alerts = append(alerts, fmt.Sprintf(
				"Multiple bids from the same network address across the last %d bids", len(recent)))
		}
	}
	return alerts
}
