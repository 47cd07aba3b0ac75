// Package valuation implements the stateless player pricing heuristic.
// It scores a player's career numbers into an indicative rupee value shown
// alongside the lot; the live engine never reads it.
package valuation

import (
	"github.com/bidpitch/auction/internal/domain"
	"github.com/shopspring/decimal"
)

// Scoring weights, in rupees per point. Batting points are run-volume scaled
// by strike rate; bowling points reward wickets taken at a tight economy.
var (
	batWeight    = decimal.NewFromInt(5_000)
	bowlWeight   = decimal.NewFromInt(15_000)
	matchWeight  = decimal.NewFromInt(10_000)
	parEconomy   = decimal.NewFromInt(6)
	hundred      = decimal.NewFromInt(100)
	ceilingMulti = decimal.NewFromInt(50)
)

// Estimate computes the heuristic valuation for the given career stats,
// clamped to [basePrice, basePrice*50]. Pure and deterministic: equal inputs
// always produce equal outputs.
func Estimate(stats domain.PlayerStats, basePrice int64) int64 {
	if basePrice <= 0 {
		basePrice = domain.DefaultBasePrice
	}

	runs := decimal.NewFromInt(int64(stats.Runs))
	wickets := decimal.NewFromInt(int64(stats.Wickets))
	matches := decimal.NewFromInt(int64(stats.Matches))
	strikeRate := decimal.NewFromFloat(stats.StrikeRate)

	// batScore = runs × strikeRate/100
	batScore := runs.Mul(strikeRate.Div(hundred))

	// bowlScore = wickets × 6/max(1, economy)
	economy := decimal.NewFromFloat(stats.Economy)
	if economy.LessThan(decimal.NewFromInt(1)) {
		economy = decimal.NewFromInt(1)
	}
	bowlScore := wickets.Mul(parEconomy.Div(economy))

	score := batScore.Mul(batWeight).
		Add(bowlScore.Mul(bowlWeight)).
		Add(matches.Mul(matchWeight))

	floor := decimal.NewFromInt(basePrice)
	ceiling := floor.Mul(ceilingMulti)

	if score.LessThan(floor) {
		return basePrice
	}
	if score.GreaterThan(ceiling) {
		return ceiling.IntPart()
	}
	return score.IntPart()
}
