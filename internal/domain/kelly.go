package domain

// RawKelly is the full-Kelly fraction of bankroll for a binary contract with
// the given edge and YES price. The payout odds differ per side: a YES at p
// pays (1-p)/p per dollar, a NO at (1-p) pays p/(1-p), which reduces to
// edge/(1-price) and edge/price respectively. Non-positive edge returns 0:
// Kelly never recommends betting a disadvantage.
func RawKelly(edge, yesPrice float64, dir Direction) float64 {
	if edge <= 0 {
		return 0
	}
	var denom float64
	if dir == DirectionNo {
		denom = yesPrice
	} else {
		denom = 1 - yesPrice
	}
	if denom <= 0 {
		return 0
	}
	return edge / denom
}

// PositionSize converts an edge into a dollar stake: fractional Kelly scaled
// by bankroll, clamped to the per-trade cap and never above the bankroll
// itself. Callers pass kellyFraction well below 1 (typically 0.25); the cap
// is the safety net against extreme prices inflating the raw fraction.
func PositionSize(edge, yesPrice float64, dir Direction, bankroll, kellyFraction, maxPositionPct float64) float64 {
	if bankroll <= 0 {
		return 0
	}
	raw := RawKelly(edge, yesPrice, dir)
	if raw <= 0 {
		return 0
	}

	stake := bankroll * kellyFraction * raw

	if cap := bankroll * maxPositionPct; maxPositionPct > 0 && stake > cap {
		stake = cap
	}
	if stake > bankroll {
		stake = bankroll
	}
	return stake
}
