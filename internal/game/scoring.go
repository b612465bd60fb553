// internal/game/scoring.go
package game

// runShowdown computes final hand totals and the winner, then ends the
// round. Card identity is known even for never-peeked slots, so totals
// are exact sums over the tracked hands.
//
// Lowest total wins. The kaboom caller wins outright on a unique
// minimum; on a tie the TieGoesToCaller policy decides; when the caller
// does not hold the minimum, the true minimum seat wins and the caller
// takes the configured penalty.
func (r *Room) runShowdown() {
	r.Phase = PhaseShowdown

	totals := make([]int, len(r.Players))
	minTotal := 0
	for i, p := range r.Players {
		totals[i] = p.HandTotal()
		if i == 0 || totals[i] < minTotal {
			minTotal = totals[i]
		}
	}

	firstMin := -1
	firstMinNonCaller := -1
	minCount := 0
	caller := -1
	if r.KaboomCaller != nil {
		caller = *r.KaboomCaller
	}
	for i, t := range totals {
		if t != minTotal {
			continue
		}
		minCount++
		if firstMin < 0 {
			firstMin = i
		}
		if i != caller && firstMinNonCaller < 0 {
			firstMinNonCaller = i
		}
	}

	winner := firstMin
	penalizeCaller := false
	if caller >= 0 {
		switch {
		case totals[caller] == minTotal && minCount == 1:
			winner = caller
		case totals[caller] == minTotal && r.Config.TieGoesToCaller:
			winner = caller
		case totals[caller] == minTotal:
			// Tie goes against the caller under the strict policy.
			winner = firstMinNonCaller
			penalizeCaller = true
		default:
			winner = firstMin
			penalizeCaller = true
		}
	}

	for i, p := range r.Players {
		p.Score += totals[i]
	}
	if penalizeCaller {
		r.Players[caller].Score += r.Config.CallerPenalty
	}

	r.FinalTotals = totals
	r.Winner = &winner
	r.Phase = PhaseEnded
}
