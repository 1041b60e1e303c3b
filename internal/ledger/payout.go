package ledger

import "github.com/lox/blackjack/internal/game"

// Resolution is what settlement needs to know about a finished hand
type Resolution struct {
	Outcome       game.Outcome
	Natural       bool
	DealerNatural bool
	Surrendered   bool
	// Insurance is the side bet taken against a dealer natural
	Insurance float64
}

// Adjuster rewrites the amount returned to the player for a stake. Adjusters
// run in order, each seeing the previous payout.
type Adjuster func(payout, stake float64, res Resolution) float64

// Base returns the plain even-money payout: twice the stake for a win, the
// stake back for a push and nothing for a loss.
func Base(stake float64, res Resolution) float64 {
	switch {
	case res.Outcome.PlayerWon():
		return 2 * stake
	case res.Outcome == game.Push:
		return stake
	default:
		return 0
	}
}

// NaturalBonus pays a winning natural the stake back plus ratio times the stake
func NaturalBonus(ratio float64) Adjuster {
	return func(payout, stake float64, res Resolution) float64 {
		if res.Natural && res.Outcome.PlayerWon() {
			return stake + ratio*stake
		}
		return payout
	}
}

// SurrenderRefund returns fraction of the stake for a surrendered hand,
// whatever the outcome.
func SurrenderRefund(fraction float64) Adjuster {
	return func(payout, stake float64, res Resolution) float64 {
		if res.Surrendered {
			return fraction * stake
		}
		return payout
	}
}

// Insurance adds the insurance side bet back plus ratio times it when the
// dealer holds a natural. A lost side bet adds nothing.
func Insurance(ratio float64) Adjuster {
	return func(payout, stake float64, res Resolution) float64 {
		if res.Insurance > 0 && res.DealerNatural {
			return payout + res.Insurance + ratio*res.Insurance
		}
		return payout
	}
}

// Chain composes adjusters left to right
func Chain(adjusters ...Adjuster) Adjuster {
	return func(payout, stake float64, res Resolution) float64 {
		for _, adj := range adjusters {
			payout = adj(payout, stake, res)
		}
		return payout
	}
}

// Payout computes the amount returned to the player for a stake
func Payout(stake float64, res Resolution, adj Adjuster) float64 {
	p := Base(stake, res)
	if adj != nil {
		p = adj(p, stake, res)
	}
	return p
}
