// Package statistics accumulates per-round results for a player or a whole
// simulation and reports the usual summary figures.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/blackjack/internal/game"
)

// RoundResult represents the outcome of a single hand for one player
type RoundResult struct {
	Net         float64 // Amount won or lost, in currency units
	Stake       float64 // Total amount staked, including a double and insurance
	Outcome     game.Outcome
	Blackjack   bool
	Doubled     bool
	Surrendered bool
}

// FromSettlement converts a ledger settlement into a result
func FromSettlement(s game.Settlement) RoundResult {
	return RoundResult{
		Net:         s.Net,
		Stake:       s.Stake + s.Insurance,
		Outcome:     s.Outcome,
		Blackjack:   s.Natural && s.Outcome.PlayerWon(),
		Doubled:     s.Doubled,
		Surrendered: s.Surrendered,
	}
}

// Statistics tracks running results
type Statistics struct {
	Rounds   int
	SumNet   float64
	SumNet2  float64   // Sum of squares for variance calculation
	Values   []float64 // Store all values for median/percentile calculation
	Wagered  float64
	Outcomes map[game.Outcome]int

	Wins        int
	Losses      int
	Pushes      int
	Blackjacks  int
	Doubles     int
	Surrenders  int
	PlayerBusts int
	DealerBusts int
}

// Mean returns the arithmetic mean of all results per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a new round result into the statistics
func (s *Statistics) Add(result RoundResult) {
	net := result.Net
	s.Rounds++
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)
	s.Wagered += result.Stake

	if s.Outcomes == nil {
		s.Outcomes = make(map[game.Outcome]int)
	}
	s.Outcomes[result.Outcome]++

	switch {
	case net > 0:
		s.Wins++
	case net < 0:
		s.Losses++
	default:
		s.Pushes++
	}

	if result.Blackjack {
		s.Blackjacks++
	}
	if result.Doubled {
		s.Doubles++
	}
	if result.Surrendered {
		s.Surrenders++
	}
	switch result.Outcome {
	case game.PlayerBust:
		s.PlayerBusts++
	case game.DealerBust:
		s.DealerBusts++
	}
}

// Merge folds another set of statistics into s
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.SumNet += other.SumNet
	s.SumNet2 += other.SumNet2
	s.Values = append(s.Values, other.Values...)
	s.Wagered += other.Wagered

	if s.Outcomes == nil {
		s.Outcomes = make(map[game.Outcome]int)
	}
	for o, n := range other.Outcomes {
		s.Outcomes[o] += n
	}

	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.Blackjacks += other.Blackjacks
	s.Doubles += other.Doubles
	s.Surrenders += other.Surrenders
	s.PlayerBusts += other.PlayerBusts
	s.DealerBusts += other.DealerBusts
}

// WinRate returns the fraction of rounds that ended with a profit
func (s *Statistics) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Rounds)
}

// ReturnOnStake returns the total net as a fraction of the total amount wagered
func (s *Statistics) ReturnOnStake() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return s.SumNet / s.Wagered
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *Statistics) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// Validate checks the counters agree with each other
func (s *Statistics) Validate() error {
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)",
			len(s.Values), s.Rounds)
	}
	if s.Wins+s.Losses+s.Pushes != s.Rounds {
		return fmt.Errorf("wins+losses+pushes (%d) does not match rounds (%d)",
			s.Wins+s.Losses+s.Pushes, s.Rounds)
	}
	total := 0
	for _, n := range s.Outcomes {
		total += n
	}
	if total != s.Rounds {
		return fmt.Errorf("outcome total (%d) does not match rounds (%d)", total, s.Rounds)
	}
	return nil
}

// Summary renders a short multi-line report
func (s *Statistics) Summary() string {
	low, high := s.ConfidenceInterval95()
	return fmt.Sprintf(
		"Rounds: %d\nWin rate: %.1f%% (W %d / L %d / P %d)\nBlackjacks: %d  Doubles: %d  Surrenders: %d\nBusts: player %d, dealer %d\nNet: %+.2f (%+.3f per round, 95%% CI [%+.3f, %+.3f])\nReturn on stake: %+.2f%%",
		s.Rounds, 100*s.WinRate(), s.Wins, s.Losses, s.Pushes,
		s.Blackjacks, s.Doubles, s.Surrenders,
		s.PlayerBusts, s.DealerBusts,
		s.SumNet, s.Mean(), low, high,
		100*s.ReturnOnStake(),
	)
}
