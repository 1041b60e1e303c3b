package statistics

// Report is the machine-readable summary written by simulations
type Report struct {
	Rounds        int                `json:"rounds"`
	Net           float64            `json:"net"`
	Wagered       float64            `json:"wagered"`
	Mean          float64            `json:"mean"`
	StdDev        float64            `json:"stddev"`
	CI95          [2]float64         `json:"ci95"`
	Median        float64            `json:"median"`
	WinRate       float64            `json:"win_rate"`
	ReturnOnStake float64            `json:"return_on_stake"`
	Outcomes      map[string]int     `json:"outcomes"`
	Counts        map[string]int     `json:"counts"`
	Percentiles   map[string]float64 `json:"percentiles"`
}

// Report summarises the statistics
func (s *Statistics) Report() Report {
	low, high := s.ConfidenceInterval95()
	r := Report{
		Rounds:        s.Rounds,
		Net:           s.SumNet,
		Wagered:       s.Wagered,
		Mean:          s.Mean(),
		StdDev:        s.StdDev(),
		CI95:          [2]float64{low, high},
		Median:        s.Median(),
		WinRate:       s.WinRate(),
		ReturnOnStake: s.ReturnOnStake(),
		Outcomes:      make(map[string]int, len(s.Outcomes)),
		Counts: map[string]int{
			"wins":         s.Wins,
			"losses":       s.Losses,
			"pushes":       s.Pushes,
			"blackjacks":   s.Blackjacks,
			"doubles":      s.Doubles,
			"surrenders":   s.Surrenders,
			"player_busts": s.PlayerBusts,
			"dealer_busts": s.DealerBusts,
		},
		Percentiles: map[string]float64{
			"p5":  s.Percentile(0.05),
			"p25": s.Percentile(0.25),
			"p75": s.Percentile(0.75),
			"p95": s.Percentile(0.95),
		},
	}
	for outcome, n := range s.Outcomes {
		r.Outcomes[outcome.String()] = n
	}
	return r
}
