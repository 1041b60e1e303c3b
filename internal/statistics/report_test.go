package statistics

import (
	"testing"

	"github.com/lox/blackjack/internal/game"
)

func TestReport(t *testing.T) {
	stats := &Statistics{}
	stats.Add(RoundResult{Net: 15, Stake: 10, Outcome: game.PlayerWins, Blackjack: true})
	stats.Add(RoundResult{Net: -20, Stake: 20, Outcome: game.PlayerBust, Doubled: true})
	stats.Add(RoundResult{Net: 0, Stake: 10, Outcome: game.Push})
	stats.Add(RoundResult{Net: 10, Stake: 10, Outcome: game.DealerBust})

	r := stats.Report()

	if r.Rounds != 4 {
		t.Errorf("Expected 4 rounds, got %d", r.Rounds)
	}
	if r.Net != 5 {
		t.Errorf("Expected net 5, got %f", r.Net)
	}
	if r.Wagered != 50 {
		t.Errorf("Expected wagered 50, got %f", r.Wagered)
	}
	if r.Outcomes["player_bust"] != 1 || r.Outcomes["dealer_bust"] != 1 || r.Outcomes["push"] != 1 {
		t.Errorf("Unexpected outcome counts: %v", r.Outcomes)
	}
	if r.Counts["wins"] != 2 || r.Counts["blackjacks"] != 1 || r.Counts["doubles"] != 1 {
		t.Errorf("Unexpected counts: %v", r.Counts)
	}
	if r.CI95[0] > r.Mean || r.CI95[1] < r.Mean {
		t.Errorf("Mean %f outside interval %v", r.Mean, r.CI95)
	}
	if r.Percentiles["p5"] > r.Percentiles["p95"] {
		t.Errorf("Percentiles out of order: %v", r.Percentiles)
	}
}

func TestReportEmpty(t *testing.T) {
	stats := &Statistics{}
	r := stats.Report()

	if r.Rounds != 0 || len(r.Outcomes) != 0 {
		t.Errorf("Expected empty report, got %+v", r)
	}
}
