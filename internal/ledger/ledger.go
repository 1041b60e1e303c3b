// Package ledger keeps player balances and stakes, and pays out settled hands.
package ledger

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/rules"
)

var (
	// ErrInvalidBet is returned for non-positive or out-of-limit bets
	ErrInvalidBet = errors.New("invalid bet")
	// ErrInsufficientFunds is returned when a stake exceeds the balance
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoBet is returned when doubling or settling without a stake
	ErrNoBet = errors.New("no bet placed")
	// ErrUnknownAccount is returned for players without an account
	ErrUnknownAccount = errors.New("unknown account")
)

type account struct {
	balance     float64
	stake       float64
	doubled     bool
	surrendered bool
	insurance   float64
}

// Ledger holds one account per player id. It is safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	rules    rules.Rules
	adjust   Adjuster
	accounts map[game.PlayerID]*account
	logger   *log.Logger
}

// New creates an empty ledger paying out under the given rules. A nil logger
// discards output.
func New(r rules.Rules, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Ledger{
		rules: r,
		adjust: Chain(
			NaturalBonus(r.BlackjackPayout),
			SurrenderRefund(r.SurrenderRefund),
			Insurance(r.InsurancePayout),
		),
		accounts: make(map[game.PlayerID]*account),
		logger:   logger.WithPrefix("ledger"),
	}
}

// Open creates or resets an account with the given balance
func (l *Ledger) Open(id game.PlayerID, balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[id] = &account{balance: balance}
}

// Balance returns the player's balance, excluding any stake on the table
func (l *Ledger) Balance(id game.PlayerID) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[id]
	if !ok {
		return 0, fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	return a.balance, nil
}

// Stake returns the amount the player has riding on the current hand
func (l *Ledger) Stake(id game.PlayerID) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[id]
	if !ok {
		return 0, fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	return a.stake, nil
}

// PlaceBet validates the amount against the table limits and the balance,
// then moves it from the balance to the stake.
func (l *Ledger) PlaceBet(id game.PlayerID, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	if err := l.validate(amount); err != nil {
		return err
	}
	if a.stake > 0 {
		return fmt.Errorf("%w: player %d already has $%.2f staked", ErrInvalidBet, id, a.stake)
	}
	if amount > a.balance {
		return fmt.Errorf("%w: bet $%.2f, balance $%.2f", ErrInsufficientFunds, amount, a.balance)
	}

	a.balance -= amount
	a.stake = amount
	a.doubled = false
	a.surrendered = false
	a.insurance = 0
	l.logger.Debug("Bet placed", "player", id, "amount", amount, "balance", a.balance)
	return nil
}

// Double matches the current stake a second time
func (l *Ledger) Double(id game.PlayerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	if a.stake == 0 {
		return ErrNoBet
	}
	if a.doubled {
		return fmt.Errorf("%w: player %d already doubled", ErrInvalidBet, id)
	}
	if a.stake > a.balance {
		return fmt.Errorf("%w: double needs $%.2f, balance $%.2f", ErrInsufficientFunds, a.stake, a.balance)
	}

	a.balance -= a.stake
	a.stake *= 2
	a.doubled = true
	l.logger.Debug("Bet doubled", "player", id, "stake", a.stake)
	return nil
}

// Insure moves half the stake from the balance into the insurance side bet
func (l *Ledger) Insure(id game.PlayerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	if a.stake == 0 {
		return ErrNoBet
	}
	if a.insurance > 0 {
		return fmt.Errorf("%w: player %d already insured", ErrInvalidBet, id)
	}
	amount := a.stake / 2
	if amount > a.balance {
		return fmt.Errorf("%w: insurance needs $%.2f, balance $%.2f", ErrInsufficientFunds, amount, a.balance)
	}

	a.balance -= amount
	a.insurance = amount
	l.logger.Debug("Insurance taken", "player", id, "amount", amount, "balance", a.balance)
	return nil
}

// Insured returns the player's insurance side bet, zero when none was taken
func (l *Ledger) Insured(id game.PlayerID) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[id]
	if !ok {
		return 0, fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	return a.insurance, nil
}

// MarkSurrendered flags the stake so settlement applies the surrender refund
func (l *Ledger) MarkSurrendered(id game.PlayerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	if a.stake == 0 {
		return ErrNoBet
	}
	a.surrendered = true
	return nil
}

// Refund returns the whole stake and any insurance to the balance, for
// cancelled rounds
func (l *Ledger) Refund(id game.PlayerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	a.balance += a.stake + a.insurance
	a.stake = 0
	a.insurance = 0
	a.doubled = false
	a.surrendered = false
	return nil
}

// Settle pays out the player's stake and insurance for a finished hand and
// clears them. The surrender flag and insurance come from the account.
func (l *Ledger) Settle(id game.PlayerID, res Resolution) (game.Settlement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		return game.Settlement{}, fmt.Errorf("%w: player %d", ErrUnknownAccount, id)
	}
	if a.stake == 0 {
		return game.Settlement{}, ErrNoBet
	}

	res.Surrendered = a.surrendered
	res.Insurance = a.insurance
	payout := Payout(a.stake, res, l.adjust)
	a.balance += payout

	s := game.Settlement{
		PlayerID:    id,
		Outcome:     res.Outcome,
		Natural:     res.Natural,
		Doubled:     a.doubled,
		Surrendered: a.surrendered,
		Stake:       a.stake,
		Insurance:   a.insurance,
		Payout:      payout,
		Net:         payout - a.stake - a.insurance,
		Balance:     a.balance,
	}
	a.stake = 0
	a.doubled = false
	a.surrendered = false
	a.insurance = 0

	l.logger.Debug("Settled", "player", id, "outcome", res.Outcome, "payout", payout, "balance", a.balance)
	return s, nil
}

func (l *Ledger) validate(amount float64) error {
	switch {
	case amount <= 0:
		return fmt.Errorf("%w: bet must be positive, got %.2f", ErrInvalidBet, amount)
	case amount < l.rules.MinBet:
		return fmt.Errorf("%w: bet $%.2f is below the table minimum $%.2f", ErrInvalidBet, amount, l.rules.MinBet)
	case amount > l.rules.MaxBet:
		return fmt.Errorf("%w: bet $%.2f is above the table maximum $%.2f", ErrInvalidBet, amount, l.rules.MaxBet)
	}
	return nil
}

// ParseBet reads a bet typed at the console. Input that is not a number, not
// positive, outside the table limits or above the balance falls back to the
// table's default bet, capped at the balance.
func ParseBet(input string, r rules.Rules, balance float64) float64 {
	input = strings.TrimPrefix(strings.TrimSpace(input), "$")
	amount, err := strconv.ParseFloat(input, 64)
	if err == nil && amount > 0 && amount >= r.MinBet && amount <= r.MaxBet && amount <= balance {
		return amount
	}
	return min(r.DefaultBet, balance)
}
