// Package game implements the blackjack round engine.
//
// The main type is Engine, which owns a table's shoe, the dealer's hand and one
// hand per seated player, and knows how to deal, hit, double and play out the
// dealer. It does not decide whose turn it is or which actions are legal; that
// is the job of the round state machine and the table controller.
//
// # Basic Usage
//
//	e := game.NewEngine(game.WithSeed(42))
//	_ = e.ConfigurePlayers([]game.Player{{ID: 1, Name: "Alice", Balance: 100}})
//	_, _ = e.StartRound()
//	_ = e.Deal()
//	_, _ = e.Hit(1)
//	_, _ = e.EndRound()
//	outcomes, _ := e.Evaluate()
//
// # Deterministic Testing
//
// Seed the engine with WithSeed, or script the exact cards with a stacked
// shoe:
//
//	shoe := deck.NewStackedShoe(randutil.New(1), deck.MustParseCards("Th Tc 9d Ts")...)
//	e := game.NewEngine(game.WithShoe(shoe))
//
// Round lifecycle events are published on an EventBus, so renderers,
// statistics and loggers observe a round without the engine knowing about them.
package game
