package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"papertrader/engine"
	"papertrader/feed"
	"papertrader/journal"
	"papertrader/report"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run example simulations",
	Long: `Run small canned simulations to learn how the engine works.

Available demos:
  basic    - Open a leveraged long, move the price, close manually
  triggers - Stop-loss and take-profit firing automatically

Examples:
  papertrader demo basic
  papertrader demo triggers`,
}

var demoBasicCmd = &cobra.Command{
	Use:   "basic",
	Short: "Run a basic single trade demo",
	Long: `Opens a 10x leveraged long position, moves the market up 10%,
and closes the trade manually. Shows balance, equity and margin at
each stage.`,
	RunE: runDemoBasic,
}

var demoTriggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Run a stop-loss / take-profit demo",
	Long: `Opens two protected positions and moves the market so one hits its
take profit and the other its stop loss.`,
	RunE: runDemoTriggers,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.AddCommand(demoBasicCmd)
	demoCmd.AddCommand(demoTriggersCmd)
}

func demoEngine(quotes *feed.Quotes) *engine.Engine {
	cfg := engine.DefaultConfig()
	cfg.SlippageMin = 0
	cfg.SlippageMax = 0

	eng := engine.New(quotes, cfg, engine.WithJournal(journal.Nop{}))
	eng.Start()
	return eng
}

func printAccount(label string, acct engine.Account) {
	fmt.Printf("%s\n", label)
	fmt.Printf("  Balance: $%.2f  Equity: $%.2f  Margin used: $%.2f  Available: $%.2f\n\n",
		acct.Balance, acct.Equity, acct.MarginUsed, acct.MarginAvailable)
}

func runDemoBasic(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("=== Basic Trade Demo ===")
	fmt.Println()

	quotes := feed.NewQuotes()
	quotes.Set("BTCUSDT", 50_000)

	eng := demoEngine(quotes)
	printAccount("Starting account:", eng.Account())

	rep := eng.PlaceOrder(ctx, engine.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     engine.SideLong,
		Type:     engine.OrderMarket,
		Amount:   1_000,
		Leverage: 10,
	})
	if rep.Status != engine.StatusFilled {
		return fmt.Errorf("order rejected: %s", rep.Message)
	}
	fmt.Printf("Opened long BTCUSDT: $1000 at %.2f, 10x leverage (commission $%.2f)\n\n", rep.Price, rep.Commission)
	printAccount("After open:", eng.Account())

	quotes.Set("BTCUSDT", 55_000)
	eng.MarkToMarket(ctx)
	fmt.Println("Price moves to 55000 (+10%)")
	printAccount("After mark-to-market:", eng.Account())

	closeRep := eng.CloseTrade(ctx, rep.PositionID)
	if closeRep.Status != engine.StatusFilled {
		return fmt.Errorf("close rejected: %s", closeRep.Message)
	}
	fmt.Printf("Closed at %.2f\n\n", closeRep.Price)
	printAccount("After close:", eng.Account())

	fmt.Print(report.Summarize(eng.ClosedPositions()))
	return nil
}

func runDemoTriggers(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Println("=== Trigger Demo ===")
	fmt.Println()

	quotes := feed.NewQuotes()
	quotes.Set("BTCUSDT", 50_000)
	quotes.Set("ETHUSDT", 3_000)

	eng := demoEngine(quotes)

	tp := 52_000.0
	winner := eng.PlaceOrder(ctx, engine.OrderRequest{
		Symbol:     "BTCUSDT",
		Side:       engine.SideLong,
		Type:       engine.OrderMarket,
		Amount:     1_000,
		Leverage:   5,
		TakeProfit: &tp,
	})
	if winner.Status != engine.StatusFilled {
		return fmt.Errorf("order rejected: %s", winner.Message)
	}
	fmt.Printf("Opened long BTCUSDT at %.2f with take profit %.2f\n", winner.Price, tp)

	sl := 3_100.0
	loser := eng.PlaceOrder(ctx, engine.OrderRequest{
		Symbol:   "ETHUSDT",
		Side:     engine.SideShort,
		Type:     engine.OrderMarket,
		Amount:   1_000,
		Leverage: 5,
		StopLoss: &sl,
	})
	if loser.Status != engine.StatusFilled {
		return fmt.Errorf("order rejected: %s", loser.Message)
	}
	fmt.Printf("Opened short ETHUSDT at %.2f with stop loss %.2f\n\n", loser.Price, sl)

	fmt.Println("BTCUSDT rallies to 52500; ETHUSDT squeezes to 3150")
	quotes.Set("BTCUSDT", 52_500)
	quotes.Set("ETHUSDT", 3_150)
	eng.CheckTriggers(ctx)

	for _, p := range eng.ClosedPositions() {
		fmt.Printf("  Position %d closed by %s: P/L $%.2f (%.2f%%)\n",
			p.ID, p.CloseReason, p.Profit.Amount, p.Profit.Percent)
	}

	fmt.Println()
	printAccount("Final account:", eng.Account())
	fmt.Print(report.Summarize(eng.ClosedPositions()))
	return nil
}
