package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"papertrader/config"
	"papertrader/engine"
	"papertrader/feed"
	"papertrader/feed/binance"
	"papertrader/feed/stream"
	"papertrader/journal"
	"papertrader/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a config file",
	Long: `Run a paper-trading simulation using settings from a configuration file.

With a "quotes" feed the simulation is scripted: the configured order is
placed against the initial price, then each price step is applied in turn
and stop-loss/take-profit triggers are evaluated. With a "binance" or
"stream" feed the engine runs live until interrupted.

Example:
  papertrader run -f examples/configs/basic.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ec, err := cfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running simulation with config: %s\n", runConfigPath)
	fmt.Printf("  Balance: $%.2f  Max leverage: %dx  Commission: %.3f%%\n",
		ec.InitialBalance, ec.MaxLeverage, ec.CommissionRate*100)
	fmt.Println()

	switch cfg.Feed.Type {
	case "", "quotes":
		return runScripted(ctx, cfg, ec, j, log)
	case "binance":
		src := binance.New(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"), log)
		if err := src.Ping(ctx); err != nil {
			return err
		}
		return runLive(ctx, cfg, ec, src, j, log)
	case "stream":
		src := stream.New(cfg.Feed.StreamURL, cfg.Feed.Symbols, log)
		if err := src.Connect(ctx); err != nil {
			return err
		}
		defer src.Close()
		return runLive(ctx, cfg, ec, src, j, log)
	}
	return fmt.Errorf("unknown feed type %q", cfg.Feed.Type)
}

// runScripted plays the configured price steps against a quotes feed and
// evaluates marks and triggers after each step.
func runScripted(ctx context.Context, cfg *config.Config, ec engine.Config, j journal.Journal, log *zap.Logger) error {
	quotes := feed.NewQuotes()
	quotes.Set(cfg.Order.Symbol, cfg.Simulation.InitialPrice)
	for _, sym := range cfg.Feed.Symbols {
		quotes.Set(sym, cfg.Simulation.InitialPrice)
	}

	eng := engine.New(quotes, ec, engine.WithLogger(log), engine.WithJournal(j))
	eng.Start()

	if err := placeConfiguredOrder(ctx, eng, cfg); err != nil {
		return err
	}

	for i, step := range cfg.Simulation.Steps {
		delay, err := step.ParseDuration()
		if err != nil {
			return fmt.Errorf("invalid delay in step %d: %w", i, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		fmt.Printf("Price -> %.2f (after %s)\n", step.Price, delay)
		quotes.Set(cfg.Order.Symbol, step.Price)
		eng.MarkToMarket(ctx)
		eng.CheckTriggers(ctx)
	}

	// Flatten whatever the triggers left open.
	for _, p := range eng.OpenPositions() {
		rep := eng.CloseTrade(ctx, p.ID)
		if rep.Status != engine.StatusFilled {
			log.Warn("close failed", zap.Int64("position", p.ID), zap.String("message", rep.Message))
		}
	}

	printResults(eng, ec)
	return nil
}

// runLive runs the mark-to-market and trigger schedulers against a live
// feed until the context is cancelled.
func runLive(ctx context.Context, cfg *config.Config, ec engine.Config, src feed.Source, j journal.Journal, log *zap.Logger) error {
	eng := engine.New(src, ec, engine.WithLogger(log), engine.WithJournal(j))
	eng.Start()

	if err := placeConfiguredOrder(ctx, eng, cfg); err != nil {
		return err
	}

	fmt.Println("Engine running; press Ctrl-C to stop.")
	eng.Run(ctx)
	eng.Stop()

	printResults(eng, ec)
	return nil
}

func placeConfiguredOrder(ctx context.Context, eng *engine.Engine, cfg *config.Config) error {
	if cfg.Order.Symbol == "" {
		return nil
	}

	rep := eng.PlaceOrder(ctx, engine.OrderRequest{
		Symbol:     cfg.Order.Symbol,
		Side:       engine.Side(cfg.Order.Side),
		Type:       engine.OrderMarket,
		Amount:     cfg.Order.Amount,
		Leverage:   cfg.Order.Leverage,
		StopLoss:   cfg.Order.StopLoss,
		TakeProfit: cfg.Order.TakeProfit,
		Strategy:   cfg.Order.Strategy,
	})
	if rep.Status != engine.StatusFilled {
		return fmt.Errorf("order rejected: %s", rep.Message)
	}

	fmt.Printf("Opened %s %s: $%.2f at %.2f (position %d, commission $%.2f)\n",
		cfg.Order.Side, cfg.Order.Symbol, cfg.Order.Amount, rep.Price, rep.PositionID, rep.Commission)
	return nil
}

func printResults(eng *engine.Engine, ec engine.Config) {
	acct := eng.Account()

	fmt.Printf("\nFinal Results:\n")
	fmt.Printf("  Balance: $%.2f\n", acct.Balance)
	fmt.Printf("  Equity: $%.2f\n", acct.Equity)
	fmt.Printf("  Realized P/L: $%.2f\n", acct.RealizedPnL)
	fmt.Printf("  Return: %.2f%%\n", (acct.Equity-ec.InitialBalance)/ec.InitialBalance*100)
	fmt.Println()
	fmt.Print(report.Summarize(eng.ClosedPositions()))
}
