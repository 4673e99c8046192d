package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"pumpfade/backtest"
	"pumpfade/config"
	"pumpfade/journal"
	"pumpfade/market"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the pump-then-stagnate backtest over a candle directory",
	Long: `Backtest loads one CSV of candles per symbol from a directory and runs
the simulation over the whole universe.

Sequential mode (default) shares one capital ledger across all symbols, so
the capital gate applies universe-wide. Parallel mode simulates each symbol
in isolation and concatenates the results.

Example:
  pumpfade backtest --data ./candles --config strategy.yaml --db results.sqlite`,
	RunE: runBacktest,
}

var (
	btDataDir    string
	btConfigPath string
	btDBPath     string
	btTradesCSV  string
	btEquityCSV  string
	btParallel   bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btDataDir, "data", "d", "", "directory of per-symbol candle CSVs (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "strategy config file (YAML or JSON, defaults otherwise)")
	backtestCmd.Flags().StringVar(&btDBPath, "db", "", "write results to this SQLite database")
	backtestCmd.Flags().StringVar(&btTradesCSV, "trades-csv", "", "write closed trades to this CSV file")
	backtestCmd.Flags().StringVar(&btEquityCSV, "equity-csv", "", "write the equity curve to this CSV file")
	backtestCmd.Flags().BoolVarP(&btParallel, "parallel", "p", false, "simulate symbols in parallel (no shared capital gate)")

	backtestCmd.MarkFlagRequired("data")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if btConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(btConfigPath)
		if err != nil {
			return err
		}
	}
	cfg.Simulation.Parallel = cfg.Simulation.Parallel || btParallel

	data, err := market.LoadDir(btDataDir)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &backtest.Runner{Config: cfg}

	started := time.Now().UTC()
	var res backtest.Result
	if cfg.Simulation.Parallel {
		res, err = runner.RunParallel(ctx, data)
	} else {
		res, err = runner.RunSequential(ctx, data)
	}
	if err != nil {
		return err
	}
	finished := time.Now().UTC()

	if err := writeJournal(cfg, res, started, finished); err != nil {
		return err
	}

	fmt.Printf("symbols: %d  trades: %d  wins: %d  losses: %d\n",
		len(data), len(res.Trades), res.Wins, res.Losses)
	fmt.Printf("capital: %.2f -> %.2f  max drawdown: %.2f%%\n",
		res.InitialCapital, res.FinalCapital, res.MaxDrawdown)
	for sym, serr := range res.Errors {
		fmt.Fprintf(os.Stderr, "symbol %s failed: %v\n", sym, serr)
	}
	return nil
}

func writeJournal(cfg *config.Config, res backtest.Result, started, finished time.Time) error {
	var j journal.Journal
	var err error

	switch {
	case btDBPath != "":
		j, err = journal.NewSQLite(btDBPath)
	case btTradesCSV != "" && btEquityCSV != "":
		j, err = journal.NewCSV(btTradesCSV, btEquityCSV)
	case cfg.Journal.Type == "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	case cfg.Journal.Type == "csv":
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	if sj, ok := j.(*journal.SQLiteJournal); ok {
		err := sj.RecordRun(journal.RunRecord{
			RunID:          res.RunID,
			Started:        started,
			Finished:       finished,
			InitialCapital: res.InitialCapital,
			FinalCapital:   res.FinalCapital,
			Trades:         len(res.Trades),
			Wins:           res.Wins,
			Losses:         res.Losses,
			MaxDrawdown:    res.MaxDrawdown,
		})
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	for _, t := range res.Trades {
		if !t.Closed {
			continue
		}
		if err := j.RecordTrade(journal.FromTrade(t)); err != nil {
			return fmt.Errorf("record trade: %w", err)
		}
	}
	for _, s := range res.Snapshots {
		if err := j.RecordEquity(journal.FromSnapshot(s)); err != nil {
			return fmt.Errorf("record equity: %w", err)
		}
	}
	return nil
}
