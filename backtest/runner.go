// Package backtest drives the bar-by-bar simulation loop over one or many
// symbols, in a sequential mode with a shared capital ledger or a parallel
// mode with fully isolated per-symbol state.
package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"pumpfade/config"
	"pumpfade/events"
	"pumpfade/internal/id"
	"pumpfade/market"
	"pumpfade/portfolio"
	"pumpfade/risk"
	"pumpfade/sim"
	"pumpfade/strategy"
)

// Runner wires the detector, watchlist, position manager, risk manager and
// portfolio for a run.
type Runner struct {
	Config *config.Config
	Sink   events.Sink
}

// Result aggregates a completed run.
type Result struct {
	// RunID is a fresh ULID identifying this run in the journal.
	RunID string

	Trades    []*sim.Trade
	Snapshots []portfolio.Snapshot

	InitialCapital float64
	FinalCapital   float64
	Wins           int
	Losses         int
	MaxDrawdown    float64

	// Errors maps failed symbols to their failure (parallel mode). A failed
	// symbol's contribution is simply absent from the aggregate.
	Errors map[string]error
}

func (r *Runner) sink() events.Sink {
	if r.Sink == nil {
		return events.Nop{}
	}
	return r.Sink
}

func (r *Runner) costs() sim.Costs {
	return sim.Costs{
		TakerFee: r.Config.Costs.TakerFee,
		Slippage: r.Config.Costs.Slippage,
	}
}

func sortedSymbols(data map[string]*market.Series) []string {
	syms := make([]string, 0, len(data))
	for s := range data {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// RunSequential processes symbols one after another against a single shared
// portfolio, position manager and risk manager, so the capital gate is
// meaningful across the whole universe. Symbols are visited in lexical order
// and two runs over identical input produce identical results.
func (r *Runner) RunSequential(ctx context.Context, data map[string]*market.Series) (Result, error) {
	if r.Config == nil {
		return Result{}, fmt.Errorf("backtest: Config is required")
	}

	cfg := r.Config
	rm := risk.NewManager(cfg.Account.InitialCapital)
	pm := sim.NewPositionManager(r.costs(), cfg.Account.TradeSizeUSDT, rm, r.sink())
	pf := portfolio.New(cfg.Account.InitialCapital, cfg.Account.TradeSizeUSDT)

	for _, sym := range sortedSymbols(data) {
		if err := ctx.Err(); err != nil {
			break
		}
		// Fresh detector/watchlist per symbol; ledger and risk state carry
		// across the universe.
		r.runSymbol(ctx, data[sym], pm, pf, true)
	}

	return r.assemble(pf.Trades(), pf.Snapshots(), pf.CurrentCapital(), pf.MaxDrawdown(), nil), nil
}

type symbolResult struct {
	symbol string
	trades []*sim.Trade
	err    error
}

// RunParallel simulates every symbol on an independently constructed
// watchlist/position manager/risk manager, with no shared mutable state and
// no cross-symbol capital gate; results are concatenated once all workers
// finish. Capital-constrained results come from RunSequential — the two
// modes intentionally diverge on gating.
func (r *Runner) RunParallel(ctx context.Context, data map[string]*market.Series) (Result, error) {
	if r.Config == nil {
		return Result{}, fmt.Errorf("backtest: Config is required")
	}

	syms := sortedSymbols(data)

	workers := runtime.NumCPU()
	if workers > len(syms) {
		workers = len(syms)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan symbolResult, len(syms))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				results <- r.runSymbolIsolated(ctx, sym, data[sym])
			}
		}()
	}

	for _, sym := range syms {
		jobs <- sym
	}
	close(jobs)
	wg.Wait()
	close(results)

	bySymbol := make(map[string]symbolResult, len(syms))
	errs := make(map[string]error)
	for res := range results {
		bySymbol[res.symbol] = res
		if res.err != nil {
			errs[res.symbol] = res.err
		}
	}

	// Concatenate in symbol order so the aggregate is deterministic.
	var trades []*sim.Trade
	for _, sym := range syms {
		trades = append(trades, bySymbol[sym].trades...)
	}

	final := r.Config.Account.InitialCapital
	for _, t := range trades {
		final += t.PnLUSDT
	}

	if len(errs) == 0 {
		errs = nil
	}
	return r.assemble(trades, nil, final, 0, errs), nil
}

// runSymbolIsolated runs one symbol with worker-local state. A panic inside
// one symbol's loop is reported as that symbol's error and must not take
// down sibling workers.
func (r *Runner) runSymbolIsolated(ctx context.Context, sym string, s *market.Series) (res symbolResult) {
	res.symbol = sym

	defer func() {
		if p := recover(); p != nil {
			res.trades = nil
			res.err = fmt.Errorf("simulate %s: %v", sym, p)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	cfg := r.Config
	rm := risk.NewManager(cfg.Account.InitialCapital)
	pm := sim.NewPositionManager(r.costs(), cfg.Account.TradeSizeUSDT, rm, r.sink())
	pf := portfolio.New(cfg.Account.InitialCapital, cfg.Account.TradeSizeUSDT)

	r.runSymbol(ctx, s, pm, pf, false)
	res.trades = pf.Trades()
	return res
}

// runSymbol is the per-symbol bar loop. All effects of bar idx are fully
// applied before idx+1 is considered.
func (r *Runner) runSymbol(ctx context.Context, s *market.Series, pm *sim.PositionManager, pf *portfolio.Portfolio, gated bool) {
	cfg := r.Config

	det := strategy.NewDetector(cfg.Strategy.PumpWindow, cfg.Strategy.PumpThreshold, r.sink())
	wl := strategy.NewWatchlist(cfg.Strategy.WatchlistTimeout, cfg.Strategy.StallBars, cfg.Strategy.TPPercent, r.sink())

	params := strategy.EntryParams{
		TPPercent:    cfg.Strategy.TPPercent,
		SLMultiplier: cfg.Strategy.SLMultiplier,
		Slippage:     cfg.Costs.Slippage,
	}

	n := s.Len()
	for idx := cfg.Strategy.PumpWindow; idx < n; idx++ {
		// 1) pump detection; a symbol already tracked is not re-added
		if !wl.Has(s.Symbol) {
			if e := det.Scan(s, idx); e != nil {
				wl.Add(e)
			}
		}

		// 2) stagnation state machine
		ready := wl.Advance(s, idx)

		// 3) entries
		for _, e := range ready {
			if pm.HasPosition(e.Symbol) {
				continue
			}
			if gated && !pf.CanOpenPosition() {
				continue
			}
			if max := cfg.Account.MaxConcurrentTrades; max > 0 && pm.OpenCount() >= max {
				continue
			}

			t := strategy.EvaluateEntry(wl, e, s, idx, params)
			if t == nil {
				continue
			}

			resident, closed := pm.Open(t, s, idx)
			pf.AddTrade(t)
			if !resident {
				// Filled on the entry bar; realize it like any other close.
				pf.UpdateCapital(closed)
			}
		}

		// 4) TP/SL fills on this bar
		for _, t := range pm.CheckBar(s, idx) {
			// 5) capital only moves after the close is fully computed
			pf.UpdateCapital(t)
		}

		// 6) periodic equity snapshot
		if idx%cfg.Simulation.SnapshotEvery == 0 {
			c := s.At(idx)
			pf.RecordSnapshot(c.Time, idx, map[string]float64{s.Symbol: c.Close})
		}
	}

	// Forced end-of-data closure: no symbol ends a run with an open position.
	if n > 0 {
		for _, t := range pm.ForceCloseAll(s, n-1) {
			pf.UpdateCapital(t)
		}
	}

	_ = ctx // cancellation is checked between symbols; the bar loop is pure computation
}

func (r *Runner) assemble(trades []*sim.Trade, snaps []portfolio.Snapshot, finalCapital, maxDD float64, errs map[string]error) Result {
	res := Result{
		RunID:          id.New(),
		Trades:         trades,
		Snapshots:      snaps,
		InitialCapital: r.Config.Account.InitialCapital,
		FinalCapital:   finalCapital,
		MaxDrawdown:    maxDD,
		Errors:         errs,
	}
	for _, t := range trades {
		if !t.Closed {
			continue
		}
		if t.PnLUSDT > 0 {
			res.Wins++
		} else {
			res.Losses++
		}
	}
	return res
}
