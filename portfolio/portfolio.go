// Package portfolio is the capital ledger: realized capital, equity curve
// and drawdown tracking for one simulation run.
package portfolio

import (
	"time"

	"pumpfade/sim"
)

// Snapshot is one point of the equity curve.
type Snapshot struct {
	Time               time.Time
	Idx                int
	Equity             float64
	Cash               float64
	OpenPositionsValue float64
	OpenPositionsCount int
	Drawdown           float64 // percent below peak
}

// Portfolio tracks capital across all trades of a run. It has exactly one
// mutator (the orchestrator) and needs no locking.
type Portfolio struct {
	initialCapital float64
	currentCapital float64
	peakCapital    float64
	tradeSize      float64

	trades    []*sim.Trade
	snapshots []Snapshot
}

func New(initialCapital, tradeSize float64) *Portfolio {
	return &Portfolio{
		initialCapital: initialCapital,
		currentCapital: initialCapital,
		peakCapital:    initialCapital,
		tradeSize:      tradeSize,
	}
}

// CanOpenPosition reports whether capital allows one more base-size trade.
// Capital is not reserved per concurrently open position.
func (p *Portfolio) CanOpenPosition() bool {
	return p.currentCapital >= p.tradeSize
}

// AddTrade registers a trade with the ledger. Closed trades contribute to
// equity once UpdateCapital is called for them.
func (p *Portfolio) AddTrade(t *sim.Trade) {
	p.trades = append(p.trades, t)
}

// UpdateCapital applies a closed trade's realized PnL. Call exactly once per
// closed trade, after its close is fully computed.
func (p *Portfolio) UpdateCapital(t *sim.Trade) {
	p.currentCapital += t.PnLUSDT
	if p.currentCapital > p.peakCapital {
		p.peakCapital = p.currentCapital
	}
}

// TotalEquity is cash plus the unrealized value of open positions, marked at
// the supplied prices. A position with no known price contributes its last
// computed PnL (zero while untouched).
func (p *Portfolio) TotalEquity(prices map[string]float64) float64 {
	total := p.currentCapital
	for _, t := range p.trades {
		if t.Closed {
			continue
		}
		if px, ok := prices[t.Symbol]; ok {
			total += (t.EntryPrice - px) / t.EntryPrice * p.tradeSize
		} else {
			total += t.PnLUSDT
		}
	}
	return total
}

// RecordSnapshot appends an equity-curve point and ratchets the peak.
func (p *Portfolio) RecordSnapshot(ts time.Time, idx int, prices map[string]float64) {
	equity := p.TotalEquity(prices)

	open := 0
	for _, t := range p.trades {
		if !t.Closed {
			open++
		}
	}

	dd := 0.0
	if p.peakCapital > 0 {
		dd = (p.peakCapital - equity) / p.peakCapital * 100
	}

	p.snapshots = append(p.snapshots, Snapshot{
		Time:               ts,
		Idx:                idx,
		Equity:             equity,
		Cash:               p.currentCapital,
		OpenPositionsValue: float64(open) * p.tradeSize,
		OpenPositionsCount: open,
		Drawdown:           dd,
	})

	if equity > p.peakCapital {
		p.peakCapital = equity
	}
}

func (p *Portfolio) InitialCapital() float64 { return p.initialCapital }
func (p *Portfolio) CurrentCapital() float64 { return p.currentCapital }
func (p *Portfolio) PeakCapital() float64    { return p.peakCapital }

// Trades returns every trade registered with the ledger, in entry order.
func (p *Portfolio) Trades() []*sim.Trade { return p.trades }

// Snapshots returns the ordered equity curve.
func (p *Portfolio) Snapshots() []Snapshot { return p.snapshots }

// MaxDrawdown returns the worst snapshot drawdown, in percent.
func (p *Portfolio) MaxDrawdown() float64 {
	worst := 0.0
	for _, s := range p.snapshots {
		if s.Drawdown > worst {
			worst = s.Drawdown
		}
	}
	return worst
}
