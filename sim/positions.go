// Package sim owns open positions and reproduces exchange-like fill
// semantics deterministically: same-bar immediate fills, SL-before-TP
// priority, and forced end-of-data closure.
package sim

import (
	"sort"

	"pumpfade/events"
	"pumpfade/market"
	"pumpfade/risk"
)

// Costs are the fee and slippage assumptions applied to every fill.
type Costs struct {
	TakerFee float64
	Slippage float64
}

// PositionManager simulates order fills for one run (or one parallel
// worker). It owns every resident open position and sizes entries through
// the shared risk manager.
type PositionManager struct {
	costs    Costs
	baseSize float64
	risk     *risk.Manager
	sink     events.Sink

	positions map[string]*Trade
}

func NewPositionManager(costs Costs, baseTradeSize float64, rm *risk.Manager, sink events.Sink) *PositionManager {
	if sink == nil {
		sink = events.Nop{}
	}
	return &PositionManager{
		costs:     costs,
		baseSize:  baseTradeSize,
		risk:      rm,
		sink:      sink,
		positions: make(map[string]*Trade),
	}
}

// PositionSize returns the risk-adjusted size for a new trade on symbol.
func (pm *PositionManager) PositionSize(symbol string) float64 {
	return pm.baseSize * pm.risk.GetPositionMultiplier(symbol)
}

// HasPosition reports whether symbol has a resident open position.
func (pm *PositionManager) HasPosition(symbol string) bool {
	_, ok := pm.positions[symbol]
	return ok
}

// OpenCount returns the number of resident open positions.
func (pm *PositionManager) OpenCount() int { return len(pm.positions) }

// Open admits a pending trade on its entry bar. The entry bar's extremes are
// checked first: TP or SL may already be breached within the entry candle,
// in which case the trade closes immediately and never becomes resident.
// SL is checked before TP, a conservative fill priority when both trigger.
//
// Returns whether the trade became resident; if not, the returned trade is
// the same trade, already closed.
func (pm *PositionManager) Open(t *Trade, s *market.Series, idx int) (resident bool, closed *Trade) {
	c := s.At(idx)

	t.PositionSize = pm.PositionSize(t.Symbol)
	t.EntryFee = t.PositionSize * pm.costs.TakerFee

	if c.High >= t.SLPrice {
		exit := t.SLPrice * (1 + pm.costs.Slippage)
		pm.close(t, s, idx, exit, ReasonStopLoss)
		return false, t
	}

	if c.Low <= t.TPPrice {
		exit := t.TPPrice * (1 + pm.costs.Slippage)
		pm.close(t, s, idx, exit, ReasonTakeProfit)
		return false, t
	}

	pm.positions[t.Symbol] = t
	pm.sink.PositionOpened(t.Symbol, t.ID, idx, t.EntryPrice)
	return true, nil
}

// CheckBar applies the SL-before-TP fill check to every resident position of
// this series' symbol against the bar's extremes. Closed trades are removed
// from the resident set and returned.
func (pm *PositionManager) CheckBar(s *market.Series, idx int) []*Trade {
	if len(pm.positions) == 0 {
		return nil
	}

	c := s.At(idx)

	// Snapshot keys; close mutates the map mid-iteration.
	syms := make([]string, 0, len(pm.positions))
	for sym := range pm.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	var out []*Trade
	for _, sym := range syms {
		t := pm.positions[sym]
		if t.Symbol != s.Symbol {
			continue
		}

		if c.High >= t.SLPrice {
			exit := t.SLPrice * (1 + pm.costs.Slippage)
			pm.close(t, s, idx, exit, ReasonStopLoss)
			out = append(out, t)
			continue
		}

		if c.Low <= t.TPPrice {
			exit := t.TPPrice * (1 + pm.costs.Slippage)
			pm.close(t, s, idx, exit, ReasonTakeProfit)
			out = append(out, t)
		}
	}
	return out
}

// ForceCloseAll closes every resident position of this series' symbol at the
// bar's close adjusted by slippage, reason "eod". After a complete run no
// symbol may end with an open position.
func (pm *PositionManager) ForceCloseAll(s *market.Series, idx int) []*Trade {
	if len(pm.positions) == 0 {
		return nil
	}

	c := s.At(idx)

	syms := make([]string, 0, len(pm.positions))
	for sym := range pm.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	var out []*Trade
	for _, sym := range syms {
		t := pm.positions[sym]
		if t.Symbol != s.Symbol {
			continue
		}
		exit := c.Close * (1 + pm.costs.Slippage)
		pm.close(t, s, idx, exit, ReasonEndOfData)
		out = append(out, t)
	}
	return out
}

// close realizes the trade. The slippage_total term is deliberate: the sum
// of the entry and exit slippage rates is subtracted from PnL as if it were
// a currency amount. Historical runs depend on it; pinned by tests.
func (pm *PositionManager) close(t *Trade, s *market.Series, idx int, exitPrice float64, reason string) {
	c := s.At(idx)

	t.ExitTime = c.Time
	t.ExitIdx = idx
	t.ExitPrice = exitPrice
	t.ExitReason = reason
	t.SlippageExit = pm.costs.Slippage

	if t.PositionSize == 0 {
		t.PositionSize = pm.baseSize
	}
	t.EntryFee = t.PositionSize * pm.costs.TakerFee
	t.ExitFee = t.PositionSize * pm.costs.TakerFee
	t.FeesTotal = t.EntryFee + t.ExitFee
	t.SlippageTotal = t.SlippageEntry + t.SlippageExit

	priceDiff := t.EntryPrice - t.ExitPrice
	t.PnLUSDT = (priceDiff/t.EntryPrice)*t.PositionSize - t.FeesTotal - t.SlippageTotal
	t.PnLPercent = t.PnLUSDT / t.PositionSize * 100

	t.DurationBars = t.ExitIdx - t.EntryIdx

	// MFE/MAE over the candle span [EntryIdx, ExitIdx].
	minLow := c.Low
	maxHigh := c.High
	for i := t.EntryIdx; i <= t.ExitIdx; i++ {
		b := s.At(i)
		if b.Low < minLow {
			minLow = b.Low
		}
		if b.High > maxHigh {
			maxHigh = b.High
		}
	}
	t.MFE = (minLow - t.EntryPrice) * 100 / t.EntryPrice
	t.MAE = (maxHigh - t.EntryPrice) * 100 / t.EntryPrice

	t.Closed = true
	delete(pm.positions, t.Symbol)

	pm.risk.OnTradeResult(t.PnLUSDT, t.PnLPercent, t.Symbol)
	pm.sink.PositionClosed(t.Symbol, t.ID, idx, exitPrice, reason)
}
