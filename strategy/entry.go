package strategy

import (
	"fmt"

	"pumpfade/market"
	"pumpfade/sim"
)

// EntryParams are the fill assumptions an evaluated entry is built with.
type EntryParams struct {
	TPPercent    float64
	SLMultiplier float64
	Slippage     float64
}

// EvaluateEntry turns a ready watchlist entry into a pending short trade.
//
// The TP level is recomputed from the current local high; if the bar's close
// already sits at or under it the entry is rejected and the watchlist entry
// blocked (a fresh local high re-arms it). On success the watchlist entry is
// consumed and the trade is returned in pending state: the caller still has
// to admit it through the position manager, which may fill it on the entry
// bar.
func EvaluateEntry(w *Watchlist, e *Entry, s *market.Series, idx int, p EntryParams) *sim.Trade {
	c := s.At(idx)

	tp := e.LocalHigh * (1 - p.TPPercent)
	if c.Close <= tp {
		e.Blocked = true
		return nil
	}

	entryPrice := c.Close * (1 + p.Slippage)
	slPrice := entryPrice * p.SLMultiplier

	// Deterministic id: at most one trade can enter per (symbol, bar), and
	// identical runs must produce identical trade lists.
	t := &sim.Trade{
		Symbol:        e.Symbol,
		ID:            fmt.Sprintf("%s_%d", e.Symbol, idx),
		EntryTime:     c.Time,
		EntryIdx:      idx,
		EntryPrice:    entryPrice,
		SlippageEntry: p.Slippage,
		LocalHigh:     e.LocalHigh,
		PumpStartTime: s.At(e.PumpStartIdx).Time,
		PumpEndTime:   s.At(e.PumpEndIdx).Time,
		PumpPercent:   e.PumpPercent,
		TPPrice:       tp,
		SLPrice:       slPrice,
	}

	w.Remove(e.Symbol)
	return t
}
