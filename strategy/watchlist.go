package strategy

import (
	"sort"

	"pumpfade/events"
	"pumpfade/market"
)

// Entry is one symbol being tracked for a stagnation entry. LocalHigh is
// non-decreasing over the entry's lifetime.
type Entry struct {
	Symbol            string
	PumpStartIdx      int
	PumpEndIdx        int
	LocalHigh         float64
	LocalHighIdx      int
	PumpPriceStart    float64
	PumpPercent       float64 // percent, not fraction
	AddedIdx          int
	LastHighUpdateIdx int
	StallCounter      int

	// Blocked marks an entry whose stall trigger fired while price was
	// already below the take-profit level. It stays on the watchlist but is
	// not offered again until a new local high clears the flag.
	Blocked bool
}

// Watchlist tracks at most one active entry per symbol.
type Watchlist struct {
	Timeout   int
	StallBars int
	TPPercent float64

	sink    events.Sink
	entries map[string]*Entry
}

func NewWatchlist(timeout, stallBars int, tpPercent float64, sink events.Sink) *Watchlist {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Watchlist{
		Timeout:   timeout,
		StallBars: stallBars,
		TPPercent: tpPercent,
		sink:      sink,
		entries:   make(map[string]*Entry),
	}
}

// Add tracks a new candidate. A symbol already on the watchlist is not
// replaced; Add reports whether the candidate was accepted.
func (w *Watchlist) Add(e *Entry) bool {
	if _, ok := w.entries[e.Symbol]; ok {
		return false
	}
	w.entries[e.Symbol] = e
	return true
}

// Has reports whether symbol is currently tracked.
func (w *Watchlist) Has(symbol string) bool {
	_, ok := w.entries[symbol]
	return ok
}

// Remove drops the symbol's entry and reports whether one existed.
func (w *Watchlist) Remove(symbol string) bool {
	_, ok := w.entries[symbol]
	delete(w.entries, symbol)
	return ok
}

// Len returns the number of tracked entries.
func (w *Watchlist) Len() int { return len(w.entries) }

// Advance processes one bar for every tracked entry of this series' symbol
// universe and returns the entries that became ready this bar:
//
//  1. entries past Timeout are removed
//  2. a new high updates LocalHigh, resets StallCounter and clears Blocked
//  3. otherwise StallCounter increments
//  4. once StallCounter reaches StallBars, the entry is ready — unless the
//     close already sits at or under the TP level, in which case it is
//     blocked instead of removed so a later breakout can re-arm it
func (w *Watchlist) Advance(s *market.Series, idx int) []*Entry {
	if len(w.entries) == 0 {
		return nil
	}

	c := s.At(idx)

	syms := make([]string, 0, len(w.entries))
	for sym := range w.entries {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	var ready []*Entry
	for _, sym := range syms {
		e := w.entries[sym]
		if e.Symbol != s.Symbol {
			continue
		}

		if idx-e.AddedIdx >= w.Timeout {
			delete(w.entries, sym)
			continue
		}

		// The add bar set LocalHigh from the detection window; stalling
		// starts counting on the next bar.
		if idx <= e.AddedIdx {
			continue
		}

		if c.High > e.LocalHigh {
			e.LocalHigh = c.High
			e.LocalHighIdx = idx
			e.LastHighUpdateIdx = idx
			e.StallCounter = 0
			e.Blocked = false
		} else {
			e.StallCounter++
		}

		w.sink.WatchlistUpdated(sym, idx, e.LocalHigh, e.StallCounter)

		if e.StallCounter >= w.StallBars && !e.Blocked {
			tp := e.LocalHigh * (1 - w.TPPercent)
			if c.Close <= tp {
				// Entry already invalidated at this level.
				e.Blocked = true
				continue
			}
			ready = append(ready, e)
		}
	}
	return ready
}
